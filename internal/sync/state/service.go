// Package state contains logic for managing the per-keyword sync state which the service persists.
package state

import (
	"context"
	"errors"

	"github.com/stacklok/posting-sync/internal/status"
)

// ErrKeywordNotFound is returned when a keyword has no recorded status.
var ErrKeywordNotFound = errors.New("keyword not found")

// KeywordStateService provides methods for inspecting and recording the sync state of keywords.
//
//go:generate mockgen -destination=mocks/mock_keyword_state_service.go -package=mocks github.com/stacklok/posting-sync/internal/sync/state KeywordStateService
type KeywordStateService interface {
	// Initialize records a Failed status for every configured keyword that has
	// none yet, and forgets keywords that are no longer configured.
	Initialize(ctx context.Context, keywords []string) error
	// ListSyncStatuses lists all statuses ordered by keyword.
	ListSyncStatuses(ctx context.Context) ([]*status.KeywordSyncStatus, error)
	// GetSyncStatus returns the status of a keyword or ErrKeywordNotFound.
	GetSyncStatus(ctx context.Context, keyword string) (*status.KeywordSyncStatus, error)
	// UpdateSyncStatus overwrites the status of a keyword.
	UpdateSyncStatus(ctx context.Context, syncStatus *status.KeywordSyncStatus) error
	// UpdateStatusAtomically loads the current status (a zero status for an
	// unknown keyword), applies testAndUpdateFn and writes the result if the
	// function reports a change. The read and write happen in one transaction.
	UpdateStatusAtomically(
		ctx context.Context,
		keyword string,
		testAndUpdateFn func(syncStatus *status.KeywordSyncStatus) bool,
	) (bool, error)
}
