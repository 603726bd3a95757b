// Package writer contains the PostingStore interface and its Postgres implementation
package writer

import (
	"context"
	"time"

	"github.com/stacklok/posting-sync/internal/provider"
)

//go:generate mockgen -destination=mocks/mock_posting_store.go -package=mocks -source=writer.go PostingStore

// PostingStore persists postings keyed by their provider external id.
type PostingStore interface {
	// ListExternalIDs returns the ids of non-stale postings recorded for keyword
	ListExternalIDs(ctx context.Context, keyword string) ([]string, error)

	// InsertNew inserts postings whose external id is not yet stored and
	// returns only the postings that were actually inserted
	InsertNew(ctx context.Context, postings []provider.Posting, seenAt time.Time) ([]provider.Posting, error)

	// MarkSeen records that the postings were returned again. Stale postings become live.
	MarkSeen(ctx context.Context, externalIDs []string, seenAt time.Time) (int64, error)

	// MarkStale flags postings the provider no longer returns. Postings seen at
	// or after seenBefore are left alone. Rows are never deleted.
	MarkStale(ctx context.Context, externalIDs []string, seenBefore time.Time) (int64, error)
}
