// Package storage creates the storage-backed components of the service.
// All stores share one Postgres pool. Redis is optional and backs the
// location cache and, when selected, the lock backend.
package storage

import (
	"context"

	"github.com/stacklok/posting-sync/internal/geo"
	"github.com/stacklok/posting-sync/internal/lock"
	"github.com/stacklok/posting-sync/internal/notification"
	"github.com/stacklok/posting-sync/internal/sync/state"
	"github.com/stacklok/posting-sync/internal/sync/writer"
	"github.com/stacklok/posting-sync/internal/watchlist"
)

//go:generate mockgen -destination=mocks/mock_factory.go -package=mocks -source=factory.go Factory,NotificationStore

// NotificationStore persists notification chunks and reads them back
type NotificationStore interface {
	notification.ChunkWriter
	ListForRecipient(ctx context.Context, recipientID string, limit int) ([]notification.Notification, error)
}

// Factory creates storage-dependent components as a family and owns the
// connections they share.
type Factory interface {
	// CreateStateService creates the per-keyword sync status store
	CreateStateService(ctx context.Context) (state.KeywordStateService, error)

	// CreatePostingStore creates the posting store the synchronizer writes to
	CreatePostingStore(ctx context.Context) (writer.PostingStore, error)

	// CreateMembershipSource creates the watchlist membership reader
	CreateMembershipSource(ctx context.Context) (watchlist.MembershipSource, error)

	// CreateNotificationStore creates the notification store
	CreateNotificationStore(ctx context.Context) (NotificationStore, error)

	// CreateLocationSource creates the location record reader
	CreateLocationSource(ctx context.Context) (geo.LocationSource, error)

	// CreateLocationCache creates the cache filled by the geo warmer
	CreateLocationCache(ctx context.Context) (geo.Cache, error)

	// CreateLocker creates the configured distributed lock backend
	CreateLocker(ctx context.Context) (lock.Locker, error)

	// Ping checks that the database answers
	Ping(ctx context.Context) error

	// Cleanup releases the pool and the Redis client.
	// Should be called when the application shuts down.
	Cleanup()
}
