package app

import (
	"github.com/stacklok/posting-sync/internal/app/storage"
	"github.com/stacklok/posting-sync/internal/geo"
	"github.com/stacklok/posting-sync/internal/push"
	pkgsync "github.com/stacklok/posting-sync/internal/sync"
	"github.com/stacklok/posting-sync/internal/sync/coordinator"
	"github.com/stacklok/posting-sync/internal/sync/state"
)

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// SyncCoordinator schedules sync cycles
	SyncCoordinator coordinator.Coordinator

	// Synchronizer runs one cycle over the configured keywords
	Synchronizer pkgsync.Synchronizer

	// States stores the per-keyword sync status
	States state.KeywordStateService

	// PushRegistry holds the open event streams
	PushRegistry *push.Registry

	// GeoWarmer fills the location cache. Nil when geo is disabled.
	GeoWarmer *geo.Warmer

	// Storage owns the database pool and the Redis client
	Storage storage.Factory
}
