package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/stacklok/posting-sync/internal/config"
	"github.com/stacklok/posting-sync/internal/db"
	"github.com/stacklok/posting-sync/internal/geo"
	"github.com/stacklok/posting-sync/internal/lock"
	"github.com/stacklok/posting-sync/internal/notification"
	"github.com/stacklok/posting-sync/internal/sync/state"
	"github.com/stacklok/posting-sync/internal/sync/writer"
	"github.com/stacklok/posting-sync/internal/watchlist"
)

// DatabaseFactory creates Postgres-backed storage components
type DatabaseFactory struct {
	config *config.Config
	pool   *pgxpool.Pool
	redis  *redis.Client
}

var _ Factory = (*DatabaseFactory)(nil)

// NewDatabaseFactory connects to Postgres and, when configured, to Redis
func NewDatabaseFactory(ctx context.Context, cfg *config.Config) (*DatabaseFactory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Database == nil {
		return nil, fmt.Errorf("database configuration is required")
	}

	slog.Info("Creating database-backed storage factory")

	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection pool: %w", err)
	}

	factory := &DatabaseFactory{
		config: cfg,
		pool:   pool,
	}

	if cfg.Redis != nil {
		factory.redis, err = db.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to create redis client: %w", err)
		}
	}

	return factory, nil
}

// Pool returns the shared connection pool
func (d *DatabaseFactory) Pool() *pgxpool.Pool {
	return d.pool
}

// CreateStateService implements Factory
func (d *DatabaseFactory) CreateStateService(_ context.Context) (state.KeywordStateService, error) {
	slog.Debug("Creating database-backed state service")
	return state.NewDBStateService(d.pool), nil
}

// CreatePostingStore implements Factory
func (d *DatabaseFactory) CreatePostingStore(_ context.Context) (writer.PostingStore, error) {
	slog.Debug("Creating database-backed posting store")
	return writer.NewDBPostingStore(d.pool)
}

// CreateMembershipSource implements Factory
func (d *DatabaseFactory) CreateMembershipSource(_ context.Context) (watchlist.MembershipSource, error) {
	return watchlist.NewDBMembershipSource(d.pool), nil
}

// CreateNotificationStore implements Factory
func (d *DatabaseFactory) CreateNotificationStore(_ context.Context) (NotificationStore, error) {
	slog.Debug("Creating database-backed notification store")
	store, err := notification.NewStore(d.pool)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// CreateLocationSource implements Factory
func (d *DatabaseFactory) CreateLocationSource(_ context.Context) (geo.LocationSource, error) {
	return geo.NewDBLocationSource(d.pool), nil
}

// CreateLocationCache implements Factory. Without Redis the cache lives in
// process memory and only serves this instance.
func (d *DatabaseFactory) CreateLocationCache(_ context.Context) (geo.Cache, error) {
	if d.redis == nil {
		slog.Warn("Redis is not configured, location cache is kept in memory")
		return geo.NewMemoryCache(), nil
	}
	return geo.NewRedisCache(d.redis), nil
}

// CreateLocker implements Factory
func (d *DatabaseFactory) CreateLocker(_ context.Context) (lock.Locker, error) {
	backend := d.config.Lock.GetBackend()
	slog.Info("Creating lock backend", "backend", backend)

	switch backend {
	case config.LockBackendPostgres:
		return lock.NewPostgresLocker(d.pool), nil
	case config.LockBackendRedis:
		if d.redis == nil {
			return nil, fmt.Errorf("redis configuration is required for the %s lock backend", backend)
		}
		var opts []lock.RedisOption
		if d.config.Lock.KeyPrefix != "" {
			opts = append(opts, lock.WithRedisKeyPrefix(d.config.Lock.KeyPrefix))
		}
		return lock.NewRedisLocker(d.redis, opts...), nil
	case config.LockBackendFile:
		return lock.NewFileLocker(d.config.Lock.GetDir()), nil
	default:
		return nil, fmt.Errorf("unknown lock backend: %s", backend)
	}
}

// Ping implements Factory
func (d *DatabaseFactory) Ping(ctx context.Context) error {
	return d.pool.Ping(ctx)
}

// Cleanup implements Factory
func (d *DatabaseFactory) Cleanup() {
	if d.redis != nil {
		if err := d.redis.Close(); err != nil {
			slog.Warn("Failed to close redis client", "error", err)
		}
	}
	if d.pool != nil {
		slog.Info("Closing database connection pool")
		d.pool.Close()
	}
}
