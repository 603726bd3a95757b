package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/stacklok/posting-sync/internal/db/pgtypes"
	"github.com/stacklok/posting-sync/internal/db/sqlc"
)

// DefaultPollInterval is how often a blocked Acquire retries
const DefaultPollInterval = 100 * time.Millisecond

// PostgresLocker stores leases in the distributed_locks table.
// Expiry is evaluated with the database clock.
type PostgresLocker struct {
	db           sqlc.DBTX
	pollInterval time.Duration
}

// PostgresOption configures a PostgresLocker
type PostgresOption func(*PostgresLocker)

// WithPostgresPollInterval overrides DefaultPollInterval
func WithPostgresPollInterval(d time.Duration) PostgresOption {
	return func(l *PostgresLocker) {
		l.pollInterval = d
	}
}

// NewPostgresLocker creates a locker on db, usually a *pgxpool.Pool
func NewPostgresLocker(db sqlc.DBTX, opts ...PostgresOption) *PostgresLocker {
	l := &PostgresLocker{db: db, pollInterval: DefaultPollInterval}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Backend implements Locker
func (*PostgresLocker) Backend() string {
	return "postgres"
}

// Acquire implements Locker
func (l *PostgresLocker) Acquire(ctx context.Context, key string, wait, lease time.Duration) (Lease, error) {
	querier := sqlc.New(l.db)
	holder := uuid.NewString()

	err := pollUntil(ctx, wait, l.pollInterval, func(ctx context.Context) (bool, error) {
		_, err := querier.AcquireLock(ctx, sqlc.AcquireLockParams{
			LockKey: key,
			Holder:  holder,
			Lease:   pgtypes.NewInterval(lease),
		})
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("failed to upsert lock row: %w", err)
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	return &postgresLease{querier: querier, key: key, holder: holder}, nil
}

type postgresLease struct {
	querier *sqlc.Queries
	key     string
	holder  string
}

func (p *postgresLease) Release(ctx context.Context) error {
	n, err := p.querier.ReleaseLock(ctx, sqlc.ReleaseLockParams{LockKey: p.key, Holder: p.holder})
	if err != nil {
		return fmt.Errorf("failed to delete lock row: %w", err)
	}
	if n == 0 {
		return ErrLeaseLost
	}
	return nil
}
