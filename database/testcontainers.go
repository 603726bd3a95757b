package database

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// TestPostgresImage matches the server version the migrations target
const TestPostgresImage = "postgres:16-alpine"

// quietLogger drops testcontainers' progress output
type quietLogger struct{}

func (quietLogger) Printf(string, ...any) {}

// SetupTestDBContainer starts an empty Postgres container and returns a
// connection string for it. The container is terminated by t.Cleanup.
// Tests calling it are skipped under -short.
func SetupTestDBContainer(t *testing.T, ctx context.Context) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Postgres container test in short mode")
	}

	container, err := postgres.Run(ctx, TestPostgresImage,
		postgres.WithDatabase("posting_sync"),
		postgres.WithUsername("posting_sync"),
		postgres.WithPassword("posting_sync"),
		postgres.BasicWaitStrategies(),
		tc.WithLogger(quietLogger{}),
	)
	t.Cleanup(func() { tc.CleanupContainer(t, container) })
	require.NoError(t, err, "failed to start Postgres container")

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return connStr
}

// SetupTestDB returns a pool on a fresh, fully migrated database. The schema
// is migrated up, down and up again so a broken down migration fails here.
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	ctx := context.Background()
	connStr := SetupTestDBContainer(t, ctx)

	for _, step := range []func(string, uint) error{MigrateUp, MigrateDown, MigrateUp} {
		require.NoError(t, step(connStr, 0))
	}

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}
