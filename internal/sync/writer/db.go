package writer

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stacklok/posting-sync/internal/db/sqlc"
	"github.com/stacklok/posting-sync/internal/provider"
)

var tempPostingColumns = []string{
	"external_id", "keyword", "company_id", "title", "url", "location_id",
	"valid_from", "valid_until", "seen_at",
}

// dbPostingStore is a PostingStore that persists postings to Postgres
type dbPostingStore struct {
	pool *pgxpool.Pool
}

// NewDBPostingStore creates a new dbPostingStore with the given connection pool.
// The caller is responsible for closing the pool when done.
func NewDBPostingStore(pool *pgxpool.Pool) (PostingStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgx pool is required")
	}
	return &dbPostingStore{pool: pool}, nil
}

func (d *dbPostingStore) ListExternalIDs(ctx context.Context, keyword string) ([]string, error) {
	ids, err := sqlc.New(d.pool).ListPostingExternalIDsByKeyword(ctx, keyword)
	if err != nil {
		return nil, fmt.Errorf("failed to list postings for keyword %s: %w", keyword, err)
	}
	return ids, nil
}

// InsertNew copies the postings into a temp table and inserts them with
// ON CONFLICT DO NOTHING inside one transaction. The temp table is dropped on commit.
func (d *dbPostingStore) InsertNew(
	ctx context.Context,
	postings []provider.Posting,
	seenAt time.Time,
) ([]provider.Posting, error) {
	if len(postings) == 0 {
		return nil, nil
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	querier := sqlc.New(tx)
	if err := querier.CreateTempPostingTable(ctx); err != nil {
		return nil, fmt.Errorf("failed to create temp posting table: %w", err)
	}

	rows := make([][]any, 0, len(postings))
	byID := make(map[string]provider.Posting, len(postings))
	for _, p := range postings {
		rows = append(rows, []any{
			p.ExternalID, p.Keyword, p.CompanyID, p.Title, p.URL, p.LocationID,
			p.ValidFrom, p.ValidUntil, seenAt,
		})
		byID[p.ExternalID] = p
	}

	copyCount, err := tx.CopyFrom(ctx, pgx.Identifier{"temp_posting"}, tempPostingColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return nil, fmt.Errorf("failed to copy postings to temp table: %w", err)
	}
	if int(copyCount) != len(postings) {
		return nil, fmt.Errorf("copy count mismatch: expected %d, got %d", len(postings), copyCount)
	}

	insertedIDs, err := querier.InsertPostingsFromTemp(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to insert postings from temp table: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	inserted := make([]provider.Posting, 0, len(insertedIDs))
	for _, id := range insertedIDs {
		if p, ok := byID[id]; ok {
			inserted = append(inserted, p)
		}
	}
	return inserted, nil
}

func (d *dbPostingStore) MarkSeen(ctx context.Context, externalIDs []string, seenAt time.Time) (int64, error) {
	if len(externalIDs) == 0 {
		return 0, nil
	}
	n, err := sqlc.New(d.pool).MarkPostingsSeen(ctx, sqlc.MarkPostingsSeenParams{
		SeenAt:      seenAt,
		ExternalIds: externalIDs,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to mark postings seen: %w", err)
	}
	return n, nil
}

func (d *dbPostingStore) MarkStale(ctx context.Context, externalIDs []string, seenBefore time.Time) (int64, error) {
	if len(externalIDs) == 0 {
		return 0, nil
	}
	n, err := sqlc.New(d.pool).MarkPostingsStale(ctx, sqlc.MarkPostingsStaleParams{
		ExternalIds: externalIDs,
		SeenBefore:  seenBefore,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to mark postings stale: %w", err)
	}
	return n, nil
}
