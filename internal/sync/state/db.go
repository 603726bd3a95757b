package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stacklok/posting-sync/internal/db/sqlc"
	"github.com/stacklok/posting-sync/internal/status"
)

const initialMessage = "No previous sync status found"

type dbStateService struct {
	pool *pgxpool.Pool
}

// NewDBStateService creates a new database-backed keyword state service
func NewDBStateService(pool *pgxpool.Pool) KeywordStateService {
	return &dbStateService{
		pool: pool,
	}
}

func (d *dbStateService) Initialize(ctx context.Context, keywords []string) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	queries := sqlc.New(d.pool).WithTx(tx)

	if keywords == nil {
		keywords = []string{}
	}

	if len(keywords) > 0 {
		err = queries.BulkInitializeKeywordSyncs(ctx, sqlc.BulkInitializeKeywordSyncsParams{
			Keywords: keywords,
			Phase:    string(status.SyncPhaseFailed),
		})
		if err != nil {
			return fmt.Errorf("failed to initialize keyword statuses: %w", err)
		}
	}

	if err := queries.DeleteKeywordSyncsNotInList(ctx, keywords); err != nil {
		return fmt.Errorf("failed to delete unconfigured keyword statuses: %w", err)
	}

	return tx.Commit(ctx)
}

func (d *dbStateService) ListSyncStatuses(ctx context.Context) ([]*status.KeywordSyncStatus, error) {
	rows, err := sqlc.New(d.pool).ListKeywordSyncs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list keyword statuses: %w", err)
	}

	result := make([]*status.KeywordSyncStatus, 0, len(rows))
	for _, row := range rows {
		result = append(result, dbSyncToStatus(row))
	}
	return result, nil
}

func (d *dbStateService) GetSyncStatus(ctx context.Context, keyword string) (*status.KeywordSyncStatus, error) {
	row, err := sqlc.New(d.pool).GetKeywordSync(ctx, keyword)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrKeywordNotFound
		}
		return nil, fmt.Errorf("failed to get status for keyword %s: %w", keyword, err)
	}
	return dbSyncToStatus(row), nil
}

func (d *dbStateService) UpdateSyncStatus(ctx context.Context, syncStatus *status.KeywordSyncStatus) error {
	if syncStatus == nil || syncStatus.Keyword == "" {
		return fmt.Errorf("keyword is required")
	}
	return sqlc.New(d.pool).UpsertKeywordSync(ctx, statusToUpsertParams(syncStatus))
}

func (d *dbStateService) UpdateStatusAtomically(
	ctx context.Context,
	keyword string,
	testAndUpdateFn func(syncStatus *status.KeywordSyncStatus) bool,
) (bool, error) {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	queries := sqlc.New(d.pool).WithTx(tx)

	var current *status.KeywordSyncStatus
	row, err := queries.GetKeywordSyncForUpdate(ctx, keyword)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		current = &status.KeywordSyncStatus{Keyword: keyword, Phase: status.SyncPhaseFailed}
	case err != nil:
		return false, fmt.Errorf("failed to get status for keyword %s: %w", keyword, err)
	default:
		current = dbSyncToStatus(row)
	}

	if !testAndUpdateFn(current) {
		return false, tx.Commit(ctx)
	}

	// The callback may not rename the row it was handed
	current.Keyword = keyword
	if err := queries.UpsertKeywordSync(ctx, statusToUpsertParams(current)); err != nil {
		return false, fmt.Errorf("failed to update status for keyword %s: %w", keyword, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}

// dbSyncToStatus converts a database row to a status.KeywordSyncStatus
func dbSyncToStatus(row sqlc.KeywordSyncStatus) *status.KeywordSyncStatus {
	s := &status.KeywordSyncStatus{
		Keyword:       row.Keyword,
		Phase:         status.ParseSyncPhase(row.Phase),
		Message:       row.Message,
		LastAttempt:   row.LastAttempt,
		LastSuccess:   row.LastSuccess,
		AttemptCount:  int(row.AttemptCount),
		FetchedCount:  int(row.FetchedCount),
		InsertedCount: int(row.InsertedCount),
		StaleCount:    int(row.StaleCount),
	}
	if s.Message == "" && s.LastAttempt == nil {
		s.Message = initialMessage
	}
	return s
}

func statusToUpsertParams(s *status.KeywordSyncStatus) sqlc.UpsertKeywordSyncParams {
	return sqlc.UpsertKeywordSyncParams{
		Keyword:       s.Keyword,
		Phase:         string(s.Phase),
		Message:       s.Message,
		LastAttempt:   s.LastAttempt,
		LastSuccess:   s.LastSuccess,
		AttemptCount:  clampInt32(s.AttemptCount),
		FetchedCount:  clampInt32(s.FetchedCount),
		InsertedCount: clampInt32(s.InsertedCount),
		StaleCount:    clampInt32(s.StaleCount),
	}
}

func clampInt32(n int) int32 {
	const maxInt32 = 1<<31 - 1
	if n > maxInt32 {
		return maxInt32
	}
	if n < 0 {
		return 0
	}
	return int32(n)
}
