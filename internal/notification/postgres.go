package notification

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stacklok/posting-sync/internal/db/sqlc"
)

// DefaultListLimit bounds ListForRecipient when no limit is given
const DefaultListLimit = 50

// MaxListLimit is the largest accepted ListForRecipient limit
const MaxListLimit = 500

var tempNotificationColumns = []string{
	"id", "recipient_id", "notification_type", "content", "is_read", "created_at", "dedup_key",
}

// Store reads and writes notifications in Postgres
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a Store on pool
func NewStore(pool *pgxpool.Pool) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgx pool is required")
	}
	return &Store{pool: pool}, nil
}

// WriteChunk implements ChunkWriter. The chunk is copied into a temp table
// and inserted with ON CONFLICT (dedup_key) DO NOTHING in one transaction.
func (s *Store) WriteChunk(ctx context.Context, chunk []Notification) (int64, error) {
	if len(chunk) == 0 {
		return 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	querier := sqlc.New(tx)
	if err := querier.CreateTempNotificationTable(ctx); err != nil {
		return 0, fmt.Errorf("failed to create temp notification table: %w", err)
	}

	rows := make([][]any, len(chunk))
	for i, n := range chunk {
		rows[i] = []any{n.ID, n.RecipientID, string(n.Type), n.Content, n.IsRead, n.CreatedAt, n.DedupKey}
	}

	copyCount, err := tx.CopyFrom(ctx, pgx.Identifier{"temp_notification"}, tempNotificationColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("failed to copy notifications to temp table: %w", err)
	}
	if int(copyCount) != len(chunk) {
		return 0, fmt.Errorf("copy count mismatch: expected %d, got %d", len(chunk), copyCount)
	}

	inserted, err := querier.InsertNotificationsFromTemp(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to insert notifications from temp table: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return inserted, nil
}

// ListForRecipient returns the newest notifications of a recipient
func (s *Store) ListForRecipient(ctx context.Context, recipientID string, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	limit = min(limit, MaxListLimit)

	rows, err := sqlc.New(s.pool).ListNotificationsByRecipient(ctx, sqlc.ListNotificationsByRecipientParams{
		RecipientID: recipientID,
		MaxResults:  int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	result := make([]Notification, 0, len(rows))
	for _, row := range rows {
		result = append(result, Notification{
			ID:          row.ID,
			RecipientID: row.RecipientID,
			Type:        Type(row.NotificationType),
			Content:     row.Content,
			IsRead:      row.IsRead,
			CreatedAt:   row.CreatedAt,
			DedupKey:    row.DedupKey,
		})
	}
	return result, nil
}

// CountForRecipient returns how many notifications a recipient has
func (s *Store) CountForRecipient(ctx context.Context, recipientID string) (int64, error) {
	n, err := sqlc.New(s.pool).CountNotificationsByRecipient(ctx, recipientID)
	if err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return n, nil
}
