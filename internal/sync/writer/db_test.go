package writer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/posting-sync/database"
	"github.com/stacklok/posting-sync/internal/db/sqlc"
	"github.com/stacklok/posting-sync/internal/provider"
)

func TestNewDBPostingStore(t *testing.T) {
	t.Parallel()

	_, err := NewDBPostingStore(nil)
	assert.Error(t, err)
}

func posting(id, keyword, company string) provider.Posting {
	return provider.Posting{
		ExternalID: id,
		Keyword:    keyword,
		CompanyID:  company,
		Title:      "Engineer " + id,
		URL:        "https://jobs.example.com/" + id,
	}
}

func TestDBPostingStore(t *testing.T) {
	t.Parallel()

	pool := database.SetupTestDB(t)
	store, err := NewDBPostingStore(pool)
	require.NoError(t, err)

	ctx := context.Background()
	first := time.Date(2026, 5, 1, 3, 0, 0, 0, time.UTC)
	second := first.Add(24 * time.Hour)
	validUntil := first.Add(30 * 24 * time.Hour)

	t.Run("insert new returns only inserted rows", func(t *testing.T) {
		p1 := posting("p-1", "golang", "c-1")
		p1.ValidFrom = &first
		p1.ValidUntil = &validUntil

		inserted, err := store.InsertNew(ctx, []provider.Posting{p1, posting("p-2", "golang", "c-2")}, first)
		require.NoError(t, err)
		assert.Len(t, inserted, 2)

		inserted, err = store.InsertNew(ctx, []provider.Posting{
			posting("p-2", "golang", "c-2"),
			posting("p-3", "golang", "c-1"),
		}, second)
		require.NoError(t, err)
		require.Len(t, inserted, 1)
		assert.Equal(t, "p-3", inserted[0].ExternalID)

		row, err := sqlc.New(pool).GetPostingByExternalID(ctx, "p-1")
		require.NoError(t, err)
		assert.Equal(t, "c-1", row.CompanyID)
		assert.True(t, first.Equal(row.FirstSeenAt))
		require.NotNil(t, row.ValidUntil)
		assert.True(t, validUntil.Equal(*row.ValidUntil))
	})

	t.Run("external id is unique across keywords", func(t *testing.T) {
		inserted, err := store.InsertNew(ctx, []provider.Posting{posting("p-1", "backend", "c-1")}, second)
		require.NoError(t, err)
		assert.Empty(t, inserted)

		ids, err := store.ListExternalIDs(ctx, "backend")
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("stale postings leave the keyword set and return when seen", func(t *testing.T) {
		n, err := store.MarkStale(ctx, []string{"p-2"}, second)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = store.MarkStale(ctx, []string{"p-2"}, second)
		require.NoError(t, err)
		assert.Zero(t, n, "already stale")

		ids, err := store.ListExternalIDs(ctx, "golang")
		require.NoError(t, err)
		assert.Equal(t, []string{"p-1", "p-3"}, ids)

		n, err = store.MarkSeen(ctx, []string{"p-2", "p-1"}, second)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		ids, err = store.ListExternalIDs(ctx, "golang")
		require.NoError(t, err)
		assert.Equal(t, []string{"p-1", "p-2", "p-3"}, ids)

		row, err := sqlc.New(pool).GetPostingByExternalID(ctx, "p-1")
		require.NoError(t, err)
		assert.True(t, second.Equal(row.LastSeenAt))
		assert.False(t, row.Stale)
	})

	t.Run("postings seen this cycle stay live whatever the keyword order", func(t *testing.T) {
		third := second.Add(24 * time.Hour)

		// Seen under another keyword first, then missing under its own
		_, err := store.MarkSeen(ctx, []string{"p-1"}, third)
		require.NoError(t, err)
		n, err := store.MarkStale(ctx, []string{"p-1"}, third)
		require.NoError(t, err)
		assert.Zero(t, n)

		// Missing under its own keyword first, then seen under another
		n, err = store.MarkStale(ctx, []string{"p-3"}, third)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		_, err = store.MarkSeen(ctx, []string{"p-3"}, third)
		require.NoError(t, err)

		for _, id := range []string{"p-1", "p-3"} {
			row, err := sqlc.New(pool).GetPostingByExternalID(ctx, id)
			require.NoError(t, err)
			assert.False(t, row.Stale, id)
		}
	})

	t.Run("empty input is a no-op", func(t *testing.T) {
		inserted, err := store.InsertNew(ctx, nil, first)
		require.NoError(t, err)
		assert.Empty(t, inserted)

		n, err := store.MarkSeen(ctx, nil, first)
		require.NoError(t, err)
		assert.Zero(t, n)

		n, err = store.MarkStale(ctx, []string{}, second)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}
