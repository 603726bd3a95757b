package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stacklok/posting-sync/internal/sync/writer"
)

const (
	// StalePolicyIgnore only logs postings that were not returned
	StalePolicyIgnore = "ignore"

	// StalePolicyMarkStale flags postings that were not returned
	StalePolicyMarkStale = "mark-stale"
)

// StalePolicy decides what happens to stored postings the provider no
// longer returns for a keyword. Postings are never deleted.
type StalePolicy interface {
	// NotSeen is called once per keyword run with the ids that were not returned.
	// Postings seen under any keyword since cycleStart count as live.
	// It reports how many postings it changed.
	NotSeen(ctx context.Context, keyword string, externalIDs []string, cycleStart time.Time) (int64, error)
}

// NewStalePolicy returns the policy named by name
func NewStalePolicy(name string, store writer.PostingStore) (StalePolicy, error) {
	switch name {
	case "", StalePolicyMarkStale:
		return &MarkStalePolicy{store: store}, nil
	case StalePolicyIgnore:
		return IgnoreStalePolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown stale policy %q", name)
	}
}

// IgnoreStalePolicy leaves postings untouched
type IgnoreStalePolicy struct{}

// NotSeen implements StalePolicy
func (IgnoreStalePolicy) NotSeen(_ context.Context, keyword string, externalIDs []string, _ time.Time) (int64, error) {
	slog.Debug("Postings not returned by provider", "keyword", keyword, "count", len(externalIDs))
	return 0, nil
}

// MarkStalePolicy sets the stale flag through the PostingStore
type MarkStalePolicy struct {
	store writer.PostingStore
}

// NotSeen implements StalePolicy
func (p *MarkStalePolicy) NotSeen(
	ctx context.Context,
	keyword string,
	externalIDs []string,
	cycleStart time.Time,
) (int64, error) {
	if len(externalIDs) == 0 {
		return 0, nil
	}
	n, err := p.store.MarkStale(ctx, externalIDs, cycleStart)
	if err != nil {
		return 0, fmt.Errorf("failed to mark postings stale: %w", err)
	}
	slog.Info("Marked postings stale", "keyword", keyword, "count", n)
	return n, nil
}
