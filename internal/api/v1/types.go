package v1

import (
	"time"

	"github.com/stacklok/posting-sync/internal/notification"
	"github.com/stacklok/posting-sync/internal/status"
	pkgsync "github.com/stacklok/posting-sync/internal/sync"
)

// SyncStatusResponse is the body of GET /v1/sync/status
type SyncStatusResponse struct {
	Keywords  []*status.KeywordSyncStatus `json:"keywords"`
	Running   bool                        `json:"running"`
	LastCycle *CycleSummary               `json:"last_cycle,omitempty"`
}

// CycleSummary describes the last cycle that finished on this instance
type CycleSummary struct {
	StartedAt time.Time `json:"started_at"`
	Duration  string    `json:"duration"`
	Synced    int       `json:"synced"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	Aborted   bool      `json:"aborted"`
	Cancelled bool      `json:"cancelled,omitempty"`
	NotRun    []string  `json:"not_run,omitempty"`
	Errors    []string  `json:"errors,omitempty"`
}

// SyncRunResponse is the body of POST /v1/sync/run
type SyncRunResponse struct {
	Status string `json:"status"`
}

// NotificationListResponse is the body of GET /v1/subscribers/{id}/notifications
type NotificationListResponse struct {
	Notifications []notification.Notification `json:"notifications"`
	Count         int                         `json:"count"`
}

func summarize(r pkgsync.CycleResult) *CycleSummary {
	s := &CycleSummary{
		StartedAt: r.StartedAt.UTC(),
		Duration:  r.Duration.String(),
		Synced:    r.Count(pkgsync.OutcomeSynced),
		Skipped:   r.Count(pkgsync.OutcomeSkipped),
		Failed:    r.Count(pkgsync.OutcomeFailed),
		Aborted:   r.Aborted,
		Cancelled: r.Cancelled,
		NotRun:    r.NotRun,
	}
	for _, err := range r.Errors {
		s.Errors = append(s.Errors, err.Error())
	}
	return s
}
