// Package v1 provides the sync, event stream and notification endpoints.
package v1

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/posting-sync/internal/api/common"
	"github.com/stacklok/posting-sync/internal/notification"
	"github.com/stacklok/posting-sync/internal/push"
	"github.com/stacklok/posting-sync/internal/status"
	"github.com/stacklok/posting-sync/internal/sync/coordinator"
)

// Routes holds the collaborators of the v1 handlers
type Routes struct {
	statuses      StatusReader
	trigger       SyncTrigger
	notifications NotificationReader
	subscribers   SubscriberRegistry
	writeTimeout  time.Duration
}

// Option configures Routes
type Option func(*Routes)

// WithStreamWriteTimeout bounds a single write to an event stream
func WithStreamWriteTimeout(d time.Duration) Option {
	return func(r *Routes) {
		r.writeTimeout = d
	}
}

// NewRoutes creates the v1 handlers
func NewRoutes(
	statuses StatusReader,
	trigger SyncTrigger,
	notifications NotificationReader,
	subscribers SubscriberRegistry,
	opts ...Option,
) *Routes {
	r := &Routes{
		statuses:      statuses,
		trigger:       trigger,
		notifications: notifications,
		subscribers:   subscribers,
		writeTimeout:  push.DefaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Router mounts the v1 handlers
func Router(routes *Routes) http.Handler {
	r := chi.NewRouter()

	r.Get("/sync/status", routes.getSyncStatus)
	r.Post("/sync/run", routes.runSync)
	r.Get("/events", routes.streamEvents)
	r.Get("/subscribers/{id}/notifications", routes.listNotifications)

	return r
}

// getSyncStatus handles GET /v1/sync/status
func (rr *Routes) getSyncStatus(w http.ResponseWriter, r *http.Request) {
	statuses, err := rr.statuses.ListSyncStatuses(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list sync status", "error", err)
		common.WriteErrorResponse(w, "Failed to list sync status", http.StatusInternalServerError)
		return
	}
	if statuses == nil {
		statuses = []*status.KeywordSyncStatus{}
	}

	resp := SyncStatusResponse{
		Keywords: statuses,
		Running:  rr.trigger.Running(),
	}
	if last, ok := rr.trigger.LastCycle(); ok {
		resp.LastCycle = summarize(last)
	}
	common.WriteJSONResponse(w, resp, http.StatusOK)
}

// runSync handles POST /v1/sync/run
func (rr *Routes) runSync(w http.ResponseWriter, r *http.Request) {
	err := rr.trigger.TriggerNow()
	switch {
	case err == nil:
		slog.InfoContext(r.Context(), "Sync cycle triggered over API")
		common.WriteJSONResponse(w, SyncRunResponse{Status: "accepted"}, http.StatusAccepted)
	case errors.Is(err, coordinator.ErrCycleInProgress):
		common.WriteErrorResponse(w, "A sync cycle is already running", http.StatusConflict)
	case errors.Is(err, coordinator.ErrNotStarted):
		common.WriteErrorResponse(w, "Sync scheduler is not running", http.StatusServiceUnavailable)
	default:
		slog.ErrorContext(r.Context(), "Failed to trigger sync cycle", "error", err)
		common.WriteErrorResponse(w, "Failed to trigger sync cycle", http.StatusInternalServerError)
	}
}

// streamEvents handles GET /v1/events. The response stays open until the
// client goes away or the registry closes the channel.
func (rr *Routes) streamEvents(w http.ResponseWriter, r *http.Request) {
	subscriberID, err := common.SubscriberID(r)
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusUnauthorized)
		return
	}

	ch, err := push.NewSSEChannel(w, rr.writeTimeout)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to open event stream", "subscriber_id", subscriberID, "error", err)
		common.WriteErrorResponse(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	rr.subscribers.Connect(r.Context(), subscriberID, ch)
	defer rr.subscribers.Disconnect(context.WithoutCancel(r.Context()), subscriberID, ch)

	select {
	case <-r.Context().Done():
	case <-ch.Done():
	}
}

// listNotifications handles GET /v1/subscribers/{id}/notifications
func (rr *Routes) listNotifications(w http.ResponseWriter, r *http.Request) {
	recipientID, err := common.GetAndValidateURLParam(r, "id")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	limit, err := common.GetLimitParam(r)
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	list, err := rr.notifications.ListForRecipient(r.Context(), recipientID, limit)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list notifications", "recipient_id", recipientID, "error", err)
		common.WriteErrorResponse(w, "Failed to list notifications", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []notification.Notification{}
	}

	common.WriteJSONResponse(w, NotificationListResponse{Notifications: list, Count: len(list)}, http.StatusOK)
}
