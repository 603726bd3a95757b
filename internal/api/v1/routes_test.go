package v1_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	v1 "github.com/stacklok/posting-sync/internal/api/v1"
	"github.com/stacklok/posting-sync/internal/api/v1/mocks"
	"github.com/stacklok/posting-sync/internal/notification"
	"github.com/stacklok/posting-sync/internal/status"
	pkgsync "github.com/stacklok/posting-sync/internal/sync"
	"github.com/stacklok/posting-sync/internal/sync/coordinator"
)

type routeMocks struct {
	statuses      *mocks.MockStatusReader
	trigger       *mocks.MockSyncTrigger
	notifications *mocks.MockNotificationReader
	subscribers   *mocks.MockSubscriberRegistry
}

func newRouter(t *testing.T) (http.Handler, routeMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := routeMocks{
		statuses:      mocks.NewMockStatusReader(ctrl),
		trigger:       mocks.NewMockSyncTrigger(ctrl),
		notifications: mocks.NewMockNotificationReader(ctrl),
		subscribers:   mocks.NewMockSubscriberRegistry(ctrl),
	}
	routes := v1.NewRoutes(m.statuses, m.trigger, m.notifications, m.subscribers)
	return v1.Router(routes), m
}

func serve(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(method, path, nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestGetSyncStatus(t *testing.T) {
	t.Parallel()

	router, m := newRouter(t)
	success := time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC)
	m.statuses.EXPECT().ListSyncStatuses(gomock.Any()).Return([]*status.KeywordSyncStatus{
		{Keyword: "golang", Phase: status.SyncPhaseComplete, LastSuccess: &success, InsertedCount: 4},
		{Keyword: "rust", Phase: status.SyncPhaseFailed, Message: "provider down", AttemptCount: 2},
	}, nil)
	m.trigger.EXPECT().Running().Return(false)
	m.trigger.EXPECT().LastCycle().Return(pkgsync.CycleResult{
		StartedAt: success,
		Duration:  1500 * time.Millisecond,
		Keywords: []pkgsync.KeywordResult{
			{Keyword: "golang", Outcome: pkgsync.OutcomeSynced},
			{Keyword: "rust", Outcome: pkgsync.OutcomeFailed},
		},
		Errors: []*pkgsync.Error{{Keyword: "rust", Message: "fetch failed", Reason: pkgsync.ReasonFetchFailed}},
	}, true)

	rr := serve(t, router, http.MethodGet, "/sync/status")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var resp v1.SyncStatusResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Keywords, 2)
	assert.Equal(t, status.SyncPhaseComplete, resp.Keywords[0].Phase)
	assert.Equal(t, "provider down", resp.Keywords[1].Message)
	assert.False(t, resp.Running)
	require.NotNil(t, resp.LastCycle)
	assert.Equal(t, 1, resp.LastCycle.Synced)
	assert.Equal(t, 1, resp.LastCycle.Failed)
	assert.Equal(t, "1.5s", resp.LastCycle.Duration)
	assert.Equal(t, []string{"fetch failed"}, resp.LastCycle.Errors)
}

func TestGetSyncStatus_NoCycleYet(t *testing.T) {
	t.Parallel()

	router, m := newRouter(t)
	m.statuses.EXPECT().ListSyncStatuses(gomock.Any()).Return(nil, nil)
	m.trigger.EXPECT().Running().Return(true)
	m.trigger.EXPECT().LastCycle().Return(pkgsync.CycleResult{}, false)

	rr := serve(t, router, http.MethodGet, "/sync/status")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"keywords": [], "running": true}`, rr.Body.String())
}

func TestGetSyncStatus_StoreError(t *testing.T) {
	t.Parallel()

	router, m := newRouter(t)
	m.statuses.EXPECT().ListSyncStatuses(gomock.Any()).Return(nil, errors.New("connection refused"))

	rr := serve(t, router, http.MethodGet, "/sync/status")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "connection refused")
}

func TestRunSync(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "accepted", wantStatus: http.StatusAccepted},
		{name: "cycle in progress", err: coordinator.ErrCycleInProgress, wantStatus: http.StatusConflict},
		{name: "scheduler stopped", err: coordinator.ErrNotStarted, wantStatus: http.StatusServiceUnavailable},
		{name: "unexpected", err: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router, m := newRouter(t)
			m.trigger.EXPECT().TriggerNow().Return(tt.err)

			rr := serve(t, router, http.MethodPost, "/sync/run")
			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}

func TestRunSync_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	router, _ := newRouter(t)
	rr := serve(t, router, http.MethodGet, "/sync/run")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestListNotifications(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		path       string
		setup      func(*mocks.MockNotificationReader)
		wantStatus int
		wantCount  int
	}{
		{
			name: "default limit",
			path: "/subscribers/member-1/notifications",
			setup: func(m *mocks.MockNotificationReader) {
				m.EXPECT().ListForRecipient(gomock.Any(), "member-1", 0).Return([]notification.Notification{
					{RecipientID: "member-1", Type: notification.TypePostingOpened, Content: `{"title":"Go"}`, CreatedAt: created},
					{RecipientID: "member-1", Type: notification.TypeDailyWinner, Content: `{}`, CreatedAt: created},
				}, nil)
			},
			wantStatus: http.StatusOK,
			wantCount:  2,
		},
		{
			name: "explicit limit",
			path: "/subscribers/member-1/notifications?limit=5",
			setup: func(m *mocks.MockNotificationReader) {
				m.EXPECT().ListForRecipient(gomock.Any(), "member-1", 5).Return(nil, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "bad limit",
			path:       "/subscribers/member-1/notifications?limit=lots",
			setup:      func(*mocks.MockNotificationReader) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "whitespace id",
			path:       "/subscribers/member%201/notifications",
			setup:      func(*mocks.MockNotificationReader) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "store error",
			path: "/subscribers/member-1/notifications",
			setup: func(m *mocks.MockNotificationReader) {
				m.EXPECT().ListForRecipient(gomock.Any(), "member-1", 0).Return(nil, errors.New("timeout"))
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router, m := newRouter(t)
			tt.setup(m.notifications)

			rr := serve(t, router, http.MethodGet, tt.path)
			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantStatus != http.StatusOK {
				return
			}

			var resp v1.NotificationListResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCount, resp.Count)
			assert.Len(t, resp.Notifications, tt.wantCount)
			assert.NotNil(t, resp.Notifications)
		})
	}
}
