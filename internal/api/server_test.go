package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/posting-sync/internal/api"
	v1 "github.com/stacklok/posting-sync/internal/api/v1"
	"github.com/stacklok/posting-sync/internal/api/v1/mocks"
	"github.com/stacklok/posting-sync/internal/versions"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func newServer(t *testing.T, opts ...api.ServerOption) (http.Handler, *mocks.MockSyncTrigger) {
	t.Helper()
	ctrl := gomock.NewController(t)
	trigger := mocks.NewMockSyncTrigger(ctrl)
	routes := v1.NewRoutes(
		mocks.NewMockStatusReader(ctrl),
		trigger,
		mocks.NewMockNotificationReader(ctrl),
		mocks.NewMockSubscriberRegistry(ctrl),
	)
	return api.NewServer(routes, opts...), trigger
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, path, nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	server, _ := newServer(t)
	rr := get(t, server, "/health")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var response map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	assert.Equal(t, "healthy", response["status"])
}

func TestReadinessEndpoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		opts           []api.ServerOption
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "no checker",
			expectedStatus: http.StatusOK,
			expectedBody:   "ready",
		},
		{
			name:           "database reachable",
			opts:           []api.ServerOption{api.WithReadinessChecker(pingFunc(func(context.Context) error { return nil }))},
			expectedStatus: http.StatusOK,
			expectedBody:   "ready",
		},
		{
			name: "database unreachable",
			opts: []api.ServerOption{api.WithReadinessChecker(pingFunc(func(context.Context) error {
				return errors.New("dial tcp: connection refused")
			}))},
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   "not ready",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server, _ := newServer(t, tt.opts...)
			rr := get(t, server, "/readiness")

			assert.Equal(t, tt.expectedStatus, rr.Code)
			var response api.ReadinessResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
			assert.Equal(t, tt.expectedBody, response.Status)
			assert.NotContains(t, rr.Body.String(), "connection refused")
		})
	}
}

func TestVersionEndpoint(t *testing.T) {
	t.Parallel()

	server, _ := newServer(t)
	rr := get(t, server, "/version")
	require.Equal(t, http.StatusOK, rr.Code)

	var info versions.VersionInfo
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &info))
	assert.Equal(t, versions.GetVersionInfo(), info)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	server, _ := newServer(t)
	assert.Equal(t, http.StatusNotFound, get(t, server, "/metrics").Code)

	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("posting_sync_up 1\n"))
	})
	server, _ = newServer(t, api.WithMetricsHandler(metrics))
	rr := get(t, server, "/metrics")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "posting_sync_up 1\n", rr.Body.String())
}

func TestV1Mounted(t *testing.T) {
	t.Parallel()

	server, trigger := newServer(t, api.WithMiddlewares(api.LoggingMiddleware))
	trigger.EXPECT().TriggerNow().Return(nil)

	req, err := http.NewRequest(http.MethodPost, "/v1/sync/run", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusAccepted, rr.Code)
	assert.JSONEq(t, `{"status": "accepted"}`, rr.Body.String())
}

func TestMiddlewareOrder(t *testing.T) {
	t.Parallel()

	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	server, _ := newServer(t, api.WithMiddlewares(mw("first"), mw("second")))
	get(t, server, "/health")

	assert.Equal(t, []string{"first", "second"}, order)
}
