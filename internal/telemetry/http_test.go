package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// newRouter mounts the routes the service exposes behind mw
func newRouter(mw func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(mw)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/v1/sync/status", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Post("/v1/sync/run", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusConflict) })
	r.Get("/v1/subscribers/{id}/notifications", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/v1/events", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(": connected\n\n"))
	})
	return r
}

func serve(h http.Handler, method, path string, header http.Header) int {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestMetricsMiddleware(t *testing.T) {
	t.Parallel()

	mp, reader := newManualProvider(t)
	mw, err := MetricsMiddleware(mp)
	require.NoError(t, err)
	router := newRouter(mw)

	serve(router, http.MethodGet, "/v1/subscribers/u-1/notifications", nil)
	serve(router, http.MethodGet, "/v1/subscribers/u-2/notifications", nil)
	serve(router, http.MethodPost, "/v1/sync/run", nil)
	serve(router, http.MethodGet, "/v1/events", nil)
	serve(router, http.MethodGet, "/v1/nope", nil)

	total, ok := findMetric(t, reader, HTTPScopeName, "posting_sync_http_requests_total")
	require.True(t, ok)
	assert.Equal(t, int64(2), sumByAttr(t, total, "route", "/v1/subscribers/{id}/notifications"))
	assert.Equal(t, int64(1), sumByAttr(t, total, "status_code", "409"))
	assert.Equal(t, int64(1), sumByAttr(t, total, "route", eventStreamPath))
	assert.Equal(t, int64(1), sumByAttr(t, total, "route", unknownRoute))

	duration, ok := findMetric(t, reader, HTTPScopeName, "posting_sync_http_request_duration_seconds")
	require.True(t, ok)
	hist, ok := duration.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	var observed uint64
	for _, dp := range hist.DataPoints {
		route, _ := dp.Attributes.Value("route")
		assert.NotEqual(t, eventStreamPath, route.AsString(), "event streams must not feed the latency histogram")
		observed += dp.Count
	}
	assert.Equal(t, uint64(4), observed)

	streams, ok := findMetric(t, reader, HTTPScopeName, "posting_sync_http_open_event_streams")
	require.True(t, ok)
	sum, ok := streams.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	for _, dp := range sum.DataPoints {
		assert.Zero(t, dp.Value, "streams are closed once the handler returns")
	}
}

func TestMetricsMiddleware_NilProvider(t *testing.T) {
	t.Parallel()

	m, err := NewHTTPMetrics(nil)
	require.NoError(t, err)
	assert.Nil(t, m)

	mw, err := MetricsMiddleware(nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, serve(newRouter(mw), http.MethodGet, "/v1/sync/status", nil))
}

func TestTracingMiddleware(t *testing.T) {
	t.Parallel()

	parent := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x0a, 0x0b},
		SpanID:     trace.SpanID{0x01},
		TraceFlags: trace.FlagsSampled,
	})
	traceparent := http.Header{}
	propagation.TraceContext{}.Inject(
		trace.ContextWithSpanContext(context.Background(), parent),
		propagation.HeaderCarrier(traceparent),
	)

	tests := []struct {
		name       string
		method     string
		path       string
		header     http.Header
		wantSpan   string
		wantStatus codes.Code
		wantParent bool
	}{
		{name: "health check is skipped", method: http.MethodGet, path: "/health"},
		{
			name:       "route pattern names the span",
			method:     http.MethodGet,
			path:       "/v1/subscribers/u-1/notifications",
			wantSpan:   "GET /v1/subscribers/{id}/notifications",
			wantStatus: codes.Ok,
		},
		{
			name:       "client error marks the span",
			method:     http.MethodPost,
			path:       "/v1/sync/run",
			wantSpan:   "POST /v1/sync/run",
			wantStatus: codes.Error,
		},
		{
			name:       "incoming trace context is joined",
			method:     http.MethodGet,
			path:       "/v1/sync/status",
			header:     traceparent,
			wantSpan:   "GET /v1/sync/status",
			wantStatus: codes.Ok,
			wantParent: true,
		},
		{
			name:       "event stream span ends before streaming",
			method:     http.MethodGet,
			path:       "/v1/events",
			wantSpan:   "GET /v1/events",
			wantStatus: codes.Unset,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			exporter := tracetest.NewInMemoryExporter()
			tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
			t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

			// TraceContext is extracted here so the test does not depend on otel globals
			mw := func(next http.Handler) http.Handler {
				traced := TracingMiddleware(tp)(next)
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					ctx := propagation.TraceContext{}.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
					traced.ServeHTTP(w, r.WithContext(ctx))
				})
			}
			serve(newRouter(mw), tt.method, tt.path, tt.header)

			spans := exporter.GetSpans()
			if tt.wantSpan == "" {
				assert.Empty(t, spans)
				return
			}
			require.Len(t, spans, 1)
			span := spans[0]
			assert.Equal(t, tt.wantSpan, span.Name)
			assert.Equal(t, trace.SpanKindServer, span.SpanKind)
			assert.Equal(t, tt.wantStatus, span.Status.Code)
			if tt.wantParent {
				assert.Equal(t, parent.TraceID(), span.SpanContext.TraceID())
				assert.Equal(t, parent.SpanID(), span.Parent.SpanID())
			} else {
				assert.False(t, span.Parent.IsValid())
			}
		})
	}
}

func TestTracingMiddleware_NilProvider(t *testing.T) {
	t.Parallel()
	assert.Equal(t, http.StatusOK, serve(newRouter(TracingMiddleware(nil)), http.MethodGet, "/v1/sync/status", nil))
}

func TestTracingMiddleware_TruncatesUserAgent(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	header := http.Header{"User-Agent": []string{strings.Repeat("a", 1000)}}
	serve(newRouter(TracingMiddleware(tp)), http.MethodGet, "/v1/sync/status", header)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	var ua string
	for _, kv := range spans[0].Attributes {
		if kv.Key == attribute.Key("user_agent.original") {
			ua = kv.Value.AsString()
		}
	}
	assert.Len(t, ua, maxUserAgentLength)
}
