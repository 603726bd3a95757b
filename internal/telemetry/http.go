package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	// HTTPScopeName is the instrumentation scope of the HTTP meter and tracer
	HTTPScopeName = "github.com/stacklok/posting-sync/http"

	// eventStreamPath serves long-lived SSE connections
	eventStreamPath = "/v1/events"

	unknownRoute       = "unknown_route"
	maxUserAgentLength = 256
)

// untracedPaths are never traced
var untracedPaths = map[string]bool{
	"/health":    true,
	"/readiness": true,
	"/metrics":   true,
}

// HTTPMetrics records request counts and latencies per route. Event streams
// stay open for the lifetime of a subscriber, so they are counted as open
// streams instead of feeding the latency histogram.
type HTTPMetrics struct {
	requestDuration metric.Float64Histogram
	requestsTotal   metric.Int64Counter
	activeRequests  metric.Int64UpDownCounter
	openStreams     metric.Int64UpDownCounter
}

// NewHTTPMetrics returns nil for a nil provider
func NewHTTPMetrics(provider metric.MeterProvider) (*HTTPMetrics, error) {
	if provider == nil {
		return nil, nil
	}
	meter := provider.Meter(HTTPScopeName)

	var (
		m   HTTPMetrics
		err error
	)
	if m.requestDuration, err = meter.Float64Histogram(
		"posting_sync_http_request_duration_seconds",
		metric.WithDescription("Latency of HTTP requests, excluding event streams"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	); err != nil {
		return nil, err
	}
	if m.requestsTotal, err = meter.Int64Counter(
		"posting_sync_http_requests_total",
		metric.WithDescription("HTTP requests by route and status"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, err
	}
	if m.activeRequests, err = meter.Int64UpDownCounter(
		"posting_sync_http_active_requests",
		metric.WithDescription("HTTP requests currently being served, excluding event streams"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, err
	}
	if m.openStreams, err = meter.Int64UpDownCounter(
		"posting_sync_http_open_event_streams",
		metric.WithDescription("Event stream connections currently open"),
		metric.WithUnit("{stream}"),
	); err != nil {
		return nil, err
	}
	return &m, nil
}

// Middleware instruments next. A nil receiver returns next unchanged.
func (m *HTTPMetrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// r.Context() may be cancelled once ServeHTTP returns
		ctx := r.Context()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		stream := r.URL.Path == eventStreamPath

		gauge := m.activeRequests
		if stream {
			gauge = m.openStreams
		}
		start := time.Now()
		gauge.Add(ctx, 1)
		next.ServeHTTP(ww, r)
		gauge.Add(ctx, -1)

		attrs := metric.WithAttributes(
			attribute.String("method", r.Method),
			attribute.String("route", routePattern(r)),
			attribute.String("status_code", strconv.Itoa(ww.Status())),
		)
		m.requestsTotal.Add(ctx, 1, attrs)
		if !stream {
			m.requestDuration.Record(ctx, time.Since(start).Seconds(), attrs)
		}
	})
}

// MetricsMiddleware is NewHTTPMetrics followed by Middleware
func MetricsMiddleware(provider metric.MeterProvider) (func(http.Handler) http.Handler, error) {
	m, err := NewHTTPMetrics(provider)
	if err != nil {
		return nil, err
	}
	return m.Middleware, nil
}

// TracingMiddleware starts a server span per request, joined to any incoming
// W3C trace context. Health checks are skipped. An event stream span ends once the
// stream is established rather than when the subscriber disconnects.
func TracingMiddleware(provider trace.TracerProvider) func(http.Handler) http.Handler {
	if provider == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	tracer := provider.Tracer(HTTPScopeName)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if untracedPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.URLPath(r.URL.Path),
					semconv.UserAgentOriginal(truncate(r.UserAgent(), maxUserAgentLength)),
				),
			)

			if r.URL.Path == eventStreamPath {
				span.SetName(r.Method + " " + eventStreamPath)
				span.SetAttributes(semconv.HTTPRouteKey.String(eventStreamPath))
				span.End()
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
			defer span.End()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// chi only knows the pattern after routing
			route := routePattern(r)
			span.SetName(r.Method + " " + route)
			span.SetAttributes(
				semconv.HTTPRouteKey.String(route),
				semconv.HTTPResponseStatusCode(ww.Status()),
			)
			if ww.Status() >= http.StatusBadRequest {
				span.SetStatus(codes.Error, http.StatusText(ww.Status()))
			} else {
				span.SetStatus(codes.Ok, "")
			}
		})
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// routePattern keeps label cardinality bounded by never using the raw path
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
		return rctx.RoutePattern()
	}
	return unknownRoute
}
