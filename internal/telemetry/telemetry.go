package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Telemetry owns the tracer and meter providers of the process
type Telemetry struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	metricsHandler http.Handler

	// shutdowns run in reverse order of creation
	shutdowns []func(context.Context) error
}

// Option configures New
type Option func(*options)

type options struct {
	config *Config
}

// WithTelemetryConfig sets the telemetry section to build from
func WithTelemetryConfig(cfg *Config) Option {
	return func(o *options) {
		o.config = cfg
	}
}

// New builds the providers described by the configuration. Disabled signals
// get no-op providers. Enabled SDK providers are also installed as the
// otel globals. Call Shutdown to flush pending data.
func New(ctx context.Context, opts ...Option) (*Telemetry, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if err := o.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry configuration: %w", err)
	}

	t := &Telemetry{
		tracerProvider: tracenoop.NewTracerProvider(),
		meterProvider:  metricnoop.NewMeterProvider(),
	}

	s := o.config.resolve()
	if !s.tracing && !s.metrics {
		slog.Debug("Telemetry disabled")
		return t, nil
	}

	res, err := newResource(ctx, s)
	if err != nil {
		return nil, err
	}

	if s.tracing {
		tp, err := newTracerProvider(ctx, res, s)
		if err != nil {
			return nil, fmt.Errorf("failed to create tracer provider: %w", err)
		}
		t.tracerProvider = tp
		t.shutdowns = append(t.shutdowns, tp.Shutdown)

		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
	}

	if s.metrics {
		var reg *prometheus.Registry
		if s.exporter == MetricsExporterPrometheus {
			reg = prometheus.NewRegistry()
			t.metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
		}

		mp, err := newMeterProvider(ctx, res, s, reg)
		if err != nil {
			_ = t.Shutdown(ctx)
			return nil, fmt.Errorf("failed to create meter provider: %w", err)
		}
		t.meterProvider = mp
		t.shutdowns = append(t.shutdowns, mp.Shutdown)

		otel.SetMeterProvider(mp)
	}

	if s.insecure && s.pushesOTLP() {
		slog.Warn("Telemetry is exported over plain HTTP", "endpoint", s.endpoint)
	}
	slog.Info("Telemetry initialized",
		"service_name", s.serviceName,
		"service_version", s.serviceVersion,
		"tracing", s.tracing,
		"sampling_ratio", s.sampling,
		"metrics", s.metrics,
		"metrics_exporter", s.exporter,
	)
	return t, nil
}

// TracerProvider returns the tracer provider, a no-op one when tracing is off
func (t *Telemetry) TracerProvider() trace.TracerProvider {
	return t.tracerProvider
}

// MeterProvider returns the meter provider, a no-op one when metrics are off
func (t *Telemetry) MeterProvider() metric.MeterProvider {
	return t.meterProvider
}

// MetricsHandler returns the Prometheus scrape handler, or nil unless metrics
// use the prometheus exporter.
func (t *Telemetry) MetricsHandler() http.Handler {
	return t.metricsHandler
}

// Enabled reports whether any SDK provider is running
func (t *Telemetry) Enabled() bool {
	return len(t.shutdowns) > 0
}

// Shutdown flushes and stops the SDK providers. Calling it again is a no-op.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(t.shutdowns) - 1; i >= 0; i-- {
		if err := t.shutdowns[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	t.shutdowns = nil

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("failed to shutdown telemetry: %w", err)
	}
	return nil
}
