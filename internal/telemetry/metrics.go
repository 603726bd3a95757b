package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// SyncMetricsMeterName is the name used for the sync metrics meter
	SyncMetricsMeterName = "github.com/stacklok/posting-sync/sync"

	// LockMetricsMeterName is the name used for the lock metrics meter
	LockMetricsMeterName = "github.com/stacklok/posting-sync/lock"

	// ProviderMetricsMeterName is the name used for the provider metrics meter
	ProviderMetricsMeterName = "github.com/stacklok/posting-sync/provider"

	// NotificationMetricsMeterName is the name used for the notification metrics meter
	NotificationMetricsMeterName = "github.com/stacklok/posting-sync/notification"

	// PushMetricsMeterName is the name used for the push metrics meter
	PushMetricsMeterName = "github.com/stacklok/posting-sync/push"

	// GeoMetricsMeterName is the name used for the geo metrics meter
	GeoMetricsMeterName = "github.com/stacklok/posting-sync/geo"
)

// SyncMetrics holds the OpenTelemetry instruments for keyword sync metrics
type SyncMetrics struct {
	syncDuration     metric.Float64Histogram
	postingsInserted metric.Int64Counter
	postingsStale    metric.Int64Counter
}

// NewSyncMetrics creates a new SyncMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewSyncMetrics(provider metric.MeterProvider) (*SyncMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SyncMetricsMeterName)

	syncDuration, err := meter.Float64Histogram(
		"posting_sync_keyword_duration_seconds",
		metric.WithDescription("Duration of keyword sync operations in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300),
	)
	if err != nil {
		return nil, err
	}

	postingsInserted, err := meter.Int64Counter(
		"posting_sync_postings_inserted",
		metric.WithDescription("Number of new postings stored"),
		metric.WithUnit("{posting}"),
	)
	if err != nil {
		return nil, err
	}

	postingsStale, err := meter.Int64Counter(
		"posting_sync_postings_stale",
		metric.WithDescription("Number of postings no longer returned by the provider"),
		metric.WithUnit("{posting}"),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		syncDuration:     syncDuration,
		postingsInserted: postingsInserted,
		postingsStale:    postingsStale,
	}, nil
}

// RecordSyncDuration records the duration of a keyword sync along with its outcome
func (m *SyncMetrics) RecordSyncDuration(ctx context.Context, keyword, outcome string, duration time.Duration) {
	if m == nil || m.syncDuration == nil {
		return
	}

	m.syncDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("keyword", keyword),
		attribute.String("outcome", outcome),
	))
}

// RecordPostingsInserted records postings newly stored for a keyword
func (m *SyncMetrics) RecordPostingsInserted(ctx context.Context, keyword string, count int) {
	if m == nil || m.postingsInserted == nil || count == 0 {
		return
	}
	m.postingsInserted.Add(ctx, int64(count), metric.WithAttributes(attribute.String("keyword", keyword)))
}

// RecordPostingsStale records postings that were missing from the provider response
func (m *SyncMetrics) RecordPostingsStale(ctx context.Context, keyword string, count int) {
	if m == nil || m.postingsStale == nil || count == 0 {
		return
	}
	m.postingsStale.Add(ctx, int64(count), metric.WithAttributes(attribute.String("keyword", keyword)))
}

// LockMetrics counts distributed lock outcomes
type LockMetrics struct {
	outcomes metric.Int64Counter
}

// NewLockMetrics creates a new LockMetrics instance. If provider is nil, it returns nil.
func NewLockMetrics(provider metric.MeterProvider) (*LockMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	outcomes, err := provider.Meter(LockMetricsMeterName).Int64Counter(
		"posting_sync_lock_outcomes",
		metric.WithDescription("Lock acquisitions by outcome (acquired, unavailable, lease_expired)"),
		metric.WithUnit("{acquisition}"),
	)
	if err != nil {
		return nil, err
	}

	return &LockMetrics{outcomes: outcomes}, nil
}

// RecordOutcome counts one lock outcome for the given backend
func (m *LockMetrics) RecordOutcome(ctx context.Context, backend, outcome string) {
	if m == nil || m.outcomes == nil {
		return
	}
	m.outcomes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("backend", backend),
		attribute.String("outcome", outcome),
	))
}

// ProviderMetrics counts calls made to the recruiting provider
type ProviderMetrics struct {
	attempts metric.Int64Counter
}

// NewProviderMetrics creates a new ProviderMetrics instance. If provider is nil, it returns nil.
func NewProviderMetrics(provider metric.MeterProvider) (*ProviderMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	attempts, err := provider.Meter(ProviderMetricsMeterName).Int64Counter(
		"posting_sync_provider_attempts",
		metric.WithDescription("Provider fetch attempts by failure kind"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	return &ProviderMetrics{attempts: attempts}, nil
}

// RecordAttempt counts one provider attempt. kind is "none" for a successful attempt.
func (m *ProviderMetrics) RecordAttempt(ctx context.Context, keyword, kind string) {
	if m == nil || m.attempts == nil {
		return
	}
	m.attempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("keyword", keyword),
		attribute.String("failure_kind", kind),
	))
}

// NotificationMetrics counts persisted notification chunks
type NotificationMetrics struct {
	chunks metric.Int64Counter
}

// NewNotificationMetrics creates a new NotificationMetrics instance. If provider is nil, it returns nil.
func NewNotificationMetrics(provider metric.MeterProvider) (*NotificationMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	chunks, err := provider.Meter(NotificationMetricsMeterName).Int64Counter(
		"posting_sync_notification_chunks",
		metric.WithDescription("Notification chunks written, by result"),
		metric.WithUnit("{chunk}"),
	)
	if err != nil {
		return nil, err
	}

	return &NotificationMetrics{chunks: chunks}, nil
}

// RecordChunk counts one chunk write
func (m *NotificationMetrics) RecordChunk(ctx context.Context, success bool) {
	if m == nil || m.chunks == nil {
		return
	}
	m.chunks.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
}

// PushMetrics tracks connected subscribers and failed deliveries
type PushMetrics struct {
	connected    metric.Int64UpDownCounter
	sendFailures metric.Int64Counter
}

// NewPushMetrics creates a new PushMetrics instance. If provider is nil, it returns nil.
func NewPushMetrics(provider metric.MeterProvider) (*PushMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(PushMetricsMeterName)

	connected, err := meter.Int64UpDownCounter(
		"posting_sync_push_connected",
		metric.WithDescription("Number of currently connected push subscribers"),
		metric.WithUnit("{subscriber}"),
	)
	if err != nil {
		return nil, err
	}

	sendFailures, err := meter.Int64Counter(
		"posting_sync_push_send_failures",
		metric.WithDescription("Push deliveries that could not be written"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, err
	}

	return &PushMetrics{connected: connected, sendFailures: sendFailures}, nil
}

// RecordConnected adjusts the connected gauge by delta
func (m *PushMetrics) RecordConnected(ctx context.Context, delta int64) {
	if m == nil || m.connected == nil {
		return
	}
	m.connected.Add(ctx, delta)
}

// RecordSendFailure counts one failed delivery
func (m *PushMetrics) RecordSendFailure(ctx context.Context, eventType string) {
	if m == nil || m.sendFailures == nil {
		return
	}
	m.sendFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("type", eventType)))
}

// GeoMetrics counts cache keys written by the warm-up
type GeoMetrics struct {
	warmed metric.Int64Counter
}

// NewGeoMetrics creates a new GeoMetrics instance. If provider is nil, it returns nil.
func NewGeoMetrics(provider metric.MeterProvider) (*GeoMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	warmed, err := provider.Meter(GeoMetricsMeterName).Int64Counter(
		"posting_sync_geo_keys_warmed",
		metric.WithDescription("Location keys written to the cache"),
		metric.WithUnit("{key}"),
	)
	if err != nil {
		return nil, err
	}

	return &GeoMetrics{warmed: warmed}, nil
}

// RecordWarmed counts keys newly written by a warm-up run
func (m *GeoMetrics) RecordWarmed(ctx context.Context, count int) {
	if m == nil || m.warmed == nil || count == 0 {
		return
	}
	m.warmed.Add(ctx, int64(count))
}
