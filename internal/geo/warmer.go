package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/posting-sync/internal/otel"
	"github.com/stacklok/posting-sync/internal/telemetry"
)

// DefaultKeyPrefix is prepended to location ids to form cache keys
const DefaultKeyPrefix = "geo:location:"

// SerializationFailure reports a record that could not be encoded
type SerializationFailure struct {
	LocationID string
	Err        error
}

func (e *SerializationFailure) Error() string {
	return fmt.Sprintf("failed to serialize location %s: %v", e.LocationID, e.Err)
}

func (e *SerializationFailure) Unwrap() error {
	return e.Err
}

// WarmResult counts what a warm-up did
type WarmResult struct {
	Total    int
	Cached   int
	Existing int
	Failed   int
	Duration time.Duration
}

// Warmer copies locations into the cache
type Warmer struct {
	source    LocationSource
	cache     Cache
	keyPrefix string
	marshal   func(LocationRecord) ([]byte, error)
	metrics   *telemetry.GeoMetrics
	tracer    trace.Tracer
}

// WarmerOption configures a Warmer
type WarmerOption func(*Warmer)

// WithKeyPrefix overrides DefaultKeyPrefix
func WithKeyPrefix(prefix string) WarmerOption {
	return func(w *Warmer) {
		if prefix != "" {
			w.keyPrefix = prefix
		}
	}
}

// WithMarshaler replaces the JSON encoding of records
func WithMarshaler(fn func(LocationRecord) ([]byte, error)) WarmerOption {
	return func(w *Warmer) {
		if fn != nil {
			w.marshal = fn
		}
	}
}

// WithMetrics counts newly cached keys
func WithMetrics(m *telemetry.GeoMetrics) WarmerOption {
	return func(w *Warmer) {
		w.metrics = m
	}
}

// WithTracer wraps WarmUp in a span
func WithTracer(t trace.Tracer) WarmerOption {
	return func(w *Warmer) {
		w.tracer = t
	}
}

// NewWarmer creates a Warmer
func NewWarmer(source LocationSource, cache Cache, opts ...WarmerOption) *Warmer {
	w := &Warmer{
		source:    source,
		cache:     cache,
		keyPrefix: DefaultKeyPrefix,
		marshal: func(r LocationRecord) ([]byte, error) {
			return json.Marshal(r)
		},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Key returns the cache key of a location id
func (w *Warmer) Key(id string) string {
	return w.keyPrefix + id
}

// WarmUp writes every location that is not cached yet. Existing keys are never
// overwritten. Records that cannot be serialized are logged and skipped. A
// cache or source error stops the run.
func (w *Warmer) WarmUp(ctx context.Context) (WarmResult, error) {
	ctx, span := otel.StartSpan(ctx, w.tracer, "geo.WarmUp")
	defer span.End()

	start := time.Now()
	var result WarmResult

	records, err := w.source.ListLocations(ctx)
	if err != nil {
		otel.RecordError(span, err)
		return result, fmt.Errorf("failed to load locations: %w", err)
	}
	result.Total = len(records)

	for _, rec := range records {
		value, err := w.marshal(rec)
		if err != nil {
			result.Failed++
			slog.Warn("Skipping location", "error", &SerializationFailure{LocationID: rec.ID, Err: err})
			continue
		}

		// Instances booting together race here; the first writer wins
		written, err := w.cache.SetNX(ctx, w.Key(rec.ID), value)
		if err != nil {
			otel.RecordError(span, err)
			return result, err
		}
		if !written {
			result.Existing++
			continue
		}
		result.Cached++
	}

	result.Duration = time.Since(start)
	w.metrics.RecordWarmed(ctx, result.Cached)
	span.SetAttributes(otel.AttrResultCount.Int(result.Cached))

	slog.Info("Location cache warmed",
		"total", result.Total,
		"cached", result.Cached,
		"existing", result.Existing,
		"failed", result.Failed,
		"duration", result.Duration,
	)
	return result, nil
}
