package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/posting-sync/internal/otel"
	"github.com/stacklok/posting-sync/internal/telemetry"
)

// DefaultBatchSize is the number of notifications written per chunk
const DefaultBatchSize = 200

//go:generate mockgen -destination=mocks/mock_chunk_writer.go -package=mocks -source=writer.go ChunkWriter

// ChunkWriter writes one chunk of notifications atomically. Writing a
// notification whose DedupKey already exists must not create a visible row.
type ChunkWriter interface {
	WriteChunk(ctx context.Context, chunk []Notification) (int64, error)
}

// PersistenceChunkFailure reports a chunk that could not be written
type PersistenceChunkFailure struct {
	Index int
	Size  int
	Err   error
}

func (e *PersistenceChunkFailure) Error() string {
	return fmt.Sprintf("failed to persist notification chunk %d (%d notifications): %v", e.Index, e.Size, e.Err)
}

func (e *PersistenceChunkFailure) Unwrap() error {
	return e.Err
}

// BatchWriter persists events in fixed-size, independent chunks
type BatchWriter struct {
	writer    ChunkWriter
	batchSize int
	metrics   *telemetry.NotificationMetrics
	tracer    trace.Tracer
}

// BatchWriterOption configures a BatchWriter
type BatchWriterOption func(*BatchWriter)

// WithBatchSize overrides DefaultBatchSize. Values below 1 are ignored.
func WithBatchSize(n int) BatchWriterOption {
	return func(w *BatchWriter) {
		if n > 0 {
			w.batchSize = n
		}
	}
}

// WithMetrics records chunk outcomes
func WithMetrics(m *telemetry.NotificationMetrics) BatchWriterOption {
	return func(w *BatchWriter) {
		w.metrics = m
	}
}

// WithTracer wraps each Persist in a span
func WithTracer(t trace.Tracer) BatchWriterOption {
	return func(w *BatchWriter) {
		w.tracer = t
	}
}

// NewBatchWriter creates a BatchWriter on writer
func NewBatchWriter(writer ChunkWriter, opts ...BatchWriterOption) *BatchWriter {
	w := &BatchWriter{
		writer:    writer,
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Persist writes events chunk by chunk. A failed chunk does not roll back
// earlier chunks or stop later ones; every failure is returned joined as
// *PersistenceChunkFailure values. Persisting the same events again is safe.
func (w *BatchWriter) Persist(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}

	chunks := chunk(events, w.batchSize)

	ctx, span := otel.StartSpan(ctx, w.tracer, "notification.Persist",
		trace.WithAttributes(
			otel.AttrRecipientCount.Int(len(events)),
			otel.AttrChunkCount.Int(len(chunks)),
		),
	)
	defer span.End()

	var (
		errs     []error
		inserted int64
	)
	for i, events := range chunks {
		batch := make([]Notification, len(events))
		for j, e := range events {
			batch[j] = FromEvent(e)
		}

		n, err := w.writer.WriteChunk(ctx, batch)
		w.metrics.RecordChunk(ctx, err == nil)
		if err != nil {
			slog.Error("Failed to persist notification chunk",
				"chunk", i,
				"size", len(batch),
				"error", err,
			)
			errs = append(errs, &PersistenceChunkFailure{Index: i, Size: len(batch), Err: err})
			continue
		}
		inserted += n
	}

	slog.Debug("Persisted notifications",
		"events", len(events),
		"chunks", len(chunks),
		"inserted", inserted,
		"failed_chunks", len(errs),
	)

	if err := errors.Join(errs...); err != nil {
		otel.RecordError(span, err)
		return err
	}
	return nil
}

func chunk[T any](items []T, size int) [][]T {
	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end])
	}
	return chunks
}
