// Package otel provides tracing helpers shared by the sync, notification and push packages.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys used on spans across the service
const (
	AttrKeyword        = attribute.Key("sync.keyword")
	AttrLockKey        = attribute.Key("lock.key")
	AttrLockBackend    = attribute.Key("lock.backend")
	AttrLockOutcome    = attribute.Key("lock.outcome")
	AttrAttempt        = attribute.Key("provider.attempt")
	AttrFailureKind    = attribute.Key("provider.failure_kind")
	AttrFetchedCount   = attribute.Key("sync.fetched")
	AttrInsertedCount  = attribute.Key("sync.inserted")
	AttrStaleCount     = attribute.Key("sync.stale")
	AttrRecipientCount = attribute.Key("notification.recipients")
	AttrChunkCount     = attribute.Key("notification.chunks")
	AttrSubscriberID   = attribute.Key("push.subscriber_id")
	AttrEventType      = attribute.Key("push.event_type")
	AttrResultCount    = attribute.Key("result.count")
)

// StartSpan starts a new span if the tracer is non-nil, otherwise returns the span already in ctx.
func StartSpan(
	ctx context.Context,
	tracer trace.Tracer,
	name string,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

// RecordError records err on span and marks the span as failed.
// The status description stays generic so connection strings and SQL do not
// leak into span status; details remain in the recorded event.
func RecordError(span trace.Span, err error) {
	if err != nil && span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "operation failed")
	}
}
