package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/posting-sync/internal/otel"
	"github.com/stacklok/posting-sync/internal/telemetry"
)

const releaseTimeout = 5 * time.Second

// Outcome tells whether the guarded action ran
type Outcome string

const (
	// OutcomeAcquired means the lock was taken and the action ran
	OutcomeAcquired Outcome = "acquired"

	// OutcomeUnavailable means another holder kept the key and the action did not run
	OutcomeUnavailable Outcome = "unavailable"

	outcomeLeaseExpired = "lease_expired"
)

// Result describes one WithLock call
type Result struct {
	Outcome Outcome

	// LeaseExpired is set when the action outlived its lease. Another instance
	// may have run concurrently for part of that time.
	LeaseExpired bool

	// Held is how long the action ran under the lock
	Held time.Duration
}

// Ran reports whether the action was executed
func (r Result) Ran() bool {
	return r.Outcome == OutcomeAcquired
}

// Executor runs actions while holding a lock
type Executor struct {
	locker  Locker
	metrics *telemetry.LockMetrics
	tracer  trace.Tracer
}

// ExecutorOption configures an Executor
type ExecutorOption func(*Executor)

// WithMetrics records lock outcomes
func WithMetrics(m *telemetry.LockMetrics) ExecutorOption {
	return func(e *Executor) {
		e.metrics = m
	}
}

// WithTracer wraps each call in a span
func WithTracer(t trace.Tracer) ExecutorOption {
	return func(e *Executor) {
		e.tracer = t
	}
}

// NewExecutor creates an Executor backed by locker
func NewExecutor(locker Locker, opts ...ExecutorOption) *Executor {
	e := &Executor{locker: locker}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithLock acquires key within wait and runs action while holding it.
//
// When the key stays held by someone else the action is skipped and the
// result is OutcomeUnavailable with a nil error. Backend failures are
// returned as errors. Once acquired, the lock is released whatever the
// action does, including panicking; the panic is re-raised after release.
// The action's own error is returned unchanged.
func (e *Executor) WithLock(
	ctx context.Context,
	key string,
	wait, lease time.Duration,
	action func(context.Context) error,
) (result Result, err error) {
	backend := e.locker.Backend()
	ctx, span := otel.StartSpan(ctx, e.tracer, "lock.WithLock",
		trace.WithAttributes(otel.AttrLockKey.String(key), otel.AttrLockBackend.String(backend)),
	)
	defer span.End()

	held, err := e.locker.Acquire(ctx, key, wait, lease)
	if errors.Is(err, ErrLockUnavailable) {
		slog.Debug("Lock unavailable", "key", key, "backend", backend, "wait", wait)
		e.metrics.RecordOutcome(ctx, backend, string(OutcomeUnavailable))
		span.SetAttributes(otel.AttrLockOutcome.String(string(OutcomeUnavailable)))
		return Result{Outcome: OutcomeUnavailable}, nil
	}
	if err != nil {
		otel.RecordError(span, err)
		return Result{}, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}

	e.metrics.RecordOutcome(ctx, backend, string(OutcomeAcquired))
	span.SetAttributes(otel.AttrLockOutcome.String(string(OutcomeAcquired)))
	start := time.Now()

	defer func() {
		p := recover()

		result = Result{Outcome: OutcomeAcquired, Held: time.Since(start)}
		result.LeaseExpired = result.Held > lease

		// The caller's context may already be cancelled; release still has to happen
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer cancel()

		if relErr := held.Release(releaseCtx); relErr != nil {
			if errors.Is(relErr, ErrLeaseLost) {
				result.LeaseExpired = true
			} else {
				slog.Warn("Failed to release lock", "key", key, "backend", backend, "error", relErr)
			}
		}

		if result.LeaseExpired {
			slog.Warn("lease expired before release",
				"key", key,
				"backend", backend,
				"lease", lease,
				"held", result.Held,
			)
			e.metrics.RecordOutcome(ctx, backend, outcomeLeaseExpired)
		}

		if p != nil {
			panic(p)
		}
	}()

	err = action(ctx)
	if err != nil {
		otel.RecordError(span, err)
	}
	return result, err
}

// Run is WithLock for actions that produce a value.
// The zero value of T is returned when the action did not run.
func Run[T any](
	ctx context.Context,
	e *Executor,
	key string,
	wait, lease time.Duration,
	fn func(context.Context) (T, error),
) (T, Result, error) {
	var value T
	result, err := e.WithLock(ctx, key, wait, lease, func(ctx context.Context) error {
		var fnErr error
		value, fnErr = fn(ctx)
		return fnErr
	})
	return value, result, err
}
