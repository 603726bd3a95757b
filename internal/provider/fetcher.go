package provider

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/posting-sync/internal/otel"
	"github.com/stacklok/posting-sync/internal/telemetry"
)

const (
	// DefaultMaxAttempts is the total number of calls made for transient failures
	DefaultMaxAttempts = 3

	// DefaultAttemptTimeout bounds a single call
	DefaultAttemptTimeout = 10 * time.Second

	defaultInitialInterval = 200 * time.Millisecond
	defaultMaxInterval     = 2 * time.Second
)

//go:generate mockgen -destination=mocks/mock_fetcher.go -package=mocks -source=fetcher.go Fetcher

// Fetcher returns all postings for a keyword
type Fetcher interface {
	Fetch(ctx context.Context, keyword string) ([]Posting, error)
}

// RetryingFetcher retries transient Client failures a bounded number of times
type RetryingFetcher struct {
	client          Client
	classify        Classifier
	maxAttempts     int
	attemptTimeout  time.Duration
	initialInterval time.Duration
	maxInterval     time.Duration
	metrics         *telemetry.ProviderMetrics
	tracer          trace.Tracer
}

// FetcherOption configures a RetryingFetcher
type FetcherOption func(*RetryingFetcher)

// WithClassifier replaces Classify
func WithClassifier(c Classifier) FetcherOption {
	return func(f *RetryingFetcher) {
		if c != nil {
			f.classify = c
		}
	}
}

// WithMaxAttempts sets the total number of calls. Values below 1 are ignored.
func WithMaxAttempts(n int) FetcherOption {
	return func(f *RetryingFetcher) {
		if n > 0 {
			f.maxAttempts = n
		}
	}
}

// WithAttemptTimeout bounds each call
func WithAttemptTimeout(d time.Duration) FetcherOption {
	return func(f *RetryingFetcher) {
		if d > 0 {
			f.attemptTimeout = d
		}
	}
}

// WithBackoff sets the exponential backoff between attempts. Zero initial disables waiting.
func WithBackoff(initial, maxInterval time.Duration) FetcherOption {
	return func(f *RetryingFetcher) {
		f.initialInterval = initial
		f.maxInterval = maxInterval
	}
}

// WithFetcherMetrics records every attempt
func WithFetcherMetrics(m *telemetry.ProviderMetrics) FetcherOption {
	return func(f *RetryingFetcher) {
		f.metrics = m
	}
}

// WithFetcherTracer wraps each Fetch in a span
func WithFetcherTracer(t trace.Tracer) FetcherOption {
	return func(f *RetryingFetcher) {
		f.tracer = t
	}
}

// NewRetryingFetcher creates a RetryingFetcher on client
func NewRetryingFetcher(client Client, opts ...FetcherOption) *RetryingFetcher {
	f := &RetryingFetcher{
		client:          client,
		classify:        Classify,
		maxAttempts:     DefaultMaxAttempts,
		attemptTimeout:  DefaultAttemptTimeout,
		initialInterval: defaultInitialInterval,
		maxInterval:     defaultMaxInterval,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch implements Fetcher. Any returned error is a *PermanentFailure.
func (f *RetryingFetcher) Fetch(ctx context.Context, keyword string) ([]Posting, error) {
	ctx, span := otel.StartSpan(ctx, f.tracer, "provider.Fetch",
		trace.WithAttributes(otel.AttrKeyword.String(keyword)),
	)
	defer span.End()

	var (
		attempts int
		lastErr  error
		lastKind FailureKind
	)

	operation := func() ([]Posting, error) {
		attempts++

		attemptCtx, cancel := context.WithTimeout(ctx, f.attemptTimeout)
		defer cancel()

		postings, err := f.client.Search(attemptCtx, keyword)
		if err == nil {
			f.metrics.RecordAttempt(ctx, keyword, FailureNone.String())
			return postings, nil
		}

		lastErr = err
		lastKind = f.classify(err)
		if ctx.Err() != nil {
			// Cancellation of the caller is never retried
			lastErr, lastKind = ctx.Err(), FailurePermanent
		}
		f.metrics.RecordAttempt(ctx, keyword, lastKind.String())

		if lastKind != FailureTransient {
			return nil, backoff.Permanent(lastErr)
		}

		slog.Warn("Transient provider failure",
			"keyword", keyword,
			"attempt", attempts,
			"max_attempts", f.maxAttempts,
			"error", err,
		)
		return nil, &TransientFailure{Attempt: attempts, Err: err}
	}

	postings, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(f.newBackOff()),
		backoff.WithMaxTries(uint(f.maxAttempts)),
	)
	span.SetAttributes(otel.AttrAttempt.Int(attempts))
	if err == nil {
		span.SetAttributes(otel.AttrResultCount.Int(len(postings)))
		return postings, nil
	}

	if ctx.Err() != nil && lastKind == FailureTransient {
		// Cancelled while backing off between attempts
		lastErr, lastKind = ctx.Err(), FailurePermanent
	}
	if lastErr == nil {
		lastErr = err
	}

	failure := &PermanentFailure{
		Keyword:   keyword,
		Attempts:  attempts,
		Exhausted: lastKind == FailureTransient,
		Err:       lastErr,
	}
	span.SetAttributes(otel.AttrFailureKind.String(lastKind.String()))
	otel.RecordError(span, failure)
	return nil, failure
}

func (f *RetryingFetcher) newBackOff() backoff.BackOff {
	if f.initialInterval <= 0 {
		return &backoff.ZeroBackOff{}
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.initialInterval
	if f.maxInterval > 0 {
		b.MaxInterval = f.maxInterval
	}
	return b
}
