package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/stacklok/posting-sync/internal/lock"
	"github.com/stacklok/posting-sync/internal/notification"
	"github.com/stacklok/posting-sync/internal/otel"
	"github.com/stacklok/posting-sync/internal/provider"
	"github.com/stacklok/posting-sync/internal/status"
	"github.com/stacklok/posting-sync/internal/sync/state"
	"github.com/stacklok/posting-sync/internal/sync/writer"
	"github.com/stacklok/posting-sync/internal/telemetry"
	"github.com/stacklok/posting-sync/internal/watchlist"
)

const (
	// DefaultLockWaitTimeout is how long a keyword waits for its lock
	DefaultLockWaitTimeout = 5 * time.Second

	// DefaultLockLeaseTimeout bounds how long a keyword may hold its lock
	DefaultLockLeaseTimeout = 10 * time.Minute

	// LockKeyPrefix prefixes every keyword lock key
	LockKeyPrefix = "sync:"

	statusUpdateTimeout = 10 * time.Second
)

//go:generate mockgen -destination=mocks/mock_synchronizer.go -package=mocks -source=synchronizer.go Synchronizer,NotificationPersister,EventPublisher

// Synchronizer runs sync cycles
type Synchronizer interface {
	// SyncAll runs one cycle over keywords
	SyncAll(ctx context.Context, keywords []string) CycleResult

	// SyncKeyword syncs a single keyword under its lock. A keyword whose lock
	// is held elsewhere is reported as skipped with a nil error.
	SyncKeyword(ctx context.Context, keyword string) (KeywordResult, error)
}

// NotificationPersister durably records notification events
type NotificationPersister interface {
	Persist(ctx context.Context, events []notification.Event) error
}

// EventPublisher delivers notification events to connected subscribers
type EventPublisher interface {
	PublishEvents(ctx context.Context, events []notification.Event) error
}

// Outcome is the result of one keyword run
type Outcome string

const (
	// OutcomeSynced means the keyword was fetched and reconciled
	OutcomeSynced Outcome = "synced"

	// OutcomeSkipped means another instance held the keyword lock
	OutcomeSkipped Outcome = "skipped"

	// OutcomeFailed means the keyword run failed
	OutcomeFailed Outcome = "failed"

	// OutcomeCancelled means the caller's context ended during the run
	OutcomeCancelled Outcome = "cancelled"
)

// KeywordResult describes one keyword run
type KeywordResult struct {
	Keyword string
	Outcome Outcome

	// Reason is set when Outcome is not OutcomeSynced
	Reason Reason

	Fetched  int
	Inserted int
	Seen     int
	Stale    int
	Events   int

	// LeaseExpired is set when the run outlived its lock lease
	LeaseExpired bool
	Duration     time.Duration
}

// CycleResult describes one SyncAll call
type CycleResult struct {
	StartedAt time.Time
	Duration  time.Duration

	// Keywords holds one result per keyword that was started, in input order
	Keywords []KeywordResult

	// Errors holds the failure of each failed keyword
	Errors []*Error

	// Aborted is set when a lock backend failure stopped the cycle.
	// Cancelled is set when ctx ended before every keyword ran.
	// NotRun lists the keywords that were never started.
	Aborted   bool
	Cancelled bool
	NotRun    []string
}

// Count returns how many keywords ended with outcome
func (r CycleResult) Count(outcome Outcome) int {
	n := 0
	for _, kr := range r.Keywords {
		if kr.Outcome == outcome {
			n++
		}
	}
	return n
}

// Err joins the keyword failures, or returns nil
func (r CycleResult) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// RecruitingSynchronizer is the Synchronizer for provider postings
type RecruitingSynchronizer struct {
	executor  *lock.Executor
	fetcher   provider.Fetcher
	store     writer.PostingStore
	members   watchlist.MembershipSource
	states    state.KeywordStateService
	persister NotificationPersister
	publisher EventPublisher

	stale        StalePolicy
	operators    []string
	waitTimeout  time.Duration
	leaseTimeout time.Duration
	concurrency  int
	now          func() time.Time

	metrics *telemetry.SyncMetrics
	tracer  trace.Tracer
}

var _ Synchronizer = (*RecruitingSynchronizer)(nil)

// Option configures a RecruitingSynchronizer
type Option func(*RecruitingSynchronizer)

// WithPersister sets the notification persistence sink
func WithPersister(p NotificationPersister) Option {
	return func(s *RecruitingSynchronizer) {
		s.persister = p
	}
}

// WithPublisher sets the push delivery sink
func WithPublisher(p EventPublisher) Option {
	return func(s *RecruitingSynchronizer) {
		s.publisher = p
	}
}

// WithStalePolicy replaces the default mark-stale policy
func WithStalePolicy(p StalePolicy) Option {
	return func(s *RecruitingSynchronizer) {
		if p != nil {
			s.stale = p
		}
	}
}

// WithOperators sets the subscribers that receive processing-error notifications
func WithOperators(ids []string) Option {
	return func(s *RecruitingSynchronizer) {
		s.operators = ids
	}
}

// WithLockTimeouts sets the wait and lease timeouts of keyword locks
func WithLockTimeouts(wait, lease time.Duration) Option {
	return func(s *RecruitingSynchronizer) {
		if wait >= 0 {
			s.waitTimeout = wait
		}
		if lease > 0 {
			s.leaseTimeout = lease
		}
	}
}

// WithConcurrency bounds how many keywords run at once. Values below 1 mean 1.
func WithConcurrency(n int) Option {
	return func(s *RecruitingSynchronizer) {
		s.concurrency = max(n, 1)
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *RecruitingSynchronizer) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMetrics records sync metrics
func WithMetrics(m *telemetry.SyncMetrics) Option {
	return func(s *RecruitingSynchronizer) {
		s.metrics = m
	}
}

// WithTracer wraps keyword runs in spans
func WithTracer(t trace.Tracer) Option {
	return func(s *RecruitingSynchronizer) {
		s.tracer = t
	}
}

// NewRecruitingSynchronizer creates a RecruitingSynchronizer
func NewRecruitingSynchronizer(
	executor *lock.Executor,
	fetcher provider.Fetcher,
	store writer.PostingStore,
	members watchlist.MembershipSource,
	states state.KeywordStateService,
	opts ...Option,
) *RecruitingSynchronizer {
	s := &RecruitingSynchronizer{
		executor:     executor,
		fetcher:      fetcher,
		store:        store,
		members:      members,
		states:       states,
		stale:        &MarkStalePolicy{store: store},
		waitTimeout:  DefaultLockWaitTimeout,
		leaseTimeout: DefaultLockLeaseTimeout,
		concurrency:  1,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SyncAll implements Synchronizer.
//
// Keywords run with bounded concurrency. A lock backend failure or the end of
// ctx stops new keywords from starting; those already running finish.
func (s *RecruitingSynchronizer) SyncAll(ctx context.Context, keywords []string) CycleResult {
	cycle := CycleResult{StartedAt: s.now()}
	start := time.Now()

	results := make([]*KeywordResult, len(keywords))
	failures := make([]*Error, len(keywords))
	var aborted atomic.Bool

	var g errgroup.Group
	g.SetLimit(s.concurrency)

	for i, keyword := range keywords {
		if aborted.Load() || ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if aborted.Load() || ctx.Err() != nil {
				return nil
			}
			result, err := s.syncKeyword(ctx, keyword, cycle.StartedAt)
			results[i] = &result

			var syncErr *Error
			if errors.As(err, &syncErr) && syncErr.Reason != ReasonCancelled {
				failures[i] = syncErr
				if syncErr.Reason == ReasonLockBackend {
					aborted.Store(true)
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	for i, r := range results {
		if r == nil {
			cycle.NotRun = append(cycle.NotRun, keywords[i])
			continue
		}
		cycle.Keywords = append(cycle.Keywords, *r)
		if failures[i] != nil {
			cycle.Errors = append(cycle.Errors, failures[i])
		}
	}
	cycle.Aborted = aborted.Load()
	cycle.Cancelled = ctx.Err() != nil && (len(cycle.NotRun) > 0 || cycle.Count(OutcomeCancelled) > 0)
	cycle.Duration = time.Since(start)

	if cycle.Aborted {
		slog.Error("Sync cycle aborted by lock backend failure",
			"not_run", len(cycle.NotRun),
			"error", cycle.Err(),
		)
	}
	if cycle.Cancelled {
		slog.Warn("Sync cycle cancelled",
			"cancelled", cycle.Count(OutcomeCancelled),
			"not_run", len(cycle.NotRun),
		)
	}
	slog.Info("Sync cycle finished",
		"keywords", len(keywords),
		"synced", cycle.Count(OutcomeSynced),
		"skipped", cycle.Count(OutcomeSkipped),
		"failed", cycle.Count(OutcomeFailed),
		"duration", cycle.Duration,
	)
	return cycle
}

// SyncKeyword implements Synchronizer
func (s *RecruitingSynchronizer) SyncKeyword(ctx context.Context, keyword string) (KeywordResult, error) {
	return s.syncKeyword(ctx, keyword, s.now())
}

// syncKeyword runs one keyword as part of the cycle that started at cycleStart
func (s *RecruitingSynchronizer) syncKeyword(
	ctx context.Context,
	keyword string,
	cycleStart time.Time,
) (KeywordResult, error) {
	ctx, span := otel.StartSpan(ctx, s.tracer, "sync.SyncKeyword",
		trace.WithAttributes(otel.AttrKeyword.String(keyword)),
	)
	defer span.End()

	start := time.Now()
	result, lockResult, err := lock.Run(ctx, s.executor, LockKeyPrefix+keyword, s.waitTimeout, s.leaseTimeout,
		func(ctx context.Context) (KeywordResult, error) {
			return s.reconcile(ctx, keyword, cycleStart)
		})

	switch {
	case err != nil && ctx.Err() != nil:
		// The caller gave up; neither the backend nor the provider failed
		result.Keyword = keyword
		result.Outcome = OutcomeCancelled
		result.Reason = ReasonCancelled
		err = newError(ReasonCancelled, keyword, "keyword sync cancelled", err)
		slog.Warn("Keyword sync cancelled", "keyword", keyword, "ran", lockResult.Ran())

	case lockResult.Outcome == lock.OutcomeUnavailable:
		result = KeywordResult{Keyword: keyword, Outcome: OutcomeSkipped, Reason: ReasonLockUnavailable}
		s.markSkipped(ctx, keyword)
		slog.Info("Skipping keyword, lock held by another instance", "keyword", keyword)

	case err != nil && !lockResult.Ran():
		syncErr := newError(ReasonLockBackend, keyword, "failed to acquire keyword lock", err)
		result = KeywordResult{Keyword: keyword, Outcome: OutcomeFailed, Reason: ReasonLockBackend}
		s.recordFailure(ctx, keyword, syncErr)
		err = syncErr
	}

	result.LeaseExpired = lockResult.LeaseExpired
	result.Duration = time.Since(start)
	s.metrics.RecordSyncDuration(ctx, keyword, string(result.Outcome), result.Duration)

	span.SetAttributes(
		otel.AttrFetchedCount.Int(result.Fetched),
		otel.AttrInsertedCount.Int(result.Inserted),
		otel.AttrStaleCount.Int(result.Stale),
	)
	if err != nil {
		otel.RecordError(span, err)
		if result.Outcome != OutcomeCancelled {
			s.notifyOperators(ctx, keyword, err)
		}
	}
	return result, err
}

// reconcile runs under the keyword lock
func (s *RecruitingSynchronizer) reconcile(
	ctx context.Context,
	keyword string,
	cycleStart time.Time,
) (result KeywordResult, err error) {
	startedAt := s.now()
	result = KeywordResult{Keyword: keyword, Outcome: OutcomeFailed}

	s.markSyncing(ctx, keyword, startedAt)
	defer func() {
		s.recordStatus(ctx, keyword, startedAt, result, err)
	}()

	postings, err := s.fetcher.Fetch(ctx, keyword)
	if err != nil {
		result.Reason = ReasonFetchFailed
		return result, newError(ReasonFetchFailed, keyword, "failed to fetch postings", err)
	}
	result.Fetched = len(postings)

	known, err := s.store.ListExternalIDs(ctx, keyword)
	if err != nil {
		result.Reason = ReasonStoreFailed
		return result, newError(ReasonStoreFailed, keyword, "failed to list stored postings", err)
	}
	d := diffPostings(postings, known)

	inserted, err := s.store.InsertNew(ctx, d.fresh, startedAt)
	if err != nil {
		result.Reason = ReasonStoreFailed
		return result, newError(ReasonStoreFailed, keyword, "failed to insert postings", err)
	}
	result.Inserted = len(inserted)
	s.metrics.RecordPostingsInserted(ctx, keyword, len(inserted))

	// Fresh postings that lost the insert already exist under another keyword
	seen := append(d.known, notInserted(d.fresh, inserted)...)
	if len(seen) > 0 {
		if _, err := s.store.MarkSeen(ctx, seen, startedAt); err != nil {
			result.Reason = ReasonStoreFailed
			return result, newError(ReasonStoreFailed, keyword, "failed to mark postings seen", err)
		}
	}
	result.Seen = len(seen)

	if len(d.missing) > 0 {
		// Another keyword may have seen the posting earlier in this cycle
		if _, err := s.stale.NotSeen(ctx, keyword, d.missing, cycleStart); err != nil {
			result.Reason = ReasonStoreFailed
			return result, newError(ReasonStoreFailed, keyword, "failed to handle stale postings", err)
		}
	}
	result.Stale = len(d.missing)
	s.metrics.RecordPostingsStale(ctx, keyword, len(d.missing))

	events, err := s.postingOpenedEvents(ctx, keyword, inserted, startedAt)
	if err != nil {
		result.Reason = ReasonStoreFailed
		return result, newError(ReasonStoreFailed, keyword, "failed to build notifications", err)
	}
	result.Events = len(events)
	s.dispatch(ctx, events)

	result.Outcome = OutcomeSynced
	slog.Info("Keyword synced",
		"keyword", keyword,
		"fetched", result.Fetched,
		"inserted", result.Inserted,
		"seen", result.Seen,
		"stale", result.Stale,
		"events", result.Events,
	)
	return result, nil
}

// postingOpenedEvents builds one event per watching member and inserted posting
func (s *RecruitingSynchronizer) postingOpenedEvents(
	ctx context.Context,
	keyword string,
	inserted []provider.Posting,
	at time.Time,
) ([]notification.Event, error) {
	if len(inserted) == 0 {
		return nil, nil
	}

	companyIDs := make([]string, 0, len(inserted))
	for _, p := range inserted {
		companyIDs = append(companyIDs, p.CompanyID)
	}
	watchers, err := s.members.MembersWatching(ctx, companyIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to read watchlist memberships: %w", err)
	}

	var events []notification.Event
	for _, p := range inserted {
		for _, member := range watchers[p.CompanyID] {
			event, err := notification.NewEvent(member, notification.TypePostingOpened, notification.PostingOpened{
				ExternalID: p.ExternalID,
				CompanyID:  p.CompanyID,
				Title:      p.Title,
				URL:        p.URL,
				Keyword:    keyword,
			}, at)
			if err != nil {
				return nil, err
			}
			events = append(events, event)
		}
	}
	return events, nil
}

// dispatch hands events to both sinks concurrently. Sink errors are logged only.
func (s *RecruitingSynchronizer) dispatch(ctx context.Context, events []notification.Event) {
	if len(events) == 0 {
		return
	}

	var g errgroup.Group
	if s.persister != nil {
		g.Go(func() error {
			if err := s.persister.Persist(ctx, events); err != nil {
				slog.Error("Failed to persist notifications", "count", len(events), "error", err)
				return err
			}
			return nil
		})
	}
	if s.publisher != nil {
		g.Go(func() error {
			if err := s.publisher.PublishEvents(ctx, events); err != nil {
				slog.Warn("Failed to push some notifications", "count", len(events), "error", err)
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		otel.RecordError(trace.SpanFromContext(ctx), err)
	}
}

// notifyOperators sends a processing-error notification for a failed keyword
func (s *RecruitingSynchronizer) notifyOperators(ctx context.Context, keyword string, err error) {
	if len(s.operators) == 0 {
		return
	}

	reason := ""
	var syncErr *Error
	if errors.As(err, &syncErr) {
		reason = string(syncErr.Reason)
	}

	at := s.now()
	events := make([]notification.Event, 0, len(s.operators))
	for _, operator := range s.operators {
		event, buildErr := notification.NewEvent(operator, notification.TypeProcessingError, notification.ProcessingError{
			Keyword: keyword,
			Reason:  reason,
			Message: err.Error(),
		}, at)
		if buildErr != nil {
			slog.Error("Failed to build processing error notification", "keyword", keyword, "error", buildErr)
			return
		}
		events = append(events, event)
	}
	s.dispatch(ctx, events)
}

func (s *RecruitingSynchronizer) markSyncing(ctx context.Context, keyword string, at time.Time) {
	s.updateStatus(ctx, keyword, func(st *status.KeywordSyncStatus) bool {
		st.Phase = status.SyncPhaseSyncing
		st.Message = "Sync in progress"
		st.LastAttempt = &at
		st.AttemptCount++
		return true
	})
}

// markSkipped records a skip unless another instance is syncing the keyword
func (s *RecruitingSynchronizer) markSkipped(ctx context.Context, keyword string) {
	at := s.now()
	s.updateStatus(ctx, keyword, func(st *status.KeywordSyncStatus) bool {
		if st.Phase == status.SyncPhaseSyncing {
			return false
		}
		st.Phase = status.SyncPhaseSkipped
		st.Message = "Lock held by another instance"
		st.LastAttempt = &at
		return true
	})
}

// recordFailure records a failure that happened outside the keyword lock
func (s *RecruitingSynchronizer) recordFailure(ctx context.Context, keyword string, syncErr *Error) {
	at := s.now()
	slog.Error("Keyword sync failed", "keyword", keyword, "reason", syncErr.Reason, "error", syncErr.Err)
	s.updateStatus(ctx, keyword, func(st *status.KeywordSyncStatus) bool {
		if st.Phase == status.SyncPhaseSyncing {
			return false
		}
		st.Phase = status.SyncPhaseFailed
		st.Message = syncErr.Message
		st.LastAttempt = &at
		st.AttemptCount++
		return true
	})
}

// recordStatus writes the final status of a run held under the lock
func (s *RecruitingSynchronizer) recordStatus(
	ctx context.Context,
	keyword string,
	startedAt time.Time,
	result KeywordResult,
	err error,
) {
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Keyword sync failed", "keyword", keyword, "reason", result.Reason, "error", err)
	}

	s.updateStatus(ctx, keyword, func(st *status.KeywordSyncStatus) bool {
		st.LastAttempt = &startedAt
		st.FetchedCount = result.Fetched
		st.InsertedCount = result.Inserted
		st.StaleCount = result.Stale

		if err != nil || result.Outcome != OutcomeSynced {
			st.Phase = status.SyncPhaseFailed
			st.Message = "Sync failed"
			if err != nil {
				st.Message = err.Error()
			}
			return true
		}

		st.Phase = status.SyncPhaseComplete
		st.Message = fmt.Sprintf("Synced %d postings, %d new", result.Fetched, result.Inserted)
		st.LastSuccess = &startedAt
		st.AttemptCount = 0
		return true
	})
}

// updateStatus applies fn atomically. The write survives cancellation of ctx.
func (s *RecruitingSynchronizer) updateStatus(
	ctx context.Context,
	keyword string,
	fn func(*status.KeywordSyncStatus) bool,
) {
	if s.states == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), statusUpdateTimeout)
	defer cancel()

	if _, err := s.states.UpdateStatusAtomically(ctx, keyword, fn); err != nil {
		slog.Error("Failed to update sync status", "keyword", keyword, "error", err)
	}
}
