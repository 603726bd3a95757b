package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	pkgsync "github.com/stacklok/posting-sync/internal/sync"
	"github.com/stacklok/posting-sync/internal/sync/state"
)

// DefaultSchedule runs one cycle a day at 03:00
const DefaultSchedule = "0 3 * * *"

var (
	// ErrCycleInProgress is returned by TriggerNow while a cycle runs on this instance
	ErrCycleInProgress = errors.New("sync cycle already in progress")

	// ErrNotStarted is returned by TriggerNow before Start or after Stop
	ErrNotStarted = errors.New("coordinator not started")
)

var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule parses a five-field cron expression or a descriptor such as @daily
func ParseSchedule(spec string) (cron.Schedule, error) {
	sched, err := scheduleParser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid sync schedule %q: %w", spec, err)
	}
	return sched, nil
}

// Coordinator manages background sync scheduling and execution
type Coordinator interface {
	// Start begins scheduling cycles.
	// Blocks until ctx is cancelled, Stop is called, or startup fails.
	Start(ctx context.Context) error

	// Stop halts scheduling and waits for the running cycle to finish.
	// The cycle itself is never cancelled.
	Stop() error

	// TriggerNow starts a cycle in the background
	TriggerNow() error

	// Running reports whether a cycle is running on this instance
	Running() bool

	// LastCycle returns the result of the last finished cycle
	LastCycle() (pkgsync.CycleResult, bool)
}

type defaultCoordinator struct {
	synchronizer pkgsync.Synchronizer
	statusSvc    state.KeywordStateService
	keywords     []string
	schedule     string
	runOnStart   bool
	location     *time.Location

	mu         sync.Mutex
	runCtx     context.Context
	cancelFunc context.CancelFunc
	done       chan struct{}

	running atomic.Bool
	cycles  sync.WaitGroup
	last    atomic.Pointer[pkgsync.CycleResult]
}

// Option is a function that configures the coordinator
type Option func(*defaultCoordinator)

// WithSchedule sets the cron expression. Empty keeps DefaultSchedule.
func WithSchedule(spec string) Option {
	return func(c *defaultCoordinator) {
		if spec != "" {
			c.schedule = spec
		}
	}
}

// WithRunOnStart runs one cycle as soon as Start has initialized
func WithRunOnStart(run bool) Option {
	return func(c *defaultCoordinator) {
		c.runOnStart = run
	}
}

// WithLocation sets the time zone of the schedule
func WithLocation(loc *time.Location) Option {
	return func(c *defaultCoordinator) {
		if loc != nil {
			c.location = loc
		}
	}
}

// New creates a new coordinator with injected dependencies
func New(
	synchronizer pkgsync.Synchronizer,
	statusSvc state.KeywordStateService,
	keywords []string,
	opts ...Option,
) Coordinator {
	c := &defaultCoordinator{
		synchronizer: synchronizer,
		statusSvc:    statusSvc,
		keywords:     keywords,
		schedule:     DefaultSchedule,
		location:     time.UTC,
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start implements Coordinator
func (c *defaultCoordinator) Start(ctx context.Context) error {
	sched, err := ParseSchedule(c.schedule)
	if err != nil {
		return err
	}

	if err := c.statusSvc.Initialize(ctx, c.keywords); err != nil {
		return fmt.Errorf("failed to initialize keyword sync status: %w", err)
	}

	coordCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	if c.cancelFunc != nil {
		c.mu.Unlock()
		cancel()
		return errors.New("coordinator already started")
	}
	c.runCtx = coordCtx
	c.cancelFunc = cancel
	c.mu.Unlock()

	defer func() {
		close(c.done)
		slog.Info("Background sync coordinator shut down")
	}()

	logger := cronLogger{}
	scheduler := cron.New(
		cron.WithLocation(c.location),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	scheduler.Schedule(sched, cron.FuncJob(func() {
		if !c.running.CompareAndSwap(false, true) {
			slog.Info("Skipping scheduled sync cycle, previous cycle still running")
			return
		}
		defer c.running.Store(false)
		c.runCycle(coordCtx, "schedule")
	}))
	scheduler.Start()

	slog.Info("Started background sync coordinator",
		"keywords", len(c.keywords),
		"schedule", c.schedule,
		"location", c.location.String(),
		"next_run", sched.Next(time.Now().In(c.location)),
	)

	if c.runOnStart {
		if err := c.TriggerNow(); err != nil {
			slog.Warn("Failed to run initial sync cycle", "error", err)
		}
	}

	<-coordCtx.Done()
	slog.Info("Sync coordinator stopping")

	<-scheduler.Stop().Done()

	c.mu.Lock()
	c.runCtx = nil
	c.mu.Unlock()
	c.cycles.Wait()
	return nil
}

// Stop implements Coordinator
func (c *defaultCoordinator) Stop() error {
	c.mu.Lock()
	cancel := c.cancelFunc
	c.mu.Unlock()

	if cancel == nil {
		return nil
	}
	slog.Info("Stopping sync coordinator")
	cancel()
	<-c.done
	return nil
}

// TriggerNow implements Coordinator
func (c *defaultCoordinator) TriggerNow() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx := c.runCtx
	if ctx == nil || ctx.Err() != nil {
		return ErrNotStarted
	}
	if !c.running.CompareAndSwap(false, true) {
		return ErrCycleInProgress
	}

	c.cycles.Add(1)
	go func() {
		defer c.cycles.Done()
		defer c.running.Store(false)
		c.runCycle(ctx, "manual")
	}()
	return nil
}

// Running implements Coordinator
func (c *defaultCoordinator) Running() bool {
	return c.running.Load()
}

// LastCycle implements Coordinator
func (c *defaultCoordinator) LastCycle() (pkgsync.CycleResult, bool) {
	last := c.last.Load()
	if last == nil {
		return pkgsync.CycleResult{}, false
	}
	return *last, true
}

// runCycle detaches the cycle from the coordinator's cancellation so a
// shutdown lets started keywords finish and release their locks
func (c *defaultCoordinator) runCycle(ctx context.Context, trigger string) {
	slog.Info("Starting sync cycle", "trigger", trigger, "keywords", len(c.keywords))
	result := c.synchronizer.SyncAll(context.WithoutCancel(ctx), c.keywords)
	c.last.Store(&result)
}

// cronLogger routes cron's logging to slog
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
