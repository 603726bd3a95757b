package coordinator_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	pkgsync "github.com/stacklok/posting-sync/internal/sync"
	"github.com/stacklok/posting-sync/internal/sync/coordinator"
	syncmocks "github.com/stacklok/posting-sync/internal/sync/mocks"
	statemocks "github.com/stacklok/posting-sync/internal/sync/state/mocks"
)

var keywords = []string{"golang", "rust"}

// start runs c.Start in the background and returns its result channel
func start(t *testing.T, c coordinator.Coordinator) <-chan error {
	t.Helper()

	errCh := make(chan error, 1)
	go func() {
		errCh <- c.Start(context.Background())
	}()
	t.Cleanup(func() {
		_ = c.Stop()
	})
	return errCh
}

func TestParseSchedule(t *testing.T) {
	t.Parallel()

	tests := []struct {
		spec    string
		wantErr bool
	}{
		{spec: coordinator.DefaultSchedule},
		{spec: "*/15 * * * *"},
		{spec: "@daily"},
		{spec: "@every 1h"},
		{spec: "0 0 3 * * *", wantErr: true},
		{spec: "tomorrow", wantErr: true},
		{spec: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			t.Parallel()
			_, err := coordinator.ParseSchedule(tt.spec)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStart_InvalidSchedule(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	c := coordinator.New(syncmocks.NewMockSynchronizer(ctrl), statemocks.NewMockKeywordStateService(ctrl), keywords,
		coordinator.WithSchedule("not a schedule"))

	err := c.Start(context.Background())
	assert.ErrorContains(t, err, "invalid sync schedule")
}

func TestStart_InitializeFailure(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	states := statemocks.NewMockKeywordStateService(ctrl)
	states.EXPECT().Initialize(gomock.Any(), keywords).Return(errors.New("db down"))

	c := coordinator.New(syncmocks.NewMockSynchronizer(ctrl), states, keywords)

	err := c.Start(context.Background())
	assert.ErrorContains(t, err, "failed to initialize keyword sync status")
	assert.NoError(t, c.Stop())
}

func TestStart_RunOnStart(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	states := statemocks.NewMockKeywordStateService(ctrl)
	synchronizer := syncmocks.NewMockSynchronizer(ctrl)

	states.EXPECT().Initialize(gomock.Any(), keywords).Return(nil)
	ran := make(chan struct{})
	synchronizer.EXPECT().SyncAll(gomock.Any(), keywords).
		DoAndReturn(func(_ context.Context, kws []string) pkgsync.CycleResult {
			close(ran)
			return pkgsync.CycleResult{Keywords: []pkgsync.KeywordResult{
				{Keyword: kws[0], Outcome: pkgsync.OutcomeSynced},
				{Keyword: kws[1], Outcome: pkgsync.OutcomeSkipped},
			}}
		})

	c := coordinator.New(synchronizer, states, keywords, coordinator.WithRunOnStart(true))
	errCh := start(t, c)

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("initial cycle did not run")
	}

	require.Eventually(t, func() bool {
		_, ok := c.LastCycle()
		return ok && !c.Running()
	}, 5*time.Second, 10*time.Millisecond)

	last, _ := c.LastCycle()
	assert.Equal(t, 1, last.Count(pkgsync.OutcomeSynced))

	require.NoError(t, c.Stop())
	assert.NoError(t, <-errCh)
}

func TestTriggerNow_NotStarted(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	c := coordinator.New(syncmocks.NewMockSynchronizer(ctrl), statemocks.NewMockKeywordStateService(ctrl), keywords)

	assert.ErrorIs(t, c.TriggerNow(), coordinator.ErrNotStarted)
	_, ok := c.LastCycle()
	assert.False(t, ok)
}

func TestTriggerNow_BusyWhileCycleRuns(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	states := statemocks.NewMockKeywordStateService(ctrl)
	synchronizer := syncmocks.NewMockSynchronizer(ctrl)

	states.EXPECT().Initialize(gomock.Any(), gomock.Any()).Return(nil)
	release := make(chan struct{})
	var calls atomic.Int32
	synchronizer.EXPECT().SyncAll(gomock.Any(), keywords).
		DoAndReturn(func(context.Context, []string) pkgsync.CycleResult {
			calls.Add(1)
			<-release
			return pkgsync.CycleResult{}
		}).Times(2)

	c := coordinator.New(synchronizer, states, keywords, coordinator.WithRunOnStart(true))
	start(t, c)

	require.Eventually(t, c.Running, 5*time.Second, 10*time.Millisecond)
	assert.ErrorIs(t, c.TriggerNow(), coordinator.ErrCycleInProgress)

	close(release)
	require.Eventually(t, func() bool { return !c.Running() }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, c.TriggerNow())
	require.Eventually(t, func() bool { return calls.Load() == 2 && !c.Running() }, 5*time.Second, 10*time.Millisecond)
}

func TestStop_WaitsForRunningCycle(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	states := statemocks.NewMockKeywordStateService(ctrl)
	synchronizer := syncmocks.NewMockSynchronizer(ctrl)

	states.EXPECT().Initialize(gomock.Any(), gomock.Any()).Return(nil)
	release := make(chan struct{})
	var finished atomic.Bool
	var cycleErr atomic.Value
	synchronizer.EXPECT().SyncAll(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, kw []string) pkgsync.CycleResult {
			<-release
			cycleErr.Store(fmt.Sprint(ctx.Err()))
			finished.Store(true)
			return pkgsync.CycleResult{Keywords: []pkgsync.KeywordResult{{Keyword: kw[0], Outcome: pkgsync.OutcomeSynced}}}
		})

	c := coordinator.New(synchronizer, states, keywords, coordinator.WithRunOnStart(true))
	errCh := start(t, c)
	require.Eventually(t, c.Running, 5*time.Second, 10*time.Millisecond)

	stopped := make(chan error, 1)
	go func() { stopped <- c.Stop() }()

	select {
	case <-stopped:
		t.Fatal("Stop returned while the cycle was still running")
	case <-time.After(100 * time.Millisecond):
	}

	close(release)
	select {
	case err := <-stopped:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return after the cycle finished")
	}

	assert.True(t, finished.Load(), "Stop returned before the cycle finished")
	assert.Equal(t, "<nil>", cycleErr.Load(), "the running cycle must not be cancelled by Stop")
	assert.NoError(t, <-errCh)
	assert.ErrorIs(t, c.TriggerNow(), coordinator.ErrNotStarted)

	last, ok := c.LastCycle()
	require.True(t, ok)
	assert.False(t, last.Aborted)
}

func TestStart_ParentCancelDoesNotCancelCycle(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	states := statemocks.NewMockKeywordStateService(ctrl)
	synchronizer := syncmocks.NewMockSynchronizer(ctrl)

	states.EXPECT().Initialize(gomock.Any(), gomock.Any()).Return(nil)
	entered := make(chan struct{})
	release := make(chan struct{})
	var cycleErr atomic.Value
	synchronizer.EXPECT().SyncAll(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ []string) pkgsync.CycleResult {
			close(entered)
			<-release
			cycleErr.Store(fmt.Sprint(ctx.Err()))
			return pkgsync.CycleResult{}
		})

	ctx, cancel := context.WithCancel(context.Background())
	c := coordinator.New(synchronizer, states, keywords, coordinator.WithRunOnStart(true))
	errCh := make(chan error, 1)
	go func() { errCh <- c.Start(ctx) }()

	<-entered
	cancel()
	time.Sleep(50 * time.Millisecond)
	close(release)

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after its context was cancelled")
	}
	assert.Equal(t, "<nil>", cycleErr.Load())
}

func TestStart_ScheduleFires(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	states := statemocks.NewMockKeywordStateService(ctrl)
	synchronizer := syncmocks.NewMockSynchronizer(ctrl)

	states.EXPECT().Initialize(gomock.Any(), gomock.Any()).Return(nil)
	fired := make(chan struct{}, 8)
	synchronizer.EXPECT().SyncAll(gomock.Any(), keywords).
		DoAndReturn(func(context.Context, []string) pkgsync.CycleResult {
			fired <- struct{}{}
			return pkgsync.CycleResult{}
		}).MinTimes(1)

	c := coordinator.New(synchronizer, states, keywords, coordinator.WithSchedule("@every 1s"))
	start(t, c)

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduled cycle did not run")
	}
}

func TestStart_Twice(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	states := statemocks.NewMockKeywordStateService(ctrl)
	states.EXPECT().Initialize(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	synchronizer := syncmocks.NewMockSynchronizer(ctrl)
	synchronizer.EXPECT().SyncAll(gomock.Any(), gomock.Any()).Return(pkgsync.CycleResult{}).AnyTimes()

	c := coordinator.New(synchronizer, states, keywords)
	errCh := start(t, c)

	require.Eventually(t, func() bool {
		return !errors.Is(c.TriggerNow(), coordinator.ErrNotStarted)
	}, 5*time.Second, 10*time.Millisecond)

	assert.ErrorContains(t, c.Start(context.Background()), "already started")
	require.NoError(t, c.Stop())
	assert.NoError(t, <-errCh)
}
