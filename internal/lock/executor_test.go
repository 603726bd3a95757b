package lock_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/posting-sync/internal/lock"
	"github.com/stacklok/posting-sync/internal/lock/mocks"
)

func newMockLocker(t *testing.T) (*mocks.MockLocker, *gomock.Controller) {
	t.Helper()
	ctrl := gomock.NewController(t)
	locker := mocks.NewMockLocker(ctrl)
	locker.EXPECT().Backend().Return("mock").AnyTimes()
	return locker, ctrl
}

func TestWithLock_Unavailable(t *testing.T) {
	t.Parallel()

	locker, _ := newMockLocker(t)
	locker.EXPECT().
		Acquire(gomock.Any(), "sync:golang", time.Second, time.Minute).
		Return(nil, lock.ErrLockUnavailable)

	called := false
	res, err := lock.NewExecutor(locker).WithLock(context.Background(), "sync:golang", time.Second, time.Minute,
		func(context.Context) error {
			called = true
			return nil
		})

	require.NoError(t, err)
	assert.Equal(t, lock.OutcomeUnavailable, res.Outcome)
	assert.False(t, res.Ran())
	assert.False(t, called, "action must not run without the lock")
}

func TestWithLock_BackendError(t *testing.T) {
	t.Parallel()

	backendErr := errors.New("connection refused")
	locker, _ := newMockLocker(t)
	locker.EXPECT().Acquire(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, backendErr)

	res, err := lock.NewExecutor(locker).WithLock(context.Background(), "k", 0, time.Minute,
		func(context.Context) error {
			t.Fatal("action must not run")
			return nil
		})

	require.ErrorIs(t, err, backendErr)
	assert.False(t, res.Ran())
}

func TestWithLock_ReleasesAfterAction(t *testing.T) {
	t.Parallel()

	actionErr := errors.New("fetch failed")

	tests := []struct {
		name      string
		actionErr error
	}{
		{name: "success", actionErr: nil},
		{name: "action error is returned unchanged", actionErr: actionErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			locker, ctrl := newMockLocker(t)
			lease := mocks.NewMockLease(ctrl)

			locker.EXPECT().Acquire(gomock.Any(), "k", gomock.Any(), gomock.Any()).Return(lease, nil)
			lease.EXPECT().Release(gomock.Any()).Return(nil).Times(1)

			res, err := lock.NewExecutor(locker).WithLock(context.Background(), "k", 0, time.Minute,
				func(context.Context) error { return tt.actionErr })

			assert.Equal(t, tt.actionErr, err)
			assert.Equal(t, lock.OutcomeAcquired, res.Outcome)
			assert.False(t, res.LeaseExpired)
		})
	}
}

func TestWithLock_ReleasesOnPanic(t *testing.T) {
	t.Parallel()

	locker, ctrl := newMockLocker(t)
	lease := mocks.NewMockLease(ctrl)
	locker.EXPECT().Acquire(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(lease, nil)
	lease.EXPECT().Release(gomock.Any()).Return(nil).Times(1)

	assert.PanicsWithValue(t, "boom", func() {
		_, _ = lock.NewExecutor(locker).WithLock(context.Background(), "k", 0, time.Minute,
			func(context.Context) error { panic("boom") })
	})
}

func TestWithLock_ReleasesWhenContextCancelled(t *testing.T) {
	t.Parallel()

	locker, ctrl := newMockLocker(t)
	lease := mocks.NewMockLease(ctrl)
	locker.EXPECT().Acquire(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(lease, nil)
	lease.EXPECT().Release(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
		// Release must not inherit the caller's cancellation
		assert.NoError(t, ctx.Err())
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	_, err := lock.NewExecutor(locker).WithLock(ctx, "k", 0, time.Minute,
		func(ctx context.Context) error {
			cancel()
			return ctx.Err()
		})
	require.ErrorIs(t, err, context.Canceled)
}

func TestWithLock_LeaseExpired(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		lease      time.Duration
		actionTime time.Duration
		releaseErr error
	}{
		{name: "action outlives lease", lease: time.Millisecond, actionTime: 20 * time.Millisecond},
		{name: "backend reports lease lost", lease: time.Hour, releaseErr: lock.ErrLeaseLost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			locker, ctrl := newMockLocker(t)
			lease := mocks.NewMockLease(ctrl)
			locker.EXPECT().Acquire(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(lease, nil)
			lease.EXPECT().Release(gomock.Any()).Return(tt.releaseErr)

			res, err := lock.NewExecutor(locker).WithLock(context.Background(), "k", 0, tt.lease,
				func(context.Context) error {
					time.Sleep(tt.actionTime)
					return nil
				})

			require.NoError(t, err)
			assert.True(t, res.Ran())
			assert.True(t, res.LeaseExpired)
		})
	}
}

func TestRun_ReturnsValue(t *testing.T) {
	t.Parallel()

	locker, ctrl := newMockLocker(t)
	lease := mocks.NewMockLease(ctrl)
	locker.EXPECT().Acquire(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(lease, nil)
	lease.EXPECT().Release(gomock.Any()).Return(nil)

	n, res, err := lock.Run(context.Background(), lock.NewExecutor(locker), "k", 0, time.Minute,
		func(context.Context) (int, error) { return 42, nil })

	require.NoError(t, err)
	assert.True(t, res.Ran())
	assert.Equal(t, 42, n)
}

func TestRun_ZeroValueWhenUnavailable(t *testing.T) {
	t.Parallel()

	locker, _ := newMockLocker(t)
	locker.EXPECT().Acquire(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, lock.ErrLockUnavailable)

	s, res, err := lock.Run(context.Background(), lock.NewExecutor(locker), "k", 0, time.Minute,
		func(context.Context) (string, error) { return "ran", nil })

	require.NoError(t, err)
	assert.Equal(t, lock.OutcomeUnavailable, res.Outcome)
	assert.Empty(t, s)
}
