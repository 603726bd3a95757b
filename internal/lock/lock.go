// Package lock provides distributed mutual exclusion for sync work.
//
// A Locker hands out leases on named keys. At most one holder owns a key at
// any instant across all service instances, and a lease expires on its own
// when the holder dies. The Executor layers the run-then-release discipline
// on top of any Locker.
package lock

import (
	"context"
	"errors"
	"time"
)

//go:generate mockgen -destination=mocks/mock_locker.go -package=mocks -source=lock.go Locker,Lease

var (
	// ErrLockUnavailable is returned by a Locker when another holder kept the key
	// for the whole wait timeout.
	ErrLockUnavailable = errors.New("lock unavailable")

	// ErrLeaseLost is returned by Lease.Release when the lease expired and the key
	// was taken over or removed before release.
	ErrLeaseLost = errors.New("lease lost before release")
)

// Locker acquires leases on keys
type Locker interface {
	// Acquire blocks for at most wait. It returns ErrLockUnavailable when the key
	// stayed held, and any other error when the backend itself failed.
	Acquire(ctx context.Context, key string, wait, lease time.Duration) (Lease, error)

	// Backend names the implementation for logs and metrics
	Backend() string
}

// Lease is a held lock
type Lease interface {
	// Release gives the key up if this holder still owns it
	Release(ctx context.Context) error
}

// pollUntil calls try until it reports success, the wait elapses or ctx ends.
// try is always called at least once.
func pollUntil(
	ctx context.Context,
	wait, interval time.Duration,
	try func(context.Context) (bool, error),
) error {
	deadline := time.Now().Add(wait)
	for {
		ok, err := try(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return ErrLockUnavailable
		}

		timer := time.NewTimer(min(interval, remaining))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
