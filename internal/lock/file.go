package lock

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

// FileLocker takes OS file locks under a directory. It only excludes
// processes on the same host, and leases end when the process exits rather
// than after the lease duration.
type FileLocker struct {
	dir          string
	pollInterval time.Duration
}

// NewFileLocker creates a locker whose lock files live in dir
func NewFileLocker(dir string) *FileLocker {
	return &FileLocker{dir: dir, pollInterval: DefaultPollInterval}
}

// Backend implements Locker
func (*FileLocker) Backend() string {
	return "file"
}

// Acquire implements Locker
func (l *FileLocker) Acquire(ctx context.Context, key string, wait, _ time.Duration) (Lease, error) {
	if err := os.MkdirAll(l.dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	fl := flock.New(filepath.Join(l.dir, lockFileName(key)))

	if wait <= 0 {
		ok, err := fl.TryLock()
		if err != nil {
			return nil, fmt.Errorf("failed to lock file: %w", err)
		}
		if !ok {
			return nil, ErrLockUnavailable
		}
		return &fileLease{fl: fl}, nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	ok, err := fl.TryLockContext(waitCtx, l.pollInterval)
	switch {
	case ok:
		return &fileLease{fl: fl}, nil
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case err == nil || errors.Is(err, context.DeadlineExceeded):
		return nil, ErrLockUnavailable
	default:
		return nil, fmt.Errorf("failed to lock file: %w", err)
	}
}

type fileLease struct {
	fl *flock.Flock
}

func (f *fileLease) Release(_ context.Context) error {
	if err := f.fl.Unlock(); err != nil {
		return fmt.Errorf("failed to unlock file: %w", err)
	}
	return nil
}

// maxLockNamePrefix bounds the readable part of a lock file name
const maxLockNamePrefix = 64

// lockFileName maps a key such as "sync:golang" to a safe file name. The
// readable prefix is lossy, so the hash of the full key keeps names distinct.
func lockFileName(key string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			return r
		default:
			return '_'
		}
	}, key)
	if len(safe) > maxLockNamePrefix {
		safe = safe[:maxLockNamePrefix]
	}
	sum := sha256.Sum256([]byte(key))
	return safe + "-" + hex.EncodeToString(sum[:]) + ".lock"
}
