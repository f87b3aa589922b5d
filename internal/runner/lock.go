package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// LockFileName is created in the results directory while measure runs.
const LockFileName = ".benchgate.lock"

const lockRetryDelay = 200 * time.Millisecond

// resultsLock serialises measure runs that share a results directory,
// across processes.
type resultsLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

func newResultsLock(resultsDir string) *resultsLock {
	path := filepath.Join(resultsDir, LockFileName)
	return &resultsLock{
		path:  path,
		flock: flock.New(path),
	}
}

// Lock blocks until the lock is held or ctx is done.
func (l *resultsLock) Lock(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	acquired, err := l.flock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("failed to acquire lock %s: %w", l.path, err)
	}
	if !acquired {
		return fmt.Errorf("failed to acquire lock %s", l.path)
	}
	l.locked = true
	return nil
}

// Unlock releases the lock. Safe to call when not held.
func (l *resultsLock) Unlock() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}
