// Package filelock wraps advisory file locks shared between processes.
package filelock

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
)

// RetryInterval is the pause between lock attempts
const RetryInterval = 50 * time.Millisecond

// Lock acquires an exclusive lock on path, waiting until ctx is done.
func Lock(ctx context.Context, path string) (*flock.Flock, error) {
	fl := flock.New(path)
	locked, err := fl.TryLockContext(ctx, RetryInterval)
	return checked(ctx, fl, path, locked, err)
}

// RLock acquires a shared lock on path, waiting until ctx is done.
func RLock(ctx context.Context, path string) (*flock.Flock, error) {
	fl := flock.New(path)
	locked, err := fl.TryRLockContext(ctx, RetryInterval)
	return checked(ctx, fl, path, locked, err)
}

func checked(ctx context.Context, fl *flock.Flock, path string, locked bool, err error) (*flock.Flock, error) {
	if err != nil {
		return nil, fmt.Errorf("acquiring file lock %s: %w", path, err)
	}
	if !locked {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("acquiring file lock %s: %w", path, ctx.Err())
		}
		return nil, fmt.Errorf("acquiring file lock %s: lock not acquired", path)
	}
	return fl, nil
}

// Release unlocks and closes fl. The lock file stays on disk so a lock
// taken concurrently by another process is never invalidated.
func Release(logger *zap.Logger, fl *flock.Flock) {
	if fl == nil {
		return
	}
	if err := fl.Close(); err != nil {
		logger.Debug("failed to release file lock", zap.String("path", fl.Path()), zap.Error(err))
	}
}
