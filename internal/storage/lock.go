package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 50 * time.Millisecond

// lockPath returns the lock file guarding dir. It lives next to dir so it
// survives the directory being swapped out.
func lockPath(dir string) string {
	return filepath.Join(filepath.Dir(dir), "."+filepath.Base(dir)+".lock")
}

// acquireLock takes an exclusive (or shared, when shared is true) file lock on
// path, retrying until ctx is done.
func acquireLock(ctx context.Context, path string, shared bool) (*flock.Flock, error) {
	fl := flock.New(path)
	var locked bool
	var err error
	if shared {
		locked, err = fl.TryRLockContext(ctx, lockRetryDelay)
	} else {
		locked, err = fl.TryLockContext(ctx, lockRetryDelay)
	}
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("lock %s: not acquired", path)
	}
	return fl, nil
}
