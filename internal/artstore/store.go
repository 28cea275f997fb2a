// Package artstore reads and rewrites .itc containers on disk under an
// advisory lock, so concurrent itc invocations against one container are
// serialised.
package artstore

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/zeebo/blake3"

	"github.com/samcharles93/artcache/pkg/itc"
)

const lockRetryDelay = 25 * time.Millisecond

// UpdateOptions controls Update.
type UpdateOptions struct {
	// Create starts from an empty container when path does not exist.
	Create bool
	// Variant is the layout used for items added to a new container.
	Variant itc.Variant
}

// Load reads the container at path while holding a shared lock.
func Load(ctx context.Context, path string, opts itc.ReadOptions) (*itc.File, error) {
	lock, err := acquire(ctx, path, false)
	if err != nil {
		return nil, err
	}
	defer func() { _ = lock.Unlock() }()

	return itc.Open(path, opts)
}

// Update reads the container at path, applies fn and writes the result back,
// holding an exclusive lock throughout. Nothing is written if fn fails.
func Update(ctx context.Context, path string, opts UpdateOptions, fn func(*itc.File) error) error {
	lock, err := acquire(ctx, path, true)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	f, err := itc.Open(path, itc.ReadOptions{Variant: opts.Variant})
	switch {
	case err == nil:
	case opts.Create && errors.Is(err, fs.ErrNotExist):
		f = itc.NewFile(opts.Variant)
	default:
		return err
	}

	if err := fn(f); err != nil {
		return err
	}
	return itc.WriteFile(path, f)
}

// LockPath returns the lock file guarding the container at path. Lock files
// live outside the container directory because a rewrite replaces the
// container inode.
func LockPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	sum := blake3.Sum256([]byte(filepath.Clean(abs)))
	return filepath.Join(os.TempDir(), "artcache-"+hex.EncodeToString(sum[:8])+".lock"), nil
}

func acquire(ctx context.Context, path string, exclusive bool) (*flock.Flock, error) {
	lockPath, err := LockPath(path)
	if err != nil {
		return nil, err
	}
	lock := flock.New(lockPath)

	var ok bool
	if exclusive {
		ok, err = lock.TryLockContext(ctx, lockRetryDelay)
	} else {
		ok, err = lock.TryRLockContext(ctx, lockRetryDelay)
	}
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("lock %s: not acquired", path)
	}
	return lock, nil
}
