// Package runlock keeps two mailer runs from sharing a data dir, which
// would send the same report twice.
package runlock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const (
	FileName   = "reportmailer.lock"
	retryDelay = 250 * time.Millisecond
)

var ErrLocked = errors.New("another reportmailer run holds the lock")

type Lock struct {
	f *flock.Flock
}

// Acquire takes <dataDir>/reportmailer.lock, waiting up to wait.
func Acquire(ctx context.Context, dataDir string, wait time.Duration) (*Lock, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	f := flock.New(filepath.Join(dataDir, FileName))

	var ok bool
	var err error
	if wait <= 0 {
		ok, err = f.TryLock()
	} else {
		wctx, cancel := context.WithTimeout(ctx, wait)
		defer cancel()
		ok, err = f.TryLockContext(wctx, retryDelay)
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", f.Path(), err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return &Lock{f: f}, nil
}

func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	return l.f.Unlock()
}
