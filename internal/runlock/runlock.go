// Package runlock guards a destination directory against concurrent runs.
// Two runs copying into the same destination would race on targets and
// resume markers, so the second one refuses to start.
package runlock

import (
	"errors"
	"path/filepath"

	"github.com/gofrs/flock"

	"tagsift/internal/apperr"
)

const lockName = ".tagsift.lock"

type Lock struct {
	path string
	fl   *flock.Flock
}

// New prepares a lock inside dir. Nothing is taken until Acquire.
func New(dir string) *Lock {
	path := filepath.Join(dir, lockName)
	return &Lock{path: path, fl: flock.New(path)}
}

func (l *Lock) Path() string { return l.path }

// Acquire takes the lock without blocking. A held lock surfaces as
// apperr.LockHeld so callers can print a friendly conflict message.
func (l *Lock) Acquire() error {
	ok, err := l.fl.TryLock()
	if err != nil {
		return apperr.Wrap(apperr.IOFailure, "acquire lock", l.path, err)
	}
	if !ok {
		return apperr.Wrap(apperr.LockHeld, "acquire lock", l.path, errors.New("held by another process"))
	}
	return nil
}

func (l *Lock) Release() error {
	return l.fl.Unlock()
}
