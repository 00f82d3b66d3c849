// Package runlock keeps two runs for the same ATS from overlapping, which
// would double the request rate against that vendor.
package runlock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

var ErrHeld = errors.New("another run holds the lock")

type Lock struct {
	fl *flock.Flock
}

// Acquire takes the lock for label without waiting.
func Acquire(dir, label string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("lock dir: %w", err)
	}
	name := "jobmirror-" + strings.ToLower(strings.TrimSpace(label)) + ".lock"
	fl := flock.New(filepath.Join(dir, name))

	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", fl.Path(), err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHeld, fl.Path())
	}
	return &Lock{fl: fl}, nil
}

func (l *Lock) Path() string { return l.fl.Path() }

func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}
