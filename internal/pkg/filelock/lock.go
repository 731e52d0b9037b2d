package filelock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/gofrs/flock"
)

// Lock is a single host run lock on a file.
// The OS frees the lock when the holder process exits.
type Lock struct {
	path string
}

// New creates file lock, makes parent dir if missing
func New(path string) (*Lock, error) {
	if path == "" {
		return nil, fmt.Errorf("no lock file path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("can't make lock dir: %w", err)
	}
	goapp.Log.Info().Str("path", path).Msg("cfg: file lock")
	return &Lock{path: path}, nil
}

// TryLock tries to lock without waiting, returns release func if acquired
func (l *Lock) TryLock(ctx context.Context) (func() error, bool, error) {
	fl := flock.New(l.path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, false, fmt.Errorf("can't lock %s: %w", l.path, err)
	}
	if !ok {
		return nil, false, nil
	}
	return func() error {
		if err := fl.Unlock(); err != nil {
			return fmt.Errorf("can't unlock %s: %w", l.path, err)
		}
		return nil
	}, true, nil
}
