package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Local stores uploads as files in a single directory.
type Local struct {
	dir string
}

// NewLocal returns a store rooted at dir. The directory is created on first Put.
func NewLocal(dir string) *Local {
	return &Local{dir: dir}
}

// Dir returns the configured directory.
func (l *Local) Dir() string {
	return l.dir
}

// Put writes body to a new file in the upload directory. An existing file yields ErrExists.
func (l *Local) Put(ctx context.Context, name string, body io.Reader, _ int64, _ string) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	if name == "" || filepath.Base(name) != name {
		return Object{}, fmt.Errorf("invalid object name %q", name)
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return Object{}, fmt.Errorf("create upload dir %s: %w", l.dir, err)
	}

	path := filepath.Join(l.dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return Object{}, fmt.Errorf("%w: %s", ErrExists, path)
		}
		return Object{}, err
	}

	n, err := io.Copy(f, body)
	if err == nil {
		err = f.Sync()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return Object{}, fmt.Errorf("write %s: %w", path, err)
	}

	return Object{Location: path, Size: n}, nil
}
