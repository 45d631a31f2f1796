// Package file implements a local filesystem-backed data source.
package file

import (
	"context"
	"fmt"
	"io"
	"os"

	"linesort/internal/fsutil"
)

// Local opens one file on the local disk. It is safe for concurrent use;
// every Open returns an independent handle.
type Local struct{ path string }

// NewLocal returns a Local source bound to path.
func NewLocal(path string) *Local { return &Local{path: path} }

// Name returns the bound path.
func (l *Local) Name() string { return l.path }

// Open opens the file for a single front-to-back pass.
//
// A context that is already done short-circuits without touching the
// filesystem. Filesystem errors are wrapped with the path and still match
// errors.Is(err, os.ErrNotExist) and friends.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	fsutil.AdviseSequential(f)
	return f, nil
}

// Size reports the current file length, or -1 when it cannot be read.
func (l *Local) Size() int64 {
	st, err := os.Stat(l.path)
	if err != nil {
		return -1
	}
	return st.Size()
}
