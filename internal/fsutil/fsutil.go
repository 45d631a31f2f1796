// Package fsutil collects small platform-aware file helpers used by the
// generator and the sorter. Every hint here is best-effort: platforms without
// the underlying syscall fall back to a no-op.
package fsutil

import (
	"errors"
	"os"
	"path/filepath"
)

// ErrLocked is returned by LockExclusive when another process holds the lock.
var ErrLocked = errors.New("fsutil: file is locked by another process")

// Replace atomically moves tmp over dest and then syncs the parent directory
// so the rename survives a crash.
func Replace(tmp, dest string) error {
	if err := os.Rename(tmp, dest); err != nil {
		return err
	}
	_ = syncDir(filepath.Dir(dest))
	return nil
}

func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
