//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package fsutil

import "os"

// LockExclusive is a no-op on platforms without flock.
func LockExclusive(f *os.File) error { return nil }
