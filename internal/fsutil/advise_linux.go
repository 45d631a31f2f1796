//go:build linux

package fsutil

import (
	"os"

	"golang.org/x/sys/unix"
)

// Preallocate reserves size bytes of disk for f without changing its
// apparent length, so a later short write leaves no zero tail.
func Preallocate(f *os.File, size int64) {
	if size <= 0 {
		return
	}
	_ = unix.Fallocate(int(f.Fd()), unix.FALLOC_FL_KEEP_SIZE, 0, size)
}

// AdviseSequential hints that f will be read front to back.
func AdviseSequential(f *os.File) {
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
}
