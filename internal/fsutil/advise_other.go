//go:build !linux

package fsutil

import "os"

// Preallocate is a no-op outside Linux.
func Preallocate(f *os.File, size int64) {}

// AdviseSequential is a no-op outside Linux.
func AdviseSequential(f *os.File) {}
