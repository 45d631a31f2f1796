// Package verify checks that a file is sorted by record.Compare.
package verify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/edsrzf/mmap-go"

	"linesort/internal/bitmap"
	"linesort/internal/record"
)

var (
	// ErrUnsorted is returned by Report.Err when two adjacent lines are out
	// of order.
	ErrUnsorted = errors.New("verify: lines out of order")
	// ErrDuplicate is returned by Report.Err when a sequence number repeats.
	ErrDuplicate = errors.New("verify: duplicate sequence number")
)

const cancelCheckEvery = 1 << 16

// MaxTrackedSequence bounds the sequence numbers checked for duplicates,
// keeping the bitmap at 512 MiB or less.
const MaxTrackedSequence = 1<<32 - 1

// Report summarizes one verified file.
type Report struct {
	Size   int64
	Lines  int64
	Digest uint64

	// Disorder is the 1-based line number of the first line that sorts
	// before its predecessor, or 0 when the file is sorted.
	Disorder int64
	Prev     string
	Line     string

	// Duplicates counts lines whose non-zero sequence number was already
	// seen. FirstDuplicate is the first such number.
	Duplicates     int64
	FirstDuplicate uint64
}

// Sorted reports whether every adjacent pair is in order.
func (r Report) Sorted() bool { return r.Disorder == 0 }

// Err returns an error wrapping ErrUnsorted or ErrDuplicate, or nil for a
// clean report.
func (r Report) Err() error {
	switch {
	case !r.Sorted():
		return fmt.Errorf("%w: line %d %q sorts before %q", ErrUnsorted, r.Disorder, r.Line, r.Prev)
	case r.Duplicates > 0:
		return fmt.Errorf("%w: %d repeats, first %d", ErrDuplicate, r.Duplicates, r.FirstDuplicate)
	}
	return nil
}

// File maps path read-only and checks it.
func File(ctx context.Context, path string) (Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return Report{}, fmt.Errorf("verify: open %s: %w", path, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return Report{}, fmt.Errorf("verify: stat %s: %w", path, err)
	}
	if st.Size() == 0 {
		return Bytes(ctx, nil)
	}

	mm, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return Report{}, fmt.Errorf("verify: mmap %s: %w", path, err)
	}
	r, err := Bytes(ctx, mm)
	if uerr := mm.Unmap(); err == nil && uerr != nil {
		err = fmt.Errorf("verify: unmap %s: %w", path, uerr)
	}
	return r, err
}

// Bytes checks data as a sequence of "\n" or "\r\n" terminated lines. A
// final line without terminator counts as a line. Checking stops at the
// first disorder; Lines, Digest and Duplicates still cover the whole input.
func Bytes(ctx context.Context, data []byte) (Report, error) {
	r := Report{Size: int64(len(data)), Digest: xxhash.Sum64(data)}
	seen := bitmap.New(uint64(len(data)/16), MaxTrackedSequence)

	var prev record.Line
	for len(data) > 0 {
		if r.Lines%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return r, err
			}
		}
		var raw []byte
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			raw, data = data[:i], data[i+1:]
		} else {
			raw, data = data, nil
		}
		r.Lines++

		cur := record.Parse(record.TrimEOL(string(raw)))
		if cur.Seq != 0 && seen.Add(cur.Seq) {
			if r.Duplicates == 0 {
				r.FirstDuplicate = cur.Seq
			}
			r.Duplicates++
		}
		if r.Disorder != 0 {
			continue
		}
		if r.Lines > 1 && record.Compare(prev, cur) > 0 {
			r.Disorder = r.Lines
			r.Prev = prev.Raw
			r.Line = cur.Raw
		}
		prev = cur
	}
	return r, nil
}
