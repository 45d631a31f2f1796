package extsort

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"linesort/internal/fsutil"
	"linesort/internal/record"
)

// Source yields records in ascending order. ok is false once the source is
// exhausted.
type Source interface {
	Next() (l record.Line, ok bool, err error)
}

// SliceSource walks an in-memory sorted partition.
type SliceSource struct {
	lines []record.Line
	pos   int
}

// NewSliceSource returns a Source over lines, which must already be sorted.
func NewSliceSource(lines []record.Line) *SliceSource {
	return &SliceSource{lines: lines}
}

func (s *SliceSource) Next() (record.Line, bool, error) {
	if s.pos >= len(s.lines) {
		return record.Line{}, false, nil
	}
	l := s.lines[s.pos]
	s.pos++
	return l, true, nil
}

// FileSource reads one line at a time from a buffered stream. Both "\n" and
// "\r\n" terminators are accepted; a final line without terminator is still
// returned.
type FileSource struct {
	name string
	r    *bufio.Reader
	c    io.Closer
}

// NewReaderSource wraps r. The caller keeps ownership of r.
func NewReaderSource(name string, r io.Reader, bufferSize int) *FileSource {
	return &FileSource{name: name, r: bufio.NewReaderSize(r, bufferSize)}
}

// OpenFile opens path for a sequential read. Close releases the handle.
func OpenFile(path string, bufferSize int) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	fsutil.AdviseSequential(f)
	return &FileSource{name: path, r: bufio.NewReaderSize(f, bufferSize), c: f}, nil
}

func (s *FileSource) Next() (record.Line, bool, error) {
	line, err := s.r.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return record.Line{}, false, fmt.Errorf("read %s: %w", s.name, err)
		}
		if line == "" {
			return record.Line{}, false, nil
		}
	}
	return record.Parse(record.TrimEOL(line)), true, nil
}

// Close releases the underlying file, if any.
func (s *FileSource) Close() error {
	if s.c == nil {
		return nil
	}
	c := s.c
	s.c = nil
	return c.Close()
}
