package extsort

import (
	"bufio"
	"container/heap"
	"context"
	"fmt"
	"io"

	"linesort/internal/config"
	"linesort/internal/record"
)

// cancelCheckEvery bounds how many records are merged between context checks.
const cancelCheckEvery = 1 << 10

// Merger performs a k-way merge of sorted sources into a writer. The same
// routine merges in-memory partitions into a chunk and chunk files into the
// final output.
type Merger struct {
	bufferSize int
	compare    func(a, b record.Line) int
}

// NewMerger returns a Merger ordering records by record.Compare.
func NewMerger(bufferSize int) (*Merger, error) {
	return NewMergerFunc(bufferSize, record.Compare)
}

// NewMergerFunc returns a Merger with a custom ordering.
func NewMergerFunc(bufferSize int, compare func(a, b record.Line) int) (*Merger, error) {
	if err := config.RequirePositive("buffer_size", bufferSize); err != nil {
		return nil, err
	}
	if compare == nil {
		return nil, fmt.Errorf("%w: merger needs a comparator", config.ErrInvalid)
	}
	return &Merger{bufferSize: bufferSize, compare: compare}, nil
}

// BufferSize is the write buffer size used by Merge.
func (m *Merger) BufferSize() int { return m.bufferSize }

// Merge writes every record of every source to w, one Raw line per record
// terminated by record.EOL, in ascending order. It returns the number of
// lines written. With no sources, or only empty ones, nothing is written.
func (m *Merger) Merge(ctx context.Context, sources []Source, w io.Writer) (int64, error) {
	h := &cursorHeap{compare: m.compare}
	for _, src := range sources {
		l, ok, err := src.Next()
		if err != nil {
			return 0, err
		}
		if ok {
			h.items = append(h.items, cursor{src: src, head: l})
		}
	}
	heap.Init(h)

	bw := bufio.NewWriterSize(w, m.bufferSize)
	var n int64
	for h.Len() > 0 {
		if n%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return n, err
			}
		}
		top := &h.items[0]
		if _, err := bw.WriteString(top.head.Raw); err != nil {
			return n, fmt.Errorf("merge: write: %w", err)
		}
		if _, err := bw.WriteString(record.EOL); err != nil {
			return n, fmt.Errorf("merge: write: %w", err)
		}
		n++

		next, ok, err := top.src.Next()
		if err != nil {
			return n, err
		}
		if ok {
			top.head = next
			heap.Fix(h, 0)
		} else {
			heap.Pop(h)
		}
	}
	if err := bw.Flush(); err != nil {
		return n, fmt.Errorf("merge: flush: %w", err)
	}
	return n, nil
}

type cursor struct {
	src  Source
	head record.Line
}

type cursorHeap struct {
	items   []cursor
	compare func(a, b record.Line) int
}

func (h *cursorHeap) Len() int           { return len(h.items) }
func (h *cursorHeap) Less(i, j int) bool { return h.compare(h.items[i].head, h.items[j].head) < 0 }
func (h *cursorHeap) Swap(i, j int)      { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *cursorHeap) Push(x any)         { h.items = append(h.items, x.(cursor)) }

func (h *cursorHeap) Pop() any {
	old := h.items
	last := old[len(old)-1]
	h.items = old[:len(old)-1]
	return last
}
