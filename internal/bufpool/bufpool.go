// Package bufpool provides the byte-buffer arena shared by the generator's
// producers and its consumer, cutting allocation churn on the hot path.
package bufpool

import (
	"sync"
	"sync/atomic"
)

// Buffer is a pooled, fixed-capacity byte buffer plus the number of valid
// bytes written into it.
//
// Contract:
//   - The goroutine that acquired the buffer is its only writer.
//   - Once handed to another stage (e.g. sent on a channel) the sender must
//     not touch it again.
//   - The final owner calls Release exactly once. Releasing twice panics.
type Buffer struct {
	data     []byte
	n        int
	pool     *Pool
	released atomic.Bool
}

// Bytes returns the valid portion of the buffer.
func (b *Buffer) Bytes() []byte { return b.data[:b.n] }

// Len is the number of valid bytes.
func (b *Buffer) Len() int { return b.n }

// Cap is the fixed capacity of the buffer.
func (b *Buffer) Cap() int { return len(b.data) }

// Free is the number of bytes still available for writing.
func (b *Buffer) Free() int { return len(b.data) - b.n }

// Tail returns the writable remainder as a zero-length slice with capacity
// Free(); append into it and then call Advance with the number of bytes added.
func (b *Buffer) Tail() []byte { return b.data[b.n:b.n] }

// Advance marks n more bytes as valid.
func (b *Buffer) Advance(n int) {
	if n < 0 || b.n+n > len(b.data) {
		panic("bufpool: advance out of range")
	}
	b.n += n
}

// Release returns the buffer to its pool. The caller must not use b after
// Release.
func (b *Buffer) Release() {
	if !b.released.CompareAndSwap(false, true) {
		panic("bufpool: buffer released twice")
	}
	b.pool.outstanding.Add(-1)
	b.pool.p.Put(b)
}

// Pool hands out Buffers of a single size.
type Pool struct {
	size        int
	p           sync.Pool
	outstanding atomic.Int64
}

// New returns a pool of buffers with the given capacity.
func New(size int) *Pool {
	if size <= 0 {
		panic("bufpool: size must be positive")
	}
	return &Pool{size: size}
}

// Size is the capacity of every buffer handed out by the pool.
func (p *Pool) Size() int { return p.size }

// Acquire returns an empty buffer owned by the caller.
func (p *Pool) Acquire() *Buffer {
	p.outstanding.Add(1)
	if v := p.p.Get(); v != nil {
		b := v.(*Buffer)
		b.n = 0
		b.released.Store(false)
		return b
	}
	return &Buffer{data: make([]byte, p.size), pool: p}
}

// Outstanding is the number of buffers acquired and not yet released. It is
// zero once every buffer has completed its round trip.
func (p *Pool) Outstanding() int64 { return p.outstanding.Load() }
