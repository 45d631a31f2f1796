package generator

import (
	"context"

	"linesort/internal/bufpool"
)

// SlotsPerWorker sizes the channel relative to the number of producers.
const SlotsPerWorker = 8

// Channel is a bounded queue of filled buffers with many senders and a
// single receiver. Close must be called exactly once, after every sender
// has returned.
type Channel struct {
	ch chan *bufpool.Buffer
}

// NewChannel returns a channel with workers*SlotsPerWorker slots.
func NewChannel(workers int) *Channel {
	return &Channel{ch: make(chan *bufpool.Buffer, max(workers, 1)*SlotsPerWorker)}
}

// Send enqueues b, blocking while the channel is full. On cancellation the
// buffer is not enqueued and ownership stays with the caller.
func (c *Channel) Send(ctx context.Context, b *bufpool.Buffer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case c.ch <- b:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive waits for the next buffer. ok is false once the channel is closed
// and empty.
func (c *Channel) Receive(ctx context.Context) (b *bufpool.Buffer, ok bool, err error) {
	select {
	case b, ok = <-c.ch:
		return b, ok, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// Items is the receive side. Ranging over it ends once Close has been called
// and every queued buffer has been received.
func (c *Channel) Items() <-chan *bufpool.Buffer { return c.ch }

// Close signals that no more buffers will be sent.
func (c *Channel) Close() { close(c.ch) }

// Cap is the number of slots.
func (c *Channel) Cap() int { return cap(c.ch) }

// Len is the number of queued buffers.
func (c *Channel) Len() int { return len(c.ch) }

// releaseRemaining releases every buffer still queued on a closed channel.
func (c *Channel) releaseRemaining() int {
	n := 0
	for b := range c.ch {
		b.Release()
		n++
	}
	return n
}
