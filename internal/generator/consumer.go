package generator

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sync/atomic"

	"linesort/internal/config"
	"linesort/internal/fsutil"
)

// Consumer is the single writer of the output file. It writes buffers in
// arrival order and stops at exactly TargetSize bytes, truncating the last
// buffer mid-entry if needed.
type Consumer struct {
	ch         *Channel
	path       string
	target     uint64
	bufferSize int

	written  atomic.Uint64
	received atomic.Uint64
}

// NewConsumer validates opts and returns a Consumer for opts.OutputPath.
func NewConsumer(ch *Channel, opts Options) (*Consumer, error) {
	if err := config.RequirePath("output_path", opts.OutputPath); err != nil {
		return nil, err
	}
	if err := config.RequirePositive("target_size", opts.TargetSize); err != nil {
		return nil, err
	}
	if err := config.RequirePositive("buffer_size", opts.BufferSize); err != nil {
		return nil, err
	}
	return &Consumer{
		ch:         ch,
		path:       opts.OutputPath,
		target:     opts.TargetSize,
		bufferSize: opts.BufferSize,
	}, nil
}

// Written is the number of bytes handed to the file so far.
func (c *Consumer) Written() uint64 { return c.written.Load() }

// Received is the number of buffers taken off the channel.
func (c *Consumer) Received() uint64 { return c.received.Load() }

// Run creates or truncates the output file and writes until the target is
// reached or the channel is closed. Buffers that arrive after the target is
// reached are released unwritten, so producers never block on a full
// channel. On failure it returns at once and leaves the remaining buffers
// to the coordinator.
func (c *Consumer) Run(ctx context.Context) (err error) {
	defer func() {
		if err == nil {
			c.drain(ctx)
		}
	}()

	f, err := os.OpenFile(c.path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("consumer: open %s: %w", c.path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("consumer: close %s: %w", c.path, cerr)
		}
	}()
	if err := fsutil.LockExclusive(f); err != nil {
		return fmt.Errorf("consumer: lock %s: %w", c.path, err)
	}
	if err := f.Truncate(0); err != nil {
		return fmt.Errorf("consumer: truncate %s: %w", c.path, err)
	}
	fsutil.Preallocate(f, int64(c.target))

	w := bufio.NewWriterSize(f, c.bufferSize)
	if err := c.write(ctx, w); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("consumer: flush %s: %w", c.path, err)
	}
	return nil
}

func (c *Consumer) write(ctx context.Context, w *bufio.Writer) error {
	for {
		buf, ok, err := c.ch.Receive(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		c.received.Add(1)

		n := min(uint64(buf.Len()), c.target-c.written.Load())
		_, err = w.Write(buf.Bytes()[:n])
		buf.Release()
		if err != nil {
			return fmt.Errorf("consumer: write %s: %w", c.path, err)
		}
		if c.written.Add(n) >= c.target {
			return nil
		}
	}
}

// drain releases buffers until the channel is closed or ctx is done.
func (c *Consumer) drain(ctx context.Context) {
	for {
		buf, ok, err := c.ch.Receive(ctx)
		if err != nil || !ok {
			return
		}
		c.received.Add(1)
		buf.Release()
	}
}
