package generator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linesort/internal/bufpool"
	"linesort/internal/config"
)

func sendText(t *testing.T, ch *Channel, pool *bufpool.Pool, text string) {
	t.Helper()
	b := pool.Acquire()
	b.Advance(copy(b.Tail()[:len(text)], text))
	require.NoError(t, ch.Send(context.Background(), b))
}

func TestNewConsumer_Validation(t *testing.T) {
	ch := NewChannel(1)
	for name, opts := range map[string]Options{
		"no path":     {TargetSize: 1, BufferSize: 128},
		"blank path":  {OutputPath: "  ", TargetSize: 1, BufferSize: 128},
		"zero target": {OutputPath: "x", BufferSize: 128},
		"zero buffer": {OutputPath: "x", TargetSize: 1},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NewConsumer(ch, opts)
			require.ErrorIs(t, err, config.ErrInvalid)
		})
	}
}

func TestConsumer_TruncatesAtTarget(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	pool := bufpool.New(128)
	ch := NewChannel(1)
	c, err := NewConsumer(ch, Options{OutputPath: path, TargetSize: 3, BufferSize: 128})
	require.NoError(t, err)

	sendText(t, ch, pool, "1.Apple\r\n")
	sendText(t, ch, pool, "2.Banana\r\n")
	ch.Close()

	require.NoError(t, c.Run(context.Background()))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1.A", string(data))
	assert.Equal(t, uint64(3), c.Written())
	assert.Equal(t, uint64(2), c.Received())
	assert.Zero(t, pool.Outstanding())
}

func TestConsumer_WritesEverythingBelowTarget(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, os.WriteFile(path, []byte("stale content that must go away"), 0o644))

	pool := bufpool.New(128)
	ch := NewChannel(1)
	c, err := NewConsumer(ch, Options{OutputPath: path, TargetSize: 1 << 10, BufferSize: 128})
	require.NoError(t, err)

	sendText(t, ch, pool, "1.Apple\r\n")
	sendText(t, ch, pool, "2.Banana\r\n")
	ch.Close()

	require.NoError(t, c.Run(context.Background()))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1.Apple\r\n2.Banana\r\n", string(data))
}

func TestConsumer_OpenFailureReturnsWithoutDraining(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.txt")
	ch := NewChannel(1)
	c, err := NewConsumer(ch, Options{OutputPath: path, TargetSize: 3, BufferSize: 128})
	require.NoError(t, err)

	// the channel is never closed; Run must not wait for it
	err = c.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "consumer: open")
}

func TestConsumer_CancelStopsWaiting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	ch := NewChannel(1)
	c, err := NewConsumer(ch, Options{OutputPath: path, TargetSize: 3, BufferSize: 128})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, c.Run(ctx), context.Canceled)
}
