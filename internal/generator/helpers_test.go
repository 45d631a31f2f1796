package generator

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"linesort/internal/bufpool"
	"linesort/internal/phrases"
)

type pipeline struct {
	gen      *Generator
	state    *State
	pool     *bufpool.Pool
	consumer *Consumer
	path     string
}

func wire(t *testing.T, opts Options, table *phrases.Table) pipeline {
	t.Helper()
	if opts.OutputPath == "" {
		opts.OutputPath = filepath.Join(t.TempDir(), "out.txt")
	}
	if table == nil {
		table = phrases.Default()
	}
	pool := bufpool.New(opts.BufferSize)
	ch := NewChannel(opts.Workers)
	state := NewState()

	producer, err := NewProducer(ch, pool, state, table, opts)
	require.NoError(t, err)
	consumer, err := NewConsumer(ch, opts)
	require.NoError(t, err)
	gen, err := New(ch, consumer, producer, opts.Workers)
	require.NoError(t, err)

	return pipeline{gen: gen, state: state, pool: pool, consumer: consumer, path: opts.OutputPath}
}

// completeLines splits generator output into CRLF-terminated lines, dropping
// a trailing partial entry.
func completeLines(data []byte) [][]byte {
	parts := bytes.Split(data, []byte("\r\n"))
	return parts[:len(parts)-1]
}
