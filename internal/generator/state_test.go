package generator

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_SequenceUniqueAndContiguous(t *testing.T) {
	s := NewState()
	const workers, per = 8, 1000

	seen := make([][]uint64, workers)
	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range per {
				seen[w] = append(seen[w], s.NextSequence())
			}
		}()
	}
	wg.Wait()

	all := map[uint64]bool{}
	for _, list := range seen {
		for _, v := range list {
			require.False(t, all[v], "duplicate sequence %d", v)
			all[v] = true
		}
	}
	for v := uint64(1); v <= workers*per; v++ {
		assert.True(t, all[v], "missing sequence %d", v)
	}
	assert.Equal(t, uint64(workers*per), s.Issued())
}

func TestState_CommitReturnsTotalBeforeAdd(t *testing.T) {
	s := NewState()
	assert.Equal(t, uint64(0), s.Commit(10))
	assert.Equal(t, uint64(10), s.Commit(5))
	assert.Equal(t, uint64(15), s.Committed())
}

func TestState_TryCommitStopsAtTarget(t *testing.T) {
	s := NewState()

	before, ok := s.TryCommit(8, 10)
	require.True(t, ok)
	assert.Equal(t, uint64(0), before)

	before, ok = s.TryCommit(8, 10)
	require.True(t, ok)
	assert.Equal(t, uint64(8), before)

	before, ok = s.TryCommit(8, 10)
	assert.False(t, ok)
	assert.Equal(t, uint64(16), before)
	assert.Equal(t, uint64(16), s.Committed())
}

func TestState_TryCommitConcurrentBound(t *testing.T) {
	s := NewState()
	const target, size = 10_000, 7

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if _, ok := s.TryCommit(size, target); !ok {
					return
				}
			}
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, s.Committed(), uint64(target))
	assert.Less(t, s.Committed(), uint64(target+size))
}
