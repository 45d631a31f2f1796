package generator

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/zeebo/xxh3"

	"linesort/internal/bufpool"
	"linesort/internal/config"
	"linesort/internal/phrases"
	"linesort/internal/record"
)

// Producer fills pooled buffers with "<seq>.<phrase>\r\n" entries and sends
// them on the channel until the shared byte budget is spent.
//
// One Producer value may be Run concurrently by many goroutines; each Run
// call owns its own random source and buffer.
type Producer struct {
	ch     *Channel
	pool   *bufpool.Pool
	state  *State
	table  *phrases.Table
	target uint64
	strict bool

	epoch  uint64
	starts atomic.Uint64
}

// NewProducer validates opts and returns a Producer. The pool's buffers must
// be able to hold at least one entry built from the longest phrase.
func NewProducer(ch *Channel, pool *bufpool.Pool, state *State, table *phrases.Table, opts Options) (*Producer, error) {
	if err := config.RequirePositive("target_size", opts.TargetSize); err != nil {
		return nil, err
	}
	if err := config.RequirePositive("buffer_size", opts.BufferSize); err != nil {
		return nil, err
	}
	if table == nil || table.Len() == 0 {
		return nil, fmt.Errorf("%w: phrase table is empty", config.ErrInvalid)
	}
	if need := record.MaxEntrySize(table.MaxLen()); pool.Size() < need {
		return nil, fmt.Errorf("%w: buffer_size %d cannot hold a %d byte entry", config.ErrInvalid, pool.Size(), need)
	}
	return &Producer{
		ch:     ch,
		pool:   pool,
		state:  state,
		table:  table,
		target: opts.TargetSize,
		strict: opts.Strict,
		epoch:  uint64(time.Now().UnixNano()),
	}, nil
}

// Run produces until the budget is exhausted or ctx is cancelled.
func (p *Producer) Run(ctx context.Context) error {
	rng := p.newRand()
	for {
		buf := p.pool.Acquire()
		last := p.fill(rng, buf)
		if buf.Len() == 0 {
			buf.Release()
			return nil
		}
		if err := p.ch.Send(ctx, buf); err != nil {
			buf.Release()
			return err
		}
		if last {
			return nil
		}
	}
}

// fill appends entries to buf while it has room for the worst-case entry.
// It reports true when this producer must stop after sending buf.
//
// Every entry reserves its size from the shared budget before it is written.
// An entry reserved while the committed total was already at or past the
// target is dropped. The single entry that carries the total from below the
// target to at or above it is written; the consumer cuts the file at the
// exact target.
func (p *Producer) fill(rng *rand.Rand, buf *bufpool.Buffer) (last bool) {
	for {
		phrase := p.table.Pick(rng)
		if buf.Free() < record.MaxEntrySize(len(phrase)) {
			return false
		}
		seq := p.state.NextSequence()
		size := record.EntrySize(seq, len(phrase))
		before, ok := p.reserve(size)
		if !ok {
			return true
		}
		buf.Advance(len(record.AppendEntry(buf.Tail(), seq, phrase)))
		if before+uint64(size) >= p.target {
			return true
		}
	}
}

func (p *Producer) reserve(size int) (before uint64, ok bool) {
	if p.strict {
		return p.state.TryCommit(size, p.target)
	}
	before = p.state.Commit(size)
	return before, before < p.target
}

// newRand seeds a PCG source from a hash of the producer epoch and a
// per-Run counter, so concurrent runs never share a stream.
func (p *Producer) newRand() *rand.Rand {
	var key [16]byte
	binary.LittleEndian.PutUint64(key[:8], p.epoch)
	binary.LittleEndian.PutUint64(key[8:], p.starts.Add(1))
	h := xxh3.Hash128(key[:])
	return rand.New(rand.NewPCG(h.Hi, h.Lo))
}
