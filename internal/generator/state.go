package generator

import "sync/atomic"

// State is the only mutable state shared between producers: a byte budget
// counter and a sequence counter. Both are updated with atomic operations
// only.
type State struct {
	committed atomic.Uint64
	seq       atomic.Uint64
}

// NewState returns a State whose first sequence number is 1.
func NewState() *State { return &State{} }

// NextSequence issues the next globally unique sequence number.
func (s *State) NextSequence() uint64 { return s.seq.Add(1) }

// Commit unconditionally adds n bytes to the budget and returns the total
// before the add. Concurrent producers may all commit past the target; each
// decides from the returned value whether its own entry still fits.
func (s *State) Commit(n int) (before uint64) {
	return s.committed.Add(uint64(n)) - uint64(n)
}

// TryCommit adds n bytes only while the committed total is below target.
// It returns the total before the add and whether the add happened. Once
// the target is reached no further bytes are committed, so the final total
// never exceeds target+n-1 for the largest n.
func (s *State) TryCommit(n int, target uint64) (before uint64, ok bool) {
	for {
		cur := s.committed.Load()
		if cur >= target {
			return cur, false
		}
		if s.committed.CompareAndSwap(cur, cur+uint64(n)) {
			return cur, true
		}
	}
}

// Committed is the total number of bytes reserved so far.
func (s *State) Committed() uint64 { return s.committed.Load() }

// Issued is the number of sequence numbers handed out so far.
func (s *State) Issued() uint64 { return s.seq.Load() }
