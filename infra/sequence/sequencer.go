package sequence

import "sync/atomic"

// Sequencer hands out document versions. Versions are strictly
// increasing across restarts as long as the journal replay reports the
// last version it applied.
type Sequencer struct {
	last atomic.Uint64
}

// New starts after the given version; 0 on a fresh store.
func New(last uint64) *Sequencer {
	s := &Sequencer{}
	s.last.Store(last)
	return s
}

func (s *Sequencer) Next() uint64 {
	return s.last.Add(1)
}

// Current returns the last issued version.
func (s *Sequencer) Current() uint64 {
	return s.last.Load()
}

// Observe raises the sequencer to at least v. Used while restoring
// from a snapshot and the journal, where versions arrive in order but
// may skip.
func (s *Sequencer) Observe(v uint64) {
	for {
		cur := s.last.Load()
		if v <= cur || s.last.CompareAndSwap(cur, v) {
			return
		}
	}
}
