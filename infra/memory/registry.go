package memory

import (
	"sync"
	"sync/atomic"
)

type registration interface {
	comparable
	idle() bool   // deregistered and holding no pins
	pinned() bool // holding at least one pin
}

// registry is a copy-on-write list of reader registrations. The writer
// scans it without locking; the mutex only orders registration against
// pruning, neither of which sits on the load path.
type registry[R registration] struct {
	mu      sync.Mutex
	records atomic.Pointer[[]R]
}

func (g *registry[R]) add(r R) {
	g.mu.Lock()
	defer g.mu.Unlock()

	var old []R
	if p := g.records.Load(); p != nil {
		old = *p
	}
	next := make([]R, len(old), len(old)+1)
	copy(next, old)
	next = append(next, r)
	g.records.Store(&next)
}

func (g *registry[R]) snapshot() []R {
	if p := g.records.Load(); p != nil {
		return *p
	}
	return nil
}

// prune drops idle registrations and reports how many were removed.
func (g *registry[R]) prune() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	old := g.snapshot()
	next := make([]R, 0, len(old))
	for _, r := range old {
		if !r.idle() {
			next = append(next, r)
		}
	}
	if len(next) == len(old) {
		return 0
	}
	g.records.Store(&next)
	return len(old) - len(next)
}

func (g *registry[R]) counts() (readers, pinned int) {
	for _, r := range g.snapshot() {
		if r.idle() {
			continue
		}
		readers++
		if r.pinned() {
			pinned++
		}
	}
	return readers, pinned
}
