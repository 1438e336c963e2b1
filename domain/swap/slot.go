package swap

import (
	"sync/atomic"

	"hotswap/infra/memory"
)

// Slot is the atomically replaceable holder of a container's current
// value. It is never empty after construction.
type Slot[T any] struct {
	p atomic.Pointer[T]
}

func NewSlot[T any](v *T) *Slot[T] {
	s := &Slot[T]{}
	s.init(v)
	return s
}

func (s *Slot[T]) init(v *T) {
	if v == nil {
		panic("swap: nil value")
	}
	s.p.Store(v)
}

// Load returns the value visible at pin time. The guard must be active;
// the pointer is only valid until it is released.
func (s *Slot[T]) Load(g *memory.PinGuard) *T {
	if !g.Active() {
		panic("swap: load without an active pin")
	}
	return s.p.Load()
}

// Swap installs v and returns the previous value. Callers own the
// returned pointer's retirement.
func (s *Slot[T]) Swap(v *T) *T {
	if v == nil {
		panic("swap: nil value")
	}
	return s.p.Swap(v)
}
