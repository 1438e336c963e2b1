package swap

import (
	"fmt"

	"hotswap/infra/memory"
)

// ReadGuard ties a loaded value to an active pin. The value returned by
// Value stays valid until Release, whatever the writer does meanwhile.
// Guards must not be copied; release each one exactly once.
type ReadGuard[T any] struct {
	_   noCopy
	pin memory.PinGuard
	v   *T

	// set for guards backed by a pooled registration
	home  *LocalReader[T]
	lease uint64
}

// Value returns the guarded value. It panics after Release.
func (g *ReadGuard[T]) Value() *T {
	if g.v == nil {
		panic("swap: use of a released ReadGuard")
	}
	return g.v
}

// Get returns a copy of the guarded value.
func (g *ReadGuard[T]) Get() T { return *g.Value() }

// Epoch is the epoch the guard is pinned at.
func (g *ReadGuard[T]) Epoch() uint64 { return g.pin.Epoch() }

// Valid reports whether the guard has not been released.
func (g *ReadGuard[T]) Valid() bool { return g.v != nil }

func (g *ReadGuard[T]) Release() {
	if g.v == nil {
		return
	}
	g.v = nil

	if g.home == nil {
		g.pin.Release()
		return
	}
	// A stale copy of a pooled guard must not unpin the registration's
	// next user.
	if !g.home.lease.CompareAndSwap(g.lease, g.lease+1) {
		return
	}
	g.pin.Release()
	g.home.sh.locals.Put(g.home)
	g.home = nil
}

func (g *ReadGuard[T]) String() string {
	if g.v == nil {
		return "<released>"
	}
	return fmt.Sprint(*g.v)
}

func (g *ReadGuard[T]) GoString() string {
	if g.v == nil {
		return "swap.ReadGuard{<released>}"
	}
	return fmt.Sprintf("swap.ReadGuard{epoch: %d, value: %#v}", g.pin.Epoch(), *g.v)
}
