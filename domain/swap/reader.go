package swap

import (
	"sync/atomic"

	"hotswap/infra/memory"
)

// Reader is a shareable read capability. Its Load and Filter draw a
// pooled registration per call and are safe from any goroutine. Code
// that pins in a tight loop should hold its own LocalReader instead.
type Reader[T any] struct {
	sh *shared[T]
}

// Clone returns an independent handle on the same container.
func (r *Reader[T]) Clone() *Reader[T] {
	return &Reader[T]{sh: r.sh}
}

// RegisterReader registers a new goroutine-confined reader.
func (r *Reader[T]) RegisterReader() *LocalReader[T] {
	return r.sh.register()
}

func (r *Reader[T]) Load() ReadGuard[T] {
	l, lease, pin := r.sh.lease()
	return ReadGuard[T]{pin: pin, v: r.sh.slot.Load(&pin), home: l, lease: lease}
}

// Filter loads the current value and keeps the guard only when pred
// accepts it; otherwise the pin is released before returning.
func (r *Reader[T]) Filter(pred func(*T) bool) (ReadGuard[T], bool) {
	g := r.Load()
	if pred(g.Value()) {
		return ReadGuard[T]{pin: g.pin, v: g.v, home: g.home, lease: g.lease}, true
	}
	g.Release()
	return ReadGuard[T]{}, false
}

func (r *Reader[T]) Stats() memory.Stats {
	return r.sh.stats()
}

// lease pins a pooled registration. A guard built from it hands the
// registration back to the pool on Release.
func (sh *shared[T]) lease() (*LocalReader[T], uint64, memory.PinGuard) {
	l := sh.locals.Get()
	lease := l.lease.Load()
	return l, lease, sh.engine.Pin(l.tok)
}

// LocalReader is one goroutine's registration with the container's
// domain. Pins nest: every guard it hands out must be released, and
// the reader stays pinned at its outermost epoch until the last one is.
type LocalReader[T any] struct {
	sh    *shared[T]
	tok   memory.ReaderToken
	lease atomic.Uint64
}

// Pin pins the reader and returns the raw guard for use with Read.
func (l *LocalReader[T]) Pin() memory.PinGuard {
	return l.sh.engine.Pin(l.tok)
}

// Read returns the value current at g's pin. The pointer is valid
// until g is released.
func (l *LocalReader[T]) Read(g *memory.PinGuard) *T {
	return l.sh.slot.Load(g)
}

func (l *LocalReader[T]) Load() ReadGuard[T] {
	pin := l.sh.engine.Pin(l.tok)
	return ReadGuard[T]{pin: pin, v: l.sh.slot.Load(&pin)}
}

// Filter is Reader.Filter on this registration.
func (l *LocalReader[T]) Filter(pred func(*T) bool) (ReadGuard[T], bool) {
	pin := l.sh.engine.Pin(l.tok)
	v := l.sh.slot.Load(&pin)
	if pred(v) {
		return ReadGuard[T]{pin: pin, v: v}, true
	}
	pin.Release()
	return ReadGuard[T]{}, false
}

func (l *LocalReader[T]) Pinned() bool { return l.tok.Pinned() }

// Close deregisters the reader. Guards still held keep blocking
// reclamation until released; pinning after Close panics.
func (l *LocalReader[T]) Close() {
	l.tok.Deregister()
}
