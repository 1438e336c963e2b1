package swap

import "hotswap/infra/memory"

// Writer is the exclusive right to replace a container's value. There
// is exactly one per container and it must not be copied; wrap it in
// your own mutex if several goroutines produce updates.
type Writer[T any] struct {
	_     noCopy
	sh    *shared[T]
	token *memory.WriterToken
}

// Update installs v, retires the previous value and reclaims whatever
// has become quiescent.
func (w *Writer[T]) Update(v T) {
	w.Store(w.sh.alloc(v))
}

// Store installs a caller-built pointer, typically one taken from the
// container's Pool. The writer owns p from here on.
func (w *Writer[T]) Store(p *T) {
	old := w.sh.slot.Swap(p)
	w.sh.engine.Retire(w.token, old, w.sh.reclaim)
	w.sh.engine.Collect(w.token)
}

// Swap installs v and hands the previous value back to the caller
// instead of reclaiming it. The epoch still advances; no reclaim hook
// runs for the returned value.
func (w *Writer[T]) Swap(v T) T {
	old := w.sh.slot.Swap(w.sh.alloc(v))
	out := *old
	w.sh.engine.Retire(w.token, old, memory.Discard)
	w.sh.engine.Collect(w.token)
	return out
}

// SwapAndFetch computes the next value from the current one, swaps it
// in and returns it by value. Suited to reference-like payloads (maps,
// pointers) that callers keep using after the swap.
func (w *Writer[T]) SwapAndFetch(f func(T) T) T {
	g := w.Load()
	next := f(*g.Value())
	g.Release()
	w.Swap(next)
	return next
}

// UpdateAndFetch computes the next value from the current one, installs
// it and returns a guard on the installed value. It is not atomic with
// respect to other writers; concurrent misuse silently loses updates.
// Retirements stay pending while the returned guard is held.
func (w *Writer[T]) UpdateAndFetch(f func(*T) T) ReadGuard[T] {
	l, lease, pin := w.sh.lease()
	next := f(w.sh.slot.Load(&pin))
	w.Update(next)
	return ReadGuard[T]{pin: pin, v: w.sh.slot.Load(&pin), home: l, lease: lease}
}

// Load returns a guard on the current value. Like Reader.Load it draws
// a pooled registration, so the guard may be released from any
// goroutine.
func (w *Writer[T]) Load() ReadGuard[T] {
	return (&Reader[T]{sh: w.sh}).Load()
}

// Read returns the current value under a guard taken from one of this
// container's local readers.
func (w *Writer[T]) Read(g *memory.PinGuard) *T {
	return w.sh.slot.Load(g)
}

// RegisterReader registers a new goroutine-confined reader.
func (w *Writer[T]) RegisterReader() *LocalReader[T] {
	return w.sh.register()
}

// Reader returns a new shareable reader for the container.
func (w *Writer[T]) Reader() *Reader[T] {
	return &Reader[T]{sh: w.sh}
}

// Collect reclaims quiescent retirements without writing.
func (w *Writer[T]) Collect() int {
	return w.sh.engine.Collect(w.token)
}

func (w *Writer[T]) Stats() memory.Stats {
	return w.sh.stats()
}
