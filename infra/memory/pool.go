package memory

import "sync"

// Pool is a typed object pool.
// It is type-safe for normal use, but can also act as the Reclaimer
// of a domain so retired values are recycled once quiescent.
type Pool[T any] struct {
	p     *sync.Pool
	reset func(*T)
}

func NewPool[T any](ctor func() *T) *Pool[T] {
	return &Pool[T]{
		p: &sync.Pool{
			New: func() any { return ctor() },
		},
	}
}

// WithReset installs a hook that clears values before they re-enter
// the pool.
func (p *Pool[T]) WithReset(reset func(*T)) *Pool[T] {
	p.reset = reset
	return p
}

func (p *Pool[T]) Get() *T {
	return p.p.Get().(*T)
}

func (p *Pool[T]) Put(v *T) {
	if v == nil {
		return
	}
	if p.reset != nil {
		p.reset(v)
	}
	p.p.Put(v)
}

// Reclaim lets Pool[T] satisfy Reclaimer.
func (p *Pool[T]) Reclaim(v any) {
	obj, ok := v.(*T)
	if !ok {
		panic("memory.Pool: Reclaim received wrong type")
	}
	p.Put(obj)
}
