package swap

import (
	"runtime"
	"sync"

	"hotswap/infra/memory"
)

// noCopy trips go vet's copylocks check.
type noCopy [0]sync.Mutex

// Config tunes a container.
type Config[T any] struct {
	// Engine selects a built-in reclamation engine. Ignored when
	// Custom is set.
	Engine memory.Kind
	Memory memory.Config

	// Custom supplies an external engine together with its writer token.
	Custom func() (*memory.WriterToken, memory.Engine)

	// OnReclaim runs for every retired value once no reader can
	// observe it.
	OnReclaim func(*T)

	// Pool, when set, backs the values Update allocates and receives
	// them back after reclamation.
	Pool *memory.Pool[T]
}

// shared is the state every handle of one container points at.
type shared[T any] struct {
	slot    Slot[T]
	engine  memory.Engine
	reclaim memory.Reclaimer
	pool    *memory.Pool[T]
	locals  *memory.Pool[LocalReader[T]]
}

// New builds a container holding initial and returns its only Writer
// and a Reader that can be cloned freely.
func New[T any](initial T) (*Writer[T], *Reader[T]) {
	return NewWithConfig(initial, Config[T]{})
}

func NewWithConfig[T any](initial T, cfg Config[T]) (*Writer[T], *Reader[T]) {
	var (
		token  *memory.WriterToken
		engine memory.Engine
	)
	if cfg.Custom != nil {
		token, engine = cfg.Custom()
	} else {
		token, engine = memory.NewEngine(cfg.Engine, cfg.Memory)
	}

	sh := &shared[T]{
		engine:  engine,
		reclaim: reclaimerFor(cfg),
		pool:    cfg.Pool,
	}
	sh.slot.init(sh.alloc(initial))
	sh.locals = memory.NewPool(func() *LocalReader[T] {
		l := sh.register()
		// Pooled registrations dropped by sync.Pool are deregistered
		// once collected so they stop showing up in the writer's scan.
		runtime.AddCleanup(l, func(tok memory.ReaderToken) { tok.Deregister() }, l.tok)
		return l
	})

	return &Writer[T]{sh: sh, token: token}, &Reader[T]{sh: sh}
}

func reclaimerFor[T any](cfg Config[T]) memory.Reclaimer {
	hook, pool := cfg.OnReclaim, cfg.Pool
	switch {
	case hook == nil && pool == nil:
		return memory.Discard
	case hook == nil:
		return pool
	default:
		return memory.ReclaimFunc(func(v any) {
			p := v.(*T)
			hook(p)
			if pool != nil {
				pool.Put(p)
			}
		})
	}
}

func (sh *shared[T]) alloc(v T) *T {
	if sh.pool != nil {
		p := sh.pool.Get()
		*p = v
		return p
	}
	return &v
}

func (sh *shared[T]) register() *LocalReader[T] {
	return &LocalReader[T]{sh: sh, tok: sh.engine.RegisterReader()}
}

func (sh *shared[T]) stats() memory.Stats {
	if s, ok := sh.engine.(memory.StatsReporter); ok {
		return s.Stats()
	}
	return memory.Stats{}
}

// Source is anything that can hand out a guarded view of the current
// value: Writer, Reader and LocalReader.
type Source[T any] interface {
	Load() ReadGuard[T]
}

// Map pins, applies f to the current value and releases the pin before
// returning f's result. f must not retain the pointer.
func Map[T, R any](src Source[T], f func(*T) R) R {
	g := src.Load()
	defer g.Release()
	return f(g.Value())
}
