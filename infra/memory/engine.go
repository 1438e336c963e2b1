package memory

import (
	"fmt"
	"sync"
)

// Inactive is the epoch published by a reader that is not pinned.
const Inactive = ^uint64(0)

// Engine is the reclamation contract the swap core is written against.
// Any scheme (epochs, hazard pointers, reference counts) that keeps
// these four promises can back a container.
type Engine interface {
	// RegisterReader allocates tracking state for one reader. The
	// returned token starts unpinned and must only be used by one
	// goroutine at a time.
	RegisterReader() ReaderToken

	// Pin marks the reader as observing the current epoch. Nothing
	// retired at or after that epoch is reclaimed until the guard is
	// released.
	Pin(ReaderToken) PinGuard

	// Retire hands a displaced value to the engine, tagged with the
	// epoch active at retirement, and advances the epoch.
	Retire(w *WriterToken, v any, r Reclaimer)

	// Collect reclaims every retired value no pinned reader can still
	// observe and reports how many were reclaimed.
	Collect(w *WriterToken) int
}

// ReaderToken is one reader's registration with an Engine.
type ReaderToken interface {
	// Unpin releases the pin identified by ticket. Unknown or already
	// released tickets are ignored. Called by PinGuard.Release.
	Unpin(ticket uint64)

	// Pinned reports whether at least one guard is outstanding.
	Pinned() bool

	// Deregister ends the registration. If guards are still held the
	// reader keeps blocking reclamation until the last one is released.
	Deregister()
}

// StatsReporter is implemented by engines that expose bookkeeping.
type StatsReporter interface {
	Stats() Stats
}

// Stats is a point-in-time view of a domain's bookkeeping.
type Stats struct {
	Epoch     uint64 // current epoch
	Readers   int    // live registrations
	Pinned    int    // registrations holding at least one guard
	Pending   int    // retired values waiting for quiescence
	Reclaimed uint64 // values reclaimed since construction
}

// Kind selects a built-in engine.
type Kind uint8

const (
	EpochBased Kind = iota
	RefCounted
)

func (k Kind) String() string {
	switch k {
	case EpochBased:
		return "epoch"
	case RefCounted:
		return "refcount"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// ParseKind maps a configuration string onto a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "", "epoch":
		return EpochBased, nil
	case "refcount":
		return RefCounted, nil
	default:
		return 0, fmt.Errorf("memory: unknown engine kind %q", s)
	}
}

// NewEngine builds a fresh domain of the given kind together with the
// one writer token allowed to retire into it.
func NewEngine(kind Kind, cfg Config) (*WriterToken, Engine) {
	switch kind {
	case RefCounted:
		return NewRefCountDomain(cfg)
	default:
		return NewEpochDomain(cfg)
	}
}

// Config tunes a domain.
type Config struct {
	// AutoReclaimThreshold triggers a Collect from inside Retire once
	// this many values are pending. Zero disables it.
	AutoReclaimThreshold int

	// CleanupInterval prunes deregistered readers every N collects.
	CleanupInterval int

	// RetireCapacity is the initial size of the retirement queue,
	// rounded up to a power of two. The queue grows on demand.
	RetireCapacity uint64
}

// DefaultConfig mirrors what the swap container uses when nothing is set.
func DefaultConfig() Config {
	return Config{
		AutoReclaimThreshold: 0,
		CleanupInterval:      2,
		RetireCapacity:       64,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = d.CleanupInterval
	}
	if c.RetireCapacity == 0 {
		c.RetireCapacity = d.RetireCapacity
	}
	return c
}

// noCopy trips go vet's copylocks check.
type noCopy [0]sync.Mutex

// WriterToken is the right to retire into and collect a domain. A
// domain mints exactly one; it must not be copied.
type WriterToken struct {
	_     noCopy
	owner Engine
}

// NewWriterToken mints the writer token for an externally supplied
// engine. Built-in domains mint their own at construction and refuse a
// second one; an external engine must be given exactly one token.
func NewWriterToken(owner Engine) *WriterToken {
	switch owner.(type) {
	case *EpochDomain, *RefCountDomain:
		panic("memory: built-in domains mint their own writer token")
	}
	return newWriterToken(owner)
}

func newWriterToken(owner Engine) *WriterToken {
	return &WriterToken{owner: owner}
}

// Owner returns the engine the token belongs to.
func (w *WriterToken) Owner() Engine { return w.owner }

func (w *WriterToken) check(e Engine) {
	if w == nil || w.owner != e {
		panic("memory: writer token belongs to another domain")
	}
}

// PinGuard keeps its reader pinned until Release. Guards are values;
// release each one exactly once, typically with defer.
type PinGuard struct {
	tok      ReaderToken
	epoch    uint64
	ticket   uint64
	released bool
}

// NewPinGuard wraps a pin taken by an external engine. ticket is handed
// back to tok.Unpin on release.
func NewPinGuard(tok ReaderToken, epoch, ticket uint64) PinGuard {
	return PinGuard{tok: tok, epoch: epoch, ticket: ticket}
}

// Epoch is the epoch the guard's reader is pinned at.
func (g *PinGuard) Epoch() uint64 { return g.epoch }

// Active reports whether the guard still protects its reader's loads.
func (g *PinGuard) Active() bool { return g != nil && g.tok != nil && !g.released }

// Release unpins. Calling it again on the same guard is a no-op.
func (g *PinGuard) Release() {
	if g.released || g.tok == nil {
		return
	}
	g.released = true
	g.tok.Unpin(g.ticket)
}

// Reclaimer receives values once they are safe to destroy.
type Reclaimer interface {
	Reclaim(v any)
}

// ReclaimFunc adapts a function to Reclaimer.
type ReclaimFunc func(v any)

func (f ReclaimFunc) Reclaim(v any) { f(v) }

// Discard drops the value and lets the garbage collector have it.
var Discard Reclaimer = ReclaimFunc(func(any) {})
