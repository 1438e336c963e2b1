package memory

import (
	"fmt"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// Retired is a value removed from a container but not yet safe to
// reclaim, tagged with the epoch it was retired at.
type Retired struct {
	Value     any
	Epoch     uint64
	Reclaimer Reclaimer
}

func (r Retired) reclaim() {
	if r.Reclaimer != nil {
		r.Reclaimer.Reclaim(r.Value)
	}
}

// RetireRing is a FIFO of retired values owned by the writer. Only the
// writer enqueues and dequeues; Len may be read from any goroutine.
// Unlike a fixed SPSC ring it never refuses a value: a full ring
// doubles in place.
type RetireRing struct {
	head  atomic.Uint64
	_pad1 cpu.CacheLinePad
	tail  atomic.Uint64
	_pad2 cpu.CacheLinePad
	buf   []Retired
	mask  uint64
}

// NewRetireRing allocates a ring with at least size slots, rounded up
// to a power of two.
func NewRetireRing(size uint64) *RetireRing {
	n := uint64(1)
	for n < size {
		n <<= 1
	}
	return &RetireRing{
		buf:  make([]Retired, n),
		mask: n - 1,
	}
}

func (r *RetireRing) Enqueue(v Retired) {
	h := r.head.Load()
	t := r.tail.Load()
	if h-t == uint64(len(r.buf)) {
		r.grow(h, t)
	}
	r.buf[h&r.mask] = v
	r.head.Store(h + 1)
}

// Peek returns the oldest retired value without removing it.
func (r *RetireRing) Peek() (*Retired, bool) {
	t := r.tail.Load()
	if t == r.head.Load() {
		return nil, false
	}
	return &r.buf[t&r.mask], true
}

func (r *RetireRing) Dequeue() (Retired, bool) {
	t := r.tail.Load()
	if t == r.head.Load() {
		return Retired{}, false
	}
	v := r.buf[t&r.mask]
	r.buf[t&r.mask] = Retired{}
	r.tail.Store(t + 1)
	return v, true
}

func (r *RetireRing) grow(h, t uint64) {
	buf := make([]Retired, len(r.buf)*2)
	mask := uint64(len(buf)) - 1
	for i := t; i != h; i++ {
		buf[i&mask] = r.buf[i&r.mask]
	}
	r.buf = buf
	r.mask = mask
}

func (r *RetireRing) Len() int { return int(r.head.Load() - r.tail.Load()) }

// Cap is only meaningful from the writer goroutine.
func (r *RetireRing) Cap() int { return len(r.buf) }

func (r *RetireRing) IsEmpty() bool { return r.head.Load() == r.tail.Load() }

func (r *RetireRing) String() string {
	return fmt.Sprintf("RetireRing{len=%d, head=%d, tail=%d}",
		r.Len(), r.head.Load(), r.tail.Load())
}
