package memory

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// ReaderRecord is one reader's slot in an EpochDomain. The owning
// goroutine is the only one that pins, unpins or deregisters it; the
// writer only reads the published epoch.
type ReaderRecord struct {
	_      cpu.CacheLinePad
	epoch  atomic.Uint64 // Inactive when unpinned
	closed atomic.Bool
	pins   pinSet
	domain *EpochDomain
	_      cpu.CacheLinePad
}

// Epoch returns the published epoch, or Inactive.
func (r *ReaderRecord) Epoch() uint64 { return r.epoch.Load() }

func (r *ReaderRecord) Pinned() bool { return r.epoch.Load() != Inactive }

func (r *ReaderRecord) Unpin(ticket uint64) {
	if r.pins.release(ticket) && r.pins.depth() == 0 {
		r.epoch.Store(Inactive)
	}
}

// Deregister marks the record closed. An unpinned closed record blocks
// nothing and is pruned by a later Collect; a pinned one keeps its
// epoch until its last guard is released.
func (r *ReaderRecord) Deregister() { r.closed.Store(true) }

func (r *ReaderRecord) idle() bool   { return r.closed.Load() && !r.Pinned() }
func (r *ReaderRecord) pinned() bool { return r.Pinned() }

// EpochDomain is quiescent-state reclamation over a per-domain epoch.
// A value retired at epoch E is reclaimed once every registered reader
// is either unpinned or pinned at an epoch greater than E.
type EpochDomain struct {
	epoch atomic.Uint64
	_     cpu.CacheLinePad

	readers registry[*ReaderRecord]
	ring    *RetireRing
	cfg     Config

	// writer-owned
	collects  int
	reclaimed atomic.Uint64
}

// NewEpochDomain builds a domain at epoch 1 and its writer token.
func NewEpochDomain(cfg Config) (*WriterToken, *EpochDomain) {
	cfg = cfg.withDefaults()
	d := &EpochDomain{
		ring: NewRetireRing(cfg.RetireCapacity),
		cfg:  cfg,
	}
	d.epoch.Store(1)
	return newWriterToken(d), d
}

func (d *EpochDomain) RegisterReader() ReaderToken {
	r := &ReaderRecord{domain: d}
	r.epoch.Store(Inactive)
	d.readers.add(r)
	return r
}

func (d *EpochDomain) Pin(t ReaderToken) PinGuard {
	r, ok := t.(*ReaderRecord)
	if !ok || r.domain != d {
		panic("memory: reader token belongs to another domain")
	}
	if r.closed.Load() {
		panic("memory: pin on a deregistered reader")
	}
	if r.pins.depth() == 0 {
		// Publish before the caller loads anything. A writer that
		// retires after this store will see the epoch in its scan.
		r.epoch.Store(d.epoch.Load())
	}
	ticket := r.pins.acquire()
	return PinGuard{tok: r, epoch: r.epoch.Load(), ticket: ticket}
}

func (d *EpochDomain) Retire(w *WriterToken, v any, rc Reclaimer) {
	w.check(d)
	e := d.epoch.Load()
	d.ring.Enqueue(Retired{Value: v, Epoch: e, Reclaimer: rc})
	d.epoch.Store(e + 1)

	if t := d.cfg.AutoReclaimThreshold; t > 0 && d.ring.Len() >= t {
		d.Collect(w)
	}
}

func (d *EpochDomain) Collect(w *WriterToken) int {
	w.check(d)

	n := 0
	if !d.ring.IsEmpty() {
		min := d.minPinned()
		for {
			it, ok := d.ring.Peek()
			if !ok || it.Epoch >= min {
				// FIFO: epochs never decrease, nothing newer is safe either.
				break
			}
			v, _ := d.ring.Dequeue()
			v.reclaim()
			n++
		}
		d.reclaimed.Add(uint64(n))
	}

	d.collects++
	if d.collects%d.cfg.CleanupInterval == 0 {
		d.readers.prune()
	}
	return n
}

// Epoch returns the current epoch.
func (d *EpochDomain) Epoch() uint64 { return d.epoch.Load() }

func (d *EpochDomain) Stats() Stats {
	readers, pinned := d.readers.counts()
	return Stats{
		Epoch:     d.epoch.Load(),
		Readers:   readers,
		Pinned:    pinned,
		Pending:   d.ring.Len(),
		Reclaimed: d.reclaimed.Load(),
	}
}

func (d *EpochDomain) minPinned() uint64 {
	min := Inactive
	for _, r := range d.readers.snapshot() {
		if e := r.epoch.Load(); e < min {
			min = e
		}
	}
	return min
}
