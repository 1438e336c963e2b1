package memory

import "sync/atomic"

// generation counts the pins taken while it was current.
type generation struct {
	epoch uint64
	pins  atomic.Int64
}

type countedReader struct {
	gen    atomic.Pointer[generation]
	closed atomic.Bool
	pins   pinSet
	domain *RefCountDomain
}

func (r *countedReader) Pinned() bool { return r.gen.Load() != nil }

func (r *countedReader) Unpin(ticket uint64) {
	if r.pins.release(ticket) && r.pins.depth() == 0 {
		g := r.gen.Swap(nil)
		g.pins.Add(-1)
	}
}

func (r *countedReader) Deregister() { r.closed.Store(true) }

func (r *countedReader) idle() bool   { return r.closed.Load() && !r.Pinned() }
func (r *countedReader) pinned() bool { return r.Pinned() }

// RefCountDomain is the reference-counting baseline. Instead of
// scanning reader slots it counts pins per generation: a value retired
// during generation G is reclaimed once G and every older generation
// have dropped to zero pins. It is simpler to reason about than
// EpochDomain and pays for it with a contended counter per generation.
type RefCountDomain struct {
	current atomic.Pointer[generation]

	readers registry[*countedReader]
	ring    *RetireRing
	cfg     Config

	// writer-owned
	superseded []*generation
	collects   int
	reclaimed  atomic.Uint64
}

func NewRefCountDomain(cfg Config) (*WriterToken, *RefCountDomain) {
	cfg = cfg.withDefaults()
	d := &RefCountDomain{
		ring: NewRetireRing(cfg.RetireCapacity),
		cfg:  cfg,
	}
	d.current.Store(&generation{epoch: 1})
	return newWriterToken(d), d
}

func (d *RefCountDomain) RegisterReader() ReaderToken {
	r := &countedReader{domain: d}
	d.readers.add(r)
	return r
}

func (d *RefCountDomain) Pin(t ReaderToken) PinGuard {
	r, ok := t.(*countedReader)
	if !ok || r.domain != d {
		panic("memory: reader token belongs to another domain")
	}
	if r.closed.Load() {
		panic("memory: pin on a deregistered reader")
	}
	if r.pins.depth() == 0 {
		for {
			g := d.current.Load()
			g.pins.Add(1)
			if d.current.Load() == g {
				r.gen.Store(g)
				break
			}
			// superseded between load and increment
			g.pins.Add(-1)
		}
	}
	ticket := r.pins.acquire()
	return PinGuard{tok: r, epoch: r.gen.Load().epoch, ticket: ticket}
}

func (d *RefCountDomain) Retire(w *WriterToken, v any, rc Reclaimer) {
	w.check(d)
	g := d.current.Load()
	d.ring.Enqueue(Retired{Value: v, Epoch: g.epoch, Reclaimer: rc})
	d.superseded = append(d.superseded, g)
	d.current.Store(&generation{epoch: g.epoch + 1})

	if t := d.cfg.AutoReclaimThreshold; t > 0 && d.ring.Len() >= t {
		d.Collect(w)
	}
}

func (d *RefCountDomain) Collect(w *WriterToken) int {
	w.check(d)

	n := 0
	if !d.ring.IsEmpty() {
		// Drop drained generations from the front; the first one still
		// pinned bounds what may be reclaimed.
		i := 0
		for i < len(d.superseded) && d.superseded[i].pins.Load() == 0 {
			i++
		}
		d.superseded = d.superseded[i:]

		bound := d.current.Load().epoch
		if len(d.superseded) > 0 {
			bound = d.superseded[0].epoch
		}
		for {
			it, ok := d.ring.Peek()
			if !ok || it.Epoch >= bound {
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

func (d *RefCountDomain) Epoch() uint64 { return d.current.Load().epoch }

func (d *RefCountDomain) Stats() Stats {
	readers, pinned := d.readers.counts()
	return Stats{
		Epoch:     d.current.Load().epoch,
		Readers:   readers,
		Pinned:    pinned,
		Pending:   d.ring.Len(),
		Reclaimed: d.reclaimed.Load(),
	}
}
