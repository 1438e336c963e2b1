package memory

import "testing"

func TestReaderEpochFlow(t *testing.T) {
	_, d := NewEpochDomain(Config{})
	r := d.RegisterReader().(*ReaderRecord)

	if r.Epoch() != Inactive {
		t.Fatalf("expected new reader inactive, got %d", r.Epoch())
	}
	g := d.Pin(r)
	if r.Epoch() != 1 || g.Epoch() != 1 {
		t.Errorf("expected epoch=1, got record=%d guard=%d", r.Epoch(), g.Epoch())
	}
	g.Release()
	if r.Epoch() != Inactive {
		t.Errorf("expected Inactive after release, got %d", r.Epoch())
	}
}

func TestRetireAdvancesEpoch(t *testing.T) {
	w, d := NewEpochDomain(Config{})
	d.Retire(w, 1, Discard)
	d.Retire(w, 2, Discard)
	if d.Epoch() != 3 {
		t.Errorf("expected epoch=3, got %d", d.Epoch())
	}
	if p, _ := d.ring.Peek(); p.Epoch != 1 {
		t.Errorf("expected oldest retirement tagged 1, got %d", p.Epoch)
	}
}

func TestMinPinnedIgnoresIdleReaders(t *testing.T) {
	w, d := NewEpochDomain(Config{})
	a := d.RegisterReader()
	b := d.RegisterReader()
	_ = d.RegisterReader() // never pins

	if d.minPinned() != Inactive {
		t.Fatal("expected Inactive with nobody pinned")
	}

	ga := d.Pin(a)
	d.Retire(w, 1, Discard)
	d.Retire(w, 2, Discard)
	gb := d.Pin(b)
	if m := d.minPinned(); m != 1 {
		t.Errorf("expected min=1, got %d", m)
	}

	ga.Release()
	if m := d.minPinned(); m != 3 {
		t.Errorf("expected min=3, got %d", m)
	}
	if n := d.Collect(w); n != 2 {
		t.Errorf("expected both retirements reclaimable, got %d", n)
	}
	gb.Release()
}

func TestPartialCollectStopsAtFirstUnsafe(t *testing.T) {
	w, d := NewEpochDomain(Config{})
	r := d.RegisterReader()
	rec := &recorder{}

	d.Retire(w, "e1", rec)
	g := d.Pin(r) // epoch 2
	d.Retire(w, "e2", rec)
	d.Retire(w, "e3", rec)

	if n := d.Collect(w); n != 1 {
		t.Fatalf("expected only e1 reclaimed, got %d", n)
	}
	if s := d.Stats(); s.Pending != 2 || s.Pinned != 1 || s.Reclaimed != 1 {
		t.Errorf("unexpected stats %+v", s)
	}
	g.Release()
	if n := d.Collect(w); n != 2 {
		t.Errorf("expected e2,e3 reclaimed, got %d", n)
	}
}

func TestCleanupIntervalPrunesClosedReaders(t *testing.T) {
	w, d := NewEpochDomain(Config{CleanupInterval: 2})
	for i := 0; i < 3; i++ {
		d.RegisterReader().Deregister()
	}
	keep := d.RegisterReader()

	d.Collect(w)
	if n := len(d.readers.snapshot()); n != 4 {
		t.Fatalf("pruned before interval: %d records", n)
	}
	d.Collect(w)
	if n := len(d.readers.snapshot()); n != 1 {
		t.Fatalf("expected 1 record after prune, got %d", n)
	}
	if d.readers.snapshot()[0] != keep {
		t.Error("pruned the live reader")
	}
}
