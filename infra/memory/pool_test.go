package memory

import "testing"

type buffer struct{ data []byte }

func TestPoolReclaimResetsValue(t *testing.T) {
	p := NewPool(func() *buffer { return &buffer{} }).
		WithReset(func(b *buffer) { b.data = b.data[:0] })

	b := p.Get()
	b.data = append(b.data, "payload"...)

	w, d := NewEpochDomain(Config{})
	d.Retire(w, b, p)
	d.Collect(w)

	if len(b.data) != 0 {
		t.Errorf("expected reset before pooling, got %q", b.data)
	}
}

func TestPoolReclaimWrongTypePanics(t *testing.T) {
	p := NewPool(func() *buffer { return &buffer{} })
	defer func() {
		if recover() == nil {
			t.Error("expected panic on wrong type")
		}
	}()
	p.Reclaim("not a buffer")
}
