package memory

import "testing"

func TestRetireRingBasic(t *testing.T) {
	r := NewRetireRing(4) // capacity 4

	r.Enqueue(Retired{Value: 1, Epoch: 1})
	r.Enqueue(Retired{Value: 2, Epoch: 2})

	if p, ok := r.Peek(); !ok || p.Value != 1 {
		t.Fatal("expected peek to return first value")
	}
	if v, _ := r.Dequeue(); v.Value != 1 {
		t.Error("expected first dequeue to be 1")
	}
	if v, _ := r.Dequeue(); v.Value != 2 {
		t.Error("expected second dequeue to be 2")
	}
	if _, ok := r.Dequeue(); ok {
		t.Error("expected empty ring to report false")
	}
}

func TestRetireRingGrowsInOrder(t *testing.T) {
	r := NewRetireRing(3)
	if r.Cap() != 4 {
		t.Fatalf("expected capacity rounded to 4, got %d", r.Cap())
	}

	// wrap the indices before growing
	for i := 0; i < 3; i++ {
		r.Enqueue(Retired{Value: -1})
		r.Dequeue()
	}
	for i := 0; i < 10; i++ {
		r.Enqueue(Retired{Value: i, Epoch: uint64(i)})
	}
	if r.Len() != 10 || r.Cap() != 16 {
		t.Fatalf("expected len=10 cap=16, got len=%d cap=%d", r.Len(), r.Cap())
	}
	for i := 0; i < 10; i++ {
		v, ok := r.Dequeue()
		if !ok || v.Value != i {
			t.Fatalf("dequeue %d: got %v (%v)", i, v.Value, ok)
		}
	}
	if !r.IsEmpty() {
		t.Error("expected ring drained")
	}
}
