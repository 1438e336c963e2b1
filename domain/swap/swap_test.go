package swap

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotswap/infra/memory"
)

var kinds = []memory.Kind{memory.EpochBased, memory.RefCounted}

func forEachEngine(t *testing.T, fn func(t *testing.T, kind memory.Kind)) {
	for _, k := range kinds {
		t.Run(k.String(), func(t *testing.T) { fn(t, k) })
	}
}

func TestNewLoadsInitialValue(t *testing.T) {
	w, r := New(42)

	g := r.Load()
	defer g.Release()
	assert.Equal(t, 42, *g.Value())

	wg := w.Load()
	defer wg.Release()
	assert.Equal(t, 42, wg.Get())
}

func TestPinnedBeforeAndAfterUpdate(t *testing.T) {
	forEachEngine(t, func(t *testing.T, kind memory.Kind) {
		w, r := NewWithConfig(0, Config[int]{Engine: kind})

		before := r.Load()
		w.Update(1)
		after := r.Load()

		// both guards held at once stay independently valid
		assert.Equal(t, 0, *before.Value())
		assert.Equal(t, 1, *after.Value())

		before.Release()
		assert.Equal(t, 1, *after.Value())
		after.Release()
	})
}

func TestHundredSequentialUpdates(t *testing.T) {
	forEachEngine(t, func(t *testing.T, kind memory.Kind) {
		w, r := NewWithConfig(0, Config[int]{Engine: kind})
		for i := 1; i <= 100; i++ {
			w.Update(i)
		}
		assert.Equal(t, 100, Map(r, func(v *int) int { return *v }))
		assert.Equal(t, 0, w.Stats().Pending, "nothing should stay retired without guards")
	})
}

func TestGuardOutlivesLaterUpdates(t *testing.T) {
	forEachEngine(t, func(t *testing.T, kind memory.Kind) {
		reclaimed := map[string]bool{}
		w, r := NewWithConfig("v0", Config[string]{
			Engine:    kind,
			OnReclaim: func(s *string) { reclaimed[*s] = true },
		})

		g := r.Load()
		for i := 1; i <= 10; i++ {
			w.Update(fmt.Sprintf("v%d", i))
		}
		assert.Equal(t, "v0", *g.Value())
		assert.False(t, reclaimed["v0"], "value reclaimed while guarded")

		g.Release()
		w.Collect()
		assert.True(t, reclaimed["v0"])
		assert.Len(t, reclaimed, 10)
	})
}

func TestCollectIsIdempotent(t *testing.T) {
	forEachEngine(t, func(t *testing.T, kind memory.Kind) {
		calls := 0
		w, _ := NewWithConfig(1, Config[int]{Engine: kind, OnReclaim: func(*int) { calls++ }})

		assert.Zero(t, w.Collect())
		w.Update(2)
		assert.Equal(t, 1, calls)
		for i := 0; i < 5; i++ {
			assert.Zero(t, w.Collect())
		}
		assert.Equal(t, 1, calls)
	})
}

func TestSwapReturnsPrevious(t *testing.T) {
	forEachEngine(t, func(t *testing.T, kind memory.Kind) {
		var reclaims int
		w, r := NewWithConfig(map[string]int{"a": 1}, Config[map[string]int]{
			Engine:    kind,
			OnReclaim: func(*map[string]int) { reclaims++ },
		})

		old := w.Swap(map[string]int{"b": 2})
		assert.Equal(t, map[string]int{"a": 1}, old)
		assert.Equal(t, 2, Map(r, func(m *map[string]int) int { return (*m)["b"] }))
		assert.Zero(t, reclaims, "swapped-out values belong to the caller")

		before := w.Stats().Epoch
		w.Swap(map[string]int{})
		assert.Equal(t, before+1, w.Stats().Epoch)
	})
}

func TestSwapAndFetch(t *testing.T) {
	w, r := New([]int{1})
	next := w.SwapAndFetch(func(cur []int) []int {
		return append(append([]int(nil), cur...), 2)
	})
	assert.Equal(t, []int{1, 2}, next)

	g := r.Load()
	defer g.Release()
	assert.Equal(t, []int{1, 2}, g.Get())
}

func TestUpdateAndFetch(t *testing.T) {
	forEachEngine(t, func(t *testing.T, kind memory.Kind) {
		w, r := NewWithConfig(10, Config[int]{Engine: kind})

		g := w.UpdateAndFetch(func(v *int) int { return *v * 2 })
		assert.Equal(t, 20, *g.Value())
		assert.Equal(t, 20, Map(r, func(v *int) int { return *v }))

		// the guard keeps its value through later updates
		w.Update(30)
		assert.Equal(t, 20, *g.Value())
		assert.Equal(t, 2, w.Stats().Pending)
		g.Release()
		w.Collect()
		assert.Zero(t, w.Stats().Pending)
	})
}

func TestReaderMapAndFilter(t *testing.T) {
	w, r := New(10)

	assert.Equal(t, 20, Map(r, func(v *int) int { return *v * 2 }))

	g, ok := r.Filter(func(v *int) bool { return *v > 5 })
	require.True(t, ok)
	assert.Equal(t, 10, *g.Value())
	g.Release()

	w.Update(3)
	_, ok = r.Filter(func(v *int) bool { return *v > 5 })
	assert.False(t, ok)
	assert.Zero(t, r.Stats().Pinned, "rejected filter must not keep a pin")
}

func TestLocalReaderFilter(t *testing.T) {
	w, r := New("hello")
	l := r.RegisterReader()
	defer l.Close()

	g, ok := l.Filter(func(s *string) bool { return len(*s) > 3 })
	require.True(t, ok)
	assert.Equal(t, "hello", *g.Value())
	g.Release()

	w.Update("hi")
	_, ok = l.Filter(func(s *string) bool { return len(*s) > 3 })
	assert.False(t, ok)
	assert.False(t, l.Pinned())
}

func TestClonedReadersAgree(t *testing.T) {
	w, r1 := New(0)
	r2 := r1.Clone()
	for i := 1; i <= 50; i++ {
		w.Update(i)
		g1, g2 := r1.Load(), r2.Load()
		assert.Equal(t, *g1.Value(), *g2.Value())
		g1.Release()
		g2.Release()
	}
}

func TestLocalReaderPinAndRead(t *testing.T) {
	forEachEngine(t, func(t *testing.T, kind memory.Kind) {
		w, r := NewWithConfig(1, Config[int]{Engine: kind})
		l := r.RegisterReader()

		pin := l.Pin()
		assert.True(t, l.Pinned())
		w.Update(2)
		assert.Equal(t, 1, *l.Read(&pin))
		assert.Equal(t, 1, *w.Read(&pin), "a pin keeps its snapshot for every handle")
		pin.Release()
		assert.False(t, l.Pinned())

		l.Close()
		assert.Panics(t, func() { l.Pin() })
	})
}

func TestCopiedPinReleasedTwiceKeepsOuterPin(t *testing.T) {
	forEachEngine(t, func(t *testing.T, kind memory.Kind) {
		w, r := NewWithConfig(1, Config[int]{Engine: kind})
		l := r.RegisterReader()
		defer l.Close()

		outer := l.Pin()
		inner := l.Pin()
		dup := inner
		inner.Release()
		dup.Release()
		require.True(t, l.Pinned(), "outer pin dropped by a copied inner guard")

		w.Update(2)
		assert.Equal(t, 1, *l.Read(&outer))
		assert.Zero(t, w.Collect())

		outer.Release()
		assert.False(t, l.Pinned())
		assert.Equal(t, 1, w.Collect())
	})
}

func TestCloseWhilePinnedDefersReclaim(t *testing.T) {
	var reclaimed atomic.Int32
	w, r := NewWithConfig(1, Config[int]{
		Memory:    memory.Config{CleanupInterval: 1},
		OnReclaim: func(*int) { reclaimed.Add(1) },
	})

	l := r.RegisterReader()
	g := l.Load()
	l.Close()
	w.Update(2)
	assert.Zero(t, reclaimed.Load())
	assert.Equal(t, 1, *g.Value())

	g.Release()
	w.Collect()
	assert.Equal(t, int32(1), reclaimed.Load())
}

func TestWriterRegisterReader(t *testing.T) {
	w, _ := New("a")
	l := w.RegisterReader()
	defer l.Close()

	g := l.Load()
	defer g.Release()
	assert.Equal(t, "a", *g.Value())
	assert.Equal(t, "a", Map(w.Reader(), func(s *string) string { return *s }))
}

func TestPoolRecyclesRetiredValues(t *testing.T) {
	type table struct{ routes map[string]string }

	var resets int
	pool := memory.NewPool(func() *table { return &table{} }).
		WithReset(func(tb *table) { resets++; tb.routes = nil })

	w, r := NewWithConfig(table{routes: map[string]string{"/": "a"}}, Config[table]{Pool: pool})
	w.Update(table{routes: map[string]string{"/": "b"}})

	assert.Equal(t, 1, resets)
	assert.Equal(t, "b", Map(r, func(tb *table) string { return tb.routes["/"] }))
}

type countingEngine struct {
	memory.Engine
	retired int
}

func (c *countingEngine) Retire(w *memory.WriterToken, v any, rc memory.Reclaimer) {
	c.retired++
	c.Engine.Retire(w, v, rc)
}

func TestCustomEngine(t *testing.T) {
	tok, inner := memory.NewEpochDomain(memory.Config{})
	eng := &countingEngine{Engine: inner}

	w, r := NewWithConfig(0, Config[int]{
		Custom: func() (*memory.WriterToken, memory.Engine) {
			// the wrapped domain checks tokens against itself
			return tok, eng
		},
	})
	w.Update(1)
	w.Update(2)

	assert.Equal(t, 2, eng.retired)
	assert.Equal(t, 2, Map(r, func(v *int) int { return *v }))
	assert.Equal(t, uint64(3), inner.Epoch())
}

func TestForeignWriterTokenPanics(t *testing.T) {
	w, _ := New(0)
	_, other := New(0)
	assert.Panics(t, func() {
		other.sh.engine.Retire(w.token, new(int), memory.Discard)
	})
}

func TestReadGuardPanicsAfterRelease(t *testing.T) {
	_, r := New(1)
	g := r.Load()
	assert.True(t, g.Valid())
	g.Release()
	g.Release()
	assert.False(t, g.Valid())
	assert.Panics(t, func() { g.Value() })
}

func TestSlotLoadRequiresPin(t *testing.T) {
	s := NewSlot(new(int))
	var g memory.PinGuard
	assert.Panics(t, func() { s.Load(&g) })
	assert.Panics(t, func() { s.Swap(nil) })
}
