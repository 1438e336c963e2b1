// Package swap implements a single-writer, multiple-reader container
// for hot-swappable shared state such as live configuration or routing
// tables.
//
// A Writer atomically replaces the current value; any number of
// readers obtain lock-free snapshots through ReadGuards. Superseded
// values are handed to a memory.Engine and reclaimed only once no
// pinned reader can still observe them, so a guard's value stays valid
// for the guard's whole lifetime regardless of later writes.
//
//	w, r := swap.New(0)
//	w.Update(1)
//
//	g := r.Load()
//	defer g.Release()
//	fmt.Println(*g.Value())
//
// There is one logical writer per container. The Writer cannot be
// duplicated; callers with several producers must serialize access to
// it themselves. Readers are cheap to clone. Pins are goroutine
// confined: a LocalReader must not be used from two goroutines at once,
// while Reader.Load hands out pooled registrations and is safe to call
// from anywhere.
package swap
