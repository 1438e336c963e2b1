package snapshot

import (
	"hotswap/domain/settings"
	"hotswap/domain/swap"
)

// Reader is the snapshot job's own registration with the container.
// Capture pins it for exactly as long as it takes to copy the live
// document.
type Reader struct {
	local *swap.LocalReader[settings.Document]
}

func NewReader(r *swap.Reader[settings.Document]) *Reader {
	return &Reader{local: r.RegisterReader()}
}

func (r *Reader) Capture() settings.Document {
	g := r.local.Load()
	defer g.Release()
	return g.Get()
}

func (r *Reader) Close() {
	r.local.Close()
}
