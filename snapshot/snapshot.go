package snapshot

import (
	"path/filepath"
	"time"

	"hotswap/domain/settings"
)

// Store persists snapshots. Latest returns the empty document when
// nothing was saved yet.
type Store interface {
	Save(settings.Document) error
	Latest() (settings.Document, error)
}

const fileName = "snapshot.bin"

type Snapshot struct {
	Version uint64
	Created time.Time
	Values  map[string]string
}

func Path(dir string) string {
	return filepath.Join(dir, fileName)
}
