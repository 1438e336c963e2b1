package snapshot

import (
	"encoding/gob"
	"os"

	"github.com/cockroachdb/errors"

	"hotswap/domain/settings"
)

// Latest reads the snapshot file. A missing snapshot is not an error:
// the empty document at version 0 is returned.
func (w *FileStore) Latest() (settings.Document, error) {
	f, err := os.Open(Path(w.Dir))
	if errors.Is(err, os.ErrNotExist) {
		return settings.Empty(), nil
	}
	if err != nil {
		return settings.Document{}, err
	}
	defer f.Close()

	var s Snapshot
	if err := gob.NewDecoder(f).Decode(&s); err != nil {
		return settings.Document{}, errors.Wrap(err, "decode snapshot")
	}
	return settings.FromMap(s.Version, s.Values), nil
}
