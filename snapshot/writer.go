package snapshot

import (
	"encoding/gob"
	"os"
	"time"

	"github.com/cockroachdb/errors"

	"hotswap/domain/settings"
)

// FileStore keeps the latest snapshot as a gob file in Dir.
type FileStore struct {
	Dir string
}

// Save replaces the snapshot file atomically.
func (w *FileStore) Save(doc settings.Document) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(w.Dir, fileName+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	s := Snapshot{
		Version: doc.Version,
		Created: time.Now(),
		Values:  doc.Values(),
	}
	if err := gob.NewEncoder(tmp).Encode(&s); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "encode snapshot v%d", doc.Version)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), Path(w.Dir))
}
