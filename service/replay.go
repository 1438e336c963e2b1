package service

import (
	"log"

	"github.com/cockroachdb/errors"

	entrywal "hotswap/infra/wal/entry"
)

// ReplayFromWAL applies journal records newer than the current
// document. It must run before the service takes traffic.
func (s *SettingsService) ReplayFromWAL(dir string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	applied := 0
	lastSeq, err := entrywal.Replay(dir, s.seq.Current(), func(rec *entrywal.Record) error {
		if rec.Type != entrywal.RecordMutation {
			return nil
		}
		m, err := s.journalCodec.Decode(rec.Data)
		if err != nil {
			return errors.Wrapf(err, "seq %d", rec.Seq)
		}
		s.commitLocked(rec.Seq, m)
		applied++
		return nil
	})
	if err != nil {
		return 0, err
	}

	// resume sequencing after replay
	s.seq.Observe(lastSeq)

	log.Printf("[service] WAL replay completed (applied=%d last seq=%d)", applied, lastSeq)
	return lastSeq, nil
}
