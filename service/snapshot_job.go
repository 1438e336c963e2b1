package service

import (
	"context"
	"log"
	"time"

	"hotswap/snapshot"
)

// SnapshotOnce saves the current document and truncates the journal
// and the acked outbox up to its version.
func (s *SettingsService) SnapshotOnce(store snapshot.Store, reader *snapshot.Reader) (uint64, error) {
	doc := reader.Capture()
	if err := store.Save(doc); err != nil {
		return 0, err
	}

	if s.journal != nil {
		s.mu.Lock()
		_, err := s.journal.TruncateBefore(doc.Version)
		s.mu.Unlock()
		if err != nil {
			log.Printf("[snapshot] truncate journal: %v", err)
		}
	}
	if s.outbox != nil {
		if _, err := s.outbox.TruncateAckedUpTo(doc.Version); err != nil {
			log.Printf("[snapshot] truncate outbox: %v", err)
		}
	}
	return doc.Version, nil
}

// StartSnapshotJob snapshots every interval until ctx is cancelled.
func (s *SettingsService) StartSnapshotJob(ctx context.Context, store snapshot.Store, interval time.Duration) {
	if interval <= 0 {
		return
	}
	reader := snapshot.NewReader(s.r)

	go func() {
		defer reader.Close()
		t := time.NewTicker(interval)
		defer t.Stop()

		var last uint64
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if s.Version() == last {
					continue
				}
				v, err := s.SnapshotOnce(store, reader)
				if err != nil {
					log.Printf("[snapshot] save: %v", err)
					continue
				}
				last = v
			}
		}
	}()
}

// StartCollectJob runs Collect every interval until ctx is cancelled.
func (s *SettingsService) StartCollectJob(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Collect()
			}
		}
	}()
}
