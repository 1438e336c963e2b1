package service

import (
	"log"
	"sync"

	"github.com/cockroachdb/errors"

	"hotswap/domain/settings"
	"hotswap/domain/swap"
	"hotswap/infra/memory"
	"hotswap/infra/sequence"
	"hotswap/infra/wal"
	entrywal "hotswap/infra/wal/entry"
	exitwal "hotswap/infra/wal/exit"
)

// ErrInvalidMutation is returned for mutations that fail validation.
var ErrInvalidMutation = settings.ErrInvalidMutation

type Options struct {
	// Initial is the document to start from, usually the latest
	// snapshot. Its version seeds the sequencer.
	Initial settings.Document
	Engine  memory.Kind
	Memory  memory.Config

	// Journal and Outbox are optional.
	Journal *entrywal.WAL
	Outbox  *exitwal.Outbox
}

type SettingsService struct {
	// mu serializes writers; swap.Writer allows only one at a time.
	mu sync.Mutex
	w  *swap.Writer[settings.Document]
	r  *swap.Reader[settings.Document]

	seq     *sequence.Sequencer
	journal *entrywal.WAL
	outbox  *exitwal.Outbox

	journalCodec wal.Codec
	eventCodec   wal.Codec
}

func NewSettingsService(opts Options) *SettingsService {
	initial := opts.Initial
	if initial.Len() == 0 && initial.Version == 0 {
		initial = settings.Empty()
	}
	w, r := swap.NewWithConfig(initial, swap.Config[settings.Document]{
		Engine: opts.Engine,
		Memory: opts.Memory,
	})
	return &SettingsService{
		w:            w,
		r:            r,
		seq:          sequence.New(initial.Version),
		journal:      opts.Journal,
		outbox:       opts.Outbox,
		journalCodec: wal.ProtoCodec{},
		eventCodec:   wal.JSONCodec{},
	}
}

// -------------------- Commands --------------------

func (s *SettingsService) Put(key, value string) (uint64, error) {
	return s.Apply(settings.Put(key, value))
}

func (s *SettingsService) Delete(key string) (uint64, error) {
	return s.Apply(settings.Delete(key))
}

func (s *SettingsService) Replace(values map[string]string) (uint64, error) {
	return s.Apply(settings.Replace(values))
}

// Apply commits m and returns the new document version. The journal
// write happens before the swap; if it fails nothing changes and the
// version is not consumed.
func (s *SettingsService) Apply(m settings.Mutation) (uint64, error) {
	if err := m.Validate(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Only writers under mu advance the sequencer, so Current+1 is
	// still free once the journal accepts it.
	version := s.seq.Current() + 1

	if s.journal != nil {
		payload, err := s.journalCodec.Encode(m)
		if err != nil {
			return 0, errors.Wrapf(err, "journal: encode version %d", version)
		}
		rec := entrywal.NewRecord(entrywal.RecordMutation, version, payload)
		if err := s.journal.Append(rec); err != nil {
			return 0, errors.Wrap(err, "journal")
		}
	}
	s.seq.Observe(version)

	s.commitLocked(version, m)

	if s.outbox != nil {
		event, err := s.eventCodec.Encode(m)
		if err == nil {
			err = s.outbox.PutNew(version, event)
		}
		if err != nil {
			// the change is live and journaled; only the event is lost
			log.Printf("[service] outbox version=%d: %v", version, err)
		}
	}
	return version, nil
}

func (s *SettingsService) commitLocked(version uint64, m settings.Mutation) {
	s.w.SwapAndFetch(func(cur settings.Document) settings.Document {
		return cur.Apply(version, m)
	})
}

// -------------------- Queries --------------------

func (s *SettingsService) Get(key string) (value string, version uint64, ok bool) {
	g := s.r.Load()
	defer g.Release()
	doc := g.Value()
	value, ok = doc.Get(key)
	return value, doc.Version, ok
}

// Snapshot returns the current document. Documents are immutable, so
// the caller may keep it after the pin is gone.
func (s *SettingsService) Snapshot() settings.Document {
	return swap.Map(s.r, func(d *settings.Document) settings.Document { return *d })
}

func (s *SettingsService) Version() uint64 {
	return swap.Map(s.r, func(d *settings.Document) uint64 { return d.Version })
}

// Reader hands out a reader handle for hot paths that want to pin the
// document themselves.
func (s *SettingsService) Reader() *swap.Reader[settings.Document] {
	return s.r.Clone()
}

// -------------------- Reclamation --------------------

// Collect reclaims superseded documents no reader can still see.
func (s *SettingsService) Collect() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Collect()
}

func (s *SettingsService) Stats() memory.Stats {
	return s.r.Stats()
}
