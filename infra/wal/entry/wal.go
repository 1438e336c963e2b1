package entry

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
)

type Config struct {
	Dir             string
	SegmentSize     int64
	SegmentDuration time.Duration
	// SyncEveryAppend fsyncs each record before Append returns.
	SyncEveryAppend bool
}

// WAL is the append side of the journal. It has a single writer: the
// settings service calls it under its write lock.
type WAL struct {
	cfg        Config
	current    *segment
	lastRotate time.Time
}

// Open starts a fresh segment after the highest existing one, so a
// torn tail left by a crash is never appended to.
func Open(cfg Config) (*WAL, error) {
	if cfg.SegmentSize <= 0 {
		cfg.SegmentSize = 64 << 20
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create wal dir")
	}

	files, err := listSegments(cfg.Dir)
	if err != nil {
		return nil, err
	}
	next := 0
	if len(files) > 0 {
		next = segmentIndex(files[len(files)-1]) + 1
	}

	seg, err := openSegment(cfg.Dir, next)
	if err != nil {
		return nil, err
	}
	return &WAL{cfg: cfg, current: seg, lastRotate: time.Now()}, nil
}

func (w *WAL) Append(r *Record) error {
	if len(r.Data) > MaxPayload {
		return errors.Wrapf(ErrTooLarge, "append seq %d: %d bytes", r.Seq, len(r.Data))
	}
	if err := w.current.append(encodeFrame(r)); err != nil {
		return errors.Wrapf(err, "append seq %d", r.Seq)
	}
	if w.cfg.SyncEveryAppend {
		if err := w.current.sync(); err != nil {
			return errors.Wrap(err, "sync segment")
		}
	}

	if w.shouldRotate() {
		return w.rotate()
	}
	return nil
}

func (w *WAL) shouldRotate() bool {
	if w.current.offset >= w.cfg.SegmentSize {
		return true
	}
	return w.cfg.SegmentDuration > 0 && time.Since(w.lastRotate) >= w.cfg.SegmentDuration
}

func (w *WAL) rotate() error {
	if err := w.current.sync(); err != nil {
		return err
	}
	_ = w.current.close()

	seg, err := openSegment(w.cfg.Dir, w.current.index+1)
	if err != nil {
		return err
	}
	w.current = seg
	w.lastRotate = time.Now()
	return nil
}

func (w *WAL) Sync() error { return w.current.sync() }

func (w *WAL) Close() error {
	if err := w.current.sync(); err != nil {
		_ = w.current.close()
		return err
	}
	return w.current.close()
}

// TruncateBefore removes closed segments whose records are all at or
// below seq. The active segment is never removed.
func (w *WAL) TruncateBefore(seq uint64) (removed int, err error) {
	files, err := listSegments(w.cfg.Dir)
	if err != nil {
		return 0, err
	}

	for _, path := range files {
		if segmentIndex(path) >= w.current.index {
			continue
		}
		maxSeq, err := maxSeqInSegment(path)
		if err != nil {
			continue
		}
		if maxSeq <= seq {
			if err := os.Remove(path); err != nil {
				return removed, errors.Wrapf(err, "remove %s", path)
			}
			removed++
		}
	}
	return removed, nil
}
