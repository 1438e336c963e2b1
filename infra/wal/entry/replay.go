package entry

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"
)

type ReplayHandler func(*Record) error

// Replay feeds every record with a sequence above after to fn, in
// order, and returns the last sequence seen. A torn frame at the tail
// of a segment ends that segment; any other damage is an error.
func Replay(dir string, after uint64, fn ReplayHandler) (lastSeq uint64, err error) {
	files, err := listSegments(dir)
	if err != nil {
		return 0, err
	}

	lastSeq = after
	for _, path := range files {
		err := scanSegment(path, func(rec *Record) error {
			if rec.Seq <= after {
				return nil
			}
			if rec.Seq <= lastSeq {
				return errors.Newf("entry: non-monotonic seq %d after %d", rec.Seq, lastSeq)
			}
			lastSeq = rec.Seq
			return fn(rec)
		})
		if err != nil {
			return lastSeq, errors.Wrapf(err, "replay %s", path)
		}
	}
	return lastSeq, nil
}

func scanSegment(path string, fn func(*Record) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return err
	}

	for off := int64(0); ; {
		rec, err := readRecord(f, st.Size()-off)
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "offset %d", off)
		}
		off += int64(headerSize + len(rec.Data) + 4)
		if err := fn(rec); err != nil {
			return err
		}
	}
}
