package exit

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
)

const keyPrefix = "version/"

var ErrNotFound = errors.New("exit: record not found")

type Outbox struct {
	db *pebble.DB
}

func Open(dir string) (*Outbox, error) {
	return OpenWithOptions(dir, &pebble.Options{})
}

// OpenWithOptions lets tests run on an in-memory filesystem.
func OpenWithOptions(dir string, opts *pebble.Options) (*Outbox, error) {
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "open outbox %s", dir)
	}
	return &Outbox{db: db}, nil
}

func (o *Outbox) Close() error {
	return o.db.Close()
}

// PutNew records a freshly committed version.
func (o *Outbox) PutNew(version uint64, payload []byte) error {
	return o.put(Record{Version: version, State: StateNew, Payload: payload})
}

func (o *Outbox) MarkSent(version uint64) error {
	return o.transition(version, StateSent, nil)
}

func (o *Outbox) MarkAcked(version uint64) error {
	return o.transition(version, StateAcked, nil)
}

// MarkFailed records a failed attempt. The record goes back to NEW
// until it has been retried maxRetries times.
func (o *Outbox) MarkFailed(version uint64, maxRetries uint32) (State, error) {
	var final State
	err := o.transition(version, StateNew, func(r *Record) {
		r.Retries++
		if r.Retries >= maxRetries {
			r.State = StateFailed
		}
		final = r.State
	})
	return final, err
}

func (o *Outbox) transition(version uint64, to State, mutate func(*Record)) error {
	rec, err := o.Get(version)
	if err != nil {
		return err
	}
	rec.State = to
	rec.LastAttempt = time.Now().UnixNano()
	if mutate != nil {
		mutate(&rec)
	}
	return o.put(rec)
}

func (o *Outbox) put(r Record) error {
	return o.db.Set(keyFor(r.Version), encodeRecord(r), pebble.Sync)
}

func (o *Outbox) Get(version uint64) (Record, error) {
	val, closer, err := o.db.Get(keyFor(version))
	if errors.Is(err, pebble.ErrNotFound) {
		return Record{}, errors.Wrapf(ErrNotFound, "version %d", version)
	}
	if err != nil {
		return Record{}, err
	}
	defer closer.Close()

	return decodeRecord(version, val)
}

func (o *Outbox) Delete(version uint64) error {
	return o.db.Delete(keyFor(version), pebble.Sync)
}

// ScanByState visits records in the given state in version order.
func (o *Outbox) ScanByState(state State, fn func(Record) error) error {
	iter, err := o.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyPrefix + "~"),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		version, err := parseKey(iter.Key())
		if err != nil {
			return err
		}
		val := iter.Value()
		if len(val) == 0 || State(val[0]) != state {
			continue
		}
		rec, err := decodeRecord(version, val)
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return iter.Error()
}

// TruncateAckedUpTo deletes ACKED records with version <= upTo in one
// batch and returns how many went.
func (o *Outbox) TruncateAckedUpTo(upTo uint64) (int, error) {
	b := o.db.NewBatch()
	defer b.Close()

	n := 0
	err := o.ScanByState(StateAcked, func(r Record) error {
		if r.Version > upTo {
			return nil
		}
		n++
		return b.Delete(keyFor(r.Version), nil)
	})
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	return n, b.Commit(pebble.Sync)
}

// Counts reports how many records sit in each state.
func (o *Outbox) Counts() (map[State]int, error) {
	out := map[State]int{}
	for _, s := range []State{StateNew, StateSent, StateAcked, StateFailed} {
		err := o.ScanByState(s, func(Record) error {
			out[s]++
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func keyFor(version uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", keyPrefix, version))
}

func parseKey(b []byte) (uint64, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(string(b), keyPrefix), 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "exit: bad key %q", b)
	}
	return v, nil
}
