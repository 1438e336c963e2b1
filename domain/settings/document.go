package settings

import (
	"sort"
	"time"
)

// Document is one version of the settings.
type Document struct {
	Version   uint64
	UpdatedAt time.Time
	values    map[string]string
}

func Empty() Document {
	return Document{values: map[string]string{}}
}

// FromMap builds a document owning a copy of values.
func FromMap(version uint64, values map[string]string) Document {
	d := Document{Version: version, UpdatedAt: time.Now(), values: make(map[string]string, len(values))}
	for k, v := range values {
		d.values[k] = v
	}
	return d
}

func (d Document) Get(key string) (string, bool) {
	v, ok := d.values[key]
	return v, ok
}

func (d Document) Len() int { return len(d.values) }

// Keys returns the keys in sorted order.
func (d Document) Keys() []string {
	keys := make([]string, 0, len(d.values))
	for k := range d.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Values returns a copy of the key/value pairs.
func (d Document) Values() map[string]string {
	out := make(map[string]string, len(d.values))
	for k, v := range d.values {
		out[k] = v
	}
	return out
}

// With returns a new document with key set to value.
func (d Document) With(version uint64, key, value string) Document {
	next := d.Values()
	next[key] = value
	return Document{Version: version, UpdatedAt: time.Now(), values: next}
}

// Without returns a new document with key removed.
func (d Document) Without(version uint64, key string) Document {
	next := d.Values()
	delete(next, key)
	return Document{Version: version, UpdatedAt: time.Now(), values: next}
}

// Apply returns the document produced by m.
func (d Document) Apply(version uint64, m Mutation) Document {
	switch m.Op {
	case OpDelete:
		return d.Without(version, m.Key)
	case OpReplace:
		return FromMap(version, m.Values)
	default:
		return d.With(version, m.Key, m.Value)
	}
}
