package metadata

import "sync"

// Index memoizes Metadata per cache key.
//
// Contract:
// - Concurrency: safe for concurrent use from arbitrary goroutines.
// - Lifetime: entries are never invalidated; they accumulate for the process.
type Index struct {
	entries sync.Map // key -> Metadata
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{}
}

// Ensure returns the metadata for key, probing the payload on first
// use. Concurrent calls for the same key may probe more than once but
// always observe one consistent winner.
func (x *Index) Ensure(key string, payload []byte) (Metadata, error) {
	if v, ok := x.entries.Load(key); ok {
		return v.(Metadata), nil
	}

	meta, err := Probe(payload)
	if err != nil {
		return Metadata{}, err
	}

	v, _ := x.entries.LoadOrStore(key, meta)
	return v.(Metadata), nil
}

// Seed memoizes already-known metadata for key, skipping the probe.
// If the key is already memoized, the existing value wins.
func (x *Index) Seed(key string, meta Metadata) Metadata {
	v, _ := x.entries.LoadOrStore(key, meta)
	return v.(Metadata)
}

// Lookup returns the memoized metadata for key, if any.
func (x *Index) Lookup(key string) (Metadata, bool) {
	v, ok := x.entries.Load(key)
	if !ok {
		return Metadata{}, false
	}
	return v.(Metadata), true
}

// Len returns the number of memoized entries.
func (x *Index) Len() int {
	n := 0
	x.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
