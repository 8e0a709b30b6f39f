// Package hashindex implements the dataset's two-table, open-chained,
// incrementally-rehashed hash index (spec.md §4.1).
//
// Bucket placement borrows the power-of-two masked indexing style of the
// teacher's pkg/slotcache bucket layout (cache.go), but unlike slotcache's
// fixed-capacity mmap'd table, this index grows and shrinks online by
// migrating one bucket chain per maintenance tick instead of rebuilding the
// whole table at once.
package hashindex

import (
	"github.com/calvinalkan/kvstore/internal/dataset"
	"github.com/calvinalkan/kvstore/internal/murmur"
)

const (
	minTableSize = 16
	growFactor   = 0.7
	shrinkFactor = 0.1
)

type table struct {
	buckets []*dataset.Entry
	size    int
	count   int
}

func newTable(size int) *table {
	return &table{buckets: make([]*dataset.Entry, size), size: size}
}

// Index is the hash index. Not safe for concurrent use — the engine's single
// worker is the only caller permitted to mutate it (spec.md §5).
type Index struct {
	seed         uint32
	t0           *table
	t1           *table
	rehashCursor int // -1 means idle
}

// New returns an empty index seeded for hashing.
func New(seed uint32) *Index {
	return &Index{seed: seed, t0: newTable(minTableSize), rehashCursor: -1}
}

func (idx *Index) slot(t *table, key []byte) int {
	return int(murmur.Hash32(key, idx.seed)) & (t.size - 1)
}

// Rehashing reports whether a progressive rehash is in progress.
func (idx *Index) Rehashing() bool {
	return idx.t1 != nil
}

// Get looks up key, probing T1 before T0 while rehashing (spec.md
// invariant R2: a key lives in exactly one table during rehash, and newer
// insertions land in T1).
func (idx *Index) Get(key []byte) (*dataset.Entry, bool) {
	if idx.t1 != nil {
		if e := find(idx.t1, idx.slot(idx.t1, key), key); e != nil {
			return e, true
		}
	}

	if e := find(idx.t0, idx.slot(idx.t0, key), key); e != nil {
		return e, true
	}

	return nil, false
}

func find(t *table, slot int, key []byte) *dataset.Entry {
	for e := t.buckets[slot]; e != nil; e = e.Next {
		if string(e.Key) == string(key) {
			return e
		}
	}

	return nil
}

// Insert takes ownership of e, replacing any existing entry with the same
// key. Inserts land in T1 while rehashing is in progress.
func (idx *Index) Insert(e *dataset.Entry) {
	idx.Remove(e.Key)

	t := idx.t0
	if idx.t1 != nil {
		t = idx.t1
	}

	slot := idx.slot(t, e.Key)
	e.Next = t.buckets[slot]
	t.buckets[slot] = e
	t.count++
}

// Remove deletes key from whichever table holds it and returns ownership of
// the removed entry, or (nil, false) if absent.
func (idx *Index) Remove(key []byte) (*dataset.Entry, bool) {
	if idx.t1 != nil {
		if e, ok := removeFrom(idx.t1, idx.slot(idx.t1, key), key); ok {
			return e, true
		}
	}

	if e, ok := removeFrom(idx.t0, idx.slot(idx.t0, key), key); ok {
		return e, true
	}

	return nil, false
}

func removeFrom(t *table, slot int, key []byte) (*dataset.Entry, bool) {
	var prev *dataset.Entry

	for e := t.buckets[slot]; e != nil; e = e.Next {
		if string(e.Key) == string(key) {
			if prev == nil {
				t.buckets[slot] = e.Next
			} else {
				prev.Next = e.Next
			}

			e.Next = nil
			t.count--

			return e, true
		}

		prev = e
	}

	return nil, false
}

// Count returns the total number of entries across both tables.
func (idx *Index) Count() int {
	n := idx.t0.count
	if idx.t1 != nil {
		n += idx.t1.count
	}

	return n
}

// Reset discards all entries and returns the index to its minimum size
// (used by FLUSHALL).
func (idx *Index) Reset() {
	idx.t0 = newTable(minTableSize)
	idx.t1 = nil
	idx.rehashCursor = -1
}

// MemoryUsage sums the allocator-equivalent usage of both tables and every
// live entry reachable from them (spec.md §4.6).
func (idx *Index) MemoryUsage() uint64 {
	const bucketPtrSize = 8

	usage := uint64(idx.t0.size) * bucketPtrSize
	if idx.t1 != nil {
		usage += uint64(idx.t1.size) * bucketPtrSize
	}

	for _, kind := range idx.Keys() {
		if e, ok := idx.Get(kind.Key); ok {
			usage += e.MemoryUsage()
		}
	}

	return usage
}

// KeyedEntry names a key without requiring the caller to look it up twice.
type KeyedEntry struct {
	Key  []byte
	Kind dataset.Kind
}

// Keys enumerates every live key across both tables (spec.md §4.6: "both
// tables during rehash").
func (idx *Index) Keys() []KeyedEntry {
	out := make([]KeyedEntry, 0, idx.Count())

	collect := func(t *table) {
		for _, head := range t.buckets {
			for e := head; e != nil; e = e.Next {
				out = append(out, KeyedEntry{Key: e.Key, Kind: e.Kind})
			}
		}
	}

	collect(idx.t0)

	if idx.t1 != nil {
		collect(idx.t1)
	}

	return out
}

// MaintenanceTick advances the rehash state machine by at most one step. If
// no rehash is in progress, it first checks whether the load policy
// (spec.md §4.1) requires starting one.
func (idx *Index) MaintenanceTick() {
	if idx.t1 == nil {
		idx.maybeStartRehash()

		return
	}

	idx.rehashStep()
}

func (idx *Index) maybeStartRehash() {
	n := idx.t0.count
	m := idx.t0.size

	switch {
	case float64(n) > growFactor*float64(m):
		idx.t1 = newTable(m * 2)
		idx.rehashCursor = m - 1
	case m > minTableSize && float64(n) < shrinkFactor*float64(m):
		idx.t1 = newTable(m / 2)
		idx.rehashCursor = m - 1
	}
}

func (idx *Index) rehashStep() {
	if idx.rehashCursor < 0 {
		idx.finishRehash()

		return
	}

	head := idx.t0.buckets[idx.rehashCursor]
	idx.t0.buckets[idx.rehashCursor] = nil

	for e := head; e != nil; {
		next := e.Next
		e.Next = nil

		slot := idx.slot(idx.t1, e.Key)
		e.Next = idx.t1.buckets[slot]
		idx.t1.buckets[slot] = e
		idx.t1.count++
		idx.t0.count--

		e = next
	}

	idx.rehashCursor--

	if idx.rehashCursor < 0 {
		idx.finishRehash()
	}
}

func (idx *Index) finishRehash() {
	idx.t0 = idx.t1
	idx.t1 = nil
	idx.rehashCursor = -1
}
