package dataset

// Entry owns (key, kind, value). The value is whichever of String/List/Set
// matches Kind; the other two are left at their zero value. This mirrors the
// teacher's tagged-enum style (internal/spec's Status/Priority) rather than
// an `any`-typed value field, so callers can switch on Kind exhaustively
// without a type assertion.
type Entry struct {
	Key    []byte
	Kind   Kind
	String []byte
	List   *List
	Set    *SortedSet

	// Next chains entries that collide in the same hash bucket. Owned by the
	// hash index; callers outside hashindex should not read or write it.
	Next *Entry
}

// NewStringEntry builds an Entry holding a copy of value.
func NewStringEntry(key, value []byte) *Entry {
	return &Entry{Key: cloneBytes(key), Kind: KindString, String: cloneBytes(value)}
}

// NewListEntry builds an Entry holding an (initially empty) list.
func NewListEntry(key []byte) *Entry {
	return &Entry{Key: cloneBytes(key), Kind: KindList, List: NewList()}
}

// NewSortedSetEntry builds an Entry holding an (initially empty) sorted set.
func NewSortedSetEntry(key []byte) *Entry {
	return &Entry{Key: cloneBytes(key), Kind: KindSortedSet, Set: NewSortedSet()}
}

// SetString replaces the entry's value with a string, dropping any prior
// list/set value and retagging the kind. Used by SET to overwrite across
// kinds (§4.6: "overwrite (replace kind)").
func (e *Entry) SetString(value []byte) {
	e.Kind = KindString
	e.String = cloneBytes(value)
	e.List = nil
	e.Set = nil
}

// MemoryUsage approximates the bytes owned by this entry: key, tag overhead,
// and whichever value is live. The accounting is observational (§4.6); it
// only needs to be monotonic under growth and shrink, not exact.
func (e *Entry) MemoryUsage() uint64 {
	const entryOverhead = 48 // struct header + pointers, approximated

	usage := entryOverhead + uint64(len(e.Key))

	switch e.Kind {
	case KindString:
		usage += uint64(len(e.String))
	case KindList:
		usage += e.List.MemoryUsage()
	case KindSortedSet:
		usage += e.Set.MemoryUsage()
	case KindNumber:
		// Number is argument-only; never stored on an Entry.
	}

	return usage
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}

	out := make([]byte, len(b))
	copy(out, b)

	return out
}
