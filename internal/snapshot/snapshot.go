// Package snapshot implements the JSON-file persistence format (C8):
// load on start, save on SHUTDOWN/SAVE (spec.md §4.8).
//
// Save writes via natefinch/atomic, the same temp-file-then-rename primitive
// the teacher uses for ticket files (lock.go's WithTicketLock), which is
// exactly the improvement spec.md §7/§9 recommends over a direct in-place
// write: a crash mid-write never corrupts the previous snapshot.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/calvinalkan/kvstore/internal/dataset"
	"github.com/calvinalkan/kvstore/internal/hashindex"
	"github.com/natefinch/atomic"
)

// Load reads path into a fresh index seeded with seed. A missing file
// yields an empty index (spec.md §4.8: "tolerating absence"). Maintenance
// runs between inserts so a large snapshot triggers resizing naturally.
func Load(path string, seed uint32) (*hashindex.Index, error) {
	idx := hashindex.New(seed)

	data, err := os.ReadFile(path) //nolint:gosec // path is operator-configured
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return idx, nil
		}

		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var raw map[string]json.RawMessage

	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}

	for key, msg := range raw {
		entry, ok := decodeEntry([]byte(key), msg)
		if ok {
			idx.Insert(entry)
		}

		idx.MaintenanceTick()
	}

	return idx, nil
}

func decodeEntry(key []byte, msg json.RawMessage) (*dataset.Entry, bool) {
	var asString string
	if err := json.Unmarshal(msg, &asString); err == nil {
		return dataset.NewStringEntry(key, []byte(asString)), true
	}

	var asStringList []string
	if err := json.Unmarshal(msg, &asStringList); err == nil {
		e := dataset.NewListEntry(key)

		values := make([][]byte, len(asStringList))
		for i, s := range asStringList {
			values[i] = []byte(s)
		}

		e.List.RPush(values...)

		return e, true
	}

	var asPairs [][2]json.RawMessage
	if err := json.Unmarshal(msg, &asPairs); err == nil {
		e := dataset.NewSortedSetEntry(key)

		for _, pair := range asPairs {
			var member string
			if err := json.Unmarshal(pair[0], &member); err != nil {
				continue
			}

			var score float64
			if err := json.Unmarshal(pair[1], &score); err != nil {
				continue
			}

			e.Set.Add(score, member)
		}

		return e, true
	}

	// Unrecognised shape: skip it rather than fail the whole load
	// (spec.md §4.8: "the loader may skip kinds it cannot materialise").
	return nil, false
}

// Save serializes idx's current state (both tables combined) to path as a
// JSON object and replaces the file atomically. If the write fails, the
// previous on-disk snapshot is untouched and the error is returned for the
// caller to log (spec.md §7: logged and non-fatal).
func Save(idx *hashindex.Index, path string) error {
	doc := make(map[string]any, idx.Count())

	for _, k := range idx.Keys() {
		e, ok := idx.Get(k.Key)
		if !ok {
			continue
		}

		switch e.Kind {
		case dataset.KindString:
			doc[string(e.Key)] = string(e.String)
		case dataset.KindList:
			items := e.List.LRange(0, ^uint64(0))
			strs := make([]string, len(items))

			for i, v := range items {
				strs[i] = string(v)
			}

			doc[string(e.Key)] = strs
		case dataset.KindSortedSet:
			members := e.Set.Members()
			pairs := make([][2]any, len(members))

			for i, m := range members {
				score, _ := e.Set.Score(m)
				pairs[i] = [2]any{m, score}
			}

			doc[string(e.Key)] = pairs
		case dataset.KindNumber:
			// Never stored on an Entry.
		}
	}

	encoded, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	if err := atomic.WriteFile(path, strings.NewReader(string(encoded))); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}

	return nil
}
