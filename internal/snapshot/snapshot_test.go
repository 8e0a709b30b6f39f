package snapshot_test

import (
	"path/filepath"
	"testing"

	"github.com/calvinalkan/kvstore/internal/dataset"
	"github.com/calvinalkan/kvstore/internal/hashindex"
	"github.com/calvinalkan/kvstore/internal/snapshot"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileYieldsEmptyIndex(t *testing.T) {
	idx, err := snapshot.Load(filepath.Join(t.TempDir(), "nope.json"), 1)
	require.NoError(t, err)
	require.Equal(t, 0, idx.Count())
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db.json")

	idx := hashindex.New(1)
	idx.Insert(dataset.NewStringEntry([]byte("k"), []byte("v")))

	listEntry := dataset.NewListEntry([]byte("l"))
	listEntry.List.RPush([]byte("a"), []byte("b"))
	idx.Insert(listEntry)

	zsetEntry := dataset.NewSortedSetEntry([]byte("z"))
	zsetEntry.Set.Add(1, "a")
	zsetEntry.Set.Add(2, "b")
	idx.Insert(zsetEntry)

	require.NoError(t, snapshot.Save(idx, path))

	loaded, err := snapshot.Load(path, 1)
	require.NoError(t, err)
	require.Equal(t, 3, loaded.Count())

	e, ok := loaded.Get([]byte("k"))
	require.True(t, ok)
	require.Equal(t, "v", string(e.String))

	le, ok := loaded.Get([]byte("l"))
	require.True(t, ok)
	require.Equal(t, uint64(2), le.List.Len())

	ze, ok := loaded.Get([]byte("z"))
	require.True(t, ok)
	require.Equal(t, uint64(2), ze.Set.Card())

	score, ok := ze.Set.Score("b")
	require.True(t, ok)
	require.InDelta(t, 2.0, score, 0)
}

func TestSaveDoesNotLeavePartialFileOnEncodeSuccess(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db.json")

	idx := hashindex.New(1)
	for i := range 500 {
		idx.Insert(dataset.NewStringEntry([]byte{byte(i), byte(i >> 8)}, []byte("v")))
	}

	require.NoError(t, snapshot.Save(idx, path))

	loaded, err := snapshot.Load(path, 1)
	require.NoError(t, err)
	require.Equal(t, 500, loaded.Count())
}
