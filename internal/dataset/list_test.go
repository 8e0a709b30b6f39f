package dataset_test

import (
	"testing"

	"github.com/calvinalkan/kvstore/internal/dataset"
	"github.com/stretchr/testify/require"
)

func strs(bs [][]byte) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = string(b)
	}

	return out
}

func TestListRPushThenRPopTailFirst(t *testing.T) {
	l := dataset.NewList()
	l.RPush([]byte("a"), []byte("b"), []byte("c"), []byte("d"), []byte("e"), []byte("f"), []byte("g"))
	require.Equal(t, uint64(7), l.Len())

	popped := l.RPop(2)
	require.Equal(t, []string{"g", "f"}, strs(popped))
	require.Equal(t, uint64(5), l.Len())
}

func TestListLPushThenLPop(t *testing.T) {
	l := dataset.NewList()
	l.LPush([]byte("x"), []byte("y"), []byte("z"))
	// LPUSH places its arguments at the head in argument order: x, y, z.
	require.Equal(t, []string{"x", "y", "z"}, strs(l.LRange(0, 2)))

	popped := l.LPop(1)
	require.Equal(t, []string{"x"}, strs(popped))
}

func TestListLRangeClampAndEmpty(t *testing.T) {
	l := dataset.NewList()
	require.Empty(t, l.LRange(0, 10))

	l.RPush([]byte("a"), []byte("b"), []byte("c"))
	require.Equal(t, []string{"a", "b", "c"}, strs(l.LRange(0, 100)))
	require.Empty(t, l.LRange(2, 1))
}

func TestListLRangeHeadAndTailEntry(t *testing.T) {
	l := dataset.NewList()
	for i := range 20 {
		l.RPush([]byte{byte('a' + i)})
	}

	// start near the tail exercises the backward-traversal branch.
	got := l.LRange(17, 19)
	require.Equal(t, []string{"r", "s", "t"}, strs(got))

	got = l.LRange(0, 2)
	require.Equal(t, []string{"a", "b", "c"}, strs(got))
}

func TestListPopClampsToLength(t *testing.T) {
	l := dataset.NewList()
	l.RPush([]byte("a"), []byte("b"))

	require.Equal(t, []string{"a", "b"}, strs(l.LPop(10)))
	require.Equal(t, uint64(0), l.Len())
	require.Empty(t, l.LPop(1))
}

func TestListMultisetPreservedAcrossPushPop(t *testing.T) {
	l := dataset.NewList()
	l.RPush([]byte("1"), []byte("2"), []byte("3"), []byte("4"))
	l.LPush([]byte("0"))

	popped := l.LPop(2)
	require.Equal(t, []string{"0", "1"}, strs(popped))
	require.Equal(t, uint64(3), l.Len())
	require.Equal(t, []string{"2", "3", "4"}, strs(l.LRange(0, 2)))
}
