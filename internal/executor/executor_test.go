package executor_test

import (
	"testing"

	"github.com/calvinalkan/kvstore/internal/command"
	"github.com/calvinalkan/kvstore/internal/executor"
	"github.com/calvinalkan/kvstore/internal/hashindex"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func newExec() *executor.Executor {
	return executor.New(hashindex.New(1), nil)
}

func run(x *executor.Executor, line string) command.Reply {
	return x.Execute(command.Parse(line)).Reply
}

// Scenario 1 (spec.md §8): SET twice then GET.
func TestScenarioSetOverwriteThenGet(t *testing.T) {
	x := newExec()

	r := run(x, "SET author cch")
	require.Equal(t, command.ReplyBool, r.Kind)
	require.True(t, r.Bool)

	r = run(x, "SET author cch137")
	require.True(t, r.Bool)

	r = run(x, "GET author")
	require.Equal(t, "cch137", r.Str)
}

// Scenario 2: list push/pop/range.
func TestScenarioListPushPopRange(t *testing.T) {
	x := newExec()

	r := run(x, "RPUSH list1 a b c d e f g")
	require.Equal(t, uint64(7), r.Unsigned)

	r = run(x, "LPUSH list2 x y z")
	require.Equal(t, uint64(3), r.Unsigned)

	r = run(x, "RPOP list1 2")
	requireListEqual(t, []string{"g", "f"}, r)

	r = run(x, "LPOP list2 1")
	requireListEqual(t, []string{"x"}, r)

	r = run(x, "LRANGE list1 0 4")
	requireListEqual(t, []string{"a", "b", "c", "d", "e"}, r)
}

// Scenario 3: sorted set add/range/rank.
func TestScenarioSortedSetAddRangeRank(t *testing.T) {
	x := newExec()

	run(x, "ZADD z 1 a")
	run(x, "ZADD z 2 b")
	run(x, "ZADD z 3 c")

	r := run(x, "ZRANGE z 0 -1")
	require.Equal(t, []string{"a", "b", "c"}, listStrs(r))

	r = run(x, "ZRANGEBYSCORE z (1 3")
	require.Equal(t, []string{"b", "c"}, listStrs(r))

	r = run(x, "ZRANK z b")
	require.Equal(t, uint64(1), r.Unsigned)
}

// Scenario 4: ZINTERSTORE with weighted SUM aggregation.
func TestScenarioZInterStoreSum(t *testing.T) {
	x := newExec()

	run(x, "ZADD z1 1 a 2 b 3 c")
	run(x, "ZADD z2 10 b 20 c 30 d")

	r := run(x, "ZINTERSTORE out 2 z1 z2 AGGREGATE SUM")
	require.Equal(t, uint64(2), r.Unsigned)

	scoreB := run(x, "ZSCORE out b")
	require.InDelta(t, 12.0, scoreB.Double, 0)

	scoreC := run(x, "ZSCORE out c")
	require.InDelta(t, 23.0, scoreC.Double, 0)
}

// Scenario 6: overwrite across kinds, LLEN treats wrong kind as empty.
func TestScenarioOverwriteAcrossKinds(t *testing.T) {
	x := newExec()

	run(x, "LPUSH k 1")
	r := run(x, "SET k x")
	require.True(t, r.Bool)

	r = run(x, "GET k")
	require.Equal(t, "x", r.Str)

	r = run(x, "LLEN k")
	require.Equal(t, uint64(0), r.Unsigned)
}

// Scenario 7: RENAME on a missing key.
func TestScenarioRenameMissingKey(t *testing.T) {
	x := newExec()

	r := run(x, "RENAME missing other")
	require.True(t, r.IsError())
	require.Equal(t, command.ErrNoSuchKey, r.Err)
}

func TestGetOnMissingKeyIsNull(t *testing.T) {
	x := newExec()

	r := run(x, "GET nope")
	require.Equal(t, command.ReplyNull, r.Kind)
}

func TestGetOnWrongKindIsWrongType(t *testing.T) {
	x := newExec()

	run(x, "RPUSH l a")

	r := run(x, "GET l")
	require.True(t, r.IsError())
}

func TestDelCountsOnlyExistingKeys(t *testing.T) {
	x := newExec()

	run(x, "SET a 1")
	run(x, "SET b 2")

	r := run(x, "DEL a b c")
	require.Equal(t, uint64(2), r.Unsigned)
}

func TestFlushAllEmptiesKeys(t *testing.T) {
	x := newExec()

	run(x, "SET a 1")
	run(x, "SET b 2")

	r := run(x, "FLUSHALL")
	require.True(t, r.Bool)

	r = run(x, "KEYS")
	require.Empty(t, r.List)
}

func TestInfoDatasetMemoryMonotonicAfterFlush(t *testing.T) {
	x := newExec()

	for i := range 20 {
		run(x, "SET k"+string(rune('a'+i))+" value-value-value")
	}

	before := run(x, "INFO_DATASET_MEMORY").Unsigned

	run(x, "FLUSHALL")

	after := run(x, "INFO_DATASET_MEMORY").Unsigned
	require.Less(t, after, before)
}

func TestUnknownCommandReply(t *testing.T) {
	x := newExec()

	r := run(x, "FROBNICATE")
	require.True(t, r.IsError())
}

func TestWrongArityReplies(t *testing.T) {
	x := newExec()

	r := run(x, "SET onlyone")
	require.True(t, r.IsError())
}

func TestShutdownSignalsWorker(t *testing.T) {
	x := newExec()

	res := x.Execute(command.Parse("SHUTDOWN"))
	require.True(t, res.Shutdown)
	require.True(t, res.Reply.Bool)
}

func listStrs(r command.Reply) []string {
	out := make([]string, len(r.List))
	for i, item := range r.List {
		out[i] = item.Str
	}

	return out
}

// requireListEqual compares a ReplyList against the expected strings with
// go-cmp so a mismatch prints a readable diff rather than two opaque slices.
func requireListEqual(t *testing.T, want []string, got command.Reply) {
	t.Helper()

	if diff := cmp.Diff(want, listStrs(got)); diff != "" {
		t.Fatalf("list reply mismatch (-want +got):\n%s", diff)
	}
}
