package executor

import (
	"math"
	"strconv"
	"strings"

	"github.com/calvinalkan/kvstore/internal/command"
	"github.com/calvinalkan/kvstore/internal/dataset"
	"github.com/calvinalkan/kvstore/internal/hashindex"
)

// parseScoreBound parses a ZRANGEBYSCORE/ZCOUNT/ZREMRANGEBYSCORE endpoint:
// a bare number is inclusive, a "(" prefix makes it exclusive, and
// "+inf"/"-inf" are supported (Redis sorted-set convention, per the
// glossary).
func parseScoreBound(s string) (value float64, inclusive bool, ok bool) {
	inclusive = true

	if after, cut := strings.CutPrefix(s, "("); cut {
		inclusive = false
		s = after
	}

	switch s {
	case "+inf":
		return math.Inf(1), inclusive, true
	case "-inf":
		return math.Inf(-1), inclusive, true
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, false
	}

	return f, inclusive, true
}

func zsetEntry(idx *hashindex.Index, key []byte, create bool) (*dataset.Entry, bool, bool) {
	e, present, mismatch := lookupKind(idx, key, dataset.KindSortedSet)
	if mismatch {
		return e, present, true
	}

	if !present && create {
		e = dataset.NewSortedSetEntry(key)
		idx.Insert(e)

		present = true
	}

	return e, present, false
}

func handleZAdd(x *Executor, req command.Request) Result {
	if len(req.Args) < 3 || len(req.Args)%2 != 1 {
		return argErr()
	}

	key := []byte(req.Args[0].AsString())

	pairs := req.Args[1:]

	type pair struct {
		score  float64
		member string
	}

	parsed := make([]pair, 0, len(pairs)/2)

	for i := 0; i < len(pairs); i += 2 {
		score, err := pairs[i].AsFloat()
		if err != nil {
			return argErr()
		}

		parsed = append(parsed, pair{score: score, member: pairs[i+1].AsString()})
	}

	e, _, mismatch := zsetEntry(x.Idx, key, true)
	if mismatch {
		return wrongType(e)
	}

	var added uint64

	for _, p := range parsed {
		if e.Set.Add(p.score, p.member) {
			added++
		}
	}

	return reply(command.Unsigned(added))
}

func handleZRem(x *Executor, req command.Request) Result {
	if len(req.Args) < 2 {
		return argErr()
	}

	key := []byte(req.Args[0].AsString())

	e, present, mismatch := zsetEntry(x.Idx, key, false)
	if mismatch {
		return wrongType(e)
	}

	if !present {
		return reply(command.Unsigned(0))
	}

	var removed uint64

	for _, arg := range req.Args[1:] {
		if e.Set.Rem(arg.AsString()) {
			removed++
		}
	}

	return reply(command.Unsigned(removed))
}

func handleZScore(x *Executor, req command.Request) Result {
	if len(req.Args) != 2 {
		return argErr()
	}

	key := []byte(req.Args[0].AsString())

	e, present, mismatch := zsetEntry(x.Idx, key, false)
	if mismatch {
		return wrongType(e)
	}

	if !present {
		return reply(command.Null())
	}

	score, ok := e.Set.Score(req.Args[1].AsString())
	if !ok {
		return reply(command.Null())
	}

	return reply(command.Double(score))
}

func handleZCard(x *Executor, req command.Request) Result {
	if len(req.Args) != 1 {
		return argErr()
	}

	key := []byte(req.Args[0].AsString())

	e, present, mismatch := zsetEntry(x.Idx, key, false)
	if mismatch {
		return wrongType(e)
	}

	if !present {
		return reply(command.Unsigned(0))
	}

	return reply(command.Unsigned(e.Set.Card()))
}

func handleZCount(x *Executor, req command.Request) Result {
	if len(req.Args) != 3 {
		return argErr()
	}

	key := []byte(req.Args[0].AsString())

	e, present, mismatch := zsetEntry(x.Idx, key, false)
	if mismatch {
		return wrongType(e)
	}

	if !present {
		return reply(command.Unsigned(0))
	}

	sr, ok := scoreRangeFromArgs(req.Args[1], req.Args[2])
	if !ok {
		return argErr()
	}

	return reply(command.Unsigned(e.Set.Count(sr)))
}

func scoreRangeFromArgs(minArg, maxArg command.Arg) (dataset.ScoreRange, bool) {
	minVal, minIncl, ok := parseScoreBound(minArg.AsString())
	if !ok {
		return dataset.ScoreRange{}, false
	}

	maxVal, maxIncl, ok := parseScoreBound(maxArg.AsString())
	if !ok {
		return dataset.ScoreRange{}, false
	}

	return dataset.ScoreRange{Min: minVal, MinIncl: minIncl, Max: maxVal, MaxIncl: maxIncl}, true
}

func zRangeByRankHandler(x *Executor, req command.Request, reverse bool) Result {
	if len(req.Args) != 3 {
		return argErr()
	}

	key := []byte(req.Args[0].AsString())

	e, present, mismatch := zsetEntry(x.Idx, key, false)
	if mismatch {
		return wrongType(e)
	}

	if !present {
		return reply(command.List())
	}

	start, err := req.Args[1].AsUint()
	if err != nil {
		return argErr()
	}

	stop, err := req.Args[2].AsUint()
	if err != nil {
		return argErr()
	}

	return reply(command.List(e.Set.RangeByRank(start, stop, reverse)...))
}

func handleZRange(x *Executor, req command.Request) Result {
	return zRangeByRankHandler(x, req, false)
}

func handleZRevRange(x *Executor, req command.Request) Result {
	return zRangeByRankHandler(x, req, true)
}

func zRangeByScoreHandler(x *Executor, req command.Request, reverse bool) Result {
	if len(req.Args) != 3 {
		return argErr()
	}

	key := []byte(req.Args[0].AsString())

	e, present, mismatch := zsetEntry(x.Idx, key, false)
	if mismatch {
		return wrongType(e)
	}

	if !present {
		return reply(command.List())
	}

	sr, ok := scoreRangeFromArgs(req.Args[1], req.Args[2])
	if !ok {
		return argErr()
	}

	return reply(command.List(e.Set.RangeByScore(sr, reverse)...))
}

func handleZRangeByScore(x *Executor, req command.Request) Result {
	return zRangeByScoreHandler(x, req, false)
}

func handleZRevRangeByScore(x *Executor, req command.Request) Result {
	return zRangeByScoreHandler(x, req, true)
}

func zRankHandler(x *Executor, req command.Request, reverse bool) Result {
	if len(req.Args) != 2 {
		return argErr()
	}

	key := []byte(req.Args[0].AsString())

	e, present, mismatch := zsetEntry(x.Idx, key, false)
	if mismatch {
		return wrongType(e)
	}

	if !present {
		return reply(command.Null())
	}

	rank, ok := e.Set.Rank(req.Args[1].AsString(), reverse)
	if !ok {
		return reply(command.Null())
	}

	return reply(command.Unsigned(rank))
}

func handleZRank(x *Executor, req command.Request) Result {
	return zRankHandler(x, req, false)
}

func handleZRevRank(x *Executor, req command.Request) Result {
	return zRankHandler(x, req, true)
}

func handleZRemRangeByScore(x *Executor, req command.Request) Result {
	if len(req.Args) != 3 {
		return argErr()
	}

	key := []byte(req.Args[0].AsString())

	e, present, mismatch := zsetEntry(x.Idx, key, false)
	if mismatch {
		return wrongType(e)
	}

	if !present {
		return reply(command.Unsigned(0))
	}

	sr, ok := scoreRangeFromArgs(req.Args[1], req.Args[2])
	if !ok {
		return argErr()
	}

	return reply(command.Unsigned(e.Set.RemRangeByScore(sr)))
}

func handleZInterStore(x *Executor, req command.Request) Result {
	return zStoreHandler(x, req, true)
}

func handleZUnionStore(x *Executor, req command.Request) Result {
	return zStoreHandler(x, req, false)
}

// zStoreHandler implements ZINTERSTORE/ZUNIONSTORE:
//
//	Z*STORE dest numkeys key [key ...] [WEIGHTS w [w ...]] [AGGREGATE SUM|MIN|MAX]
func zStoreHandler(x *Executor, req command.Request, intersect bool) Result {
	if len(req.Args) < 2 {
		return argErr()
	}

	dest := []byte(req.Args[0].AsString())

	numKeys, err := req.Args[1].AsUint()
	if err != nil || numKeys == 0 {
		return argErr()
	}

	rest := req.Args[2:]
	if uint64(len(rest)) < numKeys {
		return argErr()
	}

	keyArgs := rest[:numKeys]
	rest = rest[numKeys:]

	weights := make([]float64, numKeys)
	for i := range weights {
		weights[i] = 1.0
	}

	agg := dataset.AggSum

	for len(rest) > 0 {
		switch strings.ToUpper(rest[0].AsString()) {
		case "WEIGHTS":
			rest = rest[1:]

			if uint64(len(rest)) < numKeys {
				return argErr()
			}

			for i := range numKeys {
				w, err := rest[i].AsFloat()
				if err != nil {
					return argErr()
				}

				weights[i] = w
			}

			rest = rest[numKeys:]
		case "AGGREGATE":
			if len(rest) < 2 {
				return argErr()
			}

			switch strings.ToUpper(rest[1].AsString()) {
			case "SUM":
				agg = dataset.AggSum
			case "MIN":
				agg = dataset.AggMin
			case "MAX":
				agg = dataset.AggMax
			default:
				return argErr()
			}

			rest = rest[2:]
		default:
			return argErr()
		}
	}

	sets := make([]*dataset.SortedSet, numKeys)

	for i, arg := range keyArgs {
		key := []byte(arg.AsString())

		e, present, mismatch := zsetEntry(x.Idx, key, false)
		if mismatch {
			return wrongType(e)
		}

		if present {
			sets[i] = e.Set
		} else {
			sets[i] = dataset.NewSortedSet()
		}
	}

	result := dataset.Aggregate(sets, weights, agg, intersect)

	destEntry := dataset.NewSortedSetEntry(dest)
	destEntry.Set = result
	x.Idx.Insert(destEntry)

	return reply(command.Unsigned(result.Card()))
}
