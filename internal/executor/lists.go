package executor

import (
	"github.com/calvinalkan/kvstore/internal/command"
	"github.com/calvinalkan/kvstore/internal/dataset"
)

func handleLPush(x *Executor, req command.Request) Result {
	return pushHandler(x, req, true)
}

func handleRPush(x *Executor, req command.Request) Result {
	return pushHandler(x, req, false)
}

func pushHandler(x *Executor, req command.Request, left bool) Result {
	if len(req.Args) < 2 {
		return argErr()
	}

	key := []byte(req.Args[0].AsString())

	e, present, mismatch := lookupKind(x.Idx, key, dataset.KindList)
	if mismatch {
		return wrongType(e)
	}

	if !present {
		e = dataset.NewListEntry(key)
		x.Idx.Insert(e)
	}

	values := make([][]byte, len(req.Args)-1)
	for i, arg := range req.Args[1:] {
		values[i] = []byte(arg.AsString())
	}

	if left {
		e.List.LPush(values...)
	} else {
		e.List.RPush(values...)
	}

	return reply(command.Unsigned(e.List.Len()))
}

func handleLPop(x *Executor, req command.Request) Result {
	return popHandler(x, req, true)
}

func handleRPop(x *Executor, req command.Request) Result {
	return popHandler(x, req, false)
}

func popHandler(x *Executor, req command.Request, left bool) Result {
	if len(req.Args) < 1 || len(req.Args) > 2 {
		return argErr()
	}

	key := []byte(req.Args[0].AsString())

	e, present, mismatch := lookupKind(x.Idx, key, dataset.KindList)
	if mismatch {
		return wrongType(e)
	}

	if !present {
		return reply(command.Null())
	}

	n := uint64(1)

	if len(req.Args) == 2 {
		parsed, err := req.Args[1].AsUint()
		if err != nil {
			return argErr()
		}

		n = parsed
	}

	var popped [][]byte
	if left {
		popped = e.List.LPop(n)
	} else {
		popped = e.List.RPop(n)
	}

	items := make([]string, len(popped))
	for i, v := range popped {
		items[i] = string(v)
	}

	return reply(command.List(items...))
}

// handleLLen treats a missing key OR a wrong-kind key as an empty list
// (spec.md §8 scenario 6: LLEN on a key just overwritten by SET reports 0,
// not WRONGTYPE — the one verb where the per-table WRONGTYPE row is
// superseded by the explicit end-to-end transcript).
func handleLLen(x *Executor, req command.Request) Result {
	if len(req.Args) != 1 {
		return argErr()
	}

	key := []byte(req.Args[0].AsString())

	e, ok := x.Idx.Get(key)
	if !ok || e.Kind != dataset.KindList {
		return reply(command.Unsigned(0))
	}

	return reply(command.Unsigned(e.List.Len()))
}

func handleLRange(x *Executor, req command.Request) Result {
	if len(req.Args) < 1 || len(req.Args) > 3 {
		return argErr()
	}

	key := []byte(req.Args[0].AsString())

	e, present, mismatch := lookupKind(x.Idx, key, dataset.KindList)
	if mismatch {
		return wrongType(e)
	}

	if !present {
		return reply(command.List())
	}

	start, stop := uint64(0), ^uint64(0)

	if len(req.Args) >= 2 {
		v, err := req.Args[1].AsUint()
		if err != nil {
			return argErr()
		}

		start = v
	}

	if len(req.Args) == 3 {
		v, err := req.Args[2].AsUint()
		if err != nil {
			return argErr()
		}

		stop = v
	}

	items := e.List.LRange(start, stop)

	out := make([]string, len(items))
	for i, v := range items {
		out[i] = string(v)
	}

	return reply(command.List(out...))
}
