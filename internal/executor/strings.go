package executor

import (
	"github.com/calvinalkan/kvstore/internal/command"
	"github.com/calvinalkan/kvstore/internal/dataset"
)

func handleGet(x *Executor, req command.Request) Result {
	if len(req.Args) != 1 {
		return argErr()
	}

	key := []byte(req.Args[0].AsString())

	e, present, mismatch := lookupKind(x.Idx, key, dataset.KindString)
	if mismatch {
		return wrongType(e)
	}

	if !present {
		return reply(command.Null())
	}

	return reply(command.Str(string(e.String)))
}

func handleSet(x *Executor, req command.Request) Result {
	if len(req.Args) != 2 {
		return argErr()
	}

	key := []byte(req.Args[0].AsString())
	val := []byte(req.Args[1].AsString())

	if e, ok := x.Idx.Get(key); ok {
		e.SetString(val)

		return reply(command.Bool(true))
	}

	x.Idx.Insert(dataset.NewStringEntry(key, val))

	return reply(command.Bool(true))
}

func handleRename(x *Executor, req command.Request) Result {
	if len(req.Args) != 2 {
		return argErr()
	}

	from := []byte(req.Args[0].AsString())
	to := []byte(req.Args[1].AsString())

	e, ok := x.Idx.Remove(from)
	if !ok {
		return reply(command.Err(command.ErrNoSuchKey))
	}

	e.Key = append([]byte(nil), to...)
	x.Idx.Insert(e)

	return reply(command.Bool(true))
}

func handleDel(x *Executor, req command.Request) Result {
	if len(req.Args) < 1 {
		return argErr()
	}

	var count uint64

	for _, arg := range req.Args {
		if _, ok := x.Idx.Remove([]byte(arg.AsString())); ok {
			count++
		}
	}

	return reply(command.Unsigned(count))
}
