package executor

import "github.com/calvinalkan/kvstore/internal/command"

func handleKeys(x *Executor, req command.Request) Result {
	if len(req.Args) != 0 {
		return argErr()
	}

	keyed := x.Idx.Keys()
	out := make([]string, len(keyed))

	for i, k := range keyed {
		out[i] = string(k.Key)
	}

	return reply(command.List(out...))
}

func handleFlushAll(x *Executor, req command.Request) Result {
	if len(req.Args) != 0 {
		return argErr()
	}

	x.Idx.Reset()

	return reply(command.Bool(true))
}

func handleInfoMemory(x *Executor, req command.Request) Result {
	if len(req.Args) != 0 {
		return argErr()
	}

	return reply(command.Unsigned(x.Idx.MemoryUsage()))
}
