package executor

import "github.com/calvinalkan/kvstore/internal/command"

// handleSave writes the current index to disk via the injected SaveFunc.
// Both success and failure are logged upstream by the engine's SaveFunc
// wrapper; failures are also reported here as an error reply rather than a
// panic (spec.md §7: "non-fatal to the worker").
func handleSave(x *Executor, req command.Request) Result {
	if len(req.Args) != 0 {
		return argErr()
	}

	if x.Save == nil {
		return reply(command.Bool(true))
	}

	if err := x.Save(x.Idx); err != nil {
		return reply(command.Err("ERR save failed: " + err.Error()))
	}

	return reply(command.Bool(true))
}

// handleStart is a no-op acknowledgement; the engine is already running by
// the time requests reach the executor.
func handleStart(x *Executor, req command.Request) Result {
	if len(req.Args) != 0 {
		return argErr()
	}

	return reply(command.Bool(true))
}

// handleShutdown signals the worker loop to stop after replying. The engine
// performs the actual persist-and-exit sequence (spec.md §5).
func handleShutdown(x *Executor, req command.Request) Result {
	if len(req.Args) != 0 {
		return argErr()
	}

	return Result{Reply: command.Bool(true), Shutdown: true}
}
