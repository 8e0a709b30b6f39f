// Package executor implements the command executor (C6): the only
// subsystem permitted to mutate the hash index (spec.md §4.6).
package executor

import (
	"github.com/calvinalkan/kvstore/internal/command"
	"github.com/calvinalkan/kvstore/internal/dataset"
	"github.com/calvinalkan/kvstore/internal/hashindex"
)

// SaveFunc persists the index to disk. Injected so executor does not need to
// import the snapshot package directly (dependency flows from engine down,
// as internal/cli/run.go threads io.Writer/env into commands rather than
// importing os directly).
type SaveFunc func(*hashindex.Index) error

// Executor dispatches requests against a hash index.
type Executor struct {
	Idx  *hashindex.Index
	Save SaveFunc
}

// New returns an Executor over idx.
func New(idx *hashindex.Index, save SaveFunc) *Executor {
	return &Executor{Idx: idx, Save: save}
}

// Result carries a reply plus whether the request should end the worker
// loop (SHUTDOWN).
type Result struct {
	Reply    command.Reply
	Shutdown bool
}

// Execute dispatches req and returns its result. Every command-driven change
// to the index goes through here; the engine's maintenance ticks and shutdown
// reset, and snapshot loading, also modify the index outside of it.
func (x *Executor) Execute(req command.Request) Result {
	handler, ok := dispatch[req.Action]
	if !ok {
		return Result{Reply: command.Err(command.ErrUnknownCommand + ": " + req.Verb)}
	}

	return handler(x, req)
}

type handlerFunc func(x *Executor, req command.Request) Result

var dispatch = map[command.Action]handlerFunc{
	command.ActionGet:              handleGet,
	command.ActionSet:               handleSet,
	command.ActionRename:            handleRename,
	command.ActionDel:               handleDel,
	command.ActionLPush:             handleLPush,
	command.ActionRPush:             handleRPush,
	command.ActionLPop:              handleLPop,
	command.ActionRPop:              handleRPop,
	command.ActionLLen:              handleLLen,
	command.ActionLRange:            handleLRange,
	command.ActionKeys:              handleKeys,
	command.ActionFlushAll:          handleFlushAll,
	command.ActionInfoMemory:        handleInfoMemory,
	command.ActionSave:              handleSave,
	command.ActionStart:             handleStart,
	command.ActionShutdown:          handleShutdown,
	command.ActionZAdd:              handleZAdd,
	command.ActionZRem:              handleZRem,
	command.ActionZScore:            handleZScore,
	command.ActionZCard:             handleZCard,
	command.ActionZCount:            handleZCount,
	command.ActionZRange:            handleZRange,
	command.ActionZRevRange:         handleZRevRange,
	command.ActionZRangeByScore:     handleZRangeByScore,
	command.ActionZRevRangeByScore:  handleZRevRangeByScore,
	command.ActionZRank:             handleZRank,
	command.ActionZRevRank:          handleZRevRank,
	command.ActionZRemRangeByScore:  handleZRemRangeByScore,
	command.ActionZInterStore:       handleZInterStore,
	command.ActionZUnionStore:       handleZUnionStore,
}

func reply(r command.Reply) Result { return Result{Reply: r} }

func argErr() Result { return reply(command.Err(command.ErrWrongArguments)) }

func wrongType(e *dataset.Entry) Result { return reply(command.WrongType(e.Kind.String())) }

// lookupKind fetches the entry at key and verifies it is either absent or of
// the expected kind. Returns (entry, present, wrongType).
func lookupKind(idx *hashindex.Index, key []byte, want dataset.Kind) (*dataset.Entry, bool, bool) {
	e, ok := idx.Get(key)
	if !ok {
		return nil, false, false
	}

	if e.Kind != want {
		return e, true, true
	}

	return e, true, false
}
