// Package engine implements the request queue and single worker (C7):
// submitters append requests to a FIFO and block on their reply; the worker
// drains the queue, runs maintenance ticks, and idles with a back-off when
// there is nothing to do (spec.md §4.7).
//
// The goroutine-plus-done-channel shape mirrors the teacher's
// internal/cli/run.go, which runs a command in a goroutine and bridges its
// exit code back through a `done chan int` so the caller can also select on
// a signal channel; here each request gets its own small buffered channel
// instead of one shared `done`, because many requests can be in flight
// (queued) at once rather than just one command per process run.
package engine

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/calvinalkan/kvstore/internal/command"
	"github.com/calvinalkan/kvstore/internal/config"
	"github.com/calvinalkan/kvstore/internal/executor"
	"github.com/calvinalkan/kvstore/internal/hashindex"
	"github.com/calvinalkan/kvstore/internal/snapshot"
	"go.uber.org/zap"
)

// ErrAlreadyRunning is returned by the config setters once Start has run.
var ErrAlreadyRunning = errors.New("engine: already running")

const (
	idleThreshold = 100 * time.Millisecond
	idleIncrement = time.Second / (5 * 60 * 1000)
	idleMaxSleep  = time.Second
)

type queueEntry struct {
	req     command.Request
	replyCh chan command.Reply
}

// Engine owns the dataset and the worker goroutine that is the only thing
// permitted to touch it (spec.md §5).
type Engine struct {
	cfg    config.Config
	logger *zap.Logger
	fatal  func(error)

	// queueMu protects queue, running, and closed — the request queue plus
	// the lifecycle flags the worker and submitters both observe.
	queueMu sync.Mutex
	queue   []*queueEntry
	running bool
	closed  bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}

	idx  *hashindex.Index
	exec *executor.Executor

	// Owned exclusively by the worker goroutine; never touched under
	// queueMu, since only the worker reads or writes them.
	idleSince    time.Time
	backoff      time.Duration
	wasRehashing bool
}

// New constructs an Engine from cfg. Call Start to load the snapshot and
// launch the worker.
func New(cfg config.Config, logger *zap.Logger, fatal func(error)) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	if fatal == nil {
		fatal = defaultFatal(logger)
	}

	return &Engine{
		cfg:    cfg,
		logger: logger,
		fatal:  fatal,
		wake:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func defaultFatal(logger *zap.Logger) func(error) {
	return func(err error) {
		logger.Fatal("fatal dataset error", zap.Error(err))
		os.Exit(1)
	}
}

// SetHashSeed overrides the seed used for the hash index. Must be called
// before Start (spec.md §5: "config setters ... acquire the same mutex").
func (e *Engine) SetHashSeed(seed uint32) error {
	e.queueMu.Lock()
	defer e.queueMu.Unlock()

	if e.running {
		return ErrAlreadyRunning
	}

	e.cfg.HashSeed = seed

	return nil
}

// SetPersistencePath overrides the snapshot file path. Must be called
// before Start.
func (e *Engine) SetPersistencePath(path string) error {
	e.queueMu.Lock()
	defer e.queueMu.Unlock()

	if e.running {
		return ErrAlreadyRunning
	}

	e.cfg.PersistencePath = path

	return nil
}

// Start loads the snapshot at the configured path (or begins empty) and
// launches the worker goroutine.
func (e *Engine) Start() error {
	e.queueMu.Lock()

	if e.running {
		e.queueMu.Unlock()

		return nil
	}

	seed := e.cfg.HashSeed
	if seed == 0 {
		seed = uint32(time.Now().Unix())
	}

	idx, err := snapshot.Load(e.cfg.PersistencePath, seed)
	if err != nil {
		e.queueMu.Unlock()
		e.fatal(fmt.Errorf("loading snapshot: %w", err))

		return err
	}

	e.idx = idx
	e.exec = executor.New(idx, e.loggedSave)
	e.running = true
	e.queueMu.Unlock()

	e.logger.Info("engine started",
		zap.String("persistence_path", e.cfg.PersistencePath),
		zap.Uint32("hash_seed", seed),
		zap.Int("loaded_keys", idx.Count()),
	)

	go e.run()

	return nil
}

// IsRunning reports whether the worker loop is active.
func (e *Engine) IsRunning() bool {
	e.queueMu.Lock()
	defer e.queueMu.Unlock()

	return e.running && !e.closed
}

// Command parses line and submits it synchronously, the convenience path
// named in spec.md §6.
func (e *Engine) Command(line string) command.Reply {
	return e.Submit(command.Parse(line))
}

// Submit enqueues req and blocks until the worker has produced a reply.
// Submissions after SHUTDOWN synthesise DatabaseClosed immediately
// (spec.md §5).
func (e *Engine) Submit(req command.Request) command.Reply {
	e.queueMu.Lock()

	if e.closed {
		e.queueMu.Unlock()

		return command.Err(command.ErrDatabaseClosed)
	}

	entry := &queueEntry{req: req, replyCh: make(chan command.Reply, 1)}
	e.queue = append(e.queue, entry)
	e.queueMu.Unlock()

	select {
	case e.wake <- struct{}{}:
	default:
	}

	return <-entry.replyCh
}

// ReleaseReply exists for API parity with spec.md §6's explicit
// ownership-release operation. Go's garbage collector owns Reply memory, so
// this is a no-op kept for callers migrating from the reference ownership
// model.
func (e *Engine) ReleaseReply(command.Reply) {}

// Shutdown requests an orderly stop: it submits SHUTDOWN like any other
// client, so persistence and teardown run on the worker exactly as they
// would for a client-issued SHUTDOWN (spec.md §5).
func (e *Engine) Shutdown() command.Reply {
	return e.Submit(command.BuildRequest(command.ActionShutdown))
}

// persist forwards to the snapshot package and is also used by the
// worker's own shutdown sequence.
func (e *Engine) persist(idx *hashindex.Index) error {
	if e.cfg.PersistencePath == "" {
		return nil
	}

	return snapshot.Save(idx, e.cfg.PersistencePath)
}

// loggedSave is the executor's injected SaveFunc: it wraps persist so every
// SAVE — whether client-issued or run as part of shutdown — logs Info on
// success and Warn on failure (spec.md §7: "logged and non-fatal";
// SPEC_FULL.md §4.10's logging expansion).
func (e *Engine) loggedSave(idx *hashindex.Index) error {
	err := e.persist(idx)
	if err != nil {
		e.logger.Warn("save failed", zap.String("persistence_path", e.cfg.PersistencePath), zap.Error(err))

		return err
	}

	e.logger.Info("save succeeded", zap.String("persistence_path", e.cfg.PersistencePath), zap.Int("keys", idx.Count()))

	return nil
}

func (e *Engine) run() {
	defer close(e.done)

	for {
		select {
		case <-e.stop:
			return
		default:
		}

		e.queueMu.Lock()
		e.idx.MaintenanceTick()
		e.logRehashTransition()

		if len(e.queue) == 0 {
			e.queueMu.Unlock()
			e.idleWait()

			continue
		}

		entry := e.queue[0]
		e.queue = e.queue[1:]
		e.queueMu.Unlock()

		result := e.exec.Execute(entry.req)

		// SHUTDOWN closes and persists before its reply is delivered, so a
		// caller that sees the reply also sees the engine closed and the
		// snapshot on disk.
		if result.Shutdown {
			e.shutdownSequence()
			entry.replyCh <- result.Reply
			close(entry.replyCh)

			return
		}

		entry.replyCh <- result.Reply
		close(entry.replyCh)

		// INFO_DATASET_MEMORY is passive and must not reset the idle
		// back-off (spec.md §4.7).
		if entry.req.Action != command.ActionInfoMemory {
			e.idleSince = time.Time{}
			e.backoff = 0
		}
	}
}

func (e *Engine) logRehashTransition() {
	rehashing := e.idx.Rehashing()
	if rehashing && !e.wasRehashing {
		e.logger.Debug("rehash started", zap.Int("entries", e.idx.Count()))
	} else if !rehashing && e.wasRehashing {
		e.logger.Debug("rehash finished", zap.Int("entries", e.idx.Count()))
	}

	e.wasRehashing = rehashing
}

func (e *Engine) shutdownSequence() {
	e.queueMu.Lock()
	e.closed = true
	idx := e.idx
	e.queueMu.Unlock()

	e.loggedSave(idx) //nolint:errcheck // failure is logged inside loggedSave; shutdown proceeds regardless

	idx.Reset()

	// Any request still queued after SHUTDOWN (submitted concurrently,
	// racing the worker) gets DatabaseClosed rather than hanging forever.
	e.queueMu.Lock()
	pending := e.queue
	e.queue = nil
	e.queueMu.Unlock()

	for _, p := range pending {
		p.replyCh <- command.Err(command.ErrDatabaseClosed)
		close(p.replyCh)
	}

	e.logger.Info("engine shut down")
}

// idleWait blocks until new work arrives, the engine is told to stop, or
// the current back-off elapses — whichever comes first — then grows the
// back-off per spec.md §4.7 ("After 100ms of consecutive idleness... each
// idle cycle increases the sleep ... saturates at 1s after ~5 minutes").
func (e *Engine) idleWait() {
	if e.idleSince.IsZero() {
		e.idleSince = time.Now()
	}

	wait := idleThreshold
	if time.Since(e.idleSince) >= idleThreshold {
		e.backoff = min(e.backoff+idleIncrement, idleMaxSleep)
		wait = e.backoff
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-e.wake:
	case <-timer.C:
	case <-e.stop:
	}
}
