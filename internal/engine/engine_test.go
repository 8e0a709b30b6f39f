package engine_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/calvinalkan/kvstore/internal/command"
	"github.com/calvinalkan/kvstore/internal/config"
	"github.com/calvinalkan/kvstore/internal/engine"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.PersistencePath = filepath.Join(t.TempDir(), "db.json")
	cfg.HashSeed = 1

	e := engine.New(cfg, nil, nil)
	require.NoError(t, e.Start())
	t.Cleanup(func() {
		if e.IsRunning() {
			e.Shutdown()
		}
	})

	return e
}

func TestEngineSetGet(t *testing.T) {
	e := newTestEngine(t)

	reply := e.Command(`SET k v`)
	require.False(t, reply.IsError())

	reply = e.Command(`GET k`)
	require.Equal(t, "v", reply.Str)
}

func TestEngineConcurrentSubmissionsAllApplied(t *testing.T) {
	e := newTestEngine(t)

	replies := make(chan command.Reply, 100)

	for i := range 100 {
		go func(i int) {
			replies <- e.Submit(command.BuildRequest(command.ActionLPush,
				command.ArgStr("log"), command.ArgStr(string(rune('a'+i%26)))))
		}(i)
	}

	for range 100 {
		<-replies
	}

	lenReply := e.Command(`LLEN log`)
	require.Equal(t, uint64(100), lenReply.Unsigned)
}

func TestEngineShutdownRejectsFurtherSubmissions(t *testing.T) {
	e := newTestEngine(t)

	reply := e.Shutdown()
	require.True(t, reply.Bool)
	require.False(t, e.IsRunning())

	rejected := e.Command(`GET k`)
	require.True(t, rejected.IsError())
	require.Contains(t, rejected.Err, "closed")
}

func TestEngineSaveThenRestartReloadsData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db.json")
	cfg := config.DefaultConfig()
	cfg.PersistencePath = path
	cfg.HashSeed = 7

	e1 := engine.New(cfg, nil, nil)
	require.NoError(t, e1.Start())
	e1.Command(`SET k v`)
	shutdownReply := e1.Shutdown()
	require.True(t, shutdownReply.Bool)

	e2 := engine.New(cfg, nil, nil)
	require.NoError(t, e2.Start())
	t.Cleanup(func() { e2.Shutdown() })

	reply := e2.Command(`GET k`)
	require.Equal(t, "v", reply.Str)
}

func TestEngineSetHashSeedFailsAfterStart(t *testing.T) {
	e := newTestEngine(t)
	require.ErrorIs(t, e.SetHashSeed(9), engine.ErrAlreadyRunning)
}

func TestEngineIdleWorkerStillAnswers(t *testing.T) {
	e := newTestEngine(t)

	time.Sleep(150 * time.Millisecond)

	reply := e.Command(`SET k v`)
	require.False(t, reply.IsError())
}
