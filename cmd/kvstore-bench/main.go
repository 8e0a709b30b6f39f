// kvstore-bench drives concurrent goroutines against the engine's public
// submission API and reports throughput, grounded on the teacher's
// seed-tickets worker-pool shape (seed-bench.go): a fixed pool of workers
// pulls keys off a channel and submits requests, instead of spawning one
// goroutine per operation.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/calvinalkan/kvstore/internal/command"
	"github.com/calvinalkan/kvstore/internal/config"
	"github.com/calvinalkan/kvstore/internal/engine"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		count    int
		workers  int
		dbPath   string
		workload string
	)

	fs := pflag.NewFlagSet("kvstore-bench", pflag.ExitOnError)
	fs.IntVar(&count, "count", 100000, "number of operations to submit")
	fs.IntVar(&workers, "workers", 8, "number of concurrent submitters")
	fs.StringVar(&dbPath, "db", "", "persistence path (default: a fresh temp dir)")
	fs.StringVar(&workload, "workload", "string", "string|list|zset")

	if err := fs.Parse(os.Args[1:]); err != nil {
		return err
	}

	if dbPath == "" {
		dir, err := os.MkdirTemp("", "kvstore-bench-*")
		if err != nil {
			return fmt.Errorf("creating temp dir: %w", err)
		}

		dbPath = filepath.Join(dir, "db.json")
	}

	cfg := config.DefaultConfig()
	cfg.PersistencePath = dbPath
	cfg.HashSeed = uint32(time.Now().Unix())

	e := engine.New(cfg, nil, nil)
	if err := e.Start(); err != nil {
		return fmt.Errorf("starting engine: %w", err)
	}

	req := requestBuilder(workload)

	start := time.Now()

	jobs := make(chan int, workers*2)

	// Each worker accumulates its own per-submission latencies and hands
	// them back over latCh once done, rather than funnelling every sample
	// through a shared mutex-guarded slice.
	latCh := make(chan []time.Duration, workers)

	var wg sync.WaitGroup

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			lat := make([]time.Duration, 0, count/workers+1)

			for i := range jobs {
				submitStart := time.Now()
				e.Submit(req(i))
				lat = append(lat, time.Since(submitStart))
			}

			latCh <- lat
		}()
	}

	for i := range count {
		jobs <- i
	}

	close(jobs)
	wg.Wait()
	close(latCh)

	elapsed := time.Since(start)
	rate := float64(count) / elapsed.Seconds()

	latencies := make([]time.Duration, 0, count)
	for lat := range latCh {
		latencies = append(latencies, lat...)
	}

	p50, p99 := percentiles(latencies)

	fmt.Printf("workload=%s ops=%d workers=%d elapsed=%v rate=%.0f ops/sec p50=%v p99=%v\n",
		workload, count, workers, elapsed.Round(time.Millisecond), rate,
		p50.Round(time.Microsecond), p99.Round(time.Microsecond))

	shutdownReply := e.Shutdown()
	if shutdownReply.IsError() {
		return fmt.Errorf("shutdown: %s", shutdownReply.Err)
	}

	return nil
}

// percentiles sorts lat in place and returns its p50 and p99. Returns zero
// values for an empty slice.
func percentiles(lat []time.Duration) (p50, p99 time.Duration) {
	if len(lat) == 0 {
		return 0, 0
	}

	sort.Slice(lat, func(i, j int) bool { return lat[i] < lat[j] })

	idx50 := len(lat) / 2
	idx99 := int(float64(len(lat)) * 0.99)

	if idx99 >= len(lat) {
		idx99 = len(lat) - 1
	}

	return lat[idx50], lat[idx99]
}

// requestBuilder returns a function producing the i-th request for the
// chosen workload.
func requestBuilder(workload string) func(i int) command.Request {
	switch workload {
	case "list":
		return func(i int) command.Request {
			return command.BuildRequest(command.ActionRPush,
				command.ArgStr(fmt.Sprintf("bench:list:%d", i%64)),
				command.ArgStr(fmt.Sprintf("v%d", i)),
			)
		}
	case "zset":
		return func(i int) command.Request {
			return command.BuildRequest(command.ActionZAdd,
				command.ArgStr(fmt.Sprintf("bench:zset:%d", i%64)),
				command.ArgStr(fmt.Sprintf("%f", rand.Float64()*1000)),
				command.ArgStr(fmt.Sprintf("m%d", i)),
			)
		}
	default:
		return func(i int) command.Request {
			return command.BuildRequest(command.ActionSet,
				command.ArgStr(fmt.Sprintf("bench:key:%d", i)),
				command.ArgStr(fmt.Sprintf("v%d", i)),
			)
		}
	}
}
