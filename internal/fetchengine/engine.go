package fetchengine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/xinlongliu0307/cryo2ice-snow-thickness-antarctic-2020-2025/pkg/remote"
)

// Default tuning values.
const (
	DefaultWorkers          = 3
	DefaultMaxAttempts      = 3
	DefaultRetryBaseDelay   = 5 * time.Second
	DefaultChunkSize        = 8 * 1024 * 1024
	DefaultProgressInterval = 10 * 1024 * 1024
	DefaultSnapshotEvery    = 20
)

// Config tunes a retrieval run.
type Config struct {
	// DestRoot is the local directory downloads land under.
	DestRoot string
	// Workers is the number of concurrent transfer workers.
	Workers int
	// SessionCapacity bounds simultaneous server connections. It can be
	// lower than Workers, in which case workers queue for a permit.
	SessionCapacity int
	// MaxAttempts is the total transfer attempts per file.
	MaxAttempts int
	// RetryBaseDelay scales the linear backoff: attempt n waits n times
	// this long before the next try.
	RetryBaseDelay time.Duration
	// ChunkSize is the copy buffer size.
	ChunkSize int
	// ProgressInterval is the byte interval between FileProgress events.
	ProgressInterval int64
	// SnapshotEvery emits a StatsSnapshot after this many terminal
	// outcomes.
	SnapshotEvery int
	// VerifySizes re-downloads existing local files whose size differs
	// from the server's. Off by default: presence alone skips a file
	// without any network traffic.
	VerifySizes bool
	// MemoryThresholdPercent is recorded in veto errors for reporting.
	MemoryThresholdPercent float64
}

// withDefaults fills zero fields with the standard tuning.
func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}

	if c.SessionCapacity <= 0 {
		c.SessionCapacity = c.Workers
	}

	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}

	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = DefaultRetryBaseDelay
	}

	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}

	if c.ProgressInterval <= 0 {
		c.ProgressInterval = DefaultProgressInterval
	}

	if c.SnapshotEvery <= 0 {
		c.SnapshotEvery = DefaultSnapshotEvery
	}

	return c
}

// Engine runs a planned set of files to completion over a session pool.
type Engine struct {
	pool    *remote.Pool
	guard   AdmissionGuard
	cfg     Config
	clock   Clock
	emitter EventEmitter

	// Stats is populated at the start of Run and remains readable after
	// the run for final reporting.
	Stats *Stats
}

// NewEngine creates an engine over the given pool and admission guard.
// Zero config fields fall back to defaults.
func NewEngine(pool *remote.Pool, guard AdmissionGuard, cfg Config) *Engine {
	return &Engine{
		pool:    pool,
		guard:   guard,
		cfg:     cfg.withDefaults(),
		clock:   RealClock{},
		emitter: nopEmitter{},
	}
}

// SetEventEmitter installs the emitter consuming run events. Must be called
// before Run.
func (e *Engine) SetEventEmitter(emitter EventEmitter) {
	if emitter != nil {
		e.emitter = emitter
	}
}

// SetClock replaces the clock, for tests.
func (e *Engine) SetClock(clock Clock) {
	if clock != nil {
		e.clock = clock
	}
}

// Run downloads every planned file and returns the final counters. The pool
// is shut down before Run returns, win or lose.
//
// Run itself only fails on setup problems; per-file failures are recorded in
// the returned snapshot. Cancelling the context stops new attempts and
// records the remaining files as failed, so the accounting invariant holds
// even on an aborted run.
func (e *Engine) Run(ctx context.Context, paths []RemotePath) (Snapshot, error) {
	if e.cfg.DestRoot == "" {
		return Snapshot{}, fmt.Errorf("destination directory not configured") //nolint:err113,perfsprint // setup validation error
	}

	defer func() {
		// Best effort: idle sessions are closed, errors are not fatal
		_ = e.pool.Shutdown()
	}()

	e.Stats = NewStats(len(paths), e.clock.Now())

	var totalBytes int64
	for _, path := range paths {
		totalBytes += path.Size
	}

	e.emitter.Emit(RunStarted{TotalFiles: len(paths), TotalBytes: totalBytes})

	jobs := make(chan RemotePath, len(paths))
	results := make(chan TransferResult, len(paths))

	workers := e.startWorkers(ctx, jobs, results)
	collectorDone := e.collectResults(results)

	for _, path := range paths {
		jobs <- path
	}
	close(jobs)

	workers.Wait()
	close(results)
	<-collectorDone

	e.Stats.MarkComplete(e.clock.Now())

	snapshot := e.Stats.Snapshot()
	e.emitter.Emit(RunComplete{Stats: snapshot})

	return snapshot, nil
}

// startWorkers launches the fixed worker set. Each worker drains jobs until
// the channel closes, sending every file's terminal result downstream.
func (e *Engine) startWorkers(ctx context.Context, jobs <-chan RemotePath, results chan<- TransferResult) *sync.WaitGroup {
	shared := &worker{
		pool:    e.pool,
		guard:   e.guard,
		stats:   e.Stats,
		emitter: e.emitter,
		clock:   e.clock,
		permits: semaphore.NewWeighted(int64(e.cfg.SessionCapacity)),
		cfg:     e.cfg,
	}

	var wg sync.WaitGroup //nolint:varnamelen // wg is idiomatic for WaitGroup
	for range e.cfg.Workers {
		wg.Go(func() {
			for job := range jobs {
				results <- shared.process(ctx, job)
			}
		})
	}

	return &wg
}

// collectResults consumes terminal results, emitting periodic snapshots so
// displays can refresh without polling the hot path.
func (e *Engine) collectResults(results <-chan TransferResult) <-chan struct{} {
	done := make(chan struct{})

	go func() {
		defer close(done)

		processed := 0

		for range results {
			processed++

			if processed%e.cfg.SnapshotEvery == 0 {
				e.emitter.Emit(StatsSnapshot{Stats: e.Stats.Snapshot()})
			}
		}
	}()

	return done
}

// nopEmitter drops all events.
type nopEmitter struct{}

func (nopEmitter) Emit(Event) {}
