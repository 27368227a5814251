/*
scheduler.go - Periodic full-snapshot checkpoints

PURPOSE:
  Periodically rewrites both snapshots from the engine's in-memory state.
  The Saver writes once per mutation and never retries, so after a failed
  save the store stays stale until the next command. A checkpoint closes
  that gap without the user doing anything.

DESIGN:
  - Runs a background goroutine with configurable interval
  - Each run calls Engine.Save, which first flushes queued snapshots
  - The outcome of the last run is kept for /api/health

CONFIGURATION:
  - Interval: How often to checkpoint (storage.checkpoint, default 5m)
  - An interval of 0 disables the scheduler

USAGE:
  scheduler := NewCheckpointScheduler(eng, 5*time.Minute, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - cashbook/persist.go: Saver and SaveState
*/
package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/smartspend/cashbook-engine/cashbook"
)

// CheckpointRun is the outcome of one checkpoint.
type CheckpointRun struct {
	At  time.Time
	Err error
}

// CheckpointScheduler rewrites the full engine state on an interval.
type CheckpointScheduler struct {
	Engine   *cashbook.Engine
	Interval time.Duration
	Timeout  time.Duration

	logger *slog.Logger
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
	last   CheckpointRun
}

// NewCheckpointScheduler creates a scheduler for eng.
func NewCheckpointScheduler(eng *cashbook.Engine, interval time.Duration, logger *slog.Logger) *CheckpointScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CheckpointScheduler{
		Engine:   eng,
		Interval: interval,
		Timeout:  30 * time.Second,
		logger:   logger,
	}
}

// Start begins the scheduler. Calling Start again after Stop starts a
// fresh run loop.
func (cs *CheckpointScheduler) Start() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.Interval <= 0 {
		cs.logger.Info("checkpoints disabled")
		return
	}
	if cs.ticker != nil {
		return
	}

	cs.ticker = time.NewTicker(cs.Interval)
	cs.stop = make(chan struct{})
	cs.wg.Add(1)
	go cs.run(cs.ticker.C, cs.stop)

	cs.logger.Info("checkpoints started", "interval", cs.Interval)
}

// Stop stops the scheduler and waits for a running checkpoint to finish.
// Stopping a stopped scheduler is a no-op.
func (cs *CheckpointScheduler) Stop() {
	cs.mu.Lock()
	ticker, stop := cs.ticker, cs.stop
	cs.ticker, cs.stop = nil, nil
	cs.mu.Unlock()

	if ticker == nil {
		return
	}
	ticker.Stop()
	close(stop)
	cs.wg.Wait()
	cs.logger.Info("checkpoints stopped")
}

// LastRun reports the most recent checkpoint. Zero before the first run.
func (cs *CheckpointScheduler) LastRun() CheckpointRun {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.last
}

func (cs *CheckpointScheduler) run(tick <-chan time.Time, stop <-chan struct{}) {
	defer cs.wg.Done()
	for {
		select {
		case <-tick:
			cs.Checkpoint(context.Background())
		case <-stop:
			return
		}
	}
}

// Checkpoint writes the full state once, now.
func (cs *CheckpointScheduler) Checkpoint(ctx context.Context) CheckpointRun {
	ctx, cancel := context.WithTimeout(ctx, cs.Timeout)
	defer cancel()

	err := cs.Engine.Save(ctx)
	run := CheckpointRun{At: time.Now(), Err: err}
	if err != nil {
		cs.logger.Warn("checkpoint failed", "error", err)
	} else {
		cs.logger.Debug("checkpoint written",
			"books", cs.Engine.Books.Len(),
			"transactions", cs.Engine.Ledger.Len(),
		)
	}

	cs.mu.Lock()
	cs.last = run
	cs.mu.Unlock()
	return run
}
