/*
scheduler.go - Daily sweep scheduler

PURPOSE:
  Drives the reconciliation sweep once per calendar day. The sweep itself is
  idempotent, so the scheduler's already-done check is an optimization and
  an audit trail, not a correctness requirement.

DESIGN:
  - Runs a background goroutine with a configurable check interval
  - Resolves "today" in the sweep's configured time zone
  - Skips days that already have a completed run recorded
  - Records every run (status, counts, error) in sweep_runs

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether the scheduler is active (default: true)

USAGE:
  scheduler := NewSweepScheduler(store, sweeper)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - installment/sweep.go: the sweep pass itself
  - handlers.go: TriggerSweep endpoint (manual invocation)
*/
package api

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/warp/installment-engine/installment"
	"github.com/warp/installment-engine/store/sqlite"
)

// SweepScheduler triggers the daily sweep.
type SweepScheduler struct {
	Store         *sqlite.Store
	Sweeper       *installment.Sweep
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewSweepScheduler creates a new scheduler.
func NewSweepScheduler(store *sqlite.Store, sweeper *installment.Sweep) *SweepScheduler {
	return &SweepScheduler{
		Store:         store,
		Sweeper:       sweeper,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (ss *SweepScheduler) Start() {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if !ss.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	ss.ticker = time.NewTicker(ss.CheckInterval)
	ss.wg.Add(1)

	go ss.run()

	log.Printf("[Scheduler] Started with check interval: %v", ss.CheckInterval)
}

// Stop stops the scheduler.
func (ss *SweepScheduler) Stop() {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if ss.ticker != nil {
		ss.ticker.Stop()
		close(ss.stop)
		ss.wg.Wait()
		log.Println("[Scheduler] Stopped")
	}
}

func (ss *SweepScheduler) run() {
	defer ss.wg.Done()

	// Run immediately on start
	ss.checkAndProcess()

	for {
		select {
		case <-ss.ticker.C:
			ss.checkAndProcess()
		case <-ss.stop:
			return
		}
	}
}

func (ss *SweepScheduler) checkAndProcess() {
	ctx := context.Background()
	today := installment.Today(ss.Sweeper.Location)

	done, err := ss.Store.IsSweepComplete(ctx, today)
	if err != nil {
		log.Printf("[Scheduler] Error checking sweep status: %v", err)
		return
	}
	if done {
		return
	}

	runID := fmt.Sprintf("sweep-%d", time.Now().UnixNano())
	startTime := time.Now()

	run := sqlite.SweepRun{
		ID:        runID,
		RunDate:   today,
		Status:    "running",
		StartedAt: startTime,
	}
	if err := ss.Store.SaveSweepRun(ctx, run); err != nil {
		log.Printf("[Scheduler] Error saving run record: %v", err)
		return
	}

	stats, err := ss.Sweeper.Run(ctx)
	completedTime := time.Now()
	run.Checked = stats.Checked
	run.Matured = stats.Matured
	run.Failed = stats.Failed
	run.CompletedAt = &completedTime

	if err != nil {
		run.Status = "failed"
		run.Error = err.Error()
	} else {
		run.Status = "completed"
	}

	if err := ss.Store.SaveSweepRun(ctx, run); err != nil {
		log.Printf("[Scheduler] Error updating run record: %v", err)
		return
	}

	log.Printf("[Scheduler] Sweep %s: %d checked, %d matured, %d failed",
		run.Status, stats.Checked, stats.Matured, stats.Failed)
}

// RunNow triggers an immediate check (for testing/admin).
func (ss *SweepScheduler) RunNow() {
	ss.checkAndProcess()
}
