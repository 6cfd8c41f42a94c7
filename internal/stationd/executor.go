package stationd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/queueworks/station-sim/internal/engine"
	"github.com/queueworks/station-sim/internal/metrics"
	"github.com/queueworks/station-sim/pkg/logger"
	"github.com/queueworks/station-sim/pkg/models"
)

var (
	ErrRunNotFound  = errors.New("run not found")
	ErrRunTerminal  = errors.New("run is terminal")
	ErrRunIDMissing = errors.New("run_id is required")
)

// tickInterval is the wall-clock pacing of live runs. Each tick advances
// sim time by elapsed wall time times the run's speed factor.
const tickInterval = 100 * time.Millisecond

// RunExecutor drives engines asynchronously, one goroutine per running
// run, with per-run cancellation.
type RunExecutor struct {
	store     *RunStore
	hub       *Hub
	collector *metrics.Collector

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	engines map[string]*engine.Engine
}

func NewRunExecutor(store *RunStore, hub *Hub, collector *metrics.Collector) *RunExecutor {
	return &RunExecutor{
		store:     store,
		hub:       hub,
		collector: collector,
		cancels:   make(map[string]context.CancelFunc),
		engines:   make(map[string]*engine.Engine),
	}
}

// Start begins executing a run asynchronously and returns it in RUNNING
// state. Starting an already-running run is a no-op.
func (x *RunExecutor) Start(runID string) (*RunRecord, error) {
	if runID == "" {
		return nil, ErrRunIDMissing
	}
	rec, ok := x.store.Get(runID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if rec.Run.Status == models.RunStatusRunning {
		return rec, nil
	}
	if rec.Run.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: %s", ErrRunTerminal, runID)
	}

	updated, err := x.store.SetStatus(runID, models.RunStatusRunning, "")
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	x.mu.Lock()
	if old, exists := x.cancels[runID]; exists {
		old()
	}
	x.cancels[runID] = cancel
	x.mu.Unlock()

	go x.runLoop(ctx, runID)
	return updated, nil
}

// Stop cancels a running run and marks it cancelled.
func (x *RunExecutor) Stop(runID string) (*RunRecord, error) {
	if runID == "" {
		return nil, ErrRunIDMissing
	}
	if _, ok := x.store.Get(runID); !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	x.mu.Lock()
	cancel, ok := x.cancels[runID]
	x.mu.Unlock()
	if ok {
		cancel()
	}
	return x.store.SetStatus(runID, models.RunStatusCancelled, "")
}

// CompletedLog returns the completed-customer log of a run's engine.
// The engine is retained after completion until the run is deleted.
func (x *RunExecutor) CompletedLog(runID string) ([]models.CompletedService, error) {
	x.mu.Lock()
	eng, ok := x.engines[runID]
	x.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return eng.CompletedLog(), nil
}

// Forget drops the per-run engine and metrics after deletion.
func (x *RunExecutor) Forget(runID string) {
	x.mu.Lock()
	if cancel, ok := x.cancels[runID]; ok {
		cancel()
		delete(x.cancels, runID)
	}
	delete(x.engines, runID)
	x.mu.Unlock()
	x.collector.Forget(runID)
}

func (x *RunExecutor) cleanup(runID string) {
	x.mu.Lock()
	if cancel, ok := x.cancels[runID]; ok {
		cancel()
		delete(x.cancels, runID)
	}
	x.mu.Unlock()
}

// runLoop paces one engine against wall-clock time until the horizon, day
// completion, or cancellation.
func (x *RunExecutor) runLoop(ctx context.Context, runID string) {
	defer x.cleanup(runID)

	rec, ok := x.store.Get(runID)
	if !ok {
		logger.Error("run not found", "run_id", runID)
		return
	}

	eng := engine.New(rec.Cfg, engine.WithSeed(rec.Seed))
	x.mu.Lock()
	x.engines[runID] = eng
	x.mu.Unlock()

	logger.Info("run started",
		"run_id", runID,
		"model", rec.Cfg.Model,
		"speed", rec.Speed,
		"horizon_minutes", rec.HorizonMinutes)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	lastWall := time.Now()

	for {
		select {
		case <-ctx.Done():
			logger.Info("run cancelled", "run_id", runID)
			return
		case now := <-ticker.C:
			// Speed is sim-minutes per wall-second.
			dt := now.Sub(lastWall).Seconds() * rec.Speed
			lastWall = now

			snap := eng.Tick(dt)
			x.publish(runID, snap)

			if snap.SimTime >= rec.HorizonMinutes || snap.DayComplete {
				if _, err := x.store.SetStatus(runID, models.RunStatusCompleted, ""); err != nil {
					logger.Error("failed to set completed status", "run_id", runID, "error", err)
				}
				logger.Info("run completed",
					"run_id", runID,
					"sim_time", snap.SimTime,
					"served", snap.Served,
					"lost", snap.Lost)
				return
			}
		}
	}
}

// publish stores the snapshot, updates Prometheus, and fans the payload
// out to stream subscribers.
func (x *RunExecutor) publish(runID string, snap models.Snapshot) {
	if err := x.store.SetSnapshot(runID, snap); err != nil {
		logger.Error("failed to store snapshot", "run_id", runID, "error", err)
		return
	}
	x.collector.Observe(runID, snap)

	if x.hub.Subscribers(runID) == 0 {
		return
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		logger.Error("failed to marshal snapshot", "run_id", runID, "error", err)
		return
	}
	x.hub.Publish(runID, payload)
}
