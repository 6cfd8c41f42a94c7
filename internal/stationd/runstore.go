// Package stationd is the daemon serving shell: an in-memory run store,
// an executor pacing engines against wall-clock time, and the HTTP/SSE/
// websocket surface.
package stationd

import (
	"fmt"
	"sync"
	"time"

	"github.com/queueworks/station-sim/pkg/config"
	"github.com/queueworks/station-sim/pkg/models"
	"github.com/queueworks/station-sim/pkg/utils"
)

// RunRecord holds one run's lifecycle state, its configuration, and the
// latest settled snapshot.
type RunRecord struct {
	Run            *models.Run
	Cfg            config.Config
	Speed          float64 // sim-minutes per wall-second
	HorizonMinutes float64
	Seed           int64
	LatestSnapshot *models.Snapshot
}

// RunStore is the in-memory run registry.
type RunStore struct {
	mu   sync.RWMutex
	runs map[string]*RunRecord
}

func NewRunStore() *RunStore {
	return &RunStore{runs: make(map[string]*RunRecord)}
}

func nowUnixMs() int64 {
	return time.Now().UTC().UnixMilli()
}

// Create registers a pending run. An empty id gets a generated one.
func (s *RunStore) Create(runID string, cfg config.Config, speed, horizonMinutes float64, seed int64) (*RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if runID == "" {
		runID = utils.GenerateRunID()
	}
	if _, exists := s.runs[runID]; exists {
		return nil, fmt.Errorf("run already exists: %s", runID)
	}
	if speed <= 0 {
		speed = 1
	}
	if horizonMinutes <= 0 {
		horizonMinutes = cfg.DayMinutes()
	}

	rec := &RunRecord{
		Run: &models.Run{
			ID:              runID,
			Status:          models.RunStatusPending,
			CreatedAtUnixMs: nowUnixMs(),
		},
		Cfg:            cfg,
		Speed:          speed,
		HorizonMinutes: horizonMinutes,
		Seed:           seed,
	}
	s.runs[runID] = rec
	return rec, nil
}

func (s *RunStore) Get(runID string) (*RunRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.runs[runID]
	return rec, ok
}

func (s *RunStore) List(limit int) []*RunRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	out := make([]*RunRecord, 0, utils.Min(limit, len(s.runs)))
	for _, rec := range s.runs {
		out = append(out, rec)
		if len(out) >= limit {
			break
		}
	}
	return out
}

// SetStatus transitions a run, stamping started/ended times.
func (s *RunStore) SetStatus(runID string, status models.RunStatus, errMsg string) (*RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.runs[runID]
	if !ok {
		return nil, fmt.Errorf("run not found: %s", runID)
	}

	rec.Run.Status = status
	if errMsg != "" {
		rec.Run.Error = errMsg
	}
	switch {
	case status == models.RunStatusRunning:
		if rec.Run.StartedAtUnixMs == 0 {
			rec.Run.StartedAtUnixMs = nowUnixMs()
		}
	case status.IsTerminal():
		rec.Run.EndedAtUnixMs = nowUnixMs()
	}
	return rec, nil
}

// SetSnapshot stores the latest settled snapshot for a run.
func (s *RunStore) SetSnapshot(runID string, snap models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("run not found: %s", runID)
	}
	rec.LatestSnapshot = &snap
	return nil
}

// Snapshot returns a copy of the latest snapshot, if any.
func (s *RunStore) Snapshot(runID string) (models.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.runs[runID]
	if !ok || rec.LatestSnapshot == nil {
		return models.Snapshot{}, false
	}
	return *rec.LatestSnapshot, true
}

// Delete removes a run from the registry.
func (s *RunStore) Delete(runID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[runID]; !ok {
		return false
	}
	delete(s.runs, runID)
	return true
}
