package engine

import (
	"strconv"

	"github.com/queueworks/station-sim/pkg/models"
)

// applyStaffing reconciles the pool against the hourly headcount target.
// Growth creates idle servers with fresh ids; shrinking removes idle
// servers with empty lines immediately and marks the rest to drain, never
// interrupting in-progress service.
func (e *Engine) applyStaffing(t float64) {
	if e.headcount == nil || e.cfg.Model == models.ModelMM1 || e.cfg.Model == models.ModelMMInf {
		return
	}
	target := e.headcount.At(e.cfg.OpenHour, t)
	if target < 0 {
		target = 0
	}

	// Drain-marked servers whose lines emptied between departures (reneging
	// or jockeying can do that) leave the pool here.
	for _, s := range append([]*models.Server(nil), e.servers...) {
		if s.ShouldRemove && s.State == models.ServerIdle && len(s.Queue) == 0 && len(s.Batch) == 0 {
			e.removeServer(s, t)
		}
	}

	current := 0
	for _, s := range e.servers {
		if !s.ShouldRemove && !s.InfiniteSlot {
			current++
		}
	}
	if current == target {
		return
	}

	if current < target {
		for i := current; i < target; i++ {
			e.addServer(t)
		}
		e.pushEvent(models.EventStaffing, t, 0, 0, "up:"+strconv.Itoa(target-current))
		e.log.Debug("staffing scale up", "target", target, "added", target-current)
		return
	}

	surplus := current - target
	for _, s := range append([]*models.Server(nil), e.servers...) {
		if surplus == 0 {
			break
		}
		if s.ShouldRemove || s.InfiniteSlot {
			continue
		}
		if s.State == models.ServerIdle && len(s.Queue) == 0 && len(s.Batch) == 0 {
			e.removeServer(s, t)
			surplus--
		}
	}
	for _, s := range e.servers {
		if surplus == 0 {
			break
		}
		if s.ShouldRemove || s.InfiniteSlot {
			continue
		}
		s.ShouldRemove = true
		surplus--
	}
	e.pushEvent(models.EventStaffing, t, 0, 0, "down:"+strconv.Itoa(current-target))
	e.log.Debug("staffing scale down", "target", target, "removed_or_marked", current-target)
}
