package engine

import (
	"strconv"

	"github.com/queueworks/station-sim/pkg/models"
)

// processBreakdowns walks repair completions and new failures due by
// target. Failure of a busy server is preemptive-resume: the in-progress
// batch is frozen and its completion clock pushed back by the repair
// duration.
func (e *Engine) processBreakdowns(target float64) {
	if e.cfg.Breakdowns == nil || e.cfg.Breakdowns.MTBFMinutes <= 0 {
		return
	}

	for _, s := range e.servers {
		if s.State == models.ServerOffline && s.RepairUntil <= target {
			at := s.RepairUntil
			s.RepairUntil = 0
			next := models.ServerIdle
			if len(s.Batch) > 0 {
				next = models.ServerBusy
			}
			e.setServerState(s, next, at)
			s.NextFailureAt = at + e.sampler.Exponential(e.cfg.Breakdowns.MTBFMinutes)
			e.pushEvent(models.EventRepair, at, 0, s.ID, "")
			e.log.Debug("server repaired", "server_id", s.ID, "at", at)
		}
	}

	for _, s := range e.servers {
		if s.InfiniteSlot || s.State == models.ServerOffline {
			continue
		}
		if s.NextFailureAt <= 0 {
			// Server predates the breakdown block (enabled via SetConfig);
			// give it a failure clock now.
			s.NextFailureAt = target + e.sampler.Exponential(e.cfg.Breakdowns.MTBFMinutes)
			continue
		}
		if s.NextFailureAt > target {
			continue
		}
		at := s.NextFailureAt
		repair := e.sampler.Exponential(e.cfg.Breakdowns.MTTRMinutes)
		s.RepairUntil = at + repair
		if len(s.Batch) > 0 {
			// Resume where the batch left off once repaired.
			s.BatchFinishAt += repair
			for _, id := range s.Batch {
				e.customer(id).FinishTime += repair
			}
		}
		e.setServerState(s, models.ServerOffline, at)
		e.pushEvent(models.EventBreakdown, at, 0, s.ID, strconv.FormatFloat(repair, 'f', 2, 64))
		e.log.Debug("server breakdown", "server_id", s.ID, "at", at, "repair_minutes", repair)

		// A repair completing within this same tick is handled next tick;
		// the offline window is still honored via RepairUntil.
	}
}

// updatePanic recomputes the state-dependent service boost from the total
// number of waiting customers. The flag follows the threshold with no
// hysteresis; it affects only batches started while it is set.
func (e *Engine) updatePanic() {
	was := e.panicMode
	e.panicMode = e.cfg.Panic != nil && e.cfg.Panic.QueueThreshold > 0 &&
		e.queuedTotal() >= e.cfg.Panic.QueueThreshold
	if e.panicMode != was {
		e.log.Debug("panic mode changed", "panic", e.panicMode, "queued", e.queuedTotal())
	}
}
