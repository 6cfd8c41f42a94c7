package engine

import "github.com/queueworks/station-sim/pkg/models"

// assignService moves waiting customers into service on every idle server.
// In the common topology idle servers pull in random order so no server id
// is systematically favored; in the dedicated topology each server works
// the head of its own line.
func (e *Engine) assignService(t float64) {
	if e.cfg.Model == models.ModelMMInf {
		return
	}
	maxBatch := e.cfg.MaxBatchSize()

	if e.cfg.DedicatedQueues() {
		for _, s := range e.servers {
			if s.State != models.ServerIdle || len(s.Queue) == 0 {
				continue
			}
			take := maxBatch
			if take > len(s.Queue) {
				take = len(s.Queue)
			}
			ids := append([]int64(nil), s.Queue[:take]...)
			s.Queue = s.Queue[take:]
			e.startBatch(s, ids, t)
		}
		return
	}

	idle := make([]*models.Server, 0, len(e.servers))
	for _, s := range e.servers {
		if s.State == models.ServerIdle {
			idle = append(idle, s)
		}
	}
	for _, pi := range e.rng.Perm(len(idle)) {
		if len(e.commonQueue) == 0 {
			break
		}
		s := idle[pi]
		ids := e.pullFromCommon(s, maxBatch)
		if len(ids) > 0 {
			e.startBatch(s, ids, t)
		}
	}
}

// pullFromCommon extracts up to max compatible customers from the common
// queue in queue order, preserving the order of everyone left behind.
func (e *Engine) pullFromCommon(s *models.Server, max int) []int64 {
	routing := e.cfg.SkillRouting()
	taken := make([]int64, 0, max)
	rest := e.commonQueue[:0]
	for _, id := range e.commonQueue {
		if len(taken) < max {
			c := e.customer(id)
			if !routing || s.HasSkill(c.Skill) {
				taken = append(taken, id)
				continue
			}
		}
		rest = append(rest, id)
	}
	e.commonQueue = rest
	return taken
}

// startBatch begins service for a batch on one server. All members share a
// single completion clock derived from the first member's demand, scaled
// by the batch workload multiplier and divided by the server's efficiency
// and any active panic boost. Waits are recorded the moment service starts.
func (e *Engine) startBatch(s *models.Server, ids []int64, t float64) {
	first := e.customer(ids[0])
	dur := first.ServiceDuration
	if b := e.cfg.Batch; b != nil && b.WorkloadMultiplierMax > 0 {
		dur *= e.rng.UniformFloat64(b.WorkloadMultiplierMin, b.WorkloadMultiplierMax)
	}
	eff := s.Efficiency
	if eff <= 0 {
		eff = 1
	}
	dur /= eff
	if e.panicMode && e.cfg.Panic != nil && e.cfg.Panic.RateMultiplier > 1 {
		dur /= e.cfg.Panic.RateMultiplier
	}
	if dur < 0 {
		dur = 0
	}

	s.Batch = ids
	s.BatchStartAt = t
	s.BatchFinishAt = t + dur
	e.setServerState(s, models.ServerBusy, t)

	for _, id := range ids {
		c := e.customer(id)
		c.StartTime = t
		c.FinishTime = t + dur
		wait := t - c.ArrivalTime
		if wait < 0 {
			wait = 0
		}
		e.waitStats.Add(wait)
	}
}

// startInfiniteService gives an infinite-server arrival its own slot with
// no queueing delay.
func (e *Engine) startInfiniteService(c *models.Customer, t float64) {
	s := e.addInfiniteSlot(t)
	e.startBatch(s, []int64{c.ID}, t)
}

// applyJockeying moves the tail customer of the longest dedicated line to
// the shortest when the lines differ by two or more: at most one move per
// tick. Skill routing vetoes a move to a server that cannot serve the
// customer; draining servers accept no jockeys.
func (e *Engine) applyJockeying(t float64) {
	if !e.cfg.DedicatedQueues() || e.cfg.Topology == nil || !e.cfg.Topology.Jockeying {
		return
	}
	var longest, shortest *models.Server
	for _, s := range e.servers {
		if s.InfiniteSlot {
			continue
		}
		if longest == nil || len(s.Queue) > len(longest.Queue) {
			longest = s
		}
		if s.ShouldRemove {
			continue
		}
		if shortest == nil || len(s.Queue) < len(shortest.Queue) {
			shortest = s
		}
	}
	if longest == nil || shortest == nil || longest == shortest {
		return
	}
	if len(longest.Queue)-len(shortest.Queue) < 2 {
		return
	}
	id := longest.Queue[len(longest.Queue)-1]
	c := e.customer(id)
	if e.cfg.SkillRouting() && !shortest.HasSkill(c.Skill) {
		return
	}
	longest.Queue = longest.Queue[:len(longest.Queue)-1]
	shortest.Queue = append(shortest.Queue, id)
	e.sortQueue(shortest.Queue)
}
