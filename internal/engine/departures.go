package engine

import "github.com/queueworks/station-sim/pkg/models"

// processDepartures completes every batch whose finish clock is due by
// target. Each member is logged, counted toward the service-level target,
// and moved to the visual buffer; the server returns to idle or, when
// draining or an infinite-server slot, leaves the pool.
func (e *Engine) processDepartures(target float64) {
	for _, s := range append([]*models.Server(nil), e.servers...) {
		if s.State != models.ServerBusy || len(s.Batch) == 0 || s.BatchFinishAt > target {
			continue
		}
		finish := s.BatchFinishAt

		for _, id := range s.Batch {
			c := e.customer(id)
			c.FinishTime = finish
			c.DepartedAt = finish

			wait := c.StartTime - c.ArrivalTime
			if wait < 0 {
				wait = 0
			}
			e.systemStats.Add(finish - c.ArrivalTime)
			e.served++
			if e.cfg.ServiceLevel != nil && wait <= e.cfg.ServiceLevel.TargetWaitMinutes {
				e.servedInSL++
			}
			e.completed = append(e.completed, models.CompletedService{
				CustomerID:    c.ID,
				ArrivalTime:   c.ArrivalTime,
				StartTime:     c.StartTime,
				FinishTime:    finish,
				WaitTime:      wait,
				ServiceTime:   finish - c.StartTime,
				ServerID:      s.ID,
				Kind:          customerKind(c),
				Skill:         c.Skill,
				EstimatedWait: c.EstimatedWait,
			})
			e.recentDeparted = append(e.recentDeparted, id)
		}

		s.BusyTime += finish - s.BatchStartAt
		s.Batch = nil
		s.BatchStartAt = 0
		s.BatchFinishAt = 0

		if s.InfiniteSlot || (s.ShouldRemove && len(s.Queue) == 0) {
			e.removeServer(s, finish)
		} else {
			e.setServerState(s, models.ServerIdle, finish)
		}

		e.refreshStateDependentArrival(finish)
	}
}

// customerKind labels a completed-log row: VIP wins, then any customer
// that carried a patience clock, then standard.
func customerKind(c *models.Customer) models.CustomerKind {
	switch {
	case c.VIP:
		return models.KindVIP
	case c.Patience > 0:
		return models.KindImpatient
	default:
		return models.KindStandard
	}
}

// expireVisualBuffers destroys departed and balked customers once their
// display window has elapsed. This is the only place served or lost
// customers leave the arena.
func (e *Engine) expireVisualBuffers(target float64) {
	e.recentDeparted = e.expireBuffer(e.recentDeparted, target, func(c *models.Customer) float64 {
		return c.DepartedAt
	})
	e.recentBalked = e.expireBuffer(e.recentBalked, target, func(c *models.Customer) float64 {
		return c.BalkedAt
	})
}

func (e *Engine) expireBuffer(ids []int64, target float64, at func(*models.Customer) float64) []int64 {
	rest := ids[:0]
	for _, id := range ids {
		c := e.customer(id)
		if c == nil || target-at(c) >= displayWindowMinutes {
			e.destroyCustomer(id)
			continue
		}
		rest = append(rest, id)
	}
	return rest
}
