package engine

import "github.com/queueworks/station-sim/pkg/models"

// processReneging removes every waiting customer whose patience has run
// out by target. Customers already in service never renege; each customer
// reneges at most once because it leaves its owning queue immediately.
func (e *Engine) processReneging(target float64) {
	if e.cfg.Impatience == nil || e.cfg.Impatience.MeanPatienceMinutes <= 0 {
		return
	}
	e.commonQueue = e.renegeFromQueue(e.commonQueue, target)
	for _, s := range e.servers {
		s.Queue = e.renegeFromQueue(s.Queue, target)
	}
}

// renegeFromQueue filters one waiting line in place, handing expired
// customers to the renege path.
func (e *Engine) renegeFromQueue(ids []int64, target float64) []int64 {
	rest := ids[:0]
	for _, id := range ids {
		c := e.customer(id)
		if c.Patience > 0 && target-c.ArrivalTime >= c.Patience {
			e.handleRenege(c, c.ArrivalTime+c.Patience)
			continue
		}
		rest = append(rest, id)
	}
	return rest
}

// handleRenege processes an abandonment: orbit when retrials are enabled,
// otherwise a loss.
func (e *Engine) handleRenege(c *models.Customer, at float64) {
	e.pushEvent(models.EventRenege, at, c.ID, 0, "")
	if e.cfg.Retrial != nil && e.cfg.Retrial.MeanDelayMinutes > 0 {
		e.sendToOrbit(c, at)
		return
	}
	e.lost++
	c.BalkedAt = at
	e.recentBalked = append(e.recentBalked, c.ID)
}

// processRetrials re-admits every orbit customer whose retry clock has
// expired by target. Re-entry runs full admission control again, so a
// retrying customer can bounce straight back to the orbit.
func (e *Engine) processRetrials(target float64) {
	if e.cfg.Retrial == nil || len(e.orbit) == 0 {
		return
	}
	due := make([]int64, 0)
	rest := e.orbit[:0]
	for _, id := range e.orbit {
		if e.customer(id).NextRetryAt <= target {
			due = append(due, id)
		} else {
			rest = append(rest, id)
		}
	}
	e.orbit = rest

	for _, id := range due {
		c := e.customer(id)
		c.Retries++
		e.pushEvent(models.EventOrbitRetry, c.NextRetryAt, c.ID, 0, "")
		e.admitArrival(c.NextRetryAt, unsetTime, c)
	}
}
