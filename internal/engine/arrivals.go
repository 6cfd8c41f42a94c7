package engine

import (
	"math"
	"sort"

	"github.com/queueworks/station-sim/pkg/models"
	"github.com/queueworks/station-sim/pkg/utils"
)

// scheduleFirstArrival primes the arrival stream at t=0.
func (e *Engine) scheduleFirstArrival() {
	if e.cfg.ArrivalDistribution == models.DistTrace {
		e.nextArrivalAt, e.traceService = e.trace.Next()
		return
	}
	e.scheduleNextArrival(0)
}

// currentArrivalRatePerHour returns the rate in effect at sim-minute t.
// With a schedule this is the hourly step value; otherwise the static rate.
// For the finite-population model it is the per-caller rate.
func (e *Engine) currentArrivalRatePerHour(t float64) float64 {
	if e.rates != nil {
		return e.rates.At(e.cfg.OpenHour, t)
	}
	return e.cfg.ArrivalRatePerHour
}

// scheduleNextArrival samples the next arrival instant from the instant of
// the previous one. The finite-population model resamples an exponential
// gap at the aggregate rate (N - in-system)·lambda; zero-rate schedule
// hours are stepped over so arrivals resume when the rate does.
func (e *Engine) scheduleNextArrival(from float64) {
	if e.cfg.ArrivalDistribution == models.DistTrace {
		e.nextArrivalAt, e.traceService = e.trace.Next()
		return
	}

	rate := e.currentArrivalRatePerHour(from)

	if e.cfg.Model == models.ModelMMSN {
		free := e.cfg.Population - e.inSystem()
		if free <= 0 || rate <= 0 {
			e.nextArrivalAt = math.Inf(1)
			return
		}
		e.nextArrivalAt = from + e.rng.ExpMean(60/(rate*float64(free)))
		return
	}

	start := from
	for i := 0; rate <= 0 && e.rates != nil && i < 48; i++ {
		start = math.Floor(start/60)*60 + 60
		rate = e.currentArrivalRatePerHour(start)
	}
	if rate <= 0 {
		e.nextArrivalAt = math.Inf(1)
		return
	}
	e.nextArrivalAt = start + e.sampler.Duration(e.cfg.ArrivalDistribution, 60/rate, e.cfg.ArrivalErlangK)
}

// refreshStateDependentArrival resamples the pending arrival when system
// occupancy changed in a way that alters the aggregate rate. Only the
// finite-population model is state-dependent; exponential gaps are
// memoryless so resampling at the event instant is sound.
func (e *Engine) refreshStateDependentArrival(from float64) {
	if e.cfg.Model == models.ModelMMSN && e.cfg.ArrivalDistribution != models.DistTrace {
		e.scheduleNextArrival(from)
	}
}

// processArrivals admits every arrival due at or before target, in order.
// Each arrival instant brings one customer, or a bulk group when bulk
// arrivals are configured.
func (e *Engine) processArrivals(target float64) {
	for e.nextArrivalAt <= target {
		at := e.nextArrivalAt
		svc := unsetTime
		if e.cfg.ArrivalDistribution == models.DistTrace {
			svc = e.traceService
		}
		for i, size := 0, e.bulkSize(); i < size; i++ {
			e.admitArrival(at, svc, nil)
		}
		e.scheduleNextArrival(at)
	}
}

// bulkSize draws the group size for one arrival instant.
func (e *Engine) bulkSize() int {
	b := e.cfg.Batch
	if b == nil || b.BulkMax < 2 {
		return 1
	}
	lo := b.BulkMin
	if lo < 1 {
		lo = 1
	}
	return e.rng.IntBetween(lo, b.BulkMax)
}

// admitArrival runs admission control for one customer and enqueues or
// rejects it. A non-nil retry is an orbit customer re-attempting entry; it
// keeps its identity and sampled service demand but counts as a fresh
// arrival.
func (e *Engine) admitArrival(at float64, svcOverride float64, retry *models.Customer) {
	e.arrivals++

	if e.cfg.Model == models.ModelMMSK && e.cfg.Capacity > 0 && e.inSystem() >= e.cfg.Capacity {
		e.blocked++
		e.rejectArrival(at, models.EventBlocked, svcOverride, retry)
		return
	}
	if e.cfg.Model != models.ModelMMInf && e.cfg.Impatience != nil &&
		e.cfg.Impatience.BalkThreshold > 0 &&
		e.relevantQueueLen() >= e.cfg.Impatience.BalkThreshold {
		e.rejectArrival(at, models.EventBalk, svcOverride, retry)
		return
	}

	c := retry
	if c == nil {
		c = e.newArrivingCustomer(at, svcOverride)
	} else {
		c.ArrivalTime = at
		c.StartTime = unsetTime
		c.FinishTime = unsetTime
		c.NextRetryAt = 0
	}
	if c.VIP {
		e.pushEvent(models.EventVIPArrival, at, c.ID, 0, "")
	}

	if e.cfg.Model == models.ModelMMInf {
		e.startInfiniteService(c, at)
		e.refreshStateDependentArrival(at)
		return
	}

	c.EstimatedWait = e.estimateWait(e.relevantQueueLen())
	if e.cfg.DedicatedQueues() {
		e.routeToDedicated(c)
	} else {
		e.commonQueue = append(e.commonQueue, c.ID)
		e.sortQueue(e.commonQueue)
	}
	e.refreshStateDependentArrival(at)
}

// newArrivingCustomer creates an arena entry with sampled service demand,
// skill tag, VIP flag, and patience. A negative svcOverride samples from
// the configured distribution; zero and above is a literal demand (trace
// rows can carry zero).
func (e *Engine) newArrivingCustomer(at float64, svcOverride float64) *models.Customer {
	c := &models.Customer{
		ID:          e.newCustomerID(),
		ArrivalTime: at,
		Skill:       models.SkillGeneral,
		StartTime:   unsetTime,
		FinishTime:  unsetTime,
	}
	if svcOverride >= 0 {
		c.ServiceDuration = svcOverride
	} else {
		c.ServiceDuration = e.sampler.Duration(e.cfg.ServiceDistribution, e.cfg.MeanServiceMinutes, e.cfg.ServiceErlangK)
	}
	if e.cfg.Priority != nil && e.rng.BernoulliBool(e.cfg.Priority.VIPProbability) {
		c.VIP = true
	}
	if e.cfg.Skills != nil {
		c.Skill = e.drawSkill()
	}
	if e.cfg.Model != models.ModelMMInf && e.cfg.Impatience != nil && e.cfg.Impatience.MeanPatienceMinutes > 0 {
		c.Patience = e.sampler.Exponential(e.cfg.Impatience.MeanPatienceMinutes)
	}
	e.customers[c.ID] = c
	return c
}

// drawSkill samples a skill tag by the configured ratios; the remaining
// probability mass arrives as GENERAL.
func (e *Engine) drawSkill() models.Skill {
	tags := make([]models.Skill, 0, len(e.cfg.Skills.Ratios))
	for tag := range e.cfg.Skills.Ratios {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })

	u := e.rng.Float64()
	acc := 0.0
	for _, tag := range tags {
		acc += e.cfg.Skills.Ratios[tag]
		if u < acc {
			return tag
		}
	}
	return models.SkillGeneral
}

// rejectArrival handles a blocked or balking customer: diverted to the
// orbit when retrials are enabled, otherwise counted lost and parked in
// the visual buffer. The service override travels with the customer so a
// rejected trace arrival keeps its logged demand.
func (e *Engine) rejectArrival(at float64, kind models.EventType, svcOverride float64, retry *models.Customer) {
	c := retry
	if c == nil {
		c = e.newArrivingCustomer(at, svcOverride)
	}
	e.pushEvent(kind, at, c.ID, 0, "")

	if e.cfg.Retrial != nil && e.cfg.Retrial.MeanDelayMinutes > 0 {
		e.sendToOrbit(c, at)
		return
	}
	e.lost++
	c.BalkedAt = at
	e.recentBalked = append(e.recentBalked, c.ID)
}

// sendToOrbit parks a customer in the retrial orbit with an exponential
// retry delay.
func (e *Engine) sendToOrbit(c *models.Customer, at float64) {
	c.NextRetryAt = at + e.sampler.Exponential(e.cfg.Retrial.MeanDelayMinutes)
	e.orbit = append(e.orbit, c.ID)
	e.pushEvent(models.EventOrbitEnter, at, c.ID, 0, "")
}

// relevantQueueLen is the queue depth admission control looks at: the
// shortest joinable dedicated line, or the common queue.
func (e *Engine) relevantQueueLen() int {
	if !e.cfg.DedicatedQueues() {
		return len(e.commonQueue)
	}
	best := -1
	for _, s := range e.activeServers() {
		if best < 0 || len(s.Queue) < best {
			best = len(s.Queue)
		}
	}
	if best < 0 {
		return 0
	}
	return best
}

// estimateWait quotes an expected wait from the queue depth ahead, the
// active server count, and the pool's average efficiency. It is a customer
// -facing estimate, not a statistic.
func (e *Engine) estimateWait(depth int) float64 {
	active := e.activeServers()
	if len(active) == 0 || depth <= 0 {
		return 0
	}
	effSum := 0.0
	for _, s := range active {
		if s.Efficiency > 0 {
			effSum += s.Efficiency
		} else {
			effSum++
		}
	}
	avgEff := effSum / float64(len(active))
	perCycle := utils.SafeDiv(e.cfg.MeanServiceMinutes, avgEff)
	return float64(depth) * utils.SafeDiv(perCycle, float64(len(active)))
}

// routeToDedicated joins the shortest compatible dedicated line. Skill
// routing narrows candidates to capable servers first; with no capable
// server the customer joins the shortest line outright rather than being
// stranded.
func (e *Engine) routeToDedicated(c *models.Customer) {
	candidates := e.activeServers()
	if len(candidates) == 0 {
		candidates = e.servers
	}
	if e.cfg.SkillRouting() {
		capable := make([]*models.Server, 0, len(candidates))
		for _, s := range candidates {
			if s.HasSkill(c.Skill) {
				capable = append(capable, s)
			}
		}
		if len(capable) > 0 {
			candidates = capable
		}
	}
	var best *models.Server
	for _, s := range candidates {
		if best == nil || len(s.Queue) < len(best.Queue) ||
			(len(s.Queue) == len(best.Queue) && s.ID < best.ID) {
			best = s
		}
	}
	if best == nil {
		// No servers at all; fall back to the common queue so the
		// customer is not dropped silently.
		e.commonQueue = append(e.commonQueue, c.ID)
		e.sortQueue(e.commonQueue)
		return
	}
	best.Queue = append(best.Queue, c.ID)
	e.sortQueue(best.Queue)
}

// sortQueue orders a waiting line: VIPs first, then arrival time, then id.
// The sort is stable so equal customers never swap.
func (e *Engine) sortQueue(ids []int64) {
	sort.SliceStable(ids, func(i, j int) bool {
		a, b := e.customers[ids[i]], e.customers[ids[j]]
		if a.VIP != b.VIP {
			return a.VIP
		}
		if a.ArrivalTime != b.ArrivalTime {
			return a.ArrivalTime < b.ArrivalTime
		}
		return a.ID < b.ID
	})
}
