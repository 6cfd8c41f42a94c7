package engine

import "github.com/queueworks/station-sim/pkg/models"

// Tick advances the simulation by dt minutes and returns the settled
// snapshot. The phase order is load-bearing: staffing first so capacity
// changes precede routing, arrivals before reneging so a customer arriving
// and exceeding its patience within one tick still reneges this tick, and
// assignment before departures so a service completing within dt of its
// start departs on time.
func (e *Engine) Tick(dt float64) models.Snapshot {
	if dt <= 0 {
		return e.Snapshot()
	}
	target := e.now + dt
	e.events = e.events[:0]

	e.applyStaffing(target)
	e.integrateOccupancy(dt)
	e.updatePanic()
	e.processBreakdowns(target)
	e.processRetrials(target)
	e.processArrivals(target)
	e.applyJockeying(target)
	e.processReneging(target)
	e.assignService(target)
	e.processDepartures(target)
	e.expireVisualBuffers(target)

	e.now = target
	e.maybeSnapshot()
	e.updateUtilization()

	return e.Snapshot()
}
