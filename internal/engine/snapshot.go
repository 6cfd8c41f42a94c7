package engine

import "github.com/queueworks/station-sim/pkg/models"

// Snapshot assembles the consistent post-tick view. Every collection is a
// copy; mutating a snapshot never touches engine state.
func (e *Engine) Snapshot() models.Snapshot {
	ref := e.theory.Evaluate(e.theoryInputs())

	snap := models.Snapshot{
		SimTime:            e.now,
		Model:              e.cfg.Model,
		QueueLength:        e.queuedTotal(),
		OrbitLength:        len(e.orbit),
		InSystem:           e.inSystem(),
		Arrivals:           e.arrivals,
		Served:             e.served,
		ServedWithinTarget: e.servedInSL,
		Lost:               e.lost,
		Blocked:            e.blocked,
		Panic:              e.panicMode,
		Unstable:           !ref.Stable,
		Rho:                ref.Rho,
		DayComplete:        e.IsDayComplete(),
		WaitMean:           e.waitStats.Mean(),
		WaitStdDev:         e.waitStats.StdDev(),
		SystemMean:         e.systemStats.Mean(),
		SystemStdDev:       e.systemStats.StdDev(),
		Servers:            e.serverViews(),
		Queue:              e.copyCustomers(e.commonQueue),
		Orbit:              e.copyCustomers(e.orbit),
		RecentDeparted:     e.copyCustomers(e.recentDeparted),
		RecentBalked:       e.copyCustomers(e.recentBalked),
		History:            e.history.Points(),
		Events:             append([]models.EngineEvent(nil), e.events...),
	}
	return snap
}

// Events returns a copy of the transient event list from the last tick.
func (e *Engine) Events() []models.EngineEvent {
	return append([]models.EngineEvent(nil), e.events...)
}

// CompletedLog returns a copy of the append-only completed-customer log.
func (e *Engine) CompletedLog() []models.CompletedService {
	return append([]models.CompletedService(nil), e.completed...)
}

// History returns the retained periodic time points, oldest first.
func (e *Engine) History() []models.TimePoint {
	return e.history.Points()
}

// IsDayComplete reports whether the operating day has elapsed and the
// node has fully drained: no one waiting, in service, or in orbit.
func (e *Engine) IsDayComplete() bool {
	if e.now < e.cfg.DayMinutes() {
		return false
	}
	if len(e.commonQueue) > 0 || len(e.orbit) > 0 {
		return false
	}
	for _, s := range e.servers {
		if len(s.Queue) > 0 || len(s.Batch) > 0 {
			return false
		}
	}
	return true
}

func (e *Engine) serverViews() []models.ServerView {
	views := make([]models.ServerView, 0, len(e.servers))
	for _, s := range e.servers {
		views = append(views, models.ServerView{
			ID:           s.ID,
			State:        s.State,
			Efficiency:   s.Efficiency,
			Seniority:    s.Seniority,
			Skills:       append([]models.Skill(nil), s.Skills...),
			QueueLength:  len(s.Queue),
			BatchSize:    len(s.Batch),
			Utilization:  e.utilization[s.ID],
			ShouldRemove: s.ShouldRemove,
		})
	}
	return views
}

func (e *Engine) copyCustomers(ids []int64) []models.Customer {
	out := make([]models.Customer, 0, len(ids))
	for _, id := range ids {
		if c := e.customer(id); c != nil {
			out = append(out, *c)
		}
	}
	return out
}
