package engine

import (
	"math"

	"github.com/queueworks/station-sim/internal/theory"
	"github.com/queueworks/station-sim/pkg/models"
	"github.com/queueworks/station-sim/pkg/utils"
)

// integrateOccupancy accumulates N(t)·dt before the tick's state changes,
// so the operational L estimate area/T uses left-endpoint occupancy.
func (e *Engine) integrateOccupancy(dt float64) {
	e.areaN += float64(e.inSystem()) * dt
}

// effectiveLambdaPerMinute is the configured arrival rate at the current
// instant, converted to per-minute for the analytical reference.
func (e *Engine) effectiveLambdaPerMinute() float64 {
	return e.currentArrivalRatePerHour(e.now) / 60
}

// theoryInputs maps the live configuration onto analytical model inputs.
// The server count is the currently active pool, so reference values track
// staffing changes.
func (e *Engine) theoryInputs() theory.Inputs {
	servers := len(e.activeServers())
	if servers == 0 {
		servers = e.cfg.Servers
	}
	return theory.Inputs{
		Model:              e.cfg.Model,
		LambdaPerMinute:    e.effectiveLambdaPerMinute(),
		MeanServiceMinutes: e.cfg.MeanServiceMinutes,
		Servers:            servers,
		Capacity:           e.cfg.Capacity,
		Population:         e.cfg.Population,
	}
}

// maybeSnapshot appends a periodic time point once per snapshot interval:
// observed means with a 95% confidence half-width, the analytical
// reference, the time-integrated occupancy, and the lambda·W cross-check.
func (e *Engine) maybeSnapshot() {
	interval := e.cfg.SnapshotIntervalMinutes
	if interval <= 0 {
		return
	}
	if e.now-e.lastSnapshotAt < interval {
		return
	}
	e.lastSnapshotAt = e.now

	ref := e.theory.Evaluate(e.theoryInputs())
	lambdaObs := utils.SafeDiv(float64(e.arrivals), e.now)

	perServer := make(map[int]float64, len(e.utilization))
	avgUtil := 0.0
	for id, u := range e.utilization {
		perServer[id] = u
		avgUtil += u
	}
	avgUtil = utils.SafeDiv(avgUtil, float64(len(e.utilization)))

	slPct := 0.0
	if e.cfg.ServiceLevel != nil {
		slPct = utils.SafeDiv(float64(e.servedInSL), float64(e.served)) * 100
	}

	e.history.Append(models.TimePoint{
		Time:              e.now,
		ObservedWait:      e.waitStats.Mean(),
		ObservedSystem:    e.systemStats.Mean(),
		TheoryWait:        ref.Wq,
		TheorySystem:      ref.W,
		WaitCIHalfWidth:   e.waitStats.HalfWidth95(),
		AvgOccupancy:      utils.SafeDiv(e.areaN, e.now),
		LambdaW:           lambdaObs * e.systemStats.Mean(),
		LossRate:          utils.SafeDiv(float64(e.lost), float64(e.arrivals)),
		ServiceLevelPct:   slPct,
		AvgUtilization:    avgUtil,
		ServerUtilization: perServer,
	})
}

// updateUtilization recomputes each server's busy fraction over the
// trailing window, counting only time the server existed and was not
// offline, and trims timeline segments that fell out of the window.
func (e *Engine) updateUtilization() {
	windowStart := e.now - utilizationWindowMinutes
	if windowStart < 0 {
		windowStart = 0
	}

	for _, s := range e.servers {
		from := windowStart
		if s.CreatedAt > from {
			from = s.CreatedAt
		}
		span := e.now - from
		if span <= 0 {
			e.utilization[s.ID] = 0
			continue
		}

		busy, offline := 0.0, 0.0
		for _, seg := range s.Timeline {
			end := seg.End
			if end < 0 {
				end = e.now
			}
			overlap := math.Min(end, e.now) - math.Max(seg.Start, from)
			if overlap <= 0 {
				continue
			}
			switch seg.State {
			case models.ServerBusy:
				busy += overlap
			case models.ServerOffline:
				offline += overlap
			}
		}
		e.utilization[s.ID] = utils.ClampFloat64(utils.SafeDiv(busy, span-offline), 0, 1)

		e.trimTimeline(s, windowStart)
	}
}

// trimTimeline drops closed segments that ended before the window start so
// long runs do not grow unbounded per-server history.
func (e *Engine) trimTimeline(s *models.Server, windowStart float64) {
	keepFrom := 0
	for i, seg := range s.Timeline {
		if seg.End < 0 || seg.End > windowStart {
			break
		}
		keepFrom = i + 1
	}
	if keepFrom > 0 {
		s.Timeline = append(s.Timeline[:0], s.Timeline[keepFrom:]...)
	}
}
