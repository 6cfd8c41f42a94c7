package engine

import (
	"sort"

	"github.com/queueworks/station-sim/pkg/models"
)

// buildInitialServers creates the opening pool. mminf starts empty and
// grows on demand; a staffing schedule overrides the static server count
// for hour zero.
func (e *Engine) buildInitialServers() {
	if e.cfg.Model == models.ModelMMInf {
		return
	}
	count := e.cfg.Servers
	if count < 1 {
		count = 1
	}
	if e.headcount != nil {
		if target := e.headcount.At(e.cfg.OpenHour, 0); target > 0 {
			count = target
		}
	}
	for i := 0; i < count; i++ {
		e.addServer(0)
	}
}

// addServer creates one idle server with the next id, tiered efficiency,
// and a round-robin skill assignment, and returns it.
func (e *Engine) addServer(t float64) *models.Server {
	e.nextServerID++
	s := &models.Server{
		ID:         e.nextServerID,
		State:      models.ServerIdle,
		Efficiency: 1,
		CreatedAt:  t,
		Timeline:   []models.StateSegment{{State: models.ServerIdle, Start: t, End: unsetTime}},
	}
	e.applyEfficiencyTier(s)
	e.assignServerSkills(s)
	if e.cfg.Breakdowns != nil && e.cfg.Breakdowns.MTBFMinutes > 0 {
		s.NextFailureAt = t + e.sampler.Exponential(e.cfg.Breakdowns.MTBFMinutes)
	}
	e.servers = append(e.servers, s)
	e.utilization[s.ID] = 0
	return s
}

// addInfiniteSlot creates the one-shot server that immediately serves a
// customer in the infinite-server model.
func (e *Engine) addInfiniteSlot(t float64) *models.Server {
	e.nextServerID++
	s := &models.Server{
		ID:           e.nextServerID,
		State:        models.ServerIdle,
		Efficiency:   1,
		InfiniteSlot: true,
		CreatedAt:    t,
		Timeline:     []models.StateSegment{{State: models.ServerIdle, Start: t, End: unsetTime}},
	}
	e.servers = append(e.servers, s)
	e.utilization[s.ID] = 0
	return s
}

// applyEfficiencyTier draws a tier by weight and stamps multiplier and
// seniority. Without an efficiency block every server works at 1.0.
func (e *Engine) applyEfficiencyTier(s *models.Server) {
	if e.cfg.Efficiency == nil || len(e.cfg.Efficiency.Tiers) == 0 {
		return
	}
	weights := make([]float64, len(e.cfg.Efficiency.Tiers))
	for i, tier := range e.cfg.Efficiency.Tiers {
		weights[i] = tier.Weight
	}
	tier := e.cfg.Efficiency.Tiers[e.rng.WeightedIndex(weights)]
	if tier.Multiplier > 0 {
		s.Efficiency = tier.Multiplier
	}
	s.Seniority = tier.Seniority
}

// assignServerSkills gives the server one specialist skill, round-robin
// over the configured tags, plus the implicit GENERAL capability.
func (e *Engine) assignServerSkills(s *models.Server) {
	if e.cfg.Skills == nil || len(e.cfg.Skills.Ratios) == 0 {
		s.Skills = []models.Skill{models.SkillGeneral}
		return
	}
	tags := make([]models.Skill, 0, len(e.cfg.Skills.Ratios))
	for tag := range e.cfg.Skills.Ratios {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	pick := tags[(s.ID-1)%len(tags)]
	s.Skills = []models.Skill{pick, models.SkillGeneral}
}

// removeServer drops a server from the pool. Its dedicated queue must be
// empty and no batch may be in progress.
func (e *Engine) removeServer(victim *models.Server, t float64) {
	for i, s := range e.servers {
		if s == victim {
			e.closeTimeline(s, t)
			e.servers = append(e.servers[:i], e.servers[i+1:]...)
			delete(e.utilization, s.ID)
			return
		}
	}
}

// setServerState transitions a server, closing the open timeline segment
// and opening a new one. No-op when the state is unchanged.
func (e *Engine) setServerState(s *models.Server, state models.ServerState, t float64) {
	if s.State == state {
		return
	}
	e.closeTimeline(s, t)
	s.Timeline = append(s.Timeline, models.StateSegment{State: state, Start: t, End: unsetTime})
	s.State = state
}

// closeTimeline seals the open segment, if any, at time t.
func (e *Engine) closeTimeline(s *models.Server, t float64) {
	if n := len(s.Timeline); n > 0 && s.Timeline[n-1].End < 0 {
		s.Timeline[n-1].End = t
	}
}

// activeServers returns servers able to take on work eventually: online or
// under repair, not draining toward removal. Used for wait estimation.
func (e *Engine) activeServers() []*models.Server {
	out := make([]*models.Server, 0, len(e.servers))
	for _, s := range e.servers {
		if !s.ShouldRemove && !s.InfiniteSlot {
			out = append(out, s)
		}
	}
	return out
}

// serverByID returns the pool entry with the given id, or nil.
func (e *Engine) serverByID(id int) *models.Server {
	for _, s := range e.servers {
		if s.ID == id {
			return s
		}
	}
	return nil
}
