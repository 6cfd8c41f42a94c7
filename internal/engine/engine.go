// Package engine implements the discrete-event simulation core of a single
// queueing node. The engine owns simulation time, the customer arena, the
// server pool and orbit, and every state-transition rule; callers drive it
// through Tick and read defensively-copied snapshots.
package engine

import (
	"log/slog"
	"math"

	"github.com/queueworks/station-sim/internal/schedule"
	"github.com/queueworks/station-sim/internal/stats"
	"github.com/queueworks/station-sim/internal/theory"
	"github.com/queueworks/station-sim/internal/variate"
	"github.com/queueworks/station-sim/pkg/config"
	"github.com/queueworks/station-sim/pkg/logger"
	"github.com/queueworks/station-sim/pkg/models"
	"github.com/queueworks/station-sim/pkg/utils"
)

const (
	// displayWindowMinutes is how long departed/balked customers stay in
	// the transient visual buffers before being destroyed.
	displayWindowMinutes = 3.0

	// utilizationWindowMinutes is the sliding window used to smooth
	// per-server utilization.
	utilizationWindowMinutes = 60.0

	// historyCapacity bounds the periodic snapshot buffer; oldest points
	// are dropped FIFO.
	historyCapacity = 288
)

// unsetTime marks Customer start/finish times that have not happened yet.
const unsetTime = -1.0

// Engine is the single-threaded, tick-driven simulation engine. All
// mutation happens inside Tick or Reset; internal collections must never
// be retained by callers across ticks.
type Engine struct {
	cfg       config.Config
	log       *slog.Logger
	rng       *utils.RandSource
	sampler   *variate.Sampler
	theory    theory.Provider
	rates     *schedule.Rates
	headcount *schedule.Headcount
	seed      int64

	now float64

	// customers is the arena: every live customer keyed by id. Owning
	// collections (common queue, dedicated queues, batches, orbit, visual
	// buffers) hold ids, never duplicated records, so each customer has
	// exactly one owner at any instant.
	customers   map[int64]*models.Customer
	commonQueue []int64
	orbit       []int64
	servers     []*models.Server

	trace         *variate.TraceLog
	traceService  float64 // service duration paired with the pending trace arrival
	nextArrivalAt float64

	nextCustomerID int64
	nextServerID   int

	arrivals   int64
	served     int64
	servedInSL int64
	lost       int64
	blocked    int64

	waitStats   stats.Accumulator
	systemStats stats.Accumulator
	history     *stats.History

	events         []models.EngineEvent
	recentDeparted []int64
	recentBalked   []int64
	completed      []models.CompletedService

	areaN          float64 // ∫N(t)dt for the operational L estimate
	lastSnapshotAt float64
	panicMode      bool
	utilization    map[int]float64
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithSeed fixes the pseudo-random seed so runs are reproducible.
func WithSeed(seed int64) Option {
	return func(e *Engine) { e.seed = seed }
}

// WithTheory substitutes the closed-form reference collaborator.
func WithTheory(p theory.Provider) Option {
	return func(e *Engine) { e.theory = p }
}

// WithLogger sets the engine's logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// New creates an engine for the given configuration and builds its initial
// state.
func New(cfg config.Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:    cfg,
		log:    logger.Default,
		theory: theory.Analytical{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.Reset()
	return e
}

// SetConfig replaces the configuration used from the next tick on. Live
// state is kept; call Reset to rebuild from scratch. A stalled arrival
// stream (no arrival pending) is restarted under the new rates.
func (e *Engine) SetConfig(cfg config.Config) {
	e.cfg = cfg
	e.rebuildSchedules()
	if math.IsInf(e.nextArrivalAt, 1) && cfg.ArrivalDistribution != models.DistTrace {
		e.scheduleNextArrival(e.now)
	}
}

// Config returns the configuration in effect.
func (e *Engine) Config() config.Config {
	return e.cfg
}

// Now returns the current simulation time in minutes.
func (e *Engine) Now() float64 {
	return e.now
}

// Reset discards all live state and rebuilds from the current
// configuration. The random source is reseeded so a fixed-seed engine
// replays identically after a reset.
func (e *Engine) Reset() {
	e.rng = utils.NewRandSource(e.seed)
	e.sampler = variate.NewSampler(e.rng)
	e.rebuildSchedules()

	e.now = 0
	e.customers = make(map[int64]*models.Customer)
	e.commonQueue = nil
	e.orbit = nil
	e.servers = nil
	e.nextCustomerID = 0
	e.nextServerID = 0

	e.arrivals = 0
	e.served = 0
	e.servedInSL = 0
	e.lost = 0
	e.blocked = 0
	e.waitStats.Reset()
	e.systemStats.Reset()
	e.history = stats.NewHistory(historyCapacity)

	e.events = nil
	e.recentDeparted = nil
	e.recentBalked = nil
	e.completed = nil
	e.areaN = 0
	e.lastSnapshotAt = 0
	e.panicMode = false
	e.utilization = make(map[int]float64)

	if e.trace != nil {
		e.trace.Rewind()
	}

	e.buildInitialServers()
	e.scheduleFirstArrival()

	e.log.Debug("engine reset",
		"model", e.cfg.Model,
		"servers", len(e.servers),
		"arrival_rate_per_hour", e.cfg.ArrivalRatePerHour)
}

// SetTrace installs the ordered (arrival, service) log replayed in TRACE
// mode and primes the next arrival from it.
func (e *Engine) SetTrace(entries []variate.TraceEntry) {
	e.trace = variate.NewTraceLog(entries)
	if e.cfg.ArrivalDistribution == models.DistTrace {
		e.nextArrivalAt, e.traceService = e.trace.Next()
	}
}

// UpdateServerSkills reconfigures one server's skill set live, without a
// reset. Unknown ids are ignored.
func (e *Engine) UpdateServerSkills(id int, skills []models.Skill) {
	for _, s := range e.servers {
		if s.ID == id {
			s.Skills = append([]models.Skill(nil), skills...)
			e.log.Debug("server skills updated", "server_id", id, "skills", skills)
			return
		}
	}
}

// rebuildSchedules refreshes the hourly lookup tables from the config.
func (e *Engine) rebuildSchedules() {
	e.rates = nil
	e.headcount = nil
	if e.cfg.Schedule != nil {
		e.rates = schedule.NewRates(e.cfg.Schedule.HourlyArrivalRates)
		e.headcount = schedule.NewHeadcount(e.cfg.Schedule.HourlyHeadcount)
	}
}

// newCustomerID hands out the next arena key.
func (e *Engine) newCustomerID() int64 {
	e.nextCustomerID++
	return e.nextCustomerID
}

// customer looks a live customer up by id.
func (e *Engine) customer(id int64) *models.Customer {
	return e.customers[id]
}

// destroyCustomer removes a customer from the arena. The caller must have
// already removed the id from its owning collection.
func (e *Engine) destroyCustomer(id int64) {
	delete(e.customers, id)
}

// inSystem returns total occupancy: common queue, dedicated queues, and
// customers in service. Orbit and visual buffers are outside the system.
func (e *Engine) inSystem() int {
	n := len(e.commonQueue)
	for _, s := range e.servers {
		n += len(s.Queue) + len(s.Batch)
	}
	return n
}

// queuedTotal returns the number of waiting customers across the common
// queue and every dedicated queue. Customers in service do not count.
func (e *Engine) queuedTotal() int {
	n := len(e.commonQueue)
	for _, s := range e.servers {
		n += len(s.Queue)
	}
	return n
}

// pushEvent appends to the transient per-tick event list.
func (e *Engine) pushEvent(t models.EventType, at float64, customerID int64, serverID int, detail string) {
	e.events = append(e.events, models.EngineEvent{
		Type:       t,
		Time:       at,
		CustomerID: customerID,
		ServerID:   serverID,
		Detail:     detail,
	})
}

// removeID deletes the first occurrence of id from ids.
func removeID(ids []int64, id int64) []int64 {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

// ownerCount reports in how many owning collections a customer id appears.
// It must be 0 or 1 at every tick boundary; anything else is an engine
// defect, not a domain event.
func (e *Engine) ownerCount(id int64) int {
	count := 0
	for _, v := range e.commonQueue {
		if v == id {
			count++
		}
	}
	for _, s := range e.servers {
		for _, v := range s.Queue {
			if v == id {
				count++
			}
		}
		for _, v := range s.Batch {
			if v == id {
				count++
			}
		}
	}
	for _, v := range e.orbit {
		if v == id {
			count++
		}
	}
	for _, v := range e.recentDeparted {
		if v == id {
			count++
		}
	}
	for _, v := range e.recentBalked {
		if v == id {
			count++
		}
	}
	return count
}
