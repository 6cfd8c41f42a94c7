package config

import "github.com/queueworks/station-sim/pkg/models"

// Config is the full configuration of one queueing node. The base fields
// describe the Kendall model; each optional block enables one feature and
// carries only the parameters relevant to it. The engine treats a Config
// as immutable per tick.
type Config struct {
	LogLevel string `yaml:"log_level,omitempty"`

	Model              models.QueueModel `yaml:"model"`
	ArrivalRatePerHour float64           `yaml:"arrival_rate_per_hour"`
	MeanServiceMinutes float64           `yaml:"mean_service_minutes"`
	Servers            int               `yaml:"servers"`
	Capacity           int               `yaml:"capacity,omitempty"`   // K, finite-capacity models
	Population         int               `yaml:"population,omitempty"` // N, finite-population models

	ArrivalDistribution models.Distribution `yaml:"arrival_distribution,omitempty"`
	ServiceDistribution models.Distribution `yaml:"service_distribution,omitempty"`
	ArrivalErlangK      int                 `yaml:"arrival_erlang_k,omitempty"`
	ServiceErlangK      int                 `yaml:"service_erlang_k,omitempty"`

	OpenHour                int     `yaml:"open_hour,omitempty"`      // hour of day the station opens
	OperatingHours          float64 `yaml:"operating_hours"`          // length of the simulated day
	SnapshotIntervalMinutes float64 `yaml:"snapshot_interval_minutes,omitempty"`

	Schedule     *ScheduleConfig     `yaml:"schedule,omitempty"`
	Impatience   *ImpatienceConfig   `yaml:"impatience,omitempty"`
	Retrial      *RetrialConfig      `yaml:"retrial,omitempty"`
	Breakdowns   *BreakdownConfig    `yaml:"breakdowns,omitempty"`
	Skills       *SkillsConfig       `yaml:"skills,omitempty"`
	Topology     *TopologyConfig     `yaml:"topology,omitempty"`
	Batch        *BatchConfig        `yaml:"batch,omitempty"`
	Panic        *PanicConfig        `yaml:"panic,omitempty"`
	ServiceLevel *ServiceLevelConfig `yaml:"service_level,omitempty"`
	Efficiency   *EfficiencyConfig   `yaml:"efficiency,omitempty"`
	Priority     *PriorityConfig     `yaml:"priority,omitempty"`
}

// ScheduleConfig enables time-of-day arrival and staffing schedules.
// Both arrays hold 24 hourly values indexed by hour of day.
type ScheduleConfig struct {
	HourlyArrivalRates []float64 `yaml:"hourly_arrival_rates,omitempty"`
	HourlyHeadcount    []int     `yaml:"hourly_headcount,omitempty"`
}

// ImpatienceConfig enables balking and reneging.
type ImpatienceConfig struct {
	BalkThreshold       int     `yaml:"balk_threshold"`
	MeanPatienceMinutes float64 `yaml:"mean_patience_minutes"`
}

// RetrialConfig enables the orbit: rejected customers re-attempt entry
// after an exponential delay instead of being lost.
type RetrialConfig struct {
	MeanDelayMinutes float64 `yaml:"mean_delay_minutes"`
}

// BreakdownConfig enables server failure/repair cycles.
type BreakdownConfig struct {
	MTBFMinutes float64 `yaml:"mtbf_minutes"`
	MTTRMinutes float64 `yaml:"mttr_minutes"`
}

// SkillsConfig enables skill tagging and, optionally, skill-based routing.
// Ratios map skill tags to the fraction of arrivals requiring them; the
// remainder arrives as GENERAL.
type SkillsConfig struct {
	Ratios  map[models.Skill]float64 `yaml:"ratios"`
	Routing bool                     `yaml:"routing"`
}

// TopologyConfig selects queue topology and jockeying behavior.
type TopologyConfig struct {
	Mode      models.Topology `yaml:"mode"`
	Jockeying bool            `yaml:"jockeying,omitempty"`
}

// BatchConfig enables bulk arrivals and batch service.
type BatchConfig struct {
	MaxBatchSize          int     `yaml:"max_batch_size,omitempty"`
	BulkMin               int     `yaml:"bulk_min,omitempty"`
	BulkMax               int     `yaml:"bulk_max,omitempty"`
	WorkloadMultiplierMin float64 `yaml:"workload_multiplier_min,omitempty"`
	WorkloadMultiplierMax float64 `yaml:"workload_multiplier_max,omitempty"`
}

// PanicConfig enables the state-dependent service-rate boost.
type PanicConfig struct {
	QueueThreshold int     `yaml:"queue_threshold"`
	RateMultiplier float64 `yaml:"rate_multiplier"`
}

// ServiceLevelConfig sets the wait-time target for SL compliance.
type ServiceLevelConfig struct {
	TargetWaitMinutes float64 `yaml:"target_wait_minutes"`
}

// EfficiencyTier is one slice of a heterogeneous server pool.
type EfficiencyTier struct {
	Multiplier float64 `yaml:"multiplier"`
	Seniority  string  `yaml:"seniority"`
	Weight     float64 `yaml:"weight"`
}

// EfficiencyConfig enables heterogeneous server efficiency.
type EfficiencyConfig struct {
	Tiers []EfficiencyTier `yaml:"tiers"`
}

// PriorityConfig enables VIP arrivals.
type PriorityConfig struct {
	VIPProbability float64 `yaml:"vip_probability"`
}

// TopologyMode returns the effective topology, defaulting to COMMON.
func (c *Config) TopologyMode() models.Topology {
	if c.Topology != nil && c.Topology.Mode == models.TopologyDedicated {
		return models.TopologyDedicated
	}
	return models.TopologyCommon
}

// DedicatedQueues reports whether per-server dedicated lines are in use.
func (c *Config) DedicatedQueues() bool {
	return c.TopologyMode() == models.TopologyDedicated
}

// MaxBatchSize returns the effective batch size, at least 1.
func (c *Config) MaxBatchSize() int {
	if c.Batch != nil && c.Batch.MaxBatchSize > 1 {
		return c.Batch.MaxBatchSize
	}
	return 1
}

// SkillRouting reports whether skill-based routing is enabled.
func (c *Config) SkillRouting() bool {
	return c.Skills != nil && c.Skills.Routing
}

// DayMinutes returns the configured operating-day length in sim-minutes.
func (c *Config) DayMinutes() float64 {
	return c.OperatingHours * 60
}
