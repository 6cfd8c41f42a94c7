package models

// QueueModel identifies the Kendall model being simulated.
type QueueModel string

const (
	ModelMM1   QueueModel = "mm1"   // single server
	ModelMMS   QueueModel = "mms"   // s servers
	ModelMMInf QueueModel = "mminf" // infinite servers
	ModelMMSK  QueueModel = "mmsk"  // s servers, capacity K
	ModelMMSN  QueueModel = "mmsn"  // s servers, finite population N
)

// Distribution identifies how a duration is sampled.
type Distribution string

const (
	DistPoisson       Distribution = "poisson"
	DistDeterministic Distribution = "deterministic"
	DistUniform       Distribution = "uniform"
	DistErlang        Distribution = "erlang"
	DistTrace         Distribution = "trace"
)

// Topology selects between one common line and per-server dedicated lines.
type Topology string

const (
	TopologyCommon    Topology = "common"
	TopologyDedicated Topology = "dedicated"
)

// Skill tags a customer's requirement and a server's capability.
type Skill string

// SkillGeneral is the catch-all skill every untagged customer carries.
const SkillGeneral Skill = "GENERAL"

// ServerState is the lifecycle state of a service resource.
type ServerState string

const (
	ServerIdle    ServerState = "idle"
	ServerBusy    ServerState = "busy"
	ServerOffline ServerState = "offline"
)

// Customer is one arriving entity. Times are simulation minutes.
// StartTime/FinishTime are negative until service begins/ends.
type Customer struct {
	ID              int64   `json:"id"`
	ArrivalTime     float64 `json:"arrival_time"`
	ServiceDuration float64 `json:"service_duration"`
	VIP             bool    `json:"vip"`
	Skill           Skill   `json:"skill"`
	Patience        float64 `json:"patience,omitempty"` // 0 means never reneges
	NextRetryAt     float64 `json:"next_retry_at,omitempty"`
	Retries         int     `json:"retries,omitempty"`
	StartTime       float64 `json:"start_time"`
	FinishTime      float64 `json:"finish_time"`
	EstimatedWait   float64 `json:"estimated_wait"`
	BalkedAt        float64 `json:"balked_at,omitempty"`   // visual buffer bookkeeping
	DepartedAt      float64 `json:"departed_at,omitempty"` // visual buffer bookkeeping
}

// StateSegment is one (state, start, end) slice of a server's timeline.
// End is negative while the segment is still open.
type StateSegment struct {
	State ServerState `json:"state"`
	Start float64     `json:"start"`
	End   float64     `json:"end"`
}

// Server is one service resource. Queue and Batch hold customer ids; the
// customers themselves live in the engine's arena.
type Server struct {
	ID            int            `json:"id"`
	State         ServerState    `json:"state"`
	Efficiency    float64        `json:"efficiency"`
	Seniority     string         `json:"seniority"`
	Skills        []Skill        `json:"skills"`
	Queue         []int64        `json:"queue,omitempty"` // dedicated topology only
	Batch         []int64        `json:"batch,omitempty"`
	BatchStartAt  float64        `json:"batch_start_at"`
	BatchFinishAt float64        `json:"batch_finish_at"`
	BusyTime      float64        `json:"busy_time"`
	Timeline      []StateSegment `json:"timeline,omitempty"`
	ShouldRemove  bool           `json:"should_remove"`
	InfiniteSlot  bool           `json:"infinite_slot"`
	CreatedAt     float64        `json:"created_at"`
	NextFailureAt float64        `json:"next_failure_at,omitempty"`
	RepairUntil   float64        `json:"repair_until,omitempty"`
}

// HasSkill reports whether the server can serve the given skill tag.
// Every server can serve GENERAL customers.
func (s *Server) HasSkill(skill Skill) bool {
	if skill == SkillGeneral || skill == "" {
		return true
	}
	for _, have := range s.Skills {
		if have == skill {
			return true
		}
	}
	return false
}

// EventType classifies a transient per-tick engine event used by animation
// and streaming consumers.
type EventType string

const (
	EventVIPArrival EventType = "vip_arrival"
	EventBalk       EventType = "balk"
	EventBlocked    EventType = "blocked"
	EventRenege     EventType = "renege"
	EventOrbitEnter EventType = "orbit_enter"
	EventOrbitRetry EventType = "orbit_retry"
	EventBreakdown  EventType = "breakdown"
	EventRepair     EventType = "repair"
	EventStaffing   EventType = "staffing"
)

// EngineEvent is one entry of the transient per-tick event list.
type EngineEvent struct {
	Type       EventType `json:"type"`
	Time       float64   `json:"time"`
	CustomerID int64     `json:"customer_id,omitempty"`
	ServerID   int       `json:"server_id,omitempty"`
	Detail     string    `json:"detail,omitempty"`
}

// CustomerKind labels a completed-log row.
type CustomerKind string

const (
	KindStandard  CustomerKind = "standard"
	KindVIP       CustomerKind = "vip"
	KindImpatient CustomerKind = "impatient"
)

// CompletedService is one append-only row of the completed-customer log.
type CompletedService struct {
	CustomerID    int64        `json:"customer_id"`
	ArrivalTime   float64      `json:"arrival_time"`
	StartTime     float64      `json:"start_time"`
	FinishTime    float64      `json:"finish_time"`
	WaitTime      float64      `json:"wait_time"`
	ServiceTime   float64      `json:"service_time"`
	ServerID      int          `json:"server_id"`
	Kind          CustomerKind `json:"kind"`
	Skill         Skill        `json:"skill"`
	EstimatedWait float64      `json:"estimated_wait"`
}

// TimePoint is one periodic statistics snapshot.
type TimePoint struct {
	Time              float64         `json:"time"`
	ObservedWait      float64         `json:"observed_wait"`
	ObservedSystem    float64         `json:"observed_system"`
	TheoryWait        float64         `json:"theory_wait"`
	TheorySystem      float64         `json:"theory_system"`
	WaitCIHalfWidth   float64         `json:"wait_ci_half_width"`
	AvgOccupancy      float64         `json:"avg_occupancy"` // time-integrated L estimate
	LambdaW           float64         `json:"lambda_w"`      // Little's-law cross-check
	LossRate          float64         `json:"loss_rate"`
	ServiceLevelPct   float64         `json:"service_level_pct"`
	AvgUtilization    float64         `json:"avg_utilization"`
	ServerUtilization map[int]float64 `json:"server_utilization,omitempty"`
}

// ServerView is the defensively-copied per-server slice of a snapshot.
type ServerView struct {
	ID           int         `json:"id"`
	State        ServerState `json:"state"`
	Efficiency   float64     `json:"efficiency"`
	Seniority    string      `json:"seniority"`
	Skills       []Skill     `json:"skills"`
	QueueLength  int         `json:"queue_length"`
	BatchSize    int         `json:"batch_size"`
	Utilization  float64     `json:"utilization"`
	ShouldRemove bool        `json:"should_remove"`
}

// Snapshot is the consistent, fully-settled state returned after a tick.
// All collections are copies; callers must not assume identity across ticks.
type Snapshot struct {
	SimTime            float64       `json:"sim_time"`
	Model              QueueModel    `json:"model"`
	QueueLength        int           `json:"queue_length"`
	OrbitLength        int           `json:"orbit_length"`
	InSystem           int           `json:"in_system"`
	Arrivals           int64         `json:"arrivals"`
	Served             int64         `json:"served"`
	ServedWithinTarget int64         `json:"served_within_target"`
	Lost               int64         `json:"lost"`
	Blocked            int64         `json:"blocked"`
	Panic              bool          `json:"panic"`
	Unstable           bool          `json:"unstable"`
	Rho                float64       `json:"rho"`
	DayComplete        bool          `json:"day_complete"`
	WaitMean           float64       `json:"wait_mean"`
	WaitStdDev         float64       `json:"wait_std_dev"`
	SystemMean         float64       `json:"system_mean"`
	SystemStdDev       float64       `json:"system_std_dev"`
	Servers            []ServerView  `json:"servers"`
	Queue              []Customer    `json:"queue"`
	Orbit              []Customer    `json:"orbit"`
	RecentDeparted     []Customer    `json:"recent_departed,omitempty"`
	RecentBalked       []Customer    `json:"recent_balked,omitempty"`
	History            []TimePoint   `json:"history,omitempty"`
	Events             []EngineEvent `json:"events,omitempty"`
}

// RunStatus represents the status of a simulation run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// IsTerminal reports whether the run can no longer change state.
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed || s == RunStatusCancelled
}

// Run represents a simulation run managed by the daemon.
type Run struct {
	ID              string    `json:"id"`
	Status          RunStatus `json:"status"`
	CreatedAtUnixMs int64     `json:"created_at_unix_ms"`
	StartedAtUnixMs int64     `json:"started_at_unix_ms,omitempty"`
	EndedAtUnixMs   int64     `json:"ended_at_unix_ms,omitempty"`
	Error           string    `json:"error,omitempty"`
}
