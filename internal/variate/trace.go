package variate

import "math"

// TraceEntry is one externally recorded (arrival, service) pair, both in
// sim-minutes. Entries must be ordered by arrival time.
type TraceEntry struct {
	ArrivalMinutes float64 `json:"arrival_minutes" yaml:"arrival_minutes"`
	ServiceMinutes float64 `json:"service_minutes" yaml:"service_minutes"`
}

// TraceLog replays an ordered log of recorded arrivals. Exhausting the log
// yields an infinite next-arrival time, the sentinel for "no further
// arrivals".
type TraceLog struct {
	entries []TraceEntry
	cursor  int
}

// NewTraceLog copies the given entries into a fresh replay cursor.
func NewTraceLog(entries []TraceEntry) *TraceLog {
	copied := make([]TraceEntry, len(entries))
	copy(copied, entries)
	return &TraceLog{entries: copied}
}

// Next returns the next recorded arrival time and its service duration and
// advances the cursor. After the last entry it returns (+Inf, 0).
func (t *TraceLog) Next() (arrival, service float64) {
	if t == nil || t.cursor >= len(t.entries) {
		return math.Inf(1), 0
	}
	e := t.entries[t.cursor]
	t.cursor++
	service = e.ServiceMinutes
	if service < 0 {
		service = 0
	}
	return e.ArrivalMinutes, service
}

// Remaining reports how many entries have not been replayed yet.
func (t *TraceLog) Remaining() int {
	if t == nil {
		return 0
	}
	return len(t.entries) - t.cursor
}

// Rewind resets the cursor to the beginning of the log.
func (t *TraceLog) Rewind() {
	if t != nil {
		t.cursor = 0
	}
}
