// Package schedule provides the hourly step functions the engine consults
// for time-varying arrival rates and staffing headcount.
package schedule

// HourOfDay maps a simulation-minute offset from opening to an hour-of-day
// index, wrapping at midnight.
func HourOfDay(openHour int, minutes float64) int {
	if minutes < 0 {
		minutes = 0
	}
	h := (openHour + int(minutes/60)) % 24
	if h < 0 {
		h += 24
	}
	return h
}

// Rates is a 24-entry hourly arrival-rate schedule.
type Rates struct {
	hourly []float64
}

// NewRates builds a rate schedule; a nil or short slice disables it.
func NewRates(hourly []float64) *Rates {
	if len(hourly) != 24 {
		return nil
	}
	copied := make([]float64, 24)
	copy(copied, hourly)
	return &Rates{hourly: copied}
}

// At returns the arrival rate in effect at the given sim-minute.
func (r *Rates) At(openHour int, minutes float64) float64 {
	if r == nil {
		return 0
	}
	return r.hourly[HourOfDay(openHour, minutes)]
}

// Headcount is a 24-entry hourly staffing schedule.
type Headcount struct {
	hourly []int
}

// NewHeadcount builds a staffing schedule; a nil or short slice disables it.
func NewHeadcount(hourly []int) *Headcount {
	if len(hourly) != 24 {
		return nil
	}
	copied := make([]int, 24)
	copy(copied, hourly)
	return &Headcount{hourly: copied}
}

// At returns the target headcount in effect at the given sim-minute.
func (h *Headcount) At(openHour int, minutes float64) int {
	if h == nil {
		return 0
	}
	return h.hourly[HourOfDay(openHour, minutes)]
}
