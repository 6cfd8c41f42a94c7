// Package stats holds the online accumulators and the bounded snapshot
// history maintained by the statistics recorder.
package stats

import (
	"math"

	"github.com/queueworks/station-sim/pkg/models"
)

// Accumulator is an online (count, sum, sum-of-squares) triple supporting
// mean and unbiased sample variance without retaining samples.
type Accumulator struct {
	N     int64   `json:"n"`
	Sum   float64 `json:"sum"`
	SumSq float64 `json:"sum_sq"`
}

// Add folds one observation into the accumulator.
func (a *Accumulator) Add(v float64) {
	a.N++
	a.Sum += v
	a.SumSq += v * v
}

// Mean returns the sample mean, zero when empty.
func (a *Accumulator) Mean() float64 {
	if a.N == 0 {
		return 0
	}
	return a.Sum / float64(a.N)
}

// Variance returns the unbiased sample variance (sumSq - sum²/n)/(n-1),
// zero when fewer than two samples exist.
func (a *Accumulator) Variance() float64 {
	if a.N < 2 {
		return 0
	}
	v := (a.SumSq - a.Sum*a.Sum/float64(a.N)) / float64(a.N-1)
	if v < 0 {
		return 0 // numerical noise on near-constant samples
	}
	return v
}

// StdDev returns the sample standard deviation.
func (a *Accumulator) StdDev() float64 {
	return math.Sqrt(a.Variance())
}

// HalfWidth95 returns the 95% confidence half-width 1.96·stddev/sqrt(n),
// zero when empty.
func (a *Accumulator) HalfWidth95() float64 {
	if a.N == 0 {
		return 0
	}
	return 1.96 * a.StdDev() / math.Sqrt(float64(a.N))
}

// Reset clears the accumulator.
func (a *Accumulator) Reset() {
	*a = Accumulator{}
}

// History is the append-only, bounded buffer of periodic snapshots.
// When full, the oldest points are dropped FIFO.
type History struct {
	capacity int
	points   []models.TimePoint
}

// NewHistory creates a history bounded at the given capacity.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{
		capacity: capacity,
		points:   make([]models.TimePoint, 0, capacity),
	}
}

// Append adds a point, evicting the oldest when at capacity.
func (h *History) Append(p models.TimePoint) {
	if len(h.points) == h.capacity {
		copy(h.points, h.points[1:])
		h.points = h.points[:h.capacity-1]
	}
	h.points = append(h.points, p)
}

// Len returns the number of retained points.
func (h *History) Len() int {
	return len(h.points)
}

// Points returns a copy of the retained points, oldest first.
func (h *History) Points() []models.TimePoint {
	out := make([]models.TimePoint, len(h.points))
	copy(out, h.points)
	return out
}

// Clear discards all retained points.
func (h *History) Clear() {
	h.points = h.points[:0]
}
