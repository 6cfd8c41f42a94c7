// Package variate produces the duration samples the engine consumes:
// inter-arrival and service times for the configured distributions, plus
// replay of externally supplied trace logs.
package variate

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/queueworks/station-sim/pkg/models"
	"github.com/queueworks/station-sim/pkg/utils"
)

// Sampler draws non-negative durations for a distribution type and mean.
// All draws go through one injected random source so runs are reproducible
// under a fixed seed.
type Sampler struct {
	rng *utils.RandSource
}

// NewSampler creates a sampler over the given random source.
func NewSampler(rng *utils.RandSource) *Sampler {
	return &Sampler{rng: rng}
}

// Duration returns one duration sample in sim-minutes. The shape parameter
// is only consulted for Erlang. A non-positive mean yields zero for the
// degenerate distributions and +Inf is never returned here; trace replay
// (which owns the infinite sentinel) is handled by TraceLog.
func (s *Sampler) Duration(dist models.Distribution, mean float64, shape int) float64 {
	if mean <= 0 {
		return 0
	}

	var d float64
	switch dist {
	case models.DistDeterministic:
		d = mean
	case models.DistUniform:
		u := distuv.Uniform{Min: 0, Max: 2 * mean, Src: s.rng.Source()}
		d = u.Rand()
	case models.DistErlang:
		k := shape
		if k < 1 {
			k = 1
		}
		// Erlang-k is Gamma(k, k/mean): the sum of k Exponential(mean/k) draws.
		g := distuv.Gamma{Alpha: float64(k), Beta: float64(k) / mean, Src: s.rng.Source()}
		d = g.Rand()
	default: // Poisson process and anything unrecognized: exponential durations
		e := distuv.Exponential{Rate: 1 / mean, Src: s.rng.Source()}
		d = e.Rand()
	}

	if d < 0 || math.IsNaN(d) {
		return 0
	}
	return d
}

// Exponential returns one Exponential(mean) draw, used for retry delays,
// patience, failure and repair times regardless of the configured
// arrival/service distributions.
func (s *Sampler) Exponential(mean float64) float64 {
	return s.Duration(models.DistPoisson, mean, 0)
}
