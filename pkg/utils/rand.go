package utils

import (
	"math/rand/v2"
	"time"
)

// RandSource is a seedable pseudo-random source. It is injected into the
// engine so tests can fix the seed for deterministic runs, and it exposes
// its underlying rand.Source for distribution samplers built on gonum.
type RandSource struct {
	rng *rand.Rand
	src rand.Source
}

// NewRandSource creates a new random source with the given seed.
// A zero seed picks a time-based one.
func NewRandSource(seed int64) *RandSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	src := rand.NewPCG(uint64(seed), uint64(seed)>>1|1)
	return &RandSource{
		rng: rand.New(src),
		src: src,
	}
}

// Source returns the underlying rand.Source for samplers that need one.
func (r *RandSource) Source() rand.Source {
	return r.src
}

// Float64 returns a random float64 in [0.0, 1.0)
func (r *RandSource) Float64() float64 {
	return r.rng.Float64()
}

// Intn returns a random int in [0, n)
func (r *RandSource) Intn(n int) int {
	return r.rng.IntN(n)
}

// IntBetween returns a random int in [lo, hi] inclusive.
func (r *RandSource) IntBetween(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.rng.IntN(hi-lo+1)
}

// ExpFloat64 returns an exponentially distributed random number with rate lambda
func (r *RandSource) ExpFloat64(lambda float64) float64 {
	if lambda <= 0 {
		return 0
	}
	return r.rng.ExpFloat64() / lambda
}

// ExpMean returns an exponentially distributed random number with the given mean.
func (r *RandSource) ExpMean(mean float64) float64 {
	if mean <= 0 {
		return 0
	}
	return r.rng.ExpFloat64() * mean
}

// NormFloat64 returns a normally distributed random number with mean and stddev
func (r *RandSource) NormFloat64(mean, stddev float64) float64 {
	return r.rng.NormFloat64()*stddev + mean
}

// BernoulliBool returns true with probability p, false otherwise
func (r *RandSource) BernoulliBool(p float64) bool {
	return r.rng.Float64() < p
}

// UniformFloat64 returns a uniformly distributed random number in [min, max)
func (r *RandSource) UniformFloat64(min, max float64) float64 {
	return min + r.rng.Float64()*(max-min)
}

// Perm returns a random permutation of [0, n)
func (r *RandSource) Perm(n int) []int {
	return r.rng.Perm(n)
}

// WeightedIndex picks an index with probability proportional to weights[i].
// Non-positive weights are skipped; all-non-positive falls back to 0.
func (r *RandSource) WeightedIndex(weights []float64) int {
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return 0
	}
	target := r.rng.Float64() * total
	acc := 0.0
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		acc += w
		if target < acc {
			return i
		}
	}
	return len(weights) - 1
}
