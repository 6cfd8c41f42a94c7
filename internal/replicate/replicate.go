// Package replicate runs independent replications of one configuration
// and aggregates their terminal statistics against the analytical
// reference. Replications differ only by seed offset, so results are
// reproducible from a base seed.
package replicate

import (
	"context"
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/queueworks/station-sim/internal/engine"
	"github.com/queueworks/station-sim/internal/theory"
	"github.com/queueworks/station-sim/pkg/config"
	"github.com/queueworks/station-sim/pkg/logger"
)

// ErrNoReplications is returned when the requested replication count is
// not positive.
var ErrNoReplications = errors.New("replicate: replication count must be positive")

// Params describe one replication study.
type Params struct {
	Replications   int
	HorizonMinutes float64
	TickMinutes    float64
	BaseSeed       int64
}

// Summary aggregates one metric across replications.
type Summary struct {
	Mean        float64 `json:"mean"`
	StdDev      float64 `json:"std_dev"`
	HalfWidth95 float64 `json:"half_width_95"`
}

// Result is the outcome of a replication study.
type Result struct {
	Replications int     `json:"replications"`
	Wait         Summary `json:"wait"`
	System       Summary `json:"system"`
	Occupancy    Summary `json:"occupancy"`
	LossRate     Summary `json:"loss_rate"`
	TheoryWait   float64 `json:"theory_wait"`
	TheorySystem float64 `json:"theory_system"`
	TheoryL      float64 `json:"theory_l"`
	Unstable     bool    `json:"unstable"`
}

// Run executes the study. Each replication drives a fresh engine to the
// horizon; ctx cancels between ticks.
func Run(ctx context.Context, cfg config.Config, p Params) (Result, error) {
	if p.Replications < 1 {
		return Result{}, ErrNoReplications
	}
	if p.TickMinutes <= 0 {
		p.TickMinutes = 0.1
	}
	if p.HorizonMinutes <= 0 {
		p.HorizonMinutes = cfg.DayMinutes()
	}

	waits := make([]float64, 0, p.Replications)
	systems := make([]float64, 0, p.Replications)
	occupancies := make([]float64, 0, p.Replications)
	losses := make([]float64, 0, p.Replications)

	for i := 0; i < p.Replications; i++ {
		eng := engine.New(cfg, engine.WithSeed(p.BaseSeed+int64(i)))
		for eng.Now() < p.HorizonMinutes {
			if err := ctx.Err(); err != nil {
				return Result{}, err
			}
			eng.Tick(p.TickMinutes)
		}
		snap := eng.Snapshot()
		waits = append(waits, snap.WaitMean)
		systems = append(systems, snap.SystemMean)
		if n := len(snap.History); n > 0 {
			occupancies = append(occupancies, snap.History[n-1].AvgOccupancy)
		}
		if snap.Arrivals > 0 {
			losses = append(losses, float64(snap.Lost)/float64(snap.Arrivals))
		}
		logger.Debug("replication finished",
			"replication", i,
			"wait_mean", snap.WaitMean,
			"served", snap.Served)
	}

	lambda := cfg.ArrivalRatePerHour / 60
	ref := theory.Analytical{}.Evaluate(theory.Inputs{
		Model:              cfg.Model,
		LambdaPerMinute:    lambda,
		MeanServiceMinutes: cfg.MeanServiceMinutes,
		Servers:            cfg.Servers,
		Capacity:           cfg.Capacity,
		Population:         cfg.Population,
	})

	return Result{
		Replications: p.Replications,
		Wait:         summarize(waits),
		System:       summarize(systems),
		Occupancy:    summarize(occupancies),
		LossRate:     summarize(losses),
		TheoryWait:   ref.Wq,
		TheorySystem: ref.W,
		TheoryL:      ref.L,
		Unstable:     !ref.Stable,
	}, nil
}

// summarize reduces one metric's replication samples.
func summarize(samples []float64) Summary {
	if len(samples) == 0 {
		return Summary{}
	}
	mean, std := stat.MeanStdDev(samples, nil)
	if math.IsNaN(std) {
		std = 0
	}
	return Summary{
		Mean:        mean,
		StdDev:      std,
		HalfWidth95: 1.96 * std / math.Sqrt(float64(len(samples))),
	}
}
