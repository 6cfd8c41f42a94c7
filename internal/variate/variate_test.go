package variate

import (
	"math"
	"testing"

	"github.com/queueworks/station-sim/pkg/models"
	"github.com/queueworks/station-sim/pkg/utils"
)

func newTestSampler() *Sampler {
	return NewSampler(utils.NewRandSource(42))
}

func TestDurationDeterministic(t *testing.T) {
	s := newTestSampler()
	for i := 0; i < 10; i++ {
		if d := s.Duration(models.DistDeterministic, 3.5, 0); d != 3.5 {
			t.Fatalf("deterministic draw = %f, want 3.5", d)
		}
	}
}

func TestDurationNonPositiveMean(t *testing.T) {
	s := newTestSampler()
	for _, dist := range []models.Distribution{
		models.DistPoisson, models.DistDeterministic, models.DistUniform, models.DistErlang,
	} {
		if d := s.Duration(dist, 0, 2); d != 0 {
			t.Errorf("%s with zero mean = %f, want 0", dist, d)
		}
		if d := s.Duration(dist, -1, 2); d != 0 {
			t.Errorf("%s with negative mean = %f, want 0", dist, d)
		}
	}
}

func TestDurationUniformRange(t *testing.T) {
	s := newTestSampler()
	mean := 4.0
	for i := 0; i < 1000; i++ {
		d := s.Duration(models.DistUniform, mean, 0)
		if d < 0 || d >= 2*mean {
			t.Fatalf("uniform draw %f outside [0, %f)", d, 2*mean)
		}
	}
}

func TestDurationExponentialMean(t *testing.T) {
	s := newTestSampler()
	mean := 2.0
	sum := 0.0
	n := 20000
	for i := 0; i < n; i++ {
		d := s.Duration(models.DistPoisson, mean, 0)
		if d < 0 {
			t.Fatalf("negative exponential draw %f", d)
		}
		sum += d
	}
	got := sum / float64(n)
	if math.Abs(got-mean) > 0.1 {
		t.Errorf("exponential sample mean = %f, want about %f", got, mean)
	}
}

func TestDurationErlangMeanAndSpread(t *testing.T) {
	s := newTestSampler()
	mean := 3.0
	k := 4
	sum, sumSq := 0.0, 0.0
	n := 20000
	for i := 0; i < n; i++ {
		d := s.Duration(models.DistErlang, mean, k)
		if d < 0 {
			t.Fatalf("negative erlang draw %f", d)
		}
		sum += d
		sumSq += d * d
	}
	got := sum / float64(n)
	if math.Abs(got-mean) > 0.1 {
		t.Errorf("erlang sample mean = %f, want about %f", got, mean)
	}
	// Var = mean^2/k for Erlang-k.
	variance := sumSq/float64(n) - got*got
	want := mean * mean / float64(k)
	if math.Abs(variance-want) > 0.3 {
		t.Errorf("erlang sample variance = %f, want about %f", variance, want)
	}
}

func TestTraceLogReplay(t *testing.T) {
	log := NewTraceLog([]TraceEntry{
		{ArrivalMinutes: 1.5, ServiceMinutes: 2},
		{ArrivalMinutes: 4, ServiceMinutes: 0.5},
	})

	if got := log.Remaining(); got != 2 {
		t.Fatalf("Remaining = %d, want 2", got)
	}
	a, svc := log.Next()
	if a != 1.5 || svc != 2 {
		t.Errorf("first entry = (%f, %f), want (1.5, 2)", a, svc)
	}
	a, svc = log.Next()
	if a != 4 || svc != 0.5 {
		t.Errorf("second entry = (%f, %f), want (4, 0.5)", a, svc)
	}

	a, svc = log.Next()
	if !math.IsInf(a, 1) || svc != 0 {
		t.Errorf("exhausted entry = (%f, %f), want (+Inf, 0)", a, svc)
	}

	log.Rewind()
	if a, _ := log.Next(); a != 1.5 {
		t.Errorf("after rewind first arrival = %f, want 1.5", a)
	}
}

func TestTraceLogNilSafe(t *testing.T) {
	var log *TraceLog
	a, svc := log.Next()
	if !math.IsInf(a, 1) || svc != 0 {
		t.Errorf("nil log Next = (%f, %f), want (+Inf, 0)", a, svc)
	}
	if log.Remaining() != 0 {
		t.Error("nil log should have no remaining entries")
	}
}

func TestTraceLogNegativeServiceClamped(t *testing.T) {
	log := NewTraceLog([]TraceEntry{{ArrivalMinutes: 1, ServiceMinutes: -2}})
	_, svc := log.Next()
	if svc != 0 {
		t.Errorf("negative service clamped to %f, want 0", svc)
	}
}
