package utils

import (
	"math"
	"testing"
)

func TestRandSourceDeterministicUnderSeed(t *testing.T) {
	a := NewRandSource(7)
	b := NewRandSource(7)
	for i := 0; i < 100; i++ {
		if a.Float64() != b.Float64() {
			t.Fatal("same seed must produce the same stream")
		}
	}
}

func TestIntBetweenInclusive(t *testing.T) {
	r := NewRandSource(1)
	seen := make(map[int]bool)
	for i := 0; i < 1000; i++ {
		v := r.IntBetween(2, 5)
		if v < 2 || v > 5 {
			t.Fatalf("IntBetween(2,5) = %d", v)
		}
		seen[v] = true
	}
	for v := 2; v <= 5; v++ {
		if !seen[v] {
			t.Errorf("value %d never drawn", v)
		}
	}
	if r.IntBetween(3, 3) != 3 {
		t.Error("degenerate range must return lo")
	}
	if r.IntBetween(5, 2) != 5 {
		t.Error("inverted range must return lo")
	}
}

func TestExpMeanMatchesMean(t *testing.T) {
	r := NewRandSource(11)
	sum := 0.0
	n := 20000
	for i := 0; i < n; i++ {
		sum += r.ExpMean(3)
	}
	if got := sum / float64(n); math.Abs(got-3) > 0.15 {
		t.Errorf("sample mean = %f, want about 3", got)
	}
	if r.ExpMean(0) != 0 || r.ExpMean(-1) != 0 {
		t.Error("non-positive mean must return 0")
	}
}

func TestBernoulliBoolExtremes(t *testing.T) {
	r := NewRandSource(3)
	for i := 0; i < 100; i++ {
		if r.BernoulliBool(0) {
			t.Fatal("p=0 must never be true")
		}
		if !r.BernoulliBool(1) {
			t.Fatal("p=1 must always be true")
		}
	}
}

func TestWeightedIndex(t *testing.T) {
	r := NewRandSource(5)
	counts := make([]int, 3)
	for i := 0; i < 10000; i++ {
		counts[r.WeightedIndex([]float64{1, 0, 3})]++
	}
	if counts[1] != 0 {
		t.Errorf("zero-weight index drawn %d times", counts[1])
	}
	if counts[2] < counts[0] {
		t.Errorf("weight-3 index drawn %d times, weight-1 %d times", counts[2], counts[0])
	}
	if r.WeightedIndex([]float64{0, 0}) != 0 {
		t.Error("all-zero weights must fall back to 0")
	}
}

func TestSafeDiv(t *testing.T) {
	if SafeDiv(10, 2) != 5 {
		t.Error("SafeDiv(10,2) != 5")
	}
	if SafeDiv(10, 0) != 0 {
		t.Error("SafeDiv by zero must be 0")
	}
}

func TestClampFloat64(t *testing.T) {
	if ClampFloat64(-0.5, 0, 1) != 0 {
		t.Error("below range must clamp to min")
	}
	if ClampFloat64(1.5, 0, 1) != 1 {
		t.Error("above range must clamp to max")
	}
	if ClampFloat64(0.25, 0, 1) != 0.25 {
		t.Error("in-range value must pass through")
	}
}

func TestGenerateRunIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateRunID()
		if id == "" {
			t.Fatal("empty run id")
		}
		if seen[id] {
			t.Fatalf("duplicate run id %s", id)
		}
		seen[id] = true
	}
}
