package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/queueworks/station-sim/pkg/models"
)

func TestObserveSetsSeries(t *testing.T) {
	c := New()
	snap := models.Snapshot{
		SimTime:     42.5,
		Arrivals:    10,
		Served:      7,
		Lost:        2,
		Blocked:     1,
		QueueLength: 3,
		InSystem:    5,
		Panic:       true,
		WaitMean:    1.25,
		Servers:     []models.ServerView{{ID: 1}, {ID: 2}},
	}
	c.Observe("run-1", snap)
	c.Observe("run-1", snap)

	if got := testutil.ToFloat64(c.simTime.WithLabelValues("run-1")); got != 42.5 {
		t.Errorf("sim_time = %v, want 42.5", got)
	}
	if got := testutil.ToFloat64(c.served.WithLabelValues("run-1")); got != 7 {
		t.Errorf("served = %v, want 7", got)
	}
	if got := testutil.ToFloat64(c.servers.WithLabelValues("run-1")); got != 2 {
		t.Errorf("servers = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.panicMode.WithLabelValues("run-1")); got != 1 {
		t.Errorf("panic_mode = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.ticks.WithLabelValues("run-1")); got != 2 {
		t.Errorf("ticks = %v, want 2 after two observations", got)
	}
}

func TestForgetDropsSeries(t *testing.T) {
	c := New()
	c.Observe("run-1", models.Snapshot{SimTime: 1})
	c.Observe("run-2", models.Snapshot{SimTime: 2})
	c.Forget("run-1")

	families, err := c.Registry().Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, fam := range families {
		for _, m := range fam.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetValue() == "run-1" {
					t.Fatalf("series %s still carries forgotten run", fam.GetName())
				}
			}
		}
	}
	if got := testutil.ToFloat64(c.simTime.WithLabelValues("run-2")); got != 2 {
		t.Errorf("surviving run series = %v, want 2", got)
	}
}

func TestCollectorsHaveIsolatedRegistries(t *testing.T) {
	a, b := New(), New()
	a.Observe("run-1", models.Snapshot{SimTime: 5})

	families, err := b.Registry().Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, fam := range families {
		if len(fam.GetMetric()) > 0 {
			t.Fatalf("fresh collector already has series in %s", fam.GetName())
		}
	}
}
