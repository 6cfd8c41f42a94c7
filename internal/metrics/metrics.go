// Package metrics exposes the daemon's Prometheus instrumentation. Each
// Collector owns its own registry so multiple daemons can coexist in one
// process (tests do this).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/queueworks/station-sim/pkg/models"
)

// Collector translates engine snapshots into Prometheus series, labelled
// by run id.
type Collector struct {
	registry *prometheus.Registry

	simTime     *prometheus.GaugeVec
	arrivals    *prometheus.GaugeVec
	served      *prometheus.GaugeVec
	lost        *prometheus.GaugeVec
	blocked     *prometheus.GaugeVec
	queueLength *prometheus.GaugeVec
	orbitLength *prometheus.GaugeVec
	inSystem    *prometheus.GaugeVec
	servers     *prometheus.GaugeVec
	waitMean    *prometheus.GaugeVec
	utilization *prometheus.GaugeVec
	panicMode   *prometheus.GaugeVec

	ticks *prometheus.CounterVec
}

// New creates a collector with a fresh registry.
func New() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	gauge := func(name, help string) *prometheus.GaugeVec {
		return factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "station",
			Name:      name,
			Help:      help,
		}, []string{"run_id"})
	}

	return &Collector{
		registry:    reg,
		simTime:     gauge("sim_time_minutes", "Current simulation time in minutes."),
		arrivals:    gauge("arrivals_total", "Cumulative arrivals, orbit re-entries included."),
		served:      gauge("served_total", "Cumulative served customers."),
		lost:        gauge("lost_total", "Cumulative lost customers (balked, blocked, reneged)."),
		blocked:     gauge("blocked_total", "Cumulative capacity rejections."),
		queueLength: gauge("queue_length", "Customers currently waiting."),
		orbitLength: gauge("orbit_length", "Customers currently in the retrial orbit."),
		inSystem:    gauge("in_system", "Customers waiting or in service."),
		servers:     gauge("servers", "Servers currently in the pool."),
		waitMean:    gauge("wait_mean_minutes", "Running mean wait in minutes."),
		utilization: gauge("utilization_avg", "Average windowed server utilization."),
		panicMode:   gauge("panic_mode", "1 while the service-rate boost is active."),
		ticks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "station",
			Name:      "ticks_total",
			Help:      "Ticks executed per run.",
		}, []string{"run_id"}),
	}
}

// Registry returns the collector's registry for the /metrics handler.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Observe records one snapshot for a run.
func (c *Collector) Observe(runID string, snap models.Snapshot) {
	avgUtil := 0.0
	if n := len(snap.History); n > 0 {
		avgUtil = snap.History[n-1].AvgUtilization
	}
	panicVal := 0.0
	if snap.Panic {
		panicVal = 1
	}

	c.simTime.WithLabelValues(runID).Set(snap.SimTime)
	c.arrivals.WithLabelValues(runID).Set(float64(snap.Arrivals))
	c.served.WithLabelValues(runID).Set(float64(snap.Served))
	c.lost.WithLabelValues(runID).Set(float64(snap.Lost))
	c.blocked.WithLabelValues(runID).Set(float64(snap.Blocked))
	c.queueLength.WithLabelValues(runID).Set(float64(snap.QueueLength))
	c.orbitLength.WithLabelValues(runID).Set(float64(snap.OrbitLength))
	c.inSystem.WithLabelValues(runID).Set(float64(snap.InSystem))
	c.servers.WithLabelValues(runID).Set(float64(len(snap.Servers)))
	c.waitMean.WithLabelValues(runID).Set(snap.WaitMean)
	c.utilization.WithLabelValues(runID).Set(avgUtil)
	c.panicMode.WithLabelValues(runID).Set(panicVal)
	c.ticks.WithLabelValues(runID).Inc()
}

// Forget drops all series for a run that was deleted.
func (c *Collector) Forget(runID string) {
	labels := prometheus.Labels{"run_id": runID}
	c.simTime.Delete(labels)
	c.arrivals.Delete(labels)
	c.served.Delete(labels)
	c.lost.Delete(labels)
	c.blocked.Delete(labels)
	c.queueLength.Delete(labels)
	c.orbitLength.Delete(labels)
	c.inSystem.Delete(labels)
	c.servers.Delete(labels)
	c.waitMean.Delete(labels)
	c.utilization.Delete(labels)
	c.panicMode.Delete(labels)
	c.ticks.Delete(labels)
}
