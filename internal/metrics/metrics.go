// Package metrics holds the Prometheus instrumentation for the poller.
//
// Collectors are created per [Metrics] instance and registered on the
// registerer handed to [New], so tests and embedding applications never touch
// the global registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for the reads counter.
const (
	OutcomeApplied       = "applied"
	OutcomeDroppedStatus = "dropped_status"
	OutcomeFailed        = "failed"
)

// Metrics records tick and read activity.
//
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	ticks    prometheus.Counter
	reads    *prometheus.CounterVec
	duration prometheus.Histogram
	inFlight prometheus.Gauge
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sensorboard_ticks_total",
			Help: "Number of poll ticks fired.",
		}),
		reads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sensorboard_reads_total",
				Help: "Completed sensor reads by outcome.",
			},
			[]string{"outcome"},
		),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sensorboard_read_duration_seconds",
			Help:    "Latency of sensor read requests.",
			Buckets: prometheus.DefBuckets,
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sensorboard_reads_in_flight",
			Help: "Sensor read requests issued but not yet completed.",
		}),
	}
	reg.MustRegister(m.ticks, m.reads, m.duration, m.inFlight)

	// pre-create outcome series so they export as zero before the first read
	for _, o := range []string{OutcomeApplied, OutcomeDroppedStatus, OutcomeFailed} {
		m.reads.WithLabelValues(o)
	}
	return m
}

// TickStarted counts a timer tick. Synchronous reads are not ticks.
func (m *Metrics) TickStarted() {
	if m == nil {
		return
	}
	m.ticks.Inc()
}

// ReadStarted marks one request in flight.
func (m *Metrics) ReadStarted() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

// ReadCompleted records the end of one request.
func (m *Metrics) ReadCompleted(outcome string, latency time.Duration) {
	if m == nil {
		return
	}
	m.inFlight.Dec()
	m.reads.WithLabelValues(outcome).Inc()
	m.duration.Observe(latency.Seconds())
}
