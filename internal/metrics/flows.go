// Package metrics defines the Prometheus collectors for the settlement engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// FlowMetrics records settlement computation metadata. A nil receiver or a
// FlowMetrics built without a registerer is a no-op, so wiring is optional.
type FlowMetrics struct {
	duration   prometheus.Histogram
	success    prometheus.Counter
	failure    prometheus.Counter
	flows      prometheus.Gauge
	degenerate prometheus.Gauge
}

// NewFlowMetrics registers the settlement metrics on the provided registerer.
func NewFlowMetrics(reg prometheus.Registerer) *FlowMetrics {
	if reg == nil {
		return &FlowMetrics{}
	}
	m := &FlowMetrics{
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "settlement_compute_duration_seconds",
			Help:    "Duration of settlement computations in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		success: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "settlement_compute_success_total",
			Help: "Successful settlement computations.",
		}),
		failure: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "settlement_compute_failure_total",
			Help: "Failed settlement computations.",
		}),
		flows: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "settlement_flows",
			Help: "Number of flows emitted by the most recent computation.",
		}),
		degenerate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "settlement_degenerate_events",
			Help: "Events skipped as degenerate in the most recent computation.",
		}),
	}
	reg.MustRegister(m.duration, m.success, m.failure, m.flows, m.degenerate)
	return m
}

// ObserveCompute records a successful computation.
func (m *FlowMetrics) ObserveCompute(d time.Duration, flowCount, degenerateCount int) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.Observe(d.Seconds())
	m.success.Inc()
	m.flows.Set(float64(flowCount))
	m.degenerate.Set(float64(degenerateCount))
}

// IncFailure records a failed computation.
func (m *FlowMetrics) IncFailure() {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.Inc()
}
