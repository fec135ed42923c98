package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ClassifierMetrics records classification gateway calls.
type ClassifierMetrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewClassifierMetrics registers the classifier metrics on the provided registerer.
func NewClassifierMetrics(reg prometheus.Registerer) *ClassifierMetrics {
	if reg == nil {
		return &ClassifierMetrics{}
	}
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "classifier_calls_total",
		Help: "Classification gateway calls by source and outcome.",
	}, []string{"source", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "classifier_duration_seconds",
		Help:    "Duration of classification gateway calls in seconds.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
	}, []string{"source"})
	reg.MustRegister(calls, duration)
	return &ClassifierMetrics{calls: calls, duration: duration}
}

// ObserveClassification records one gateway call.
func (c *ClassifierMetrics) ObserveClassification(source, outcome string, duration time.Duration) {
	if c == nil || c.calls == nil {
		return
	}
	source = normalizeLabel(source)
	c.calls.WithLabelValues(source, normalizeLabel(outcome)).Inc()
	c.duration.WithLabelValues(source).Observe(duration.Seconds())
}
