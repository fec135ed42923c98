package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics records table persistence timings and failures.
type StoreMetrics struct {
	duration *prometheus.HistogramVec
	failure  *prometheus.CounterVec
}

// NewStoreMetrics registers the table persistence metrics on the provided registerer.
func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	if reg == nil {
		return &StoreMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "table_persist_duration_seconds",
		Help:    "Duration of whole-table saves in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"table"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "table_persist_failures_total",
		Help: "Failed whole-table saves.",
	}, []string{"table"})
	reg.MustRegister(duration, failure)
	return &StoreMetrics{duration: duration, failure: failure}
}

// ObservePersist records one save of the named table.
func (s *StoreMetrics) ObservePersist(table string, duration time.Duration, err error) {
	if s == nil || s.duration == nil {
		return
	}
	label := normalizeLabel(table)
	s.duration.WithLabelValues(label).Observe(duration.Seconds())
	if err != nil {
		s.failure.WithLabelValues(label).Inc()
	}
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
