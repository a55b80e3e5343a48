// Package metrics provides Prometheus metrics for entry submissions and
// record store operations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submission outcomes.
const (
	OutcomeSaved      = "saved"
	OutcomeInvalid    = "invalid"
	OutcomeDisabled   = "disabled"
	OutcomeStoreError = "store_error"
)

// Metrics groups the collectors registered by New.
type Metrics struct {
	Submissions        *prometheus.CounterVec
	DuplicatesDetected prometheus.Counter
	StoreErrors        *prometheus.CounterVec
	StoreDuration      *prometheus.HistogramVec
	ScansTotal         *prometheus.CounterVec
}

// New registers the collectors with reg. Pass prometheus.NewRegistry() in
// tests to keep registrations isolated.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Submissions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockparts_submissions_total",
				Help: "Entry form submissions by outcome",
			},
			[]string{"outcome"},
		),
		DuplicatesDetected: f.NewCounter(
			prometheus.CounterOpts{
				Name: "stockparts_duplicates_total",
				Help: "Saved entries whose SKU had been entered before",
			},
		),
		StoreErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockparts_store_errors_total",
				Help: "Record store operation failures",
			},
			[]string{"operation"},
		),
		StoreDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockparts_store_operation_duration_seconds",
				Help:    "Record store operation latency",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"operation"},
		),
		ScansTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockparts_scans_total",
				Help: "Barcode decode attempts by result",
			},
			[]string{"result"},
		),
	}
}

// ObserveStore records the latency of one store operation and counts it
// as an error when err is non-nil.
func (m *Metrics) ObserveStore(operation string, start time.Time, err error) {
	m.StoreDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		m.StoreErrors.WithLabelValues(operation).Inc()
	}
}
