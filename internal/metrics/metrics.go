// Package metrics exposes Prometheus instruments for the custody operations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Operation outcomes
const (
	OutcomeOK            = "ok"
	OutcomeAbsent        = "absent"
	OutcomeMismatch      = "mismatch"
	OutcomeInvalidInput  = "invalid_input"
	OutcomeAlreadyExists = "already_exists"
	OutcomeStoreError    = "store_unavailable"
	OutcomeCryptoError   = "crypto_failure"
)

// Metrics holds the service instruments
type Metrics struct {
	operations *prometheus.CounterVec
	generation prometheus.Histogram
}

// New creates the instruments and registers them with reg.
// A nil registerer leaves them unregistered.
func New(reg prometheus.Registerer, version string) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linewallet_custody_operations_total",
				Help: "Custody operations by operation and outcome.",
			},
			[]string{"operation", "outcome"}),
		generation: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name: "linewallet_wallet_generation_seconds",
				Help: "Time spent generating and encrypting a wallet.",
				// scrypt at standard strength takes around a second
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8},
			}),
	}

	if reg != nil {
		buildInfo := prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "linewallet_build_info",
				Help: "Version of the running service.",
			},
			[]string{"version"})
		buildInfo.WithLabelValues(version).Set(1)

		reg.MustRegister(m.operations, m.generation, buildInfo)
	}

	return m
}

// ObserveOperation counts one operation outcome. Safe on a nil receiver.
func (m *Metrics) ObserveOperation(operation, outcome string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
}

// ObserveGeneration records the duration of one wallet generation
func (m *Metrics) ObserveGeneration(d time.Duration) {
	if m == nil {
		return
	}
	m.generation.Observe(d.Seconds())
}
