// Package metrics provides observability for the identity module.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for identity operations.
type Metrics struct {
	// Provisioning outcomes by terminal saga state
	ProvisionOutcome *prometheus.CounterVec

	// Compensation attempts by result
	Compensations *prometheus.CounterVec

	// Ownership checks that ended in a denial
	OwnershipDenials prometheus.Counter

	// Attribute sync outcomes
	SyncOutcome *prometheus.CounterVec

	// Full provisioning latency including compensation
	ProvisionLatency prometheus.Histogram
}

// New creates a Metrics instance with all identity collectors registered.
func New() *Metrics {
	return &Metrics{
		ProvisionOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "accountd_provision_outcomes_total",
			Help: "Total provisioning attempts by terminal saga state",
		}, []string{"state"}),

		Compensations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "accountd_compensations_total",
			Help: "Total compensating deletes by result",
		}, []string{"result"}), // result: "ok", "failed"

		OwnershipDenials: promauto.NewCounter(prometheus.CounterOpts{
			Name: "accountd_ownership_denials_total",
			Help: "Total requests denied by the ownership guard",
		}),

		SyncOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "accountd_attribute_sync_outcomes_total",
			Help: "Total attribute sync attempts by outcome",
		}, []string{"outcome"}), // outcome: "success", "credential_failed", "profile_failed"

		ProvisionLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "accountd_provision_duration_seconds",
			Help:    "Duration of full provisioning including compensation",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

// IncrementProvisionOutcome records a terminal saga state.
func (m *Metrics) IncrementProvisionOutcome(state string) {
	if m != nil {
		m.ProvisionOutcome.WithLabelValues(state).Inc()
	}
}

// IncrementCompensation records a compensation attempt.
func (m *Metrics) IncrementCompensation(result string) {
	if m != nil {
		m.Compensations.WithLabelValues(result).Inc()
	}
}

// IncrementOwnershipDenial records an ownership guard denial.
func (m *Metrics) IncrementOwnershipDenial() {
	if m != nil {
		m.OwnershipDenials.Inc()
	}
}

// IncrementSyncOutcome records an attribute sync outcome.
func (m *Metrics) IncrementSyncOutcome(outcome string) {
	if m != nil {
		m.SyncOutcome.WithLabelValues(outcome).Inc()
	}
}

// ObserveProvisionLatency records the total provisioning duration.
func (m *Metrics) ObserveProvisionLatency(d time.Duration) {
	if m != nil {
		m.ProvisionLatency.Observe(d.Seconds())
	}
}
