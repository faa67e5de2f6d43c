package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Movement outcome labels
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	// Movements counts stock movement operations by type and outcome
	Movements = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_ledger_movements_total",
		Help: "Total stock movement operations",
	}, []string{"type", "outcome"})

	// MovementDuration observes end-to-end movement latency
	MovementDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stock_ledger_movement_duration_seconds",
		Help:    "Duration of stock movement operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"type"})

	// VersionConflicts counts optimistic write conflicts detected by the mutator
	VersionConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_ledger_version_conflicts_total",
		Help: "Optimistic concurrency conflicts on conditional writes",
	})

	// RetriesExhausted counts adjustments that spent their whole retry budget
	RetriesExhausted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_ledger_retries_exhausted_total",
		Help: "Stock adjustments that exceeded the conflict retry budget",
	})
)
