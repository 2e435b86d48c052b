// Package metrics exposes Prometheus instrumentation for the sync layer.
//
// Collectors register on the default registry via promauto and are served by
// the debug listener at /metrics when one is configured.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Refresh Metrics
	RefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moviefan_refresh_total",
			Help: "Refresh attempts by stream and terminal state",
		},
		[]string{"stream", "state"},
	)

	RefreshDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moviefan_refresh_duration_seconds",
			Help:    "Wall time of a refresh from connectivity check to state dispatch",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stream"},
	)

	RefreshShared = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moviefan_refresh_shared_total",
			Help: "Refresh calls that joined an in-flight refresh instead of starting one",
		},
		[]string{"stream"},
	)

	// Reconciliation Metrics
	ReconciledRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moviefan_reconciled_records_total",
			Help: "Movie records processed during reconciliation",
		},
		[]string{"action"}, // created, updated, unchanged
	)

	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moviefan_store_errors_total",
			Help: "Local store failures by operation",
		},
		[]string{"operation"}, // find, commit
	)

	// Catalog Metrics
	CatalogRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moviefan_catalog_requests_total",
			Help: "Remote catalog requests by endpoint and result",
		},
		[]string{"endpoint", "result"}, // result: success, failure, rejected
	)

	CatalogLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moviefan_catalog_request_duration_seconds",
			Help:    "Remote catalog request latency",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "moviefan_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Connectivity Metrics
	Reachability = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "moviefan_reachability",
			Help: "Last observed reachability (0=unknown, 1=reachable, 2=unreachable)",
		},
	)

	// State Metrics
	StateSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "moviefan_state_subscribers",
			Help: "Current number of state holder subscribers",
		},
	)
)
