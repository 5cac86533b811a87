// Package metrics registers Prometheus collectors for custody operations.
//
// Importing this package registers the collectors; the API router exposes
// them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result labels for custody operation counters.
const (
	ResultOK       = "ok"
	ResultDenied   = "denied"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

var (
	// TransfersTotal counts transfer attempts by outcome.
	TransfersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "custodia_transfers_total",
			Help: "Total number of ownership transfer attempts",
		},
		[]string{"result"},
	)

	// RevokesTotal counts revoke attempts by outcome.
	RevokesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "custodia_revokes_total",
			Help: "Total number of ownership revoke attempts",
		},
		[]string{"result"},
	)

	// LedgerEntriesTotal counts committed ledger entries by action.
	LedgerEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "custodia_ledger_entries_total",
			Help: "Total number of ledger entries appended",
		},
		[]string{"action"},
	)

	// HTTPRequestsTotal counts HTTP requests by method, route, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "custodia_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration observes HTTP request latency by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "custodia_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)
