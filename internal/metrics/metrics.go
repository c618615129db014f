// Package metrics exposes Prometheus collectors for wallet activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ledger_wallet"

var (
	FoundryLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "foundry_lookups_total",
			Help:      "Foundry output lookups by result (found, not_found, error).",
		},
		[]string{"result"},
	)
	SyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Duration of account syncs.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	OutputsFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outputs_fetched_total",
			Help:      "Outputs fetched from the node during sync.",
		},
	)
	TransactionsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_submitted_total",
			Help:      "Transactions submitted to the node, reattachments included.",
		},
	)
	RetryAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inclusion_retry_attempts_total",
			Help:      "Inclusion state polls made while waiting for confirmation.",
		},
	)
	SignaturesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signatures_created_total",
			Help:      "Ed25519 signatures produced by the secret manager.",
		},
	)
	NodeRequests = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "node_request_duration_seconds",
			Help:      "Node API request latency by endpoint.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)
	NodeRequestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_request_errors_total",
			Help:      "Failed node API requests by endpoint.",
		},
		[]string{"endpoint"},
	)
	SnapshotWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "account_snapshot_writes_total",
			Help:      "Account snapshot saves by outcome (written, unchanged).",
		},
		[]string{"outcome"},
	)
)
