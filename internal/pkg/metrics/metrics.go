// Package metrics defines and registers all custom Prometheus metrics for the
// provenance service. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry through promauto
// when the package is first imported.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "provenance"

// ── Ledger metrics ────────────────────────────────────────────────────────────

// LedgerTransactionsTotal counts ledger interactions.
// Labels:
//   - method: contract method (registerProduct, transferProduct, verifyProduct)
//   - result: "ok", "reverted", "network", "rejected", "pending"
var LedgerTransactionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ledger_transactions_total",
		Help:      "Total number of ledger calls and transactions, by method and result.",
	},
	[]string{"method", "result"},
)

// LedgerConfirmationDuration measures submit-to-receipt latency.
var LedgerConfirmationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "ledger_confirmation_seconds",
		Help:      "Time from transaction submission until a receipt is observed.",
		Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
	},
	[]string{"method"},
)

// ── Flow metrics ──────────────────────────────────────────────────────────────

// FlowsTotal counts coordinator flows.
// Labels:
//   - flow: "register", "transfer", "verify"
//   - outcome: "ok" or a short failure reason (e.g. "conflict", "forbidden")
var FlowsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "flows_total",
		Help:      "Total number of provenance flows, by flow and outcome.",
	},
	[]string{"flow", "outcome"},
)

// ── Artifact metrics ──────────────────────────────────────────────────────────

// ArtifactsTotal counts artifact generation attempts.
// Label:
//   - result: "ok", "failed", "retried"
var ArtifactsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "artifacts_total",
		Help:      "Total number of verification artifact generation attempts.",
	},
	[]string{"result"},
)

// ArtifactQueueDepth tracks the number of retries waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var ArtifactQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "artifact_queue_depth",
		Help:      "Current number of artifact retries pending in each worker channel.",
	},
	[]string{"worker_id"},
)
