// Package metrics defines and registers all custom Prometheus metrics for the
// user-management API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry at package
// initialisation through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "users"

// ── Authentication metrics ────────────────────────────────────────────────────

// AuthAttemptsTotal counts register/login/logout/authenticate outcomes.
// Labels:
//   - operation: "register", "login", "logout", "authenticate"
//   - result: "success" or a short failure reason (e.g. "invalid_credentials", "revoked")
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of authentication operations, by operation and result.",
	},
	[]string{"operation", "result"},
)

// AuthorizationDecisionsTotal counts policy decisions.
// Labels:
//   - action: "create", "view", "update", "delete", "assign role to"
//   - decision: "allow" or "deny"
var AuthorizationDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authorization_decisions_total",
		Help:      "Total number of authorization policy decisions.",
	},
	[]string{"action", "decision"},
)

// ── Lifecycle metrics ─────────────────────────────────────────────────────────

// LifecycleOperationsTotal counts user lifecycle operations.
// Labels:
//   - operation: "create", "update", "delete"
//   - result: "success", "conflict", "not_found", "error"
var LifecycleOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lifecycle_operations_total",
		Help:      "Total number of user lifecycle operations, by operation and result.",
	},
	[]string{"operation", "result"},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditQueueDepth tracks the current number of audit events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// AuditEventsTotal counts audit events by outcome.
// Label:
//   - result: "written", "failed", "dropped"
var AuditEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_total",
		Help:      "Total number of audit events, labelled by outcome (written/failed/dropped).",
	},
	[]string{"result"},
)
