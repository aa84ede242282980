// Package metrics defines and registers the custom Prometheus metrics of the
// user admin apps. It is the single source of truth for metric names,
// labels and help strings. Request-level metrics come from echoprometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "useradmin"

// ── Authentication metrics ────────────────────────────────────────────────────

// LoginAttemptsTotal counts login form submissions.
// Label:
//   - result: "success", "rejected" or "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// LogoutsTotal counts explicit logouts.
var LogoutsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logouts_total",
		Help:      "Total number of logouts.",
	},
)

// AuthorizationDecisionsTotal counts policy outcomes.
// Label:
//   - decision: "allow", "require_login" or "deny"
var AuthorizationDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authorization_decisions_total",
		Help:      "Total number of authorization policy decisions, by outcome.",
	},
	[]string{"decision"},
)

// ── CRUD metrics ──────────────────────────────────────────────────────────────

// UserWritesTotal counts successful writes.
// Labels:
//   - app: "admin" or "directory"
//   - op: "create", "update" or "delete"
var UserWritesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "user_writes_total",
		Help:      "Total number of successful user writes, by app and operation.",
	},
	[]string{"app", "op"},
)
