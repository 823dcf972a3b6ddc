// Package metrics defines and registers the custom Prometheus metrics of the
// GradeMind API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry on package init
// via promauto; HTTP request metrics are handled separately by echoprometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "grademind"

// ── Authentication metrics ────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials", "inactive" or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// RegistrationsTotal counts registration attempts.
// Label:
//   - result: "success", "conflict", "invalid" or "error"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by result.",
	},
	[]string{"result"},
)

// AuthenticationsTotal counts bearer-token checks.
// Label:
//   - result: "success", "expired", "invalid", "revoked", "user_not_found", "inactive" or "error"
var AuthenticationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authentications_total",
		Help:      "Total number of bearer-token authentications, by result.",
	},
	[]string{"result"},
)

// LogoutsTotal counts logout calls. Logout never fails from the caller's view,
// so the label records what actually happened.
// Label:
//   - result: "revoked", "not_found" or "error"
var LogoutsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logouts_total",
		Help:      "Total number of logout calls, by outcome.",
	},
	[]string{"result"},
)

// ── Session maintenance metrics ───────────────────────────────────────────────

// SessionsSweptTotal counts sessions deactivated by the expiry sweeper.
var SessionsSweptTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_swept_total",
		Help:      "Total number of expired sessions marked inactive by the sweeper.",
	},
)

// ActivityQueueDepth tracks pending last-activity updates per worker.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var ActivityQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "activity_queue_depth",
		Help:      "Current number of session activity updates pending in each worker channel.",
	},
	[]string{"worker_id"},
)

// ActivityDroppedTotal counts activity updates dropped because a worker channel was full.
var ActivityDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "activity_dropped_total",
		Help:      "Total number of session activity updates dropped due to backpressure.",
	},
)
