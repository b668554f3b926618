// Package metrics defines and registers the custom Prometheus metrics of the
// account service. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation through promauto.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/comanda/account-service/internal/core/domain"
)

const namespace = "comanda"

// ── Authentication ────────────────────────────────────────────────────────────

// AuthAttemptsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials" or "error"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// SessionsTotal counts session lifecycle events.
// Label:
//   - event: "started" or "ended"
var SessionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_total",
		Help:      "Total number of sessions started and ended.",
	},
	[]string{"event"},
)

// ── Account management ────────────────────────────────────────────────────────

// AccountOperationsTotal counts registration and management operations.
// Labels:
//   - operation: "register", "create", "update", "deactivate", "activate", "remove", "list", "list_customers"
//   - result: see Result
var AccountOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "account_operations_total",
		Help:      "Total number of account operations, by operation and result.",
	},
	[]string{"operation", "result"},
)

// Result maps an operation error to a low-cardinality label value.
func Result(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrDuplicateEmail):
		return "duplicate_email"
	case errors.Is(err, domain.ErrUserNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidRole):
		return "invalid_role"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrSelfActionForbidden):
		return "self_action_forbidden"
	default:
		return "error"
	}
}

// ObserveAccountOperation records the outcome of an account operation.
func ObserveAccountOperation(operation string, err error) {
	AccountOperationsTotal.WithLabelValues(operation, Result(err)).Inc()
}
