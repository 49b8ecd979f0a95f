// Package metrics defines and registers all custom Prometheus metrics for the
// marketplace service. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation and exposed by the router under /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "marketplace"

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionAttemptsTotal counts login and registration attempts.
// Labels:
//   - operation: "login" or "register"
//   - result: "success" or a short failure reason (e.g. "invalid_credentials", "user_exists")
var SessionAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_attempts_total",
		Help:      "Total number of login and registration attempts, by outcome.",
	},
	[]string{"operation", "result"},
)

// ProviderCallsTotal counts credential provider calls.
// Labels:
//   - provider: provider name (e.g. "local", "remote")
//   - result: "accepted", "passed" or "failed"
var ProviderCallsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "credential_provider_calls_total",
		Help:      "Total number of credential provider calls, by provider and result.",
	},
	[]string{"provider", "result"},
)

// ── Catalog metrics ───────────────────────────────────────────────────────────

// ListingsMutatedTotal counts successful catalog mutations.
// Labels:
//   - operation: "create" or "delete"
//   - kind: "item" or "music"
var ListingsMutatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "listings_mutated_total",
		Help:      "Total number of listings created or deleted, by kind.",
	},
	[]string{"operation", "kind"},
)

// QueryDuration measures one pass of the catalog query pipeline.
// Label:
//   - sort: the applied sort order
var QueryDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "catalog_query_duration_seconds",
		Help:      "Duration of catalog filtering and sorting.",
		Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1},
	},
	[]string{"sort"},
)

// QueryResults observes how many listings a query returned.
var QueryResults = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "catalog_query_results",
		Help:      "Number of listings returned per catalog query.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	},
)

// BackendErrorsTotal counts failed calls to the remote marketplace API.
// Label:
//   - operation: e.g. "login", "list", "create", "delete"
var BackendErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backend_errors_total",
		Help:      "Total number of failed calls to the remote marketplace API.",
	},
	[]string{"operation"},
)

// ── Event metrics ─────────────────────────────────────────────────────────────

// EventsPublishedTotal counts catalog events handed to the publisher.
// Labels:
//   - type: event type (e.g. "listing.created")
//   - result: "ok" or "error"
var EventsPublishedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_published_total",
		Help:      "Total number of catalog events published, by type and result.",
	},
	[]string{"type", "result"},
)

// EventsQueueDepth tracks the current number of events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var EventsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "events_queue_depth",
		Help:      "Current number of events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// NotificationsTotal counts toasts emitted, by level.
var NotificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Total number of user notifications emitted, by level.",
	},
	[]string{"level"},
)
