// Package metrics defines and registers all custom Prometheus metrics of the
// service request API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "service_requests"

// ── Request lifecycle ─────────────────────────────────────────────────────────

// RequestsCreatedTotal counts newly created requests.
// Label:
//   - photo: "yes" when a before photo was attached, otherwise "no"
var RequestsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "requests_created_total",
		Help:      "Total number of service requests created.",
	},
	[]string{"photo"},
)

// TransitionsTotal counts applied lifecycle transitions.
// Labels:
//   - action: assign, start, complete, confirm or reject
//   - to: the resulting status
var TransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transitions_total",
		Help:      "Total number of lifecycle transitions applied.",
	},
	[]string{"action", "to"},
)

// TransitionErrorsTotal counts rejected lifecycle actions.
// Label:
//   - reason: "not_found", "invalid_input", "invalid_transition" or "storage"
var TransitionErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transition_errors_total",
		Help:      "Total number of lifecycle actions rejected, by reason.",
	},
	[]string{"reason"},
)

// IdempotencyTotal counts idempotency key decisions on request creation.
// Label:
//   - result: "hit" (replayed, no new request) or "miss"
var IdempotencyTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "idempotency_total",
		Help:      "Total number of idempotency checks, labelled by result (hit/miss).",
	},
	[]string{"result"},
)

// ── Notifications ─────────────────────────────────────────────────────────────

// NotificationsTotal counts notification delivery outcomes.
// Label:
//   - result: "delivered", "failed" or "dropped" (queue full)
var NotificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Total number of lifecycle notifications, by delivery result.",
	},
	[]string{"result"},
)

// NotificationQueueDepth tracks the events waiting in each dispatcher worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var NotificationQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notification_queue_depth",
		Help:      "Current number of events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// NotificationDuration measures how long a single delivery takes.
var NotificationDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "notification_duration_seconds",
		Help:      "Duration of one notification delivery.",
		Buckets:   prometheus.DefBuckets,
	},
)

// ── Media ─────────────────────────────────────────────────────────────────────

// MediaUploadBytes observes the size of stored photos.
// Label:
//   - kind: "before" or "after"
var MediaUploadBytes = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "media_upload_bytes",
		Help:      "Size of uploaded photos in bytes.",
		Buckets:   prometheus.ExponentialBuckets(16*1024, 4, 7), // 16KiB … 64MiB
	},
	[]string{"kind"},
)
