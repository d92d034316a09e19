// Package metrics provides Prometheus metrics for the chat engine and its HTTP/socket surfaces.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesSent tracks messages appended to any conversation.
	MessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pulse_messages_sent_total",
			Help: "Total number of messages sent",
		},
	)

	// MessagesDeleted tracks soft deletes.
	MessagesDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pulse_messages_deleted_total",
			Help: "Total number of messages soft-deleted",
		},
	)

	// ConversationsCreated tracks new conversations by kind.
	ConversationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_conversations_created_total",
			Help: "Total number of conversations created",
		},
		[]string{"kind"},
	)

	// ReactionToggles tracks the outcome of reaction toggles.
	ReactionToggles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_reaction_toggles_total",
			Help: "Total number of reaction toggles by outcome",
		},
		[]string{"outcome"},
	)

	// StoreErrors tracks failed store round-trips by operation.
	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_store_errors_total",
			Help: "Total number of storage failures by operation",
		},
		[]string{"op"},
	)

	// ActiveSockets tracks live socket.io connections on this instance.
	ActiveSockets = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pulse_active_sockets",
			Help: "Number of currently connected sockets",
		},
	)

	// HTTPRequests tracks HTTP requests by route and status.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPDuration tracks HTTP request latency.
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pulse_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"method", "route"},
	)
)

// RecordRequest records one finished HTTP request.
func RecordRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
