// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

// Package metrics holds the Prometheus collectors for the gateway. All
// collectors are registered on the default registry through promauto and
// exposed on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Channel labels for published events.
const (
	ChannelSocket = "socket"
	ChannelSSE    = "sse"
)

var (
	// Socket gateway
	RTConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chairside_rt_connections",
			Help: "Current number of authenticated realtime socket connections",
		},
	)

	RTRooms = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chairside_rt_rooms",
			Help: "Current number of non-empty rooms",
		},
	)

	RTAuthFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chairside_rt_auth_failures_total",
			Help: "Socket authentication failures by reason",
		},
		[]string{"reason"}, // NO_TOKEN, INVALID_TOKEN
	)

	RTFramesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chairside_rt_frames_received_total",
			Help: "Client frames received by event name",
		},
		[]string{"event"},
	)

	RTFramesRateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chairside_rt_frames_rate_limited_total",
			Help: "Client frames rejected by the per-connection rate limit",
		},
	)

	RTDeliveries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chairside_rt_deliveries_total",
			Help: "Server events queued to socket connections",
		},
	)

	RTDeliveriesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chairside_rt_deliveries_dropped_total",
			Help: "Events not delivered to a socket connection",
		},
		[]string{"reason"}, // send_buffer_full, hub_queue_full
	)

	RTErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chairside_rt_errors_total",
			Help: "Socket transport errors",
		},
		[]string{"error_type"},
	)

	// Publisher
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chairside_events_published_total",
			Help: "Domain events published by event name and channel",
		},
		[]string{"event", "channel"},
	)

	// message:send
	MessageSendTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chairside_message_send_total",
			Help: "message:send outcomes",
		},
		[]string{"result"}, // ok, invalid_payload, server_error, rate_limited
	)

	// SSE
	SSESubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chairside_sse_subscribers",
			Help: "Current number of SSE subscribers",
		},
	)

	SSEStaleRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chairside_sse_stale_removed_total",
			Help: "SSE subscriptions removed by the cleanup pass",
		},
	)

	// Event bus
	EventBusReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chairside_eventbus_received_total",
			Help: "Envelopes received from NATS by outcome",
		},
		[]string{"result"}, // published, malformed, failed
	)

	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordPublish counts one published event on one channel.
func RecordPublish(event, channel string) {
	EventsPublished.WithLabelValues(event, channel).Inc()
}

// RecordAuthFailure counts a rejected socket by wire reason.
func RecordAuthFailure(reason string) {
	RTAuthFailures.WithLabelValues(reason).Inc()
}

// RecordDrop counts an undelivered socket event.
func RecordDrop(reason string) {
	RTDeliveriesDropped.WithLabelValues(reason).Inc()
}

// RecordMessageSend counts a message:send outcome.
func RecordMessageSend(result string) {
	MessageSendTotal.WithLabelValues(result).Inc()
}
