package wsgateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	connectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ws_connections_active",
			Help: "Number of currently open WebSocket connections",
		},
	)

	connectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ws_connections_total",
			Help: "Total number of accepted WebSocket connections",
		},
	)

	authRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ws_auth_rejections_total",
			Help: "Total number of connections rejected during handshake authentication",
		},
	)

	eventsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ws_events_received_total",
			Help: "Total number of inbound events by name",
		},
		[]string{"event"},
	)

	eventsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ws_events_dispatched_total",
			Help: "Total number of outbound event deliveries by name",
		},
		[]string{"event"},
	)

	dispatchFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ws_dispatch_failures_total",
			Help: "Total number of per-connection delivery drops",
		},
	)

	persistFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ws_message_persist_failures_total",
			Help: "Total number of message persistence failures after dispatch",
		},
	)
)
