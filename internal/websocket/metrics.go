package websocket

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Handshake results.
const (
	HandshakeAccepted = "accepted"
	HandshakeRejected = "rejected"
)

// Inbound event outcomes.
const (
	OutcomeHandled   = "handled"
	OutcomeDropped   = "dropped"
	OutcomeFailed    = "failed"
	OutcomeIgnored   = "ignored"
	OutcomeMalformed = "malformed"
)

// Metrics holds the realtime engine's Prometheus collectors.
type Metrics struct {
	Connections      prometheus.Gauge
	OnlineUsers      prometheus.Gauge
	Handshakes       *prometheus.CounterVec
	InboundEvents    *prometheus.CounterVec
	Deliveries       *prometheus.CounterVec
	DroppedDelivery  *prometheus.CounterVec
	NotificationsOut *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// Panics if registration fails (following prometheus convention).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "realtime_connections",
			Help: "Number of authenticated websocket connections",
		}),
		OnlineUsers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "realtime_online_users",
			Help: "Number of users with at least one live connection",
		}),
		Handshakes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "realtime_handshakes_total",
			Help: "Websocket handshakes by result",
		}, []string{"result"}),
		InboundEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "realtime_inbound_events_total",
			Help: "Inbound client events by event name and outcome",
		}, []string{"event", "outcome"}),
		Deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "realtime_deliveries_total",
			Help: "Frames queued to connections by event name",
		}, []string{"event"}),
		DroppedDelivery: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "realtime_deliveries_dropped_total",
			Help: "Frames that could not be queued because the connection was closed or full",
		}, []string{"event"}),
		NotificationsOut: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "realtime_notifications_total",
			Help: "Notification triggers by kind and outcome",
		}, []string{"kind", "outcome"}),
	}

	reg.MustRegister(
		m.Connections,
		m.OnlineUsers,
		m.Handshakes,
		m.InboundEvents,
		m.Deliveries,
		m.DroppedDelivery,
		m.NotificationsOut,
	)
	return m
}
