/*
Package metrics defines the Prometheus instruments exported by the relay.
*/
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the chat relay.
type Metrics struct {
	ConnectionsTotal  prometheus.Counter
	ActiveConnections prometheus.Gauge
	JoinedUsers       prometheus.Gauge
	EventsTotal       *prometheus.CounterVec
	RejectedTotal     *prometheus.CounterVec
	DroppedFrames     prometheus.Counter
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ConnectionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "chatrelay_connections_total",
			Help: "Total websocket connections accepted",
		}),
		ActiveConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "chatrelay_active_connections",
			Help: "Current open websocket connections",
		}),
		JoinedUsers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "chatrelay_joined_users",
			Help: "Users currently registered in a room",
		}),
		EventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chatrelay_events_total",
			Help: "Client events handled successfully",
		}, []string{"event"}),
		RejectedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chatrelay_rejected_total",
			Help: "Client events rejected, by error code",
		}, []string{"code"}),
		DroppedFrames: factory.NewCounter(prometheus.CounterOpts{
			Name: "chatrelay_dropped_frames_total",
			Help: "Outbound frames dropped because a client send queue was full",
		}),
	}
}
