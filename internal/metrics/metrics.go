package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ConnectionsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "parley_connections_open",
		Help: "Currently open websocket connections.",
	})
	BroadcastsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parley_broadcasts_total",
		Help: "Events fanned out to a room.",
	})
	DroppedConnections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parley_dropped_connections_total",
		Help: "Connections evicted after a failed send.",
	})
	MessagesStored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parley_messages_stored_total",
		Help: "Chat messages stored in room history.",
	})
)

// Handler exposes Prometheus metrics at /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
