package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Set holds the hub's own health counters, exposed on /metrics.
type Set struct {
	ConnectionsOpen prometheus.Gauge
	EventsDelivered *prometheus.CounterVec
	DeliveryMisses  prometheus.Counter
	MessagesStored  prometheus.Counter
}

func New(reg prometheus.Registerer) *Set {
	factory := promauto.With(reg)

	return &Set{
		ConnectionsOpen: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "chat",
			Name:      "connections_open",
			Help:      "WebSocket connections currently open on this instance.",
		}),
		EventsDelivered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chat",
			Name:      "events_delivered_total",
			Help:      "Live events enqueued to online recipients.",
		}, []string{"event"}),
		DeliveryMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "chat",
			Name:      "delivery_misses_total",
			Help:      "Live deliveries skipped because the recipient was offline or slow.",
		}),
		MessagesStored: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "chat",
			Name:      "messages_stored_total",
			Help:      "Messages durably written to the store.",
		}),
	}
}
