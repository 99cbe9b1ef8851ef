package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	connectionsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "connecta_relay_connections",
		Help: "Number of live relay connections",
	})

	eventsDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connecta_relay_events_delivered_total",
		Help: "Events queued to a connection, by event type",
	}, []string{"type"})

	eventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connecta_relay_events_dropped_total",
		Help: "Events dropped because a connection queue was full, by event type",
	}, []string{"type"})
)
