package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ConnectedChannels = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notes_ws_connected_channels",
			Help: "Current number of registered live channels",
		},
	)

	EventsBroadcastTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notes_ws_events_broadcast_total",
			Help: "Events handed to the broadcast engine",
		},
		[]string{"action"},
	)

	DeliveryFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notes_ws_delivery_failures_total",
			Help: "Per-channel deliveries that failed and dropped the channel",
		},
		[]string{"reason"},
	)
)
