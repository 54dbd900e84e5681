// Package metrics holds the Prometheus collectors for the realtime view and
// its surfaces. Collectors register on the default registry and are exposed
// by the API at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Message outcomes for MessagesTotal.
const (
	OutcomeAdded    = "added"
	OutcomeUpdated  = "updated"
	OutcomeRejected = "rejected"
)

var (
	MessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dhtrealtime_messages_total",
		Help: "Telemetry messages handled, by outcome",
	}, []string{"outcome"})

	RejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dhtrealtime_rejections_total",
		Help: "Rejected telemetry messages, by reason",
	}, []string{"reason"})

	DevicesTracked = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dhtrealtime_devices_tracked",
		Help: "Distinct devices in the latest-reading table",
	})

	SelectionChangesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dhtrealtime_selection_changes_total",
		Help: "Changes to the focused device or its snapshot",
	})

	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dhtrealtime_websocket_clients",
		Help: "Connected websocket clients",
	})

	BroadcastsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dhtrealtime_broadcasts_total",
		Help: "Websocket events broadcast, by channel",
	}, []string{"channel"})
)

// ObserveMessage records one accepted message.
func ObserveMessage(added bool, devices int) {
	if added {
		MessagesTotal.WithLabelValues(OutcomeAdded).Inc()
	} else {
		MessagesTotal.WithLabelValues(OutcomeUpdated).Inc()
	}
	DevicesTracked.Set(float64(devices))
}

// ObserveRejection records one rejected message with a short reason label.
func ObserveRejection(reason string) {
	MessagesTotal.WithLabelValues(OutcomeRejected).Inc()
	RejectionsTotal.WithLabelValues(reason).Inc()
}
