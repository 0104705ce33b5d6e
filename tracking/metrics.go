package tracking

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tourismhub_tracking_events_emitted_total",
			Help: "Analytics events handed to the event store",
		},
		[]string{"event"},
	)

	eventsSuppressed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tourismhub_tracking_events_suppressed_total",
			Help: "Interactions not turned into events, by reason",
		},
		[]string{"event", "reason"},
	)

	eventWriteFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tourismhub_tracking_event_write_failures_total",
			Help: "Event store writes that failed",
		},
		[]string{"event"},
	)
)
