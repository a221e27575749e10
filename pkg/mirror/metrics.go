package mirror

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MirroredEvents is the number of message events handled, by event and outcome.
	MirroredEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mirror_events_total",
			Help: "Total number of message events handled by the moderation mirror",
		},
		[]string{"event", "outcome"},
	)
)
