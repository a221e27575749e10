package ticketing

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TicketTransitions is the number of ticket state transitions.
	TicketTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketing_transitions_total",
			Help: "Total number of ticket state transitions",
		},
		[]string{"from", "to"},
	)

	// TicketFailures is the number of failed ticket operations.
	TicketFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketing_failures_total",
			Help: "Total number of failed ticket operations",
		},
		[]string{"operation"},
	)
)
