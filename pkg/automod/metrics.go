package automod

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AutomodActions is the number of messages removed, by verdict.
	AutomodActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "automod_actions_total",
			Help: "Total number of messages removed by automod",
		},
		[]string{"verdict"},
	)
)
