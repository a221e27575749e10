package visibility

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OverwriteChanges is the number of channels processed by hide and reveal, by outcome.
	OverwriteChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visibility_overwrite_changes_total",
			Help: "Total number of channels processed by hide and reveal",
		},
		[]string{"action", "outcome"},
	)
)
