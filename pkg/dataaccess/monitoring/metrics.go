// Package monitoring holds the metrics recorded by the record stores.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MongoLatency is the duration of Mongo queries.
	MongoLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "yupil_store_mongo_latency_seconds",
			Help:    "Duration of Mongo queries",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		},
		[]string{"dal", "query", "database", "collection"},
	)

	// MongoTotalRequests is the total number of Mongo requests.
	MongoTotalRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yupil_store_mongo_requests_total",
			Help: "Total number of Mongo requests",
		},
		[]string{"dal", "query", "database", "collection"},
	)

	// MemoryTotalRequests counts requests served by the in-memory store used when no database is set up.
	MemoryTotalRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yupil_store_memory_requests_total",
			Help: "Total number of requests to the in-memory store",
		},
		[]string{"query"},
	)
)
