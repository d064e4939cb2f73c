package analysis

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "wowcheck"

var (
	graphqlRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graphql_requests_total",
			Help:      "GraphQL requests by query template and result.",
		},
		[]string{"query", "result"},
	)
	graphqlDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "graphql_request_duration_seconds",
			Help:      "GraphQL request latency by query template.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"query"},
	)
	cacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_cache_total",
			Help:      "Report query cache lookups by result.",
		},
		[]string{"result"},
	)

	// Lookups counts finished character lookups by state.
	Lookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Character lookups by final state.",
		},
		[]string{"state"},
	)
	// FetcherFailures counts auxiliary analyses that failed.
	FetcherFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetcher_failures_total",
			Help:      "Failed auxiliary analyses by kind.",
		},
		[]string{"kind"},
	)
	// QueueLength is the number of lookups waiting in the websocket queue.
	QueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_length",
			Help:      "Lookups waiting for a worker.",
		},
	)
)
