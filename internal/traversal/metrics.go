package traversal

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// traversalTotal counts traversals by outcome
	traversalTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "starburst_traversal_total",
		Help: "Total traversals by result (ok, truncated, timeout, error)",
	}, []string{"result"})

	// traversalDuration tracks wall-clock time of a traversal
	traversalDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "starburst_traversal_duration_seconds",
		Help:    "Traversal duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	})

	// traversalNodes tracks emitted path nodes per traversal
	traversalNodes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "starburst_traversal_nodes",
		Help:    "Number of path nodes emitted per traversal",
		Buckets: []float64{0, 10, 50, 100, 250, 500, 1000, 1500, 3000},
	})

	// ringIssues tracks classified issues per ring
	ringIssues = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "starburst_ring_issues",
		Help:    "Classified issues per ring",
		Buckets: []float64{0, 1, 5, 10, 50, 100, 500, 1000},
	}, []string{"hop"})
)
