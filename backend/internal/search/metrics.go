package search

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	searchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forum_discussion_search_duration_seconds",
			Help:    "Discussion search duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"sort", "fulltext"},
	)

	searchResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "forum_discussion_search_results",
			Help:    "Number of discussions returned per search page",
			Buckets: prometheus.LinearBuckets(0, 10, 10),
		},
	)

	gambitsApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forum_search_gambits_applied_total",
			Help: "Query tokens handled by each gambit",
		},
		[]string{"gambit"},
	)
)
