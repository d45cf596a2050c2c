// Package metrics holds the Prometheus collectors for search traffic.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Search Prometheus metrics.
var (
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "paramsearch",
			Name:      "searches_total",
			Help:      "Total number of searches translated",
		},
		[]string{"entity", "mode"}, // mode: "fields" / "free_text"
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "paramsearch",
			Name:      "search_duration_seconds",
			Help:      "Search duration in seconds, translation plus execution",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"entity", "backend"},
	)

	SearchErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "paramsearch",
			Name:      "search_errors_total",
			Help:      "Total search failures by error kind",
		},
		[]string{"entity", "kind"},
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "paramsearch",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
)

var registerOnce sync.Once

// Register adds every collector to the default registry. Must be called
// from main; repeated calls are no-ops.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(SearchesTotal, SearchDuration, SearchErrorsTotal, HTTPRequestsTotal)
	})
}

// ObserveSearch records one completed search.
func ObserveSearch(entity, mode, backend string, elapsed time.Duration) {
	SearchesTotal.WithLabelValues(entity, mode).Inc()
	SearchDuration.WithLabelValues(entity, backend).Observe(elapsed.Seconds())
}

// ObserveError records one failed search.
func ObserveError(entity, kind string) {
	SearchErrorsTotal.WithLabelValues(entity, kind).Inc()
}
