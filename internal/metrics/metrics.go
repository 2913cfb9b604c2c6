// Package metrics exposes Prometheus collectors for the sync layer.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "statdeck_fetch_duration_seconds",
			Help:    "Duration of backend fetches in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30},
		},
		[]string{"kind", "outcome"},
	)

	FetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statdeck_fetch_errors_total",
			Help: "Backend fetch failures by error kind",
		},
		[]string{"kind", "error"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statdeck_cache_lookups_total",
			Help: "Cache lookups by result (hit, stale, miss, corrupt)",
		},
		[]string{"kind", "result"},
	)

	SyncDiscarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statdeck_sync_discarded_total",
			Help: "Fetch results dropped by the coordinator",
		},
		[]string{"kind", "reason"},
	)

	InvalidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statdeck_invalidation_failures_total",
			Help: "Failed backend cache-clear calls (best effort)",
		},
		[]string{"kind"},
	)

	BreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "statdeck_backend_breaker_state",
			Help: "Backend circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
	)
)

// Cache lookup results.
const (
	CacheHit     = "hit"
	CacheStale   = "stale"
	CacheMiss    = "miss"
	CacheCorrupt = "corrupt"
)

// RecordFetch observes one fetch. errKind is empty on success.
func RecordFetch(kind string, d time.Duration, errKind string) {
	outcome := "success"
	if errKind != "" {
		outcome = "failure"
		FetchErrors.WithLabelValues(kind, errKind).Inc()
	}
	FetchDuration.WithLabelValues(kind, outcome).Observe(d.Seconds())
}

// RecordCacheLookup counts one cache lookup.
func RecordCacheLookup(kind, result string) {
	CacheLookups.WithLabelValues(kind, result).Inc()
}

// RecordDiscard counts a fetch result the coordinator refused to apply.
func RecordDiscard(kind, reason string) {
	SyncDiscarded.WithLabelValues(kind, reason).Inc()
}
