// Package telemetry exposes the daemon's Prometheus metrics and the HTTP
// surface that serves them alongside health and readiness probes.
package telemetry

import "github.com/prometheus/client_golang/prometheus"

// Query and cache Prometheus metrics.
var (
	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "holoindex",
			Name:      "queries_total",
			Help:      "Total queries by intent and terminal state",
		},
		[]string{"intent", "state"},
	)

	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "holoindex",
			Name:      "query_duration_seconds",
			Help:      "End-to-end query duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"intent"},
	)

	RoutineResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "holoindex",
			Name:      "routine_results_total",
			Help:      "Analysis routine outcomes",
		},
		[]string{"routine", "status"}, // status: "ok" / "degraded"
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "holoindex",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	BundleCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "holoindex",
			Name:      "bundle_cache_total",
			Help:      "Composed-bundle cache hits and misses",
		},
		[]string{"result"},
	)

	IndexedPoints = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "holoindex",
			Name:      "indexed_points",
			Help:      "Indexed points per collection",
		},
		[]string{"collection"},
	)

	IndexRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "holoindex",
			Name:      "index_runs_total",
			Help:      "Corpus indexing runs by outcome",
		},
		[]string{"status"}, // "ok" / "failed"
	)
)

var metricsRegistered bool

// Register registers all collectors with the default registry. Must be
// called once from main before serving metrics.
func Register() {
	if metricsRegistered {
		return
	}
	prometheus.MustRegister(QueriesTotal)
	prometheus.MustRegister(QueryDuration)
	prometheus.MustRegister(RoutineResultsTotal)
	prometheus.MustRegister(EmbeddingCacheTotal)
	prometheus.MustRegister(BundleCacheTotal)
	prometheus.MustRegister(IndexedPoints)
	prometheus.MustRegister(IndexRunsTotal)
	metricsRegistered = true
}

// ObserveQuery records one completed query cycle.
func ObserveQuery(intent, state string, seconds float64) {
	QueriesTotal.WithLabelValues(intent, state).Inc()
	QueryDuration.WithLabelValues(intent).Observe(seconds)
}

// ObserveRoutine records one routine outcome.
func ObserveRoutine(routine string, degraded bool) {
	status := "ok"
	if degraded {
		status = "degraded"
	}
	RoutineResultsTotal.WithLabelValues(routine, status).Inc()
}
