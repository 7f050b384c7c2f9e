package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the API.
	Registry = prometheus.NewRegistry()
	// HTTPRequests counts requests by method, path, and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds.
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// OptimizeRuns counts optimization runs by trigger and outcome.
	OptimizeRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "optimize_runs_total", Help: "Optimization runs by trigger and outcome."},
		[]string{"trigger", "outcome"},
	)
	// OptimizeDuration records solver wall-clock time in seconds.
	OptimizeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "optimize_run_duration_seconds", Help: "Solver run duration in seconds.", Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60}},
	)
	// DeferredCargo counts cargo units deferred per reason code.
	DeferredCargo = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "deferred_cargo_total", Help: "Deferred cargo units by reason."},
		[]string{"reason"},
	)
	// DistanceCacheHits counts pairwise distance cache hits.
	DistanceCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "distance_cache_hits_total", Help: "Distance cache hits."},
	)
	// DistanceCacheMisses counts pairwise distance cache misses.
	DistanceCacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "distance_cache_misses_total", Help: "Distance cache misses."},
	)
)

// RegisterDefault registers collectors to the package registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(OptimizeRuns)
		Registry.MustRegister(OptimizeDuration)
		Registry.MustRegister(DeferredCargo)
		Registry.MustRegister(DistanceCacheHits)
		Registry.MustRegister(DistanceCacheMisses)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
