package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 latency increases.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight. Watch for: saturation, capacity limits.
	HTTPRequestsInFlight prometheus.Gauge

	// Route planning requests by outcome (found, trivial, not_found, unknown_city).
	RouteRequestsTotal *prometheus.CounterVec

	// A* search latency. The graph is small; anything above milliseconds is a regression.
	RouteSearchDuration prometheus.Histogram

	// Nodes expanded per search. Watch for: heuristic regressions inflating expansion.
	RouteSearchExpandedNodes prometheus.Histogram

	// Route cache hits by backend (in_memory, memcached).
	RouteCacheHitsTotal *prometheus.CounterVec

	// Weather provider call rate by status (success, error). Watch for: error ratio.
	WeatherProviderCallsTotal *prometheus.CounterVec

	// Weather provider latency by status.
	WeatherProviderDuration *prometheus.HistogramVec

	// Retry attempts against the weather provider. High retries = unstable upstream.
	WeatherProviderRetriesTotal prometheus.Counter

	// Per-city fallbacks substituted during a sweep when the provider failed.
	WeatherFallbacksTotal prometheus.Counter

	// Completed ingestion sweeps.
	WeatherSweepsTotal prometheus.Counter

	// Full-sweep duration: all cities fetched and applied.
	WeatherSweepDuration prometheus.Histogram

	// Rate limit denials. Watch for: overload, capacity exceeded.
	RateLimitDeniedTotal prometheus.Counter

	// Weather provider circuit breaker state (0 closed, 1 open, 2 half-open).
	circuitBreakerState *prometheus.GaugeVec

	// Circuit breaker transitions by from/to state.
	circuitBreakerTransitions *prometheus.CounterVec
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	RouteRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routeRequestsTotal",
			Help: "Route planning requests by outcome",
		},
		[]string{"outcome"},
	)
	RouteSearchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "routeSearchDurationSeconds",
			Help:    "A* search latency in seconds",
			Buckets: []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .05},
		},
	)
	RouteSearchExpandedNodes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "routeSearchExpandedNodes",
			Help:    "Nodes expanded per A* search",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64},
		},
	)
	RouteCacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routeCacheHitsTotal",
			Help: "Route cache hits by backend",
		},
		[]string{"backend"},
	)
	WeatherProviderCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherProviderCallsTotal",
			Help: "Total number of weather provider calls",
		},
		[]string{"status"},
	)
	WeatherProviderDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weatherProviderDurationSeconds",
			Help:    "Weather provider latency in seconds (per call)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"status"},
	)
	WeatherProviderRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "weatherProviderRetriesTotal",
			Help: "Total number of retry attempts against the weather provider",
		},
	)
	WeatherFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "weatherFallbacksTotal",
			Help: "Per-city fallback observations substituted during ingestion sweeps",
		},
	)
	WeatherSweepsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "weatherSweepsTotal",
			Help: "Completed weather ingestion sweeps",
		},
	)
	WeatherSweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "weatherSweepDurationSeconds",
			Help:    "End-to-end weather ingestion sweep duration in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)
	circuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuitBreakerState",
			Help: "Circuit breaker state: 0 closed, 1 open, 2 half-open",
		},
		[]string{"component"},
	)
	circuitBreakerTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuitBreakerTransitionsTotal",
			Help: "Circuit breaker state transitions",
		},
		[]string{"component", "from", "to"},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		RouteRequestsTotal, RouteSearchDuration, RouteSearchExpandedNodes,
		RouteCacheHitsTotal,
		WeatherProviderCallsTotal, WeatherProviderDuration, WeatherProviderRetriesTotal,
		WeatherFallbacksTotal, WeatherSweepsTotal, WeatherSweepDuration,
		RateLimitDeniedTotal,
		circuitBreakerState, circuitBreakerTransitions,
	)
}

// RecordCircuitBreakerTransition records a breaker state change for metrics.
func RecordCircuitBreakerTransition(component, from, to string) {
	circuitBreakerTransitions.WithLabelValues(component, from, to).Inc()
}

// SetCircuitBreakerStateGauge sets the current breaker state gauge.
func SetCircuitBreakerStateGauge(component string, state float64) {
	circuitBreakerState.WithLabelValues(component).Set(state)
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
