// Package metrics defines the Prometheus metric collectors used across the
// decoder platform and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the platform.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	DecodeRequestsTotal  *prometheus.CounterVec
	DecodeLatency        *prometheus.HistogramVec
	DecodeScore          prometheus.Histogram
	StacksExpandedTotal  *prometheus.CounterVec
	CubePruningPopsTotal prometheus.Counter
	HypothesesRecombined prometheus.Counter
	CacheHitsTotal        prometheus.Counter
	CacheMissesTotal      prometheus.Counter
	SentencesIngestedTotal prometheus.Counter
	PhraseTableReloadsTotal *prometheus.CounterVec
	PhraseTableEntryCount   prometheus.Gauge
	WorkerPoolUtilization   prometheus.Gauge
	CircuitBreakerState     *prometheus.GaugeVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		DecodeRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "decode_requests_total",
				Help: "Total decode requests by outcome (ok, timeout, no_options, error).",
			},
			[]string{"outcome"},
		),
		DecodeLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "decode_latency_seconds",
				Help:    "Per-sentence decode latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"cache_status"},
		),
		DecodeScore: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "decode_score",
				Help:    "Log-linear model score of the 1-best derivation per decode.",
				Buckets: prometheus.LinearBuckets(-20, 2, 20),
			},
		),
		StacksExpandedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "decode_stacks_expanded_total",
				Help: "Total hypothesis stacks expanded across all decodes.",
			},
			[]string{"pruned"},
		),
		CubePruningPopsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "decode_cube_pruning_pops_total",
				Help: "Total hypotheses popped off cube-pruning heaps.",
			},
		),
		HypothesesRecombined: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "decode_hypotheses_recombined_total",
				Help: "Total hypotheses dropped by recombination.",
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "nbest_cache_hits_total",
				Help: "Total n-best cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "nbest_cache_misses_total",
				Help: "Total n-best cache misses.",
			},
		),
		SentencesIngestedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sentences_ingested_total",
				Help: "Total sentences consumed from the ingestion queue.",
			},
		),
		PhraseTableReloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "phrase_table_reloads_total",
				Help: "Total phrase table reload attempts by status.",
			},
			[]string{"status"},
		),
		PhraseTableEntryCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "phrase_table_entry_count",
				Help: "Number of phrase table entries currently loaded.",
			},
		),
		WorkerPoolUtilization: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "translator_pool_utilization",
				Help: "Fraction of sentence-level translation workers currently busy.",
			},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
	}

	prometheus.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.DecodeRequestsTotal,
		m.DecodeLatency,
		m.DecodeScore,
		m.StacksExpandedTotal,
		m.CubePruningPopsTotal,
		m.HypothesesRecombined,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.SentencesIngestedTotal,
		m.PhraseTableReloadsTotal,
		m.PhraseTableEntryCount,
		m.WorkerPoolUtilization,
		m.CircuitBreakerState,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
