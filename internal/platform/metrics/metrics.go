package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	ParsesTotal      *prometheus.CounterVec
	ParseDuration    prometheus.Histogram
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter
	CompiledParsers  prometheus.Gauge
	CoercionFailures prometheus.Counter
	EmptyRecords     prometheus.Counter
	RateLimitedTexts prometheus.Counter
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		ParsesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "structwhois_parses_total",
			Help: "Total parse operations by outcome",
		}, []string{"outcome"}),
		ParseDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "structwhois_parse_duration_seconds",
			Help:    "Time spent normalizing and extracting one response",
			Buckets: prometheus.DefBuckets,
		}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "structwhois_parser_cache_hits_total",
			Help: "Parser lookups served from the compiled cache",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "structwhois_parser_cache_misses_total",
			Help: "Parser lookups that required compilation",
		}),
		CompiledParsers: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "structwhois_compiled_parsers",
			Help: "Distinct compiled parser engines currently cached",
		}),
		CoercionFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "structwhois_date_coercion_failures_total",
			Help: "Date fields whose values matched no known layout",
		}),
		EmptyRecords: promauto.NewCounter(prometheus.CounterOpts{
			Name: "structwhois_empty_records_total",
			Help: "Responses whose latest record section carried no content",
		}),
		RateLimitedTexts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "structwhois_rate_limited_texts_total",
			Help: "Responses recognized as registry rate-limit banners",
		}),
	}
}

// ObserveParse records one parse outcome and its duration.
func (m *Metrics) ObserveParse(outcome string, seconds float64) {
	m.ParsesTotal.WithLabelValues(outcome).Inc()
	m.ParseDuration.Observe(seconds)
}
