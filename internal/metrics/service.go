package metrics

import "github.com/prometheus/client_golang/prometheus"

// Service-level Prometheus metrics.
var (
	UpstreamFetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "patternbot",
			Name:      "upstream_fetch_total",
			Help:      "Total number of pattern document fetches",
		},
		[]string{"status"}, // "success" / "unavailable" / "bad_status" / "malformed" / "missing_regexes"
	)

	UpstreamFetchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "patternbot",
			Name:      "upstream_fetch_duration_seconds",
			Help:      "Pattern document fetch duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	UpstreamPatternsFetched = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "patternbot",
			Name:      "upstream_patterns",
			Help:      "Number of patterns in the last fetched document",
		},
	)

	InteractionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "patternbot",
			Name:      "interactions_total",
			Help:      "Total number of handled interactions",
		},
		[]string{"type", "command", "outcome"},
	)

	PatternCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "patternbot",
			Name:      "pattern_cache_total",
			Help:      "Pattern document cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var serviceMetricsRegistered bool

// RegisterServiceMetrics registers Prometheus service metrics. Must be called once from main.
func RegisterServiceMetrics() {
	if serviceMetricsRegistered {
		return
	}
	prometheus.MustRegister(UpstreamFetchTotal)
	prometheus.MustRegister(UpstreamFetchDuration)
	prometheus.MustRegister(UpstreamPatternsFetched)
	prometheus.MustRegister(InteractionsTotal)
	prometheus.MustRegister(PatternCacheTotal)
	serviceMetricsRegistered = true
}
