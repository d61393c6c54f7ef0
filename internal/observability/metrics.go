// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Scan metrics
	ScansTotal    *prometheus.CounterVec
	ScanDuration  *prometheus.HistogramVec
	TokensDropped *prometheus.CounterVec
	TokensServed  prometheus.Counter

	// Cache metrics
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec
	CacheSize   *prometheus.GaugeVec

	// Provider metrics
	ProviderRequests *prometheus.CounterVec
	ProviderLatency  *prometheus.HistogramVec

	// Signal metrics
	SignalsDetected *prometheus.CounterVec

	// Persistence metrics
	StoreWrites *prometheus.CounterVec
	StoreErrors *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "wallet_scan"
	}

	return &Metrics{
		ScansTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "requests_total",
			Help:      "Total number of scan requests by provider and outcome",
		}, []string{"provider", "outcome"}),
		ScanDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "duration_seconds",
			Help:      "End-to-end scan latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		TokensDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "tokens_dropped_total",
			Help:      "Total number of tokens dropped by pipeline stage",
		}, []string{"stage"}),
		TokensServed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "tokens_served_total",
			Help:      "Total number of tokens returned to callers",
		}),
		CacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total number of cache hits by cache name",
		}, []string{"cache"}),
		CacheMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Total number of cache misses by cache name",
		}, []string{"cache"}),
		CacheSize: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "entries",
			Help:      "Current number of resident cache entries by cache name",
		}, []string{"cache"}),
		ProviderRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "requests_total",
			Help:      "Total number of provider fetches by provider and status",
		}, []string{"provider", "status"}),
		ProviderLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "latency_seconds",
			Help:      "Provider fetch latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		SignalsDetected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "signal",
			Name:      "detected_total",
			Help:      "Total number of token signals detected by kind",
		}, []string{"kind"}),
		StoreWrites: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "writes_total",
			Help:      "Total number of store writes by store",
		}, []string{"store"}),
		StoreErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "errors_total",
			Help:      "Total number of store write errors by store",
		}, []string{"store"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordScan records one scan request outcome with its latency.
func RecordScan(provider, outcome string, seconds float64) {
	DefaultMetrics.ScansTotal.WithLabelValues(provider, outcome).Inc()
	DefaultMetrics.ScanDuration.WithLabelValues(provider).Observe(seconds)
}

// RecordCacheHit increments the hit counter for the named cache.
func RecordCacheHit(cache string) {
	DefaultMetrics.CacheHits.WithLabelValues(cache).Inc()
}

// RecordCacheMiss increments the miss counter for the named cache.
func RecordCacheMiss(cache string) {
	DefaultMetrics.CacheMisses.WithLabelValues(cache).Inc()
}

// UpdateCacheSize updates the resident entry gauge for the named cache.
func UpdateCacheSize(cache string, size int) {
	DefaultMetrics.CacheSize.WithLabelValues(cache).Set(float64(size))
}

// RecordProviderFetch records one provider fetch with its latency.
func RecordProviderFetch(provider, status string, seconds float64) {
	DefaultMetrics.ProviderRequests.WithLabelValues(provider, status).Inc()
	DefaultMetrics.ProviderLatency.WithLabelValues(provider).Observe(seconds)
}

// RecordFunnel records the tokens dropped at each pipeline stage plus the
// tokens that survived to the response.
func RecordFunnel(providerTokens, afterChain, afterSpam, belowMin, final int) {
	DefaultMetrics.TokensDropped.WithLabelValues("chain").Add(float64(providerTokens - afterChain))
	DefaultMetrics.TokensDropped.WithLabelValues("spam").Add(float64(afterChain - afterSpam))
	DefaultMetrics.TokensDropped.WithLabelValues("value").Add(float64(belowMin))
	DefaultMetrics.TokensServed.Add(float64(final))
}

// RecordSignal increments the detected-signal counter for a signal kind.
func RecordSignal(kind string) {
	DefaultMetrics.SignalsDetected.WithLabelValues(kind).Inc()
}

// RecordStoreWrite records a store write and, when err is non-nil, an error.
func RecordStoreWrite(store string, err error) {
	DefaultMetrics.StoreWrites.WithLabelValues(store).Inc()
	if err != nil {
		DefaultMetrics.StoreErrors.WithLabelValues(store).Inc()
	}
}
