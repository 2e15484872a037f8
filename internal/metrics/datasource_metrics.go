package metrics

import "github.com/prometheus/client_golang/prometheus"

// Price source metrics
var (
	PriceFetchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "price_fetches_total",
		Help:      "Total number of price history fetches by source and status",
	}, []string{"source", "status"})
	PriceFetchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "price_fetch_duration_seconds",
		Help:      "Duration of price history fetches in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"source"})
	PriceCacheLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "price_cache_lookups_total",
		Help:      "Price cache lookups by result (hit or miss)",
	}, []string{"result"})
)

// RecordFetch records one price history fetch.
func RecordFetch(source string, ok bool, durationSeconds float64) {
	PriceFetchesTotal.WithLabelValues(source, status(ok)).Inc()
	PriceFetchDuration.WithLabelValues(source).Observe(durationSeconds)
}

// RecordCacheLookup records a price cache hit or miss.
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	PriceCacheLookupsTotal.WithLabelValues(result).Inc()
}
