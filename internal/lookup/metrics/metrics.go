package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	SearchesTotal *prometheus.CounterVec
	CacheHits     prometheus.Counter
	CacheMisses   prometheus.Counter
	SearchLatency prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		SearchesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aidgate_lookup_searches_total",
			Help: "Total number of public searches processed, by outcome",
		}, []string{"outcome"}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aidgate_lookup_cache_hits_total",
			Help: "Total number of searches served from the result cache",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aidgate_lookup_cache_misses_total",
			Help: "Total number of searches that went to the registry backend",
		}),
		SearchLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "aidgate_lookup_search_duration_seconds",
			Help:    "End-to-end latency of public search requests",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) RecordSearch(outcome string) {
	m.SearchesTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordCacheHit() {
	m.CacheHits.Inc()
}

func (m *Metrics) RecordCacheMiss() {
	m.CacheMisses.Inc()
}

func (m *Metrics) ObserveLatency(seconds float64) {
	m.SearchLatency.Observe(seconds)
}
