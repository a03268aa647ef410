// Package metrics registers the HTTP-level Prometheus metrics shared by all
// handlers. Domain packages register their own metrics next to their services.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	HTTPRequests *prometheus.CounterVec
	HTTPLatency  *prometheus.HistogramVec
}

func New() *Metrics {
	return &Metrics{
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aidgate_http_requests_total",
			Help: "Total number of HTTP requests, by route, method and status",
		}, []string{"route", "method", "status"}),
		HTTPLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aidgate_http_request_duration_seconds",
			Help:    "HTTP request latency, by route and method",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

func (m *Metrics) RecordRequest(route, method, status string) {
	m.HTTPRequests.WithLabelValues(route, method, status).Inc()
}

func (m *Metrics) ObserveLatency(route, method string, seconds float64) {
	m.HTTPLatency.WithLabelValues(route, method).Observe(seconds)
}
