package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	SearchesAdmitted prometheus.Counter
	SearchesDenied   *prometheus.CounterVec
	BlocksApplied    prometheus.Counter
	StoreFailOpens   prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		SearchesAdmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aidgate_ratelimit_searches_admitted_total",
			Help: "Total number of public searches admitted by the rate limiter",
		}),
		SearchesDenied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aidgate_ratelimit_searches_denied_total",
			Help: "Total number of public searches denied, by reason",
		}, []string{"reason"}),
		BlocksApplied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aidgate_ratelimit_blocks_applied_total",
			Help: "Total number of cooldown blocks applied to source addresses",
		}),
		StoreFailOpens: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aidgate_ratelimit_store_fail_opens_total",
			Help: "Total number of requests admitted because the counter store was unreachable",
		}),
	}
}

func (m *Metrics) RecordAdmitted() {
	m.SearchesAdmitted.Inc()
}

func (m *Metrics) RecordDenied(reason string) {
	m.SearchesDenied.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecordBlock() {
	m.BlocksApplied.Inc()
}

func (m *Metrics) RecordFailOpen() {
	m.StoreFailOpens.Inc()
}
