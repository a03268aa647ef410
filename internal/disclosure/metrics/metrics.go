package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	PinsCreated      prometheus.Counter
	PinVerifications *prometheus.CounterVec
	LockoutsApplied  prometheus.Counter
	TokensRedeemed   prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		PinsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aidgate_disclosure_pins_created_total",
			Help: "Total number of PIN credentials created",
		}),
		PinVerifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aidgate_disclosure_pin_verifications_total",
			Help: "Total number of PIN verification attempts, by status",
		}, []string{"status"}),
		LockoutsApplied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aidgate_disclosure_lockouts_applied_total",
			Help: "Total number of PIN lockouts applied",
		}),
		TokensRedeemed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aidgate_disclosure_tokens_redeemed_total",
			Help: "Total number of disclosure tokens redeemed",
		}),
	}
}

func (m *Metrics) RecordPinCreated() {
	m.PinsCreated.Inc()
}

func (m *Metrics) RecordVerification(status string) {
	m.PinVerifications.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordLockout() {
	m.LockoutsApplied.Inc()
}

func (m *Metrics) RecordTokenRedeemed() {
	m.TokensRedeemed.Inc()
}
