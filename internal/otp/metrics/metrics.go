package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	CodesIssued   *prometheus.CounterVec
	Verifications *prometheus.CounterVec
	SendFailures  prometheus.Counter
	CodesExpired  prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		CodesIssued: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aidgate_otp_codes_issued_total",
			Help: "Total number of one-time codes issued, by purpose",
		}, []string{"purpose"}),
		Verifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aidgate_otp_verifications_total",
			Help: "Total number of OTP verification attempts, by status",
		}, []string{"status"}),
		SendFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aidgate_otp_send_failures_total",
			Help: "Total number of SMS dispatch failures",
		}),
		CodesExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aidgate_otp_codes_expired_total",
			Help: "Total number of expired codes removed by the cleanup worker",
		}),
	}
}

func (m *Metrics) RecordIssued(purpose string) {
	m.CodesIssued.WithLabelValues(purpose).Inc()
}

func (m *Metrics) RecordVerification(status string) {
	m.Verifications.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordSendFailure() {
	m.SendFailures.Inc()
}

func (m *Metrics) RecordExpired(count int) {
	m.CodesExpired.Add(float64(count))
}
