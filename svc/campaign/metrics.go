package campaign

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	emailsSent   prometheus.Counter
	emailsFailed prometheus.Counter
	sends        *prometheus.CounterVec
	sendDuration prometheus.Histogram
}

// NewMetrics registers the campaign collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		emailsSent: f.NewCounter(prometheus.CounterOpts{
			Name: "emailcraft_emails_sent_total",
			Help: "Total number of campaign emails accepted by the provider",
		}),
		emailsFailed: f.NewCounter(prometheus.CounterOpts{
			Name: "emailcraft_emails_failed_total",
			Help: "Total number of campaign emails the provider rejected",
		}),
		sends: f.NewCounterVec(prometheus.CounterOpts{
			Name: "emailcraft_campaign_sends_total",
			Help: "Total number of campaign send runs by outcome",
		}, []string{"result"}),
		sendDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "emailcraft_campaign_send_duration_seconds",
			Help:    "Duration of a full campaign send in seconds",
			Buckets: []float64{.1, .5, 1, 5, 15, 30, 60, 180, 600},
		}),
	}
}

func (m *Metrics) observe(res *SendResult, seconds float64) {
	if m == nil {
		return
	}
	m.emailsSent.Add(float64(res.SuccessfulSends))
	m.emailsFailed.Add(float64(res.FailedSends))
	m.sendDuration.Observe(seconds)
	result := "success"
	if !res.Success {
		result = "failure"
	}
	m.sends.WithLabelValues(result).Inc()
}
