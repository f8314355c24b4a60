package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	DonorsRegistered  prometheus.Counter
	RequestsProcessed prometheus.Counter
	MatchesRecorded   prometheus.Counter
	Notifications     *prometheus.CounterVec
	NotifyDuration    *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		DonorsRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bloodlink_donors_registered_total",
			Help: "Total number of donors registered",
		}),
		RequestsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bloodlink_requests_processed_total",
			Help: "Total number of blood requests run through matching",
		}),
		MatchesRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bloodlink_matches_recorded_total",
			Help: "Total number of match records created",
		}),
		Notifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bloodlink_notifications_total",
			Help: "Notification attempts by channel and outcome",
		}, []string{"channel", "outcome"}),
		NotifyDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bloodlink_notify_duration_seconds",
			Help:    "Latency of per-channel notification attempts",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"channel"}),
	}
}

// ObserveNotification records an attempt outcome plus its latency.
func (m *Metrics) ObserveNotification(channel, outcome string, d time.Duration) {
	m.Notifications.WithLabelValues(channel, outcome).Inc()
	m.NotifyDuration.WithLabelValues(channel).Observe(d.Seconds())
}
