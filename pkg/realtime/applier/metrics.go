package applier

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts applied updates per feed. Each applier registers into its
// own registry so shadow appliers never report into production metrics.
type Metrics struct {
	reg *prometheus.Registry

	Updates       *prometheus.CounterVec
	UpdateErrors  *prometheus.CounterVec
	Warnings      *prometheus.CounterVec
	BatchDuration *prometheus.HistogramVec
	BufferSize    *prometheus.GaugeVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		reg: reg,
		Updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "realtime_trip_updates_total",
			Help: "Trip updates applied, by feed and result.",
		}, []string{"feed", "result"}),
		UpdateErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "realtime_trip_update_errors_total",
			Help: "Failed trip updates, by feed and error type.",
		}, []string{"feed", "error"}),
		Warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "realtime_trip_update_warnings_total",
			Help: "Warnings of applied trip updates, by feed and warning type.",
		}, []string{"feed", "warning"}),
		BatchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "realtime_batch_duration_seconds",
			Help:    "Duration of applying a batch of trip updates.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		}, []string{"feed"}),
		BufferSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "realtime_buffer_trips",
			Help: "Trips with realtime data in the buffer, by feed.",
		}, []string{"feed"}),
	}

	reg.MustRegister(m.Updates, m.UpdateErrors, m.Warnings, m.BatchDuration, m.BufferSize)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

func (m *Metrics) observe(result *BatchResult, seconds float64, bufferSize int) {
	m.Updates.WithLabelValues(result.FeedID, "success").Add(float64(len(result.Successes)))
	m.Updates.WithLabelValues(result.FeedID, "error").Add(float64(len(result.Errors)))

	for errorType, count := range result.ErrorsByType() {
		m.UpdateErrors.WithLabelValues(result.FeedID, string(errorType)).Add(float64(count))
	}
	for _, warning := range result.Warnings {
		m.Warnings.WithLabelValues(result.FeedID, string(warning)).Inc()
	}

	m.BatchDuration.WithLabelValues(result.FeedID).Observe(seconds)
	m.BufferSize.WithLabelValues(result.FeedID).Set(float64(bufferSize))
}
