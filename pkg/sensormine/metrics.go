package sensormine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records request latency per service, method and status. A nil
// *Metrics records nothing.
type Metrics struct {
	requests *prometheus.HistogramVec
}

// NewMetrics registers the client collectors on reg. A nil reg uses the
// default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &Metrics{
		requests: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sensormine",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Latency of Sensormine service calls including retries.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 90},
		}, []string{"service", "method", "status"}),
	}
}

func (m *Metrics) observe(service, method, status string, elapsed time.Duration) {
	if m == nil || m.requests == nil {
		return
	}
	m.requests.WithLabelValues(service, method, status).Observe(elapsed.Seconds())
}
