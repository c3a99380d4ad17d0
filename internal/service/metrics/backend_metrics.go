package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BackendMetrics records latency and failures of calls to the backend API,
// labelled by endpoint path.
type BackendMetrics struct {
	latency *prometheus.HistogramVec
	errors  *prometheus.CounterVec
}

func NewBackendMetrics(reg prometheus.Registerer) *BackendMetrics {
	f := promauto.With(reg)
	return &BackendMetrics{
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dashboard",
			Subsystem: "backend",
			Name:      "latency_seconds",
			Help:      "Latency of backend API calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		errors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dashboard",
			Subsystem: "backend",
			Name:      "errors_total",
			Help:      "Failed backend API calls",
		}, []string{"endpoint", "kind"}),
	}
}

// ObserveRequest implements backend.Observer. Canceled calls count as
// errors of kind "canceled" and are left out of the latency histogram.
func (m *BackendMetrics) ObserveRequest(endpoint string, took time.Duration, err error) {
	switch {
	case err == nil:
		m.latency.WithLabelValues(endpoint).Observe(took.Seconds())
	case errors.Is(err, context.Canceled):
		m.errors.WithLabelValues(endpoint, "canceled").Inc()
	case errors.Is(err, context.DeadlineExceeded):
		m.latency.WithLabelValues(endpoint).Observe(took.Seconds())
		m.errors.WithLabelValues(endpoint, "timeout").Inc()
	default:
		m.latency.WithLabelValues(endpoint).Observe(took.Seconds())
		m.errors.WithLabelValues(endpoint, "failed").Inc()
	}
}
