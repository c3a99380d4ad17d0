package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fetchTotal     *prometheus.CounterVec
	fetchDuration  *prometheus.HistogramVec
	skippedTotal   *prometheus.CounterVec
	questionsTotal *prometheus.CounterVec
	wsClients      prometheus.Gauge
	wsDropped      prometheus.Counter
	relayTotal     *prometheus.CounterVec
}

// New creates a recorder on the default registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a recorder registered on reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		fetchTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_panel_fetch_total",
				Help: "Panel fetches by outcome",
			},
			[]string{"panel", "result"},
		),
		fetchDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dashboard_panel_fetch_seconds",
				Help:    "Duration of panel fetches in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"panel"},
		),
		skippedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_panel_skipped_total",
				Help: "Fetches not started because of the in-flight guard",
			},
			[]string{"panel", "reason"},
		),
		questionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_chat_questions_total",
				Help: "Chat submissions by outcome",
			},
			[]string{"result"},
		),
		wsClients: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "dashboard_ws_clients",
				Help: "Connected websocket clients",
			},
		),
		wsDropped: f.NewCounter(
			prometheus.CounterOpts{
				Name: "dashboard_ws_dropped_total",
				Help: "Page updates dropped for subscribers with a full buffer",
			},
		),
		relayTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_relay_messages_total",
				Help: "Page updates relayed between replicas",
			},
			[]string{"direction"},
		),
	}
}

// RecordFetch records a finished fetch.
func (r *Recorder) RecordFetch(panel, result string, seconds float64) {
	r.fetchTotal.WithLabelValues(panel, result).Inc()
	r.fetchDuration.WithLabelValues(panel).Observe(seconds)
}

// RecordSkip records a fetch suppressed by the in-flight guard.
func (r *Recorder) RecordSkip(panel, reason string) {
	r.skippedTotal.WithLabelValues(panel, reason).Inc()
}

// RecordQuestion records a chat submission outcome.
func (r *Recorder) RecordQuestion(result string) {
	r.questionsTotal.WithLabelValues(result).Inc()
}

// SetClients sets the websocket client count.
func (r *Recorder) SetClients(n int) {
	r.wsClients.Set(float64(n))
}

// RecordRelay counts a relayed update, direction "in" or "out".
func (r *Recorder) RecordRelay(direction string) {
	r.relayTotal.WithLabelValues(direction).Inc()
}

// RecordDroppedUpdate counts an update a slow subscriber missed.
func (r *Recorder) RecordDroppedUpdate() {
	r.wsDropped.Inc()
}
