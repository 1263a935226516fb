package dify

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	modeBlocking  = "blocking"
	modeStreaming = "streaming"
	modeChat      = "chat"
)

// Metrics records workflow call telemetry. A nil *Metrics records nothing.
type Metrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	progress *prometheus.CounterVec
	noise    *prometheus.CounterVec
}

// NewMetrics creates the workflow collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "outreach",
			Subsystem: "workflow",
			Name:      "calls_total",
			Help:      "Workflow calls by endpoint, mode and outcome.",
		}, []string{"endpoint", "mode", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "outreach",
			Subsystem: "workflow",
			Name:      "call_duration_seconds",
			Help:      "Time from request to settled result.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"endpoint", "mode"}),
		progress: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "outreach",
			Subsystem: "workflow",
			Name:      "progress_events_total",
			Help:      "Node progress events received from run streams.",
		}, []string{"endpoint", "event"}),
		noise: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "outreach",
			Subsystem: "workflow",
			Name:      "noise_frames_total",
			Help:      "Stream frames skipped because they could not be decoded.",
		}, []string{"endpoint"}),
	}
	reg.MustRegister(m.calls, m.duration, m.progress, m.noise)
	return m
}

func outcome(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &apiErr):
		return apiErr.Kind.String() + "_error"
	default:
		return "error"
	}
}

func (m *Metrics) observe(endpoint, mode string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(endpoint, mode, outcome(err)).Inc()
	m.duration.WithLabelValues(endpoint, mode).Observe(time.Since(start).Seconds())
}

func (m *Metrics) progressEvent(endpoint, event string) {
	if m == nil {
		return
	}
	m.progress.WithLabelValues(endpoint, event).Inc()
}

func (m *Metrics) noiseFrame(endpoint string) {
	if m == nil {
		return
	}
	m.noise.WithLabelValues(endpoint).Inc()
}
