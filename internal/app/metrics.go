package app

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/marc2332/freya-editor/internal/editor"
	"github.com/marc2332/freya-editor/internal/engine/buffer"
	"github.com/marc2332/freya-editor/internal/state"
)

// Metrics counts editor activity.
type Metrics struct {
	keypresses    *prometheus.CounterVec
	notifications *prometheus.CounterVec
	observers     prometheus.Histogram
	hovers        *prometheus.CounterVec
	files         *prometheus.CounterVec
	surfaces      prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		keypresses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "freya",
			Name:      "keypresses_total",
			Help:      "Key events applied to editors, by outcome.",
		}, []string{"event"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "freya",
			Name:      "state_commits_total",
			Help:      "Committed state writes, by notification scope.",
		}, []string{"scope"}),
		observers: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "freya",
			Name:      "state_observers_notified",
			Help:      "Observers notified per committed write.",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 32},
		}),
		hovers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "freya",
			Name:      "hover_requests_total",
			Help:      "Hover requests, by outcome.",
		}, []string{"outcome"}),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "freya",
			Name:      "files_opened_total",
			Help:      "Files opened from the explorer, by result.",
		}, []string{"result"}),
		surfaces: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "freya",
			Name:      "editor_surfaces",
			Help:      "Running code editor surfaces.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.keypresses, m.notifications, m.observers, m.hovers, m.files, m.surfaces)
	}
	return m
}

// RecordKey counts one applied key event.
func (m *Metrics) RecordKey(ev buffer.TextEvent) {
	m.keypresses.WithLabelValues(ev.String()).Inc()
}

// RecordCommit counts one committed write and the observers it reached.
func (m *Metrics) RecordCommit(scope state.Scope, notified int) {
	label := "tab"
	if scope.IsAll() {
		label = "all"
	}
	m.notifications.WithLabelValues(label).Inc()
	m.observers.Observe(float64(notified))
}

// RecordHover counts one hover request.
func (m *Metrics) RecordHover(outcome editor.HoverOutcome) {
	m.hovers.WithLabelValues(string(outcome)).Inc()
}

// RecordOpen counts one file open attempt.
func (m *Metrics) RecordOpen(err error) {
	result := "opened"
	if err != nil {
		result = "failed"
	}
	m.files.WithLabelValues(result).Inc()
}

// SetSurfaces sets the number of running surfaces.
func (m *Metrics) SetSurfaces(n int) {
	m.surfaces.Set(float64(n))
}
