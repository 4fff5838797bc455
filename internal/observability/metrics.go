// Package observability provides Prometheus metrics for the host runtime.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the host metrics. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	OperationsTotal   *prometheus.CounterVec
	RejectionsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	EventsEmitted     *prometheus.CounterVec
	PersistErrors     prometheus.Counter
	Height            prometheus.Gauge
}

// NewMetrics creates metrics registered on a private registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "intentbook"
	}

	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		OperationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "host",
			Name:      "operations_total",
			Help:      "Total number of executed operations by kind and status",
		}, []string{"kind", "status"}),
		RejectionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "host",
			Name:      "rejections_total",
			Help:      "Total number of rejected operations by error class and code",
		}, []string{"class", "code"}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "host",
			Name:      "operation_duration_seconds",
			Help:      "Operation execution duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"kind"}),
		EventsEmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "events_emitted_total",
			Help:      "Total number of events emitted by name",
		}, []string{"event"}),
		PersistErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "host",
			Name:      "persist_errors_total",
			Help:      "Total number of failed state persistence attempts",
		}),
		Height: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "host",
			Name:      "height",
			Help:      "Height of the last committed operation",
		}),
	}
}

// Registry returns the registry holding the metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordOperation records one executed operation. class and code are empty for accepted ones.
func (m *Metrics) RecordOperation(kind, status, class, code string, seconds float64) {
	if m == nil {
		return
	}
	m.OperationsTotal.WithLabelValues(kind, status).Inc()
	m.OperationDuration.WithLabelValues(kind).Observe(seconds)
	if class != "" {
		m.RejectionsTotal.WithLabelValues(class, code).Inc()
	}
}

// RecordEvent increments the emitted events counter.
func (m *Metrics) RecordEvent(name string) {
	if m == nil {
		return
	}
	m.EventsEmitted.WithLabelValues(name).Inc()
}

// RecordPersistError increments the persistence error counter.
func (m *Metrics) RecordPersistError() {
	if m == nil {
		return
	}
	m.PersistErrors.Inc()
}

// SetHeight updates the committed height gauge.
func (m *Metrics) SetHeight(height uint64) {
	if m == nil {
		return
	}
	m.Height.Set(float64(height))
}
