package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/virtual-tryon/internal/core/domain"
)

// WorkerMetrics counts session events consumed by the event worker.
type WorkerMetrics struct {
	registry *prometheus.Registry

	eventsTotal       *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	eventLag          *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	eventsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vto",
			Subsystem: "worker",
			Name:      "session_events_total",
			Help:      "Total consumed session events by type and operation.",
		},
		[]string{"service", "type", "operation"},
	)
	operationDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vto",
			Subsystem: "worker",
			Name:      "reported_operation_duration_seconds",
			Help:      "Operation durations reported by session events.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"service", "operation"},
	)
	eventLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vto",
			Subsystem: "worker",
			Name:      "event_lag_seconds",
			Help:      "Delay between an event occurring and the worker consuming it.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"service"},
	)

	registry.MustRegister(eventsTotal, operationDuration, eventLag)

	return &WorkerMetrics{
		registry:          registry,
		eventsTotal:       eventsTotal,
		operationDuration: operationDuration,
		eventLag:          eventLag,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) ObserveEvent(service string, event domain.SessionEvent, now time.Time) {
	m.eventsTotal.WithLabelValues(service, string(event.Type), string(event.Operation)).Inc()
	if event.DurationMS > 0 && event.Operation != "" {
		m.operationDuration.WithLabelValues(service, string(event.Operation)).Observe(event.DurationMS / 1000.0)
	}
	if lag := now.Sub(event.OccurredAt); !event.OccurredAt.IsZero() && lag >= 0 {
		m.eventLag.WithLabelValues(service).Observe(lag.Seconds())
	}
}
