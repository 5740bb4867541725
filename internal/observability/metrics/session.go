package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/virtual-tryon/internal/core/domain"
)

// SessionMetrics observes the controller's remote operations. The busy
// gauge mirrors the session's single in-flight slot.
type SessionMetrics struct {
	service string

	operationTotal    *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	busy              prometheus.Gauge
	breakerState      *prometheus.GaugeVec
}

func newSessionMetrics(registry *prometheus.Registry, service string) *SessionMetrics {
	operationTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vto",
			Subsystem: "session",
			Name:      "operations_total",
			Help:      "Completed session operations by outcome.",
		},
		[]string{"service", "operation", "outcome"},
	)
	operationDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vto",
			Subsystem: "session",
			Name:      "operation_duration_seconds",
			Help:      "Session operation duration in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"service", "operation"},
	)
	busy := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "vto",
			Subsystem: "session",
			Name:      "busy",
			Help:      "1 while a session operation is in flight.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	breakerState := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "vto",
			Subsystem: "backend",
			Name:      "breaker_state",
			Help:      "Try-on backend breaker state per operation: 0 closed, 1 half-open, 2 open.",
		},
		[]string{"service", "operation"},
	)

	registry.MustRegister(operationTotal, operationDuration, busy, breakerState)

	return &SessionMetrics{
		service:           service,
		operationTotal:    operationTotal,
		operationDuration: operationDuration,
		busy:              busy,
		breakerState:      breakerState,
	}
}

func (m *SessionMetrics) StartOperation(domain.Operation) {
	m.busy.Set(1)
}

func (m *SessionMetrics) FinishOperation(op domain.Operation, duration time.Duration, err error) {
	m.busy.Set(0)
	m.operationTotal.WithLabelValues(m.service, string(op), Outcome(err)).Inc()
	m.operationDuration.WithLabelValues(m.service, string(op)).Observe(duration.Seconds())
}

// SetBreakerState records a breaker transition using gobreaker's state names.
func (m *SessionMetrics) SetBreakerState(operation, state string) {
	var v float64
	switch state {
	case "half-open":
		v = 1
	case "open":
		v = 2
	}
	m.breakerState.WithLabelValues(m.service, operation).Set(v)
}

// Outcome maps an operation error onto the failure taxonomy label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case domain.IsKind(err, domain.ErrTemporary):
		return "circuit_open"
	case domain.IsKind(err, domain.ErrTransport):
		return "transport_error"
	case domain.IsKind(err, domain.ErrHTTPStatus):
		return "http_status"
	case domain.IsKind(err, domain.ErrBackend):
		return "backend_error"
	case domain.IsKind(err, domain.ErrMissingField):
		return "missing_field"
	case domain.IsKind(err, domain.ErrBadResponse):
		return "bad_response"
	default:
		return "error"
	}
}
