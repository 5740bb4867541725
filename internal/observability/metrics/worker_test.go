package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/virtual-tryon/internal/core/domain"
)

func TestWorkerMetricsObserveEvent(t *testing.T) {
	m := NewWorkerMetrics("tryon-worker")
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.ObserveEvent("tryon-worker", domain.SessionEvent{
		Type:       domain.EventTryOnCompleted,
		Operation:  domain.OpTryOn,
		DurationMS: 1500,
		OccurredAt: now.Add(-2 * time.Second),
	}, now)
	m.ObserveEvent("tryon-worker", domain.SessionEvent{Type: domain.EventSessionReset}, now)

	res := httptest.NewRecorder()
	m.Handler().ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := res.Body.String()

	for _, want := range []string{
		`vto_worker_session_events_total{operation="tryon",service="tryon-worker",type="tryon_completed"} 1`,
		`vto_worker_session_events_total{operation="",service="tryon-worker",type="session_reset"} 1`,
		`vto_worker_reported_operation_duration_seconds_sum{operation="tryon",service="tryon-worker"} 1.5`,
		`vto_worker_event_lag_seconds_count{service="tryon-worker"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in output:\n%s", want, body)
		}
	}
}
