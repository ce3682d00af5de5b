package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

var (
	_ Recorder = (*NoopRecorder)(nil)
	_ Recorder = (*InMemoryRecorder)(nil)
	_ Recorder = (*PrometheusRecorder)(nil)
)

func TestInMemoryRecorder_Snapshot(t *testing.T) {
	t.Parallel()

	m := NewInMemory()
	m.ObserveBackendCall("get_profile", 200, 10*time.Millisecond)
	m.ObserveBackendCall("get_profile", 502, 5*time.Millisecond)
	m.ObserveBackendCall("list_subscriptions", 0, time.Millisecond)
	m.IncSessionCacheHit()
	m.IncSessionCacheMiss()
	m.IncCheckout("approved")
	m.IncCheckout("approved")
	m.IncCheckout("declined")
	m.IncAPIKeyRegenerated()
	m.AddNotificationsRead(3)
	m.AddNotificationsRead(-1)
	m.IncInstanceTransition("stop")

	snap := m.Snapshot()
	if snap.BackendCalls != 3 {
		t.Errorf("expected 3 backend calls, got %d", snap.BackendCalls)
	}
	if snap.BackendErrors != 2 {
		t.Errorf("expected 2 backend errors, got %d", snap.BackendErrors)
	}
	if snap.BackendDurationTotalNs != int64(16*time.Millisecond) {
		t.Errorf("unexpected duration total %d", snap.BackendDurationTotalNs)
	}
	if snap.Checkouts["approved"] != 2 || snap.Checkouts["declined"] != 1 {
		t.Errorf("unexpected checkout counts: %v", snap.Checkouts)
	}
	if snap.NotificationsRead != 3 {
		t.Errorf("expected 3 notifications read, got %d", snap.NotificationsRead)
	}
	if snap.InstanceTransitions["stop"] != 1 {
		t.Errorf("expected 1 stop transition, got %d", snap.InstanceTransitions["stop"])
	}
}

func TestPrometheusRecorder_Counters(t *testing.T) {
	t.Parallel()

	p := NewPrometheus()
	p.IncCheckout("approved")
	p.IncCheckout("approved")
	p.IncSessionCacheHit()
	p.AddNotificationsRead(4)

	if got := testutil.ToFloat64(p.checkouts.WithLabelValues("approved")); got != 2 {
		t.Errorf("expected 2 approved checkouts, got %v", got)
	}
	if got := testutil.ToFloat64(p.sessionCache.WithLabelValues("hit")); got != 1 {
		t.Errorf("expected 1 cache hit, got %v", got)
	}
	if got := testutil.ToFloat64(p.notificationsRead); got != 4 {
		t.Errorf("expected 4 notifications read, got %v", got)
	}
}

func TestPrometheusRecorder_Handler(t *testing.T) {
	t.Parallel()

	p := NewPrometheus()
	p.ObserveBackendCall("get_profile", 200, 20*time.Millisecond)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `portal_backend_requests_total{operation="get_profile",status="200"} 1`) {
		t.Errorf("expected backend counter in exposition, got:\n%s", body)
	}
}
