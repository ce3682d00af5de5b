package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/modelhub/portal/internal/dashboard"
	"github.com/modelhub/portal/internal/invoice"
	"github.com/modelhub/portal/internal/notification"
	"github.com/modelhub/portal/internal/testutil"
	"github.com/modelhub/portal/internal/usage"
)

func newDashboardHandler(t *testing.T, subs *fakeSubs) *DashboardHandler {
	t.Helper()
	logger := testutil.DiscardLogger()
	notifications := notification.NewService(notification.NewMemoryStore(), time.UTC, nil, logger)
	svc := dashboard.NewService(subs, usage.NewService(subs, logger), notifications, invoice.NewService(subs, logger), logger)
	return NewDashboardHandler(svc, logger)
}

func TestDashboardHandler_Overview(t *testing.T) {
	t.Parallel()

	h := newDashboardHandler(t, testSubs(t))
	rec := serve(t, http.MethodGet, "/api/v1/dashboard", "/api/v1/dashboard", "", h.Overview, true)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var overview dashboard.Overview
	if err := json.NewDecoder(rec.Body).Decode(&overview); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if overview.Header.Profile.ID != testUserID {
		t.Errorf("expected header profile %s, got %s", testUserID, overview.Header.Profile.ID)
	}
	if overview.Stats.ActiveSubscriptions != 2 {
		t.Errorf("expected 2 active subscriptions, got %d", overview.Stats.ActiveSubscriptions)
	}
	if overview.Header.UnreadCount == 0 {
		t.Error("expected unread badge from starter notifications")
	}
	if len(overview.RecentActivity) == 0 || len(overview.RecentActivity) > dashboard.DefaultActivityLimit {
		t.Errorf("unexpected activity length %d", len(overview.RecentActivity))
	}
}

func TestDashboardHandler_Overview_BackendDown(t *testing.T) {
	t.Parallel()

	h := newDashboardHandler(t, &fakeSubs{err: errors.New("dial tcp: connection refused")})
	rec := serve(t, http.MethodGet, "/api/v1/dashboard", "/api/v1/dashboard", "", h.Overview, true)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected status 502, got %d", rec.Code)
	}
}

func TestDashboardHandler_Activity(t *testing.T) {
	t.Parallel()

	h := newDashboardHandler(t, testSubs(t))

	tests := []struct {
		query      string
		wantStatus int
		wantMax    int
	}{
		{"", http.StatusOK, dashboard.DefaultActivityLimit},
		{"?limit=3", http.StatusOK, 3},
		{"?limit=0", http.StatusBadRequest, 0},
		{"?limit=500", http.StatusBadRequest, 0},
		{"?limit=abc", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		rec := serve(t, http.MethodGet, "/api/v1/activity", "/api/v1/activity"+tt.query, "", h.Activity, true)
		if rec.Code != tt.wantStatus {
			t.Errorf("%q: expected status %d, got %d", tt.query, tt.wantStatus, rec.Code)
			continue
		}
		if tt.wantStatus != http.StatusOK {
			continue
		}
		var body struct {
			Items []json.RawMessage `json:"items"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(body.Items) == 0 || len(body.Items) > tt.wantMax {
			t.Errorf("%q: expected 1..%d items, got %d", tt.query, tt.wantMax, len(body.Items))
		}
	}
}
