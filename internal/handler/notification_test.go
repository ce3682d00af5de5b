package handler

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/modelhub/portal/internal/notification"
	"github.com/modelhub/portal/internal/testutil"
)

func newNotificationHandler() *NotificationHandler {
	svc := notification.NewService(notification.NewMemoryStore(), time.UTC, nil, testutil.DiscardLogger())
	return NewNotificationHandler(svc, testutil.DiscardLogger())
}

func unreadCount(t *testing.T, h *NotificationHandler) int {
	t.Helper()
	rec := serve(t, http.MethodGet, "/api/v1/notifications/unread-count", "/api/v1/notifications/unread-count", "", h.UnreadCount, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var body map[string]int
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return body["unread"]
}

func listNotifications(t *testing.T, h *NotificationHandler, query string) notification.ListResult {
	t.Helper()
	rec := serve(t, http.MethodGet, "/api/v1/notifications", "/api/v1/notifications"+query, "", h.List, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var result notification.ListResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return result
}

func TestNotificationHandler_MarkAllReadClearsUnread(t *testing.T) {
	t.Parallel()

	h := newNotificationHandler()
	if unreadCount(t, h) == 0 {
		t.Fatal("expected seeded unread notifications")
	}

	rec := serve(t, http.MethodPost, "/api/v1/notifications/read", "/api/v1/notifications/read", `{"ids":[]}`, h.MarkManyRead, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var bulk BulkResponse
	if err := json.NewDecoder(rec.Body).Decode(&bulk); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if bulk.Count == 0 || bulk.Unread != 0 {
		t.Errorf("expected some changed and zero unread, got %+v", bulk)
	}
	if got := unreadCount(t, h); got != 0 {
		t.Errorf("expected 0 unread, got %d", got)
	}
}

func TestNotificationHandler_SingleReadUnread(t *testing.T) {
	t.Parallel()

	h := newNotificationHandler()
	unread := listNotifications(t, h, "?status=unread")
	if unread.Total == 0 {
		t.Fatal("expected unread notifications")
	}
	id := unread.Groups[0].Items[0].ID
	before := unread.Unread

	rec := serve(t, http.MethodPost, "/api/v1/notifications/{id}/read", "/api/v1/notifications/"+id+"/read", "", h.MarkRead, true)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rec.Code)
	}
	if got := unreadCount(t, h); got != before-1 {
		t.Errorf("expected %d unread, got %d", before-1, got)
	}

	rec = serve(t, http.MethodPost, "/api/v1/notifications/{id}/unread", "/api/v1/notifications/"+id+"/unread", "", h.MarkUnread, true)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rec.Code)
	}
	if got := unreadCount(t, h); got != before {
		t.Errorf("expected %d unread, got %d", before, got)
	}

	rec = serve(t, http.MethodPost, "/api/v1/notifications/{id}/read", "/api/v1/notifications/missing/read", "", h.MarkRead, true)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}
}

func TestNotificationHandler_Delete(t *testing.T) {
	t.Parallel()

	h := newNotificationHandler()
	all := listNotifications(t, h, "")
	id := all.Groups[0].Items[0].ID

	rec := serve(t, http.MethodPost, "/api/v1/notifications/delete", "/api/v1/notifications/delete", `{"ids":["`+id+`"]}`, h.Delete, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if after := listNotifications(t, h, ""); after.Total != all.Total-1 {
		t.Errorf("expected %d notifications, got %d", all.Total-1, after.Total)
	}

	rec = serve(t, http.MethodPost, "/api/v1/notifications/delete", "/api/v1/notifications/delete", `{"ids":[]}`, h.Delete, true)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected status 422 for empty selection, got %d", rec.Code)
	}
}

func TestNotificationHandler_List_InvalidFilter(t *testing.T) {
	t.Parallel()

	h := newNotificationHandler()
	for _, query := range []string{"?status=archived", "?type=marketing"} {
		rec := serve(t, http.MethodGet, "/api/v1/notifications", "/api/v1/notifications"+query, "", h.List, true)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status 400, got %d", query, rec.Code)
		}
	}
}
