package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/modelhub/portal/internal/notification"
	"github.com/modelhub/portal/internal/session"
)

// NotificationService implements the notifications page.
type NotificationService interface {
	List(ctx context.Context, userID string, f notification.Filter) (*notification.ListResult, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkUnread(ctx context.Context, userID, id string) error
	MarkManyRead(ctx context.Context, userID string, ids []string) (int, error)
	DeleteMany(ctx context.Context, userID string, ids []string) (int, error)
}

// NotificationHandler serves the notifications page and its bulk actions.
type NotificationHandler struct {
	service NotificationService
	logger  *slog.Logger
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(service NotificationService, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{service: service, logger: logger}
}

// BulkRequest selects notifications for a bulk action.
type BulkRequest struct {
	IDs []string `json:"ids"`
}

// BulkResponse reports how many notifications a bulk action changed.
type BulkResponse struct {
	Count  int `json:"count"`
	Unread int `json:"unread"`
}

// List handles GET /api/v1/notifications?status=&type=
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())

	q := r.URL.Query()
	filter, err := notification.ParseFilter(q.Get("status"), q.Get("type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_FILTER", err.Error())
		return
	}

	result, err := h.service.List(r.Context(), sess.UserID, filter)
	if err != nil {
		writeInternalError(w, r, h.logger, "list notifications", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// UnreadCount handles GET /api/v1/notifications/unread-count
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())

	count, err := h.service.UnreadCount(r.Context(), sess.UserID)
	if err != nil {
		writeInternalError(w, r, h.logger, "count unread notifications", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"unread": count})
}

// MarkRead handles POST /api/v1/notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())
	h.writeSingleResult(w, r, h.service.MarkRead(r.Context(), sess.UserID, chi.URLParam(r, "id")))
}

// MarkUnread handles POST /api/v1/notifications/{id}/unread
func (h *NotificationHandler) MarkUnread(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())
	h.writeSingleResult(w, r, h.service.MarkUnread(r.Context(), sess.UserID, chi.URLParam(r, "id")))
}

// MarkManyRead handles POST /api/v1/notifications/read. No ids marks all.
func (h *NotificationHandler) MarkManyRead(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())

	var req BulkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeInvalidBody(w)
		return
	}

	changed, err := h.service.MarkManyRead(r.Context(), sess.UserID, req.IDs)
	if err != nil {
		writeInternalError(w, r, h.logger, "mark notifications read", err)
		return
	}
	h.writeBulkResult(w, r, sess.UserID, changed)
}

// Delete handles POST /api/v1/notifications/delete
func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())

	var req BulkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeInvalidBody(w)
		return
	}

	deleted, err := h.service.DeleteMany(r.Context(), sess.UserID, req.IDs)
	if err != nil {
		if errors.Is(err, notification.ErrNoIDs) {
			writeValidationError(w, map[string]string{"ids": "Select at least one notification"})
			return
		}
		writeInternalError(w, r, h.logger, "delete notifications", err)
		return
	}
	h.writeBulkResult(w, r, sess.UserID, deleted)
}

func (h *NotificationHandler) writeSingleResult(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		if errors.Is(err, notification.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Notification not found")
			return
		}
		writeInternalError(w, r, h.logger, "update notification", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeBulkResult includes the fresh unread count so the header badge can update.
func (h *NotificationHandler) writeBulkResult(w http.ResponseWriter, r *http.Request, userID string, count int) {
	unread, err := h.service.UnreadCount(r.Context(), userID)
	if err != nil {
		writeInternalError(w, r, h.logger, "count unread notifications", err)
		return
	}
	writeJSON(w, http.StatusOK, BulkResponse{Count: count, Unread: unread})
}
