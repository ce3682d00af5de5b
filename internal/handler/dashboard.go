package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/modelhub/portal/internal/dashboard"
	"github.com/modelhub/portal/internal/model"
	"github.com/modelhub/portal/internal/session"
)

// maxActivityLimit caps the activity feed page size.
const maxActivityLimit = 50

// DashboardService builds the signed-in landing page.
type DashboardService interface {
	Overview(ctx context.Context, token string, profile model.Profile) (*dashboard.Overview, error)
	Activity(ctx context.Context, token, userID string, limit int) ([]model.ActivityItem, error)
}

// DashboardHandler serves the dashboard and activity feed.
type DashboardHandler struct {
	service DashboardService
	logger  *slog.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(service DashboardService, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{service: service, logger: logger}
}

// Overview handles GET /api/v1/dashboard
func (h *DashboardHandler) Overview(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())
	profile := session.ProfileFromContext(r.Context())
	if profile == nil {
		profile = &model.Profile{ID: sess.UserID}
	}

	overview, err := h.service.Overview(r.Context(), sess.Token, *profile)
	if err != nil {
		writeUpstreamError(w, r, h.logger, "dashboard overview", err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

// Activity handles GET /api/v1/activity
func (h *DashboardHandler) Activity(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())

	limit := dashboard.DefaultActivityLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxActivityLimit {
			writeError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be between 1 and "+strconv.Itoa(maxActivityLimit))
			return
		}
		limit = n
	}

	items, err := h.service.Activity(r.Context(), sess.Token, sess.UserID, limit)
	if err != nil {
		writeUpstreamError(w, r, h.logger, "activity feed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}
