package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelhub/portal/internal/model"
	"github.com/modelhub/portal/internal/session"
	"github.com/modelhub/portal/internal/usage"
)

// UsageService builds usage summaries.
type UsageService interface {
	Summary(ctx context.Context, q usage.Query) (*model.UsageSummary, error)
}

// UsageHandler serves the usage statistics page.
type UsageHandler struct {
	service UsageService
	logger  *slog.Logger
}

// NewUsageHandler creates a new UsageHandler.
func NewUsageHandler(service UsageService, logger *slog.Logger) *UsageHandler {
	return &UsageHandler{service: service, logger: logger}
}

// Summary handles GET /api/v1/usage?window=7d|30d|90d|all&model=
func (h *UsageHandler) Summary(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())

	window, err := usage.ParseWindow(r.URL.Query().Get("window"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_WINDOW", "window must be one of 7d, 30d, 90d, all")
		return
	}

	summary, err := h.service.Summary(r.Context(), usage.Query{
		Token:   sess.Token,
		UserID:  sess.UserID,
		Window:  window,
		ModelID: r.URL.Query().Get("model"),
	})
	if err != nil {
		if errors.Is(err, usage.ErrUnknownModel) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "You are not subscribed to that model")
			return
		}
		writeUpstreamError(w, r, h.logger, "usage summary", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
