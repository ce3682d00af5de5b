package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/modelhub/portal/internal/apikey"
	"github.com/modelhub/portal/internal/middleware"
	"github.com/modelhub/portal/internal/model"
	"github.com/modelhub/portal/internal/session"
)

// APIKeyService lists and regenerates the user's API keys.
type APIKeyService interface {
	List(ctx context.Context, token, userID string) ([]model.APIKey, error)
	Regenerate(ctx context.Context, token, userID, keyID string) (*model.RegeneratedKey, error)
}

// APIKeyHandler handles API key management endpoints.
type APIKeyHandler struct {
	service APIKeyService
	logger  *slog.Logger
}

// NewAPIKeyHandler creates a new APIKeyHandler.
func NewAPIKeyHandler(service APIKeyService, logger *slog.Logger) *APIKeyHandler {
	return &APIKeyHandler{service: service, logger: logger}
}

// List handles GET /api/v1/api-keys
func (h *APIKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())

	keys, err := h.service.List(r.Context(), sess.Token, sess.UserID)
	if err != nil {
		writeUpstreamError(w, r, h.logger, "list api keys", err)
		return
	}
	if keys == nil {
		keys = []model.APIKey{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"api_keys": keys})
}

// Regenerate handles POST /api/v1/api-keys/{id}/regenerate
// The plaintext key is in this response only.
func (h *APIKeyHandler) Regenerate(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())
	keyID := chi.URLParam(r, "id")

	key, err := h.service.Regenerate(r.Context(), sess.Token, sess.UserID, keyID)
	if err != nil {
		switch {
		case errors.Is(err, apikey.ErrNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "API key not found")
		case errors.Is(err, apikey.ErrRevoked):
			writeError(w, http.StatusConflict, "KEY_REVOKED", "API key is revoked")
		default:
			writeUpstreamError(w, r, h.logger, "regenerate api key", err)
		}
		return
	}

	h.logger.Info("API key regenerated",
		slog.String("key_id", keyID),
		slog.String("key_prefix", key.KeyPrefix),
		slog.String("user_id", sess.UserID),
		slog.String("request_id", middleware.GetRequestID(r.Context())),
	)

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, key)
}
