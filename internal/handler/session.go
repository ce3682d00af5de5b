package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/modelhub/portal/internal/middleware"
	"github.com/modelhub/portal/internal/model"
	"github.com/modelhub/portal/internal/session"
)

// SessionResolver validates tokens and forgets cached sessions.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*session.Session, *model.Profile, error)
	Invalidate(ctx context.Context, token string) error
}

// CookieStore keeps the bearer token in the session cookie.
type CookieStore interface {
	Save(w http.ResponseWriter, r *http.Request, token string) error
	Load(r *http.Request) (string, error)
	Clear(w http.ResponseWriter, r *http.Request) error
}

// SessionHandler signs visitors in and out.
type SessionHandler struct {
	resolver SessionResolver
	cookies  CookieStore
	logger   *slog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(resolver SessionResolver, cookies CookieStore, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{resolver: resolver, cookies: cookies, logger: logger}
}

// CreateSessionRequest carries a backend bearer token.
type CreateSessionRequest struct {
	Token string `json:"token"`
}

// SessionResponse describes the signed-in session.
type SessionResponse struct {
	Profile   *model.Profile `json:"profile"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// Create handles POST /api/v1/session
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeInvalidBody(w)
		return
	}
	token := strings.TrimSpace(req.Token)
	if token == "" {
		writeValidationError(w, map[string]string{"token": "Token is required"})
		return
	}

	sess, profile, err := h.resolver.Resolve(r.Context(), token)
	if err != nil {
		if errors.Is(err, session.ErrUnauthenticated) || errors.Is(err, session.ErrExpired) {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Sign in to continue")
			return
		}
		writeUpstreamError(w, r, h.logger, "session create", err)
		return
	}

	if err := h.cookies.Save(w, r, token); err != nil {
		writeInternalError(w, r, h.logger, "session cookie save", err)
		return
	}

	h.logger.Info("session created",
		slog.String("user_id", sess.UserID),
		slog.String("request_id", middleware.GetRequestID(r.Context())),
	)
	writeJSON(w, http.StatusCreated, SessionResponse{Profile: profile, ExpiresAt: sess.ExpiresAt})
}

// Delete handles DELETE /api/v1/session
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if token, err := h.cookies.Load(r); err == nil {
		if err := h.resolver.Invalidate(r.Context(), token); err != nil {
			h.logger.Warn("session invalidate failed", slog.String("error", err.Error()))
		}
	}
	if err := h.cookies.Clear(w, r); err != nil {
		writeInternalError(w, r, h.logger, "session cookie clear", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
