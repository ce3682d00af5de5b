package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelhub/portal/internal/account"
	"github.com/modelhub/portal/internal/model"
	"github.com/modelhub/portal/internal/session"
)

// AccountService implements the account settings pages.
type AccountService interface {
	Profile(ctx context.Context, token string) (*model.Profile, error)
	UpdateProfile(ctx context.Context, token string, in model.ProfileUpdate) (*model.Profile, error)
	ChangePassword(ctx context.Context, token string, in model.PasswordChange) error
	Preferences(ctx context.Context, userID string) (*model.Preferences, error)
	UpdatePreferences(ctx context.Context, userID string, in model.Preferences) (*model.Preferences, error)
}

// AccountHandler serves profile, password and preferences.
type AccountHandler struct {
	service AccountService
	logger  *slog.Logger
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(service AccountService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{service: service, logger: logger}
}

// GetProfile handles GET /api/v1/account/profile
func (h *AccountHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())

	p, err := h.service.Profile(r.Context(), sess.Token)
	if err != nil {
		writeUpstreamError(w, r, h.logger, "get profile", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// UpdateProfile handles PUT /api/v1/account/profile
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())

	var in model.ProfileUpdate
	if err := decodeJSON(r, &in); err != nil {
		writeInvalidBody(w)
		return
	}

	p, err := h.service.UpdateProfile(r.Context(), sess.Token, in)
	if err != nil {
		h.writeAccountError(w, r, "update profile", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ChangePassword handles POST /api/v1/account/password
func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())

	var in model.PasswordChange
	if err := decodeJSON(r, &in); err != nil {
		writeInvalidBody(w)
		return
	}

	if err := h.service.ChangePassword(r.Context(), sess.Token, in); err != nil {
		h.writeAccountError(w, r, "change password", err)
		return
	}
	h.logger.Info("password changed", slog.String("user_id", sess.UserID))
	w.WriteHeader(http.StatusNoContent)
}

// GetPreferences handles GET /api/v1/account/preferences
func (h *AccountHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())

	prefs, err := h.service.Preferences(r.Context(), sess.UserID)
	if err != nil {
		writeInternalError(w, r, h.logger, "get preferences", err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

// UpdatePreferences handles PUT /api/v1/account/preferences
func (h *AccountHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())

	var in model.Preferences
	if err := decodeJSON(r, &in); err != nil {
		writeInvalidBody(w)
		return
	}

	prefs, err := h.service.UpdatePreferences(r.Context(), sess.UserID, in)
	if err != nil {
		var verr *account.ValidationError
		if errors.As(err, &verr) {
			writeValidationError(w, verr.Fields)
			return
		}
		writeInternalError(w, r, h.logger, "update preferences", err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (h *AccountHandler) writeAccountError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var verr *account.ValidationError
	if errors.As(err, &verr) {
		writeValidationError(w, verr.Fields)
		return
	}
	writeUpstreamError(w, r, h.logger, op, err)
}
