package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/modelhub/portal/internal/instance"
	"github.com/modelhub/portal/internal/model"
	"github.com/modelhub/portal/internal/session"
)

// SubscriptionBackend reads the user's subscriptions from the marketplace.
type SubscriptionBackend interface {
	ListSubscriptions(ctx context.Context, token string) ([]model.Subscription, error)
	GetSubscription(ctx context.Context, token, id string) (*model.Subscription, error)
}

// InstanceService lists and controls the instances of a subscription.
type InstanceService interface {
	ForSubscription(ctx context.Context, token, userID, subscriptionID string) ([]model.Instance, error)
	Apply(ctx context.Context, token, userID, instanceID, action string) (*model.Instance, error)
}

// SubscriptionHandler serves subscriptions and their instances.
type SubscriptionHandler struct {
	subs      SubscriptionBackend
	instances InstanceService
	logger    *slog.Logger
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(subs SubscriptionBackend, instances InstanceService, logger *slog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{subs: subs, instances: instances, logger: logger}
}

// SubscriptionList is the subscriptions page.
type SubscriptionList struct {
	Subscriptions []model.Subscription `json:"subscriptions"`
	Total         int                  `json:"total"`
	Active        int                  `json:"active"`
}

// List handles GET /api/v1/subscriptions
func (h *SubscriptionHandler) List(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())

	subs, err := h.subs.ListSubscriptions(r.Context(), sess.Token)
	if err != nil {
		writeUpstreamError(w, r, h.logger, "list subscriptions", err)
		return
	}
	if subs == nil {
		subs = []model.Subscription{}
	}

	active := 0
	for _, s := range subs {
		if s.IsActive() {
			active++
		}
	}
	writeJSON(w, http.StatusOK, SubscriptionList{Subscriptions: subs, Total: len(subs), Active: active})
}

// Get handles GET /api/v1/subscriptions/{id}
func (h *SubscriptionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())

	sub, err := h.subs.GetSubscription(r.Context(), sess.Token, chi.URLParam(r, "id"))
	if err != nil {
		writeUpstreamError(w, r, h.logger, "get subscription", err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// ListInstances handles GET /api/v1/subscriptions/{id}/instances
func (h *SubscriptionHandler) ListInstances(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())

	instances, err := h.instances.ForSubscription(r.Context(), sess.Token, sess.UserID, chi.URLParam(r, "id"))
	if err != nil {
		h.writeInstanceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"instances": instances})
}

// InstanceAction returns the handler for POST /api/v1/instances/{id}/{action}.
func (h *SubscriptionHandler) InstanceAction(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := session.MustFromContext(r.Context())

		inst, err := h.instances.Apply(r.Context(), sess.Token, sess.UserID, chi.URLParam(r, "id"), action)
		if err != nil {
			h.writeInstanceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, inst)
	}
}

func (h *SubscriptionHandler) writeInstanceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, instance.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Instance not found")
	case errors.Is(err, instance.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "INVALID_TRANSITION", "The instance cannot do that in its current state")
	case errors.Is(err, instance.ErrSubscriptionInactive):
		writeError(w, http.StatusConflict, "SUBSCRIPTION_INACTIVE", "The subscription is not active")
	case errors.Is(err, instance.ErrUnknownAction):
		writeError(w, http.StatusBadRequest, "UNKNOWN_ACTION", "Unknown instance action")
	default:
		writeUpstreamError(w, r, h.logger, "instance", err)
	}
}
