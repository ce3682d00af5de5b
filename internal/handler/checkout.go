package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelhub/portal/internal/checkout"
	"github.com/modelhub/portal/internal/model"
	"github.com/modelhub/portal/internal/session"
)

// CheckoutService validates and submits the payment form.
type CheckoutService interface {
	Validate(f checkout.Form) (*checkout.Quote, error)
	Submit(ctx context.Context, token string, f checkout.Form) (*checkout.Confirmation, error)
}

// CheckoutHandler serves the checkout form.
type CheckoutHandler struct {
	service CheckoutService
	logger  *slog.Logger
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(service CheckoutService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{service: service, logger: logger}
}

// paymentErrorBody carries a declined payment in the error envelope.
type paymentErrorBody struct {
	Error *model.PaymentErrorInfo `json:"error"`
}

// Validate handles POST /api/v1/checkout/validate
func (h *CheckoutHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var f checkout.Form
	if err := decodeJSON(r, &f); err != nil {
		writeInvalidBody(w)
		return
	}

	quote, err := h.service.Validate(f)
	if err != nil {
		h.writeCheckoutError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

// Submit handles POST /api/v1/checkout
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())

	var f checkout.Form
	if err := decodeJSON(r, &f); err != nil {
		writeInvalidBody(w)
		return
	}

	conf, err := h.service.Submit(r.Context(), sess.Token, f)
	if err != nil {
		h.writeCheckoutError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusCreated, conf)
}

func (h *CheckoutHandler) writeCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *checkout.ValidationError
	var payErr *model.PaymentErrorInfo
	switch {
	case errors.As(err, &verr):
		writeValidationError(w, verr.Fields)
	case errors.As(err, &payErr):
		writeJSON(w, http.StatusPaymentRequired, paymentErrorBody{Error: payErr})
	default:
		writeUpstreamError(w, r, h.logger, "checkout", err)
	}
}
