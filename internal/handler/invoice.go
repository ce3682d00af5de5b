package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/modelhub/portal/internal/invoice"
	"github.com/modelhub/portal/internal/model"
	"github.com/modelhub/portal/internal/session"
)

// InvoiceService builds the billing history.
type InvoiceService interface {
	List(ctx context.Context, token string, status model.InvoiceStatus) (*invoice.List, error)
	Get(ctx context.Context, token, id string) (*model.Invoice, error)
}

// InvoiceHandler serves the invoices page.
type InvoiceHandler struct {
	service InvoiceService
	logger  *slog.Logger
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(service InvoiceService, logger *slog.Logger) *InvoiceHandler {
	return &InvoiceHandler{service: service, logger: logger}
}

// List handles GET /api/v1/invoices
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())

	status, err := invoice.ParseStatus(r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_STATUS", "status must be one of all, paid, pending, overdue")
		return
	}

	list, err := h.service.List(r.Context(), sess.Token, status)
	if err != nil {
		writeUpstreamError(w, r, h.logger, "list invoices", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Get handles GET /api/v1/invoices/{id}
func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())

	inv, err := h.service.Get(r.Context(), sess.Token, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, invoice.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Invoice not found")
			return
		}
		writeUpstreamError(w, r, h.logger, "get invoice", err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}
