// Package handler provides HTTP request handlers.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/modelhub/portal/internal/backend"
	"github.com/modelhub/portal/internal/middleware"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// NotFound handles 404 responses.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
}

// MethodNotAllowed handles 405 responses.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// writeValidationError writes a 422 with one message per invalid field.
func writeValidationError(w http.ResponseWriter, fields map[string]string) {
	writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: errorDetail{
		Code:    "VALIDATION_FAILED",
		Message: "Please correct the highlighted fields",
		Fields:  fields,
	}})
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func writeInvalidBody(w http.ResponseWriter) {
	writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
}

// writeUpstreamError maps a backend failure to a response. Backend 4xx
// statuses pass through with the backend's message; anything else is 502.
func writeUpstreamError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, op string, err error) {
	var apiErr *backend.APIError
	switch {
	case errors.Is(err, backend.ErrNoToken) || backend.IsUnauthorized(err):
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Sign in to continue")
		return
	case errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500:
		code := "BACKEND_REJECTED"
		switch apiErr.Status {
		case http.StatusNotFound:
			code = "NOT_FOUND"
		case http.StatusForbidden:
			code = "FORBIDDEN"
		}
		writeError(w, apiErr.Status, code, apiErr.Message)
		return
	case errors.Is(err, context.Canceled):
		return
	}

	logger.Error(op+" failed",
		slog.String("error", err.Error()),
		slog.String("request_id", middleware.GetRequestID(r.Context())),
	)

	message := "The marketplace is unavailable. Please try again."
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		message = apiErr.Message
	}
	writeError(w, http.StatusBadGateway, "BACKEND_UNAVAILABLE", message)
}

// writeInternalError logs err and writes a generic 500.
func writeInternalError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, op string, err error) {
	logger.Error(op+" failed",
		slog.String("error", err.Error()),
		slog.String("request_id", middleware.GetRequestID(r.Context())),
	)
	writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
}
