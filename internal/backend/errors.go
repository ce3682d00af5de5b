package backend

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// ErrNoToken is returned when a call is made without a bearer token.
var ErrNoToken = errors.New("backend: missing bearer token")

// APIError is a non-successful backend response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// IsNotFound reports whether err is a backend 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// IsUnauthorized reports whether err is a backend 401.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// errorBody covers the shapes the backend uses for failures:
// the envelope message, a plain "error" string or an "error" object.
type errorBody struct {
	Message string          `json:"message"`
	Error   json.RawMessage `json:"error"`
}

// newAPIError extracts a user-facing message from a failed response body.
func newAPIError(status int, body []byte) *APIError {
	return &APIError{Status: status, Message: extractMessage(status, body)}
}

func extractMessage(status int, body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		if msg := strings.TrimSpace(eb.Message); msg != "" {
			return msg
		}
		if len(eb.Error) > 0 {
			var s string
			if err := json.Unmarshal(eb.Error, &s); err == nil && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
			var obj struct {
				Message string `json:"message"`
			}
			if err := json.Unmarshal(eb.Error, &obj); err == nil && strings.TrimSpace(obj.Message) != "" {
				return strings.TrimSpace(obj.Message)
			}
		}
	}

	if text := http.StatusText(status); text != "" {
		return text
	}
	return "Request failed"
}
