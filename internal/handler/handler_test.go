package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/modelhub/portal/internal/backend"
	"github.com/modelhub/portal/internal/model"
	"github.com/modelhub/portal/internal/session"
	"github.com/modelhub/portal/internal/testutil"
)

const (
	testUserID = "usr_test"
	testToken  = "tok_test"
)

// serve routes one request through a chi router so URL params resolve.
// Signed-in requests carry a session for testUserID.
func serve(t *testing.T, method, pattern, path string, body string, h http.HandlerFunc, signedIn bool) *httptest.ResponseRecorder {
	t.Helper()

	r := chi.NewRouter()
	r.MethodFunc(method, pattern, h)

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if signedIn {
		ctx := session.WithSession(req.Context(),
			&session.Session{UserID: testUserID, Token: testToken},
			testutil.NewTestProfile(t, testUserID))
		req = req.WithContext(ctx)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorDetail {
	t.Helper()
	var body errorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body.Error
}

func TestNotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	NotFound(rec, httptest.NewRequest(http.MethodGet, "/nonexistent", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}
	if got := decodeError(t, rec); got.Code != "NOT_FOUND" {
		t.Errorf("unexpected error code: %s", got.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	MethodNotAllowed(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", rec.Code)
	}
	contentType := rec.Header().Get("Content-Type")
	if contentType != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", contentType)
	}
	if got := decodeError(t, rec); got.Code != "METHOD_NOT_ALLOWED" {
		t.Errorf("unexpected error code: %s", got.Code)
	}
}

func TestWriteUpstreamError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{
			name:       "missing token",
			err:        backend.ErrNoToken,
			wantStatus: http.StatusUnauthorized,
			wantCode:   "UNAUTHORIZED",
		},
		{
			name:       "backend 401",
			err:        fmt.Errorf("get profile: %w", &backend.APIError{Status: 401, Message: "token expired"}),
			wantStatus: http.StatusUnauthorized,
			wantCode:   "UNAUTHORIZED",
		},
		{
			name:        "backend 404 passes through",
			err:         &backend.APIError{Status: 404, Message: "Subscription not found"},
			wantStatus:  http.StatusNotFound,
			wantCode:    "NOT_FOUND",
			wantMessage: "Subscription not found",
		},
		{
			name:        "backend 422 passes through",
			err:         &backend.APIError{Status: 422, Message: "Email already taken"},
			wantStatus:  http.StatusUnprocessableEntity,
			wantCode:    "BACKEND_REJECTED",
			wantMessage: "Email already taken",
		},
		{
			name:        "backend 500 becomes 502 with its message",
			err:         &backend.APIError{Status: 500, Message: "Database unavailable"},
			wantStatus:  http.StatusBadGateway,
			wantCode:    "BACKEND_UNAVAILABLE",
			wantMessage: "Database unavailable",
		},
		{
			name:        "transport error",
			err:         errors.New("dial tcp: connection refused"),
			wantStatus:  http.StatusBadGateway,
			wantCode:    "BACKEND_UNAVAILABLE",
			wantMessage: "The marketplace is unavailable. Please try again.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			writeUpstreamError(rec, httptest.NewRequest(http.MethodGet, "/", nil), testutil.DiscardLogger(), "test", tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			got := decodeError(t, rec)
			if got.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, got.Code)
			}
			if tt.wantMessage != "" && got.Message != tt.wantMessage {
				t.Errorf("expected message %q, got %q", tt.wantMessage, got.Message)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"ids":["a"]}`, false},
		{"empty body", ``, false},
		{"unknown field", `{"idz":["a"]}`, true},
		{"malformed", `{"ids":`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var v BulkRequest
			err := decodeJSON(req, &v)
			if (err != nil) != tt.wantErr {
				t.Errorf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

// fakeSubs serves a fixed subscription list.
type fakeSubs struct {
	subs []model.Subscription
	err  error
}

func (f *fakeSubs) ListSubscriptions(ctx context.Context, token string) ([]model.Subscription, error) {
	if token == "" {
		return nil, backend.ErrNoToken
	}
	return f.subs, f.err
}

func (f *fakeSubs) GetSubscription(ctx context.Context, token, id string) (*model.Subscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.subs {
		if f.subs[i].ID == id {
			return &f.subs[i], nil
		}
	}
	return nil, &backend.APIError{Status: http.StatusNotFound, Message: "Subscription not found"}
}
