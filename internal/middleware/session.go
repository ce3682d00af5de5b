package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/modelhub/portal/internal/model"
	"github.com/modelhub/portal/internal/session"
)

// SessionResolver turns a bearer token into a session.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*session.Session, *model.Profile, error)
}

// TokenSource reads the token stored in the session cookie.
type TokenSource interface {
	Load(r *http.Request) (string, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger   *slog.Logger
	Resolver SessionResolver
	Cookies  TokenSource
}

// Authenticate returns a middleware that requires a signed-in session.
// The token comes from "Authorization: Bearer" or, failing that, the
// session cookie.
func Authenticate(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r, cfg.Cookies)
			if token == "" {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "missing_token"),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w)
				return
			}

			sess, profile, err := cfg.Resolver.Resolve(r.Context(), token)
			if err != nil {
				if errors.Is(err, session.ErrUnauthenticated) || errors.Is(err, session.ErrExpired) {
					cfg.Logger.Warn("authentication failed",
						slog.String("reason", reason(err)),
						slog.String("endpoint", r.Method+" "+r.URL.Path),
						slog.String("request_id", GetRequestID(r.Context())),
					)
					writeAuthError(w)
					return
				}

				cfg.Logger.Error("session lookup failed",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeError(w, http.StatusBadGateway, "BACKEND_UNAVAILABLE", "Could not reach the account service")
				return
			}

			setLogUserID(r.Context(), sess.UserID)
			ctx := session.WithSession(r.Context(), sess, profile)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func reason(err error) string {
	if errors.Is(err, session.ErrExpired) {
		return "expired_token"
	}
	return "invalid_token"
}

// extractToken prefers an explicit bearer header over the cookie.
func extractToken(r *http.Request, cookies TokenSource) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if cookies == nil {
		return ""
	}
	token, err := cookies.Load(r)
	if err != nil {
		return ""
	}
	return token
}

// writeAuthError writes a 401 Unauthorized response.
// Uses the same message for all auth failures to prevent enumeration.
func writeAuthError(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Sign in to continue")
}
