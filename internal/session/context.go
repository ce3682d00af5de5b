// Package session resolves the caller's backend bearer token into a portal
// session and carries it through the request context.
package session

import (
	"context"
	"time"

	"github.com/modelhub/portal/internal/model"
)

// Session is an authenticated portal visitor.
type Session struct {
	UserID    string
	Token     string
	ExpiresAt time.Time
}

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	sessionContextKey contextKey = "session"
	profileContextKey contextKey = "profile"
)

// WithSession adds the session and its profile to the context.
func WithSession(ctx context.Context, s *Session, p *model.Profile) context.Context {
	ctx = context.WithValue(ctx, sessionContextKey, s)
	return context.WithValue(ctx, profileContextKey, p)
}

// FromContext retrieves the session from the context.
// Returns nil if not present.
func FromContext(ctx context.Context) *Session {
	s, ok := ctx.Value(sessionContextKey).(*Session)
	if !ok {
		return nil
	}
	return s
}

// ProfileFromContext retrieves the profile resolved for the session.
func ProfileFromContext(ctx context.Context) *model.Profile {
	p, ok := ctx.Value(profileContextKey).(*model.Profile)
	if !ok {
		return nil
	}
	return p
}

// MustFromContext retrieves the session from the context.
// Panics if not present (use only when the auth middleware has run).
func MustFromContext(ctx context.Context) *Session {
	s := FromContext(ctx)
	if s == nil {
		panic("session not found - ensure auth middleware is applied")
	}
	return s
}

// UserIDFromContext returns the user ID, or "" when not authenticated.
func UserIDFromContext(ctx context.Context) string {
	s := FromContext(ctx)
	if s == nil {
		return ""
	}
	return s.UserID
}
