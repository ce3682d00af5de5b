package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
)

const (
	cookieName = "portal_session"
	tokenKey   = "token"
)

// ErrNoSession is returned when the request carries no session cookie.
var ErrNoSession = errors.New("no session")

// CookieStore keeps the backend bearer token in a signed, encrypted cookie.
type CookieStore struct {
	store *sessions.CookieStore
}

// NewCookieStore creates a store. secret must be at least 32 bytes; the
// first 32 bytes also serve as the encryption key.
func NewCookieStore(secret []byte, maxAge time.Duration, secure bool) *CookieStore {
	store := sessions.NewCookieStore(secret, secret[:32])
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &CookieStore{store: store}
}

// Save writes the token into the session cookie.
func (c *CookieStore) Save(w http.ResponseWriter, r *http.Request, token string) error {
	s, _ := c.store.Get(r, cookieName)
	s.Values[tokenKey] = token
	if err := s.Save(r, w); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Load returns the token stored in the session cookie.
func (c *CookieStore) Load(r *http.Request) (string, error) {
	s, err := c.store.Get(r, cookieName)
	if err != nil {
		// Tampered or stale cookie
		return "", ErrNoSession
	}
	token, ok := s.Values[tokenKey].(string)
	if !ok || token == "" {
		return "", ErrNoSession
	}
	return token, nil
}

// Clear expires the session cookie.
func (c *CookieStore) Clear(w http.ResponseWriter, r *http.Request) error {
	s, _ := c.store.Get(r, cookieName)
	delete(s.Values, tokenKey)
	s.Options.MaxAge = -1
	if err := s.Save(r, w); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
