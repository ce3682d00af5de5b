package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNotJWT is returned for opaque tokens that carry no readable claims.
	ErrNotJWT = errors.New("token is not a JWT")
	// ErrExpired is returned when the token's own expiry has passed.
	ErrExpired = errors.New("token expired")
)

// Claims are the parts of a backend token the portal reads.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

// ParseClaims reads subject and expiry from a JWT without verifying its
// signature. The backend remains the authority on token validity; the
// portal only uses these values to skip calls for tokens that are
// plainly expired.
func ParseClaims(token string) (*Claims, error) {
	var rc jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &rc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotJWT, err)
	}

	c := &Claims{Subject: rc.Subject}
	if rc.ExpiresAt != nil {
		c.ExpiresAt = rc.ExpiresAt.Time
	}
	return c, nil
}

// Expired reports whether the claims carry an expiry before now.
func (c *Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}
