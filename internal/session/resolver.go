package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/modelhub/portal/internal/backend"
	"github.com/modelhub/portal/internal/metrics"
	"github.com/modelhub/portal/internal/model"
)

// ErrUnauthenticated is returned when the backend rejects the token.
var ErrUnauthenticated = errors.New("unauthenticated")

// ProfileCache caches the profile behind a token.
// GetProfile returns nil, nil on a miss.
type ProfileCache interface {
	GetProfile(ctx context.Context, token string) (*model.Profile, error)
	SetProfile(ctx context.Context, token string, p *model.Profile) error
	DeleteProfile(ctx context.Context, token string) error
}

// ProfileFetcher loads the profile of a token's owner from the backend.
type ProfileFetcher interface {
	GetProfile(ctx context.Context, token string) (*model.Profile, error)
}

// Resolver turns a bearer token into a Session.
type Resolver struct {
	cache   ProfileCache
	fetcher ProfileFetcher
	maxAge  time.Duration
	rec     metrics.Recorder
	logger  *slog.Logger
	now     func() time.Time
}

// NewResolver creates a resolver. maxAge is the session lifetime assumed
// for tokens without an expiry claim.
func NewResolver(cache ProfileCache, fetcher ProfileFetcher, maxAge time.Duration, rec metrics.Recorder, logger *slog.Logger) *Resolver {
	if rec == nil {
		rec = metrics.NewNoop()
	}
	return &Resolver{
		cache:   cache,
		fetcher: fetcher,
		maxAge:  maxAge,
		rec:     rec,
		logger:  logger.With("component", "session"),
		now:     time.Now,
	}
}

// Resolve validates the token and returns the session and profile.
func (r *Resolver) Resolve(ctx context.Context, token string) (*Session, *model.Profile, error) {
	if token == "" {
		return nil, nil, ErrUnauthenticated
	}

	now := r.now()
	claims, err := ParseClaims(token)
	if err == nil && claims.Expired(now) {
		return nil, nil, ErrExpired
	}

	p, err := r.cache.GetProfile(ctx, token)
	if err != nil {
		r.logger.Warn("profile cache lookup failed", slog.String("error", err.Error()))
	}
	if p != nil {
		r.rec.IncSessionCacheHit()
		return r.session(token, claims, p, now), p, nil
	}
	r.rec.IncSessionCacheMiss()

	p, err = r.fetcher.GetProfile(ctx, token)
	if err != nil {
		if backend.IsUnauthorized(err) || errors.Is(err, backend.ErrNoToken) {
			return nil, nil, ErrUnauthenticated
		}
		return nil, nil, fmt.Errorf("fetch profile: %w", err)
	}

	if err := r.cache.SetProfile(ctx, token, p); err != nil {
		r.logger.Warn("profile cache store failed", slog.String("error", err.Error()))
	}
	return r.session(token, claims, p, now), p, nil
}

// Invalidate drops the cached profile for a token.
func (r *Resolver) Invalidate(ctx context.Context, token string) error {
	return r.cache.DeleteProfile(ctx, token)
}

func (r *Resolver) session(token string, claims *Claims, p *model.Profile, now time.Time) *Session {
	s := &Session{UserID: p.ID, Token: token, ExpiresAt: now.Add(r.maxAge)}
	if claims != nil {
		if s.UserID == "" {
			s.UserID = claims.Subject
		}
		if !claims.ExpiresAt.IsZero() {
			s.ExpiresAt = claims.ExpiresAt
		}
	}
	return s
}

// MemoryProfileCache is a ProfileCache held in process memory.
type MemoryProfileCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryProfile
	now     func() time.Time
}

type memoryProfile struct {
	profile   model.Profile
	expiresAt time.Time
}

// NewMemoryProfileCache creates a cache whose entries live for ttl.
func NewMemoryProfileCache(ttl time.Duration) *MemoryProfileCache {
	return &MemoryProfileCache{
		ttl:     ttl,
		entries: make(map[string]memoryProfile),
		now:     time.Now,
	}
}

func (m *MemoryProfileCache) GetProfile(ctx context.Context, token string) (*model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[token]
	if !ok {
		return nil, nil
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.entries, token)
		return nil, nil
	}
	p := e.profile
	return &p, nil
}

func (m *MemoryProfileCache) SetProfile(ctx context.Context, token string, p *model.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[token] = memoryProfile{profile: *p, expiresAt: m.now().Add(m.ttl)}
	return nil
}

func (m *MemoryProfileCache) DeleteProfile(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, token)
	return nil
}
