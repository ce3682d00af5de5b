package apikey

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelhub/portal/internal/metrics"
	"github.com/modelhub/portal/internal/model"
)

var (
	// ErrNotFound is returned when the key is not one of the user's keys.
	ErrNotFound = errors.New("API key not found")
	// ErrRevoked is returned when regenerating a revoked key.
	ErrRevoked = errors.New("API key is revoked")
)

// KeyLister lists the user's keys on the backend.
type KeyLister interface {
	ListAPIKeys(ctx context.Context, token string) ([]model.APIKey, error)
}

// Service implements the API keys page.
type Service struct {
	backend  KeyLister
	overlays OverlayStore
	env      string
	now      func() time.Time
	metrics  metrics.Recorder
	logger   *slog.Logger
}

// NewService creates an API key service. env selects live or test keys.
func NewService(backend KeyLister, overlays OverlayStore, env string, rec metrics.Recorder, logger *slog.Logger) *Service {
	if rec == nil {
		rec = metrics.NewNoop()
	}
	return &Service{
		backend:  backend,
		overlays: overlays,
		env:      env,
		now:      time.Now,
		metrics:  rec,
		logger:   logger.With("component", "apikey"),
	}
}

// List returns the user's keys with any local regeneration applied.
func (s *Service) List(ctx context.Context, token, userID string) ([]model.APIKey, error) {
	keys, err := s.backend.ListAPIKeys(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}

	ids := make([]string, len(keys))
	for i, k := range keys {
		ids[i] = k.ID
	}

	overlays, err := s.overlays.GetOverlays(ctx, userID, ids)
	if err != nil {
		// Fail open with the backend view.
		s.logger.WarnContext(ctx, "failed to load key overlays", "user_id", userID, "error", err)
		overlays = nil
	}

	for i := range keys {
		if o, ok := overlays[keys[i].ID]; ok {
			keys[i] = o.Apply(keys[i])
		}
	}
	return keys, nil
}

// Regenerate issues a new secret for one of the user's keys. The plaintext
// is returned exactly once; only its hash and prefix are stored.
func (s *Service) Regenerate(ctx context.Context, token, userID, keyID string) (*model.RegeneratedKey, error) {
	keys, err := s.backend.ListAPIKeys(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}

	var target *model.APIKey
	for i := range keys {
		if keys[i].ID == keyID {
			target = &keys[i]
			break
		}
	}
	if target == nil {
		return nil, ErrNotFound
	}
	if !target.IsActive() {
		return nil, ErrRevoked
	}

	gen, err := GenerateKey(s.env)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}

	now := s.now().UTC().Truncate(time.Second)
	overlay := &model.KeyOverlay{
		KeyPrefix:     gen.Prefix,
		MaskedKey:     model.MaskKey(gen.Prefix, gen.Plaintext),
		KeyHash:       gen.Hash,
		RegeneratedAt: now,
	}
	if err := s.overlays.PutOverlay(ctx, userID, keyID, overlay); err != nil {
		return nil, fmt.Errorf("store regenerated key: %w", err)
	}

	s.metrics.IncAPIKeyRegenerated()
	s.logger.InfoContext(ctx, "api key regenerated", "user_id", userID, "key_id", keyID, "key_prefix", gen.Prefix)

	return &model.RegeneratedKey{
		ID:            keyID,
		Key:           gen.Plaintext,
		KeyPrefix:     gen.Prefix,
		MaskedKey:     overlay.MaskedKey,
		RegeneratedAt: now,
	}, nil
}
