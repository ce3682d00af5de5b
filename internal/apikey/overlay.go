package apikey

import (
	"context"
	"sync"

	"github.com/modelhub/portal/internal/model"
)

// OverlayStore keeps the local regenerate markers that are laid over the
// keys returned by the backend.
type OverlayStore interface {
	// GetOverlays returns the overlays for the given keys; keys without one are absent.
	GetOverlays(ctx context.Context, userID string, keyIDs []string) (map[string]*model.KeyOverlay, error)
	PutOverlay(ctx context.Context, userID, keyID string, o *model.KeyOverlay) error
}

// MemoryOverlayStore is an OverlayStore held in process memory.
type MemoryOverlayStore struct {
	mu       sync.RWMutex
	overlays map[string]model.KeyOverlay
}

// NewMemoryOverlayStore creates an empty store.
func NewMemoryOverlayStore() *MemoryOverlayStore {
	return &MemoryOverlayStore{overlays: make(map[string]model.KeyOverlay)}
}

func (s *MemoryOverlayStore) GetOverlays(ctx context.Context, userID string, keyIDs []string) (map[string]*model.KeyOverlay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*model.KeyOverlay)
	for _, id := range keyIDs {
		if o, ok := s.overlays[userID+"/"+id]; ok {
			out[id] = &o
		}
	}
	return out, nil
}

func (s *MemoryOverlayStore) PutOverlay(ctx context.Context, userID, keyID string, o *model.KeyOverlay) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.overlays[userID+"/"+keyID] = *o
	return nil
}
