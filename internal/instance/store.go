package instance

import (
	"context"
	"sync"
	"time"

	"github.com/modelhub/portal/internal/model"
)

// State is the locally tracked part of an instance.
type State struct {
	Status    model.InstanceStatus `json:"status"`
	StartedAt *time.Time           `json:"started_at,omitempty"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// StateStore persists instance state changes per user.
type StateStore interface {
	GetState(ctx context.Context, userID, instanceID string) (*State, bool, error)
	PutState(ctx context.Context, userID, instanceID string, s State) error
}

// MemoryStateStore keeps instance state in process memory.
type MemoryStateStore struct {
	mu     sync.RWMutex
	states map[string]State
}

// NewMemoryStateStore creates an empty store.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{states: make(map[string]State)}
}

func (m *MemoryStateStore) GetState(ctx context.Context, userID, instanceID string) (*State, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.states[userID+"/"+instanceID]
	if !ok {
		return nil, false, nil
	}
	return &s, true, nil
}

func (m *MemoryStateStore) PutState(ctx context.Context, userID, instanceID string, s State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.states[userID+"/"+instanceID] = s
	return nil
}
