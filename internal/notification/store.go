package notification

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/modelhub/portal/internal/model"
)

// ErrNotFound is returned when a notification does not exist for the user.
var ErrNotFound = errors.New("notification not found")

// Store persists notifications per user.
type Store interface {
	// List returns the user's notifications, newest first.
	List(ctx context.Context, userID string) ([]model.Notification, error)
	Insert(ctx context.Context, items []model.Notification) error
	SetRead(ctx context.Context, userID, id string, read bool) error
	// MarkRead marks ids as read, or every unread item when ids is empty.
	// It returns how many items changed.
	MarkRead(ctx context.Context, userID string, ids []string) (int, error)
	Delete(ctx context.Context, userID string, ids []string) (int, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	// Seed stores items as the user's starter set and records the user as
	// seeded, both or neither. It returns false without writing when the
	// user was already seeded.
	Seed(ctx context.Context, userID string, items []model.Notification) (bool, error)
}

// MemoryStore keeps notifications in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	items  map[string][]model.Notification
	seeded map[string]bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:  make(map[string][]model.Notification),
		seeded: make(map[string]bool),
	}
}

func (s *MemoryStore) List(ctx context.Context, userID string) ([]model.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := slices.Clone(s.items[userID])
	slices.SortStableFunc(out, func(a, b model.Notification) int {
		return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano())
	})
	if out == nil {
		out = []model.Notification{}
	}
	return out, nil
}

func (s *MemoryStore) Insert(ctx context.Context, items []model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range items {
		s.items[n.UserID] = append(s.items[n.UserID], n)
	}
	return nil
}

func (s *MemoryStore) SetRead(ctx context.Context, userID, id string, read bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.items[userID]
	for i := range items {
		if items[i].ID == id {
			items[i].Read = read
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) MarkRead(ctx context.Context, userID string, ids []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := 0
	items := s.items[userID]
	for i := range items {
		if items[i].Read {
			continue
		}
		if len(ids) > 0 && !slices.Contains(ids, items[i].ID) {
			continue
		}
		items[i].Read = true
		changed++
	}
	return changed, nil
}

func (s *MemoryStore) Delete(ctx context.Context, userID string, ids []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.items[userID])
	s.items[userID] = slices.DeleteFunc(s.items[userID], func(n model.Notification) bool {
		return slices.Contains(ids, n.ID)
	})
	return before - len(s.items[userID]), nil
}

func (s *MemoryStore) UnreadCount(ctx context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, n := range s.items[userID] {
		if !n.Read {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) Seed(ctx context.Context, userID string, items []model.Notification) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seeded[userID] {
		return false, nil
	}
	s.seeded[userID] = true
	for _, n := range items {
		s.items[n.UserID] = append(s.items[n.UserID], n)
	}
	return true, nil
}
