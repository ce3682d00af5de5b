package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelhub/portal/internal/metrics"
)

// ErrNoIDs is returned by bulk operations that need explicit ids.
var ErrNoIDs = errors.New("no notification ids given")

// Service implements the notifications page.
type Service struct {
	store   Store
	loc     *time.Location
	now     func() time.Time
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewService creates a notification service that groups by day in loc.
func NewService(store Store, loc *time.Location, rec metrics.Recorder, logger *slog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if rec == nil {
		rec = metrics.NewNoop()
	}
	return &Service{
		store:   store,
		loc:     loc,
		now:     time.Now,
		metrics: rec,
		logger:  logger.With("component", "notification"),
	}
}

// ListResult is the notifications page view-model.
type ListResult struct {
	Groups []Group `json:"groups"`
	Total  int     `json:"total"`
	Unread int     `json:"unread"`
}

// List returns the user's filtered notifications grouped by day.
func (s *Service) List(ctx context.Context, userID string, f Filter) (*ListResult, error) {
	if err := s.ensureSeeded(ctx, userID); err != nil {
		return nil, err
	}

	all, err := s.store.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	unread := 0
	for _, n := range all {
		if !n.Read {
			unread++
		}
	}

	matched := f.Apply(all)
	return &ListResult{
		Groups: GroupByDay(matched, s.now(), s.loc),
		Total:  len(matched),
		Unread: unread,
	}, nil
}

// UnreadCount returns the number of unread notifications.
func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	if err := s.ensureSeeded(ctx, userID); err != nil {
		return 0, err
	}
	count, err := s.store.UnreadCount(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead marks one notification as read.
func (s *Service) MarkRead(ctx context.Context, userID, id string) error {
	if err := s.ensureSeeded(ctx, userID); err != nil {
		return err
	}
	if err := s.store.SetRead(ctx, userID, id, true); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	s.metrics.AddNotificationsRead(1)
	return nil
}

// MarkUnread marks one notification as unread.
func (s *Service) MarkUnread(ctx context.Context, userID, id string) error {
	if err := s.ensureSeeded(ctx, userID); err != nil {
		return err
	}
	if err := s.store.SetRead(ctx, userID, id, false); err != nil {
		return fmt.Errorf("mark notification unread: %w", err)
	}
	return nil
}

// MarkManyRead marks ids as read. An empty ids marks everything read.
func (s *Service) MarkManyRead(ctx context.Context, userID string, ids []string) (int, error) {
	if err := s.ensureSeeded(ctx, userID); err != nil {
		return 0, err
	}
	changed, err := s.store.MarkRead(ctx, userID, ids)
	if err != nil {
		return 0, fmt.Errorf("mark notifications read: %w", err)
	}
	s.metrics.AddNotificationsRead(changed)
	s.logger.DebugContext(ctx, "notifications marked read", "user_id", userID, "count", changed, "all", len(ids) == 0)
	return changed, nil
}

// MarkAllRead marks every notification of the user as read.
func (s *Service) MarkAllRead(ctx context.Context, userID string) (int, error) {
	return s.MarkManyRead(ctx, userID, nil)
}

// DeleteMany removes the given notifications.
func (s *Service) DeleteMany(ctx context.Context, userID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, ErrNoIDs
	}
	if err := s.ensureSeeded(ctx, userID); err != nil {
		return 0, err
	}
	deleted, err := s.store.Delete(ctx, userID, ids)
	if err != nil {
		return 0, fmt.Errorf("delete notifications: %w", err)
	}
	return deleted, nil
}

// ensureSeeded gives a user the starter notifications before their first
// read or write of the list.
func (s *Service) ensureSeeded(ctx context.Context, userID string) error {
	seeded, err := s.store.Seed(ctx, userID, SeedNotifications(userID, s.now()))
	if err != nil {
		return fmt.Errorf("seed notifications: %w", err)
	}
	if seeded {
		s.logger.InfoContext(ctx, "seeded starter notifications", "user_id", userID)
	}
	return nil
}
