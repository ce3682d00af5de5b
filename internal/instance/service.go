package instance

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"time"

	"github.com/modelhub/portal/internal/metrics"
	"github.com/modelhub/portal/internal/model"
)

var (
	// ErrNotFound is returned for an unknown instance or subscription.
	ErrNotFound = errors.New("instance not found")
	// ErrSubscriptionInactive is returned when starting an instance of an inactive subscription.
	ErrSubscriptionInactive = errors.New("subscription is not active")
)

var regions = []string{"us-east-1", "eu-west-1", "ap-southeast-1"}

// SubscriptionLister provides the user's subscriptions.
type SubscriptionLister interface {
	ListSubscriptions(ctx context.Context, token string) ([]model.Subscription, error)
}

// Service lists instances and applies start, stop and restart.
type Service struct {
	subs    SubscriptionLister
	states  StateStore
	now     func() time.Time
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewService creates an instance service.
func NewService(subs SubscriptionLister, states StateStore, rec metrics.Recorder, logger *slog.Logger) *Service {
	if rec == nil {
		rec = metrics.NewNoop()
	}
	return &Service{
		subs:    subs,
		states:  states,
		now:     time.Now,
		metrics: rec,
		logger:  logger.With("component", "instance"),
	}
}

// ForSubscription lists the instances of one subscription.
func (s *Service) ForSubscription(ctx context.Context, token, userID, subscriptionID string) ([]model.Instance, error) {
	subs, err := s.subs.ListSubscriptions(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}

	for _, sub := range subs {
		if sub.ID != subscriptionID {
			continue
		}
		out := defaults(sub)
		for i := range out {
			if err := s.overlay(ctx, userID, &out[i]); err != nil {
				return nil, err
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: subscription %q", ErrNotFound, subscriptionID)
}

// Apply runs action against an instance and returns its new state.
func (s *Service) Apply(ctx context.Context, token, userID, instanceID, action string) (*model.Instance, error) {
	subs, err := s.subs.ListSubscriptions(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}

	inst, sub := find(subs, instanceID)
	if inst == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, instanceID)
	}
	if err := s.overlay(ctx, userID, inst); err != nil {
		return nil, err
	}

	next, err := Next(inst.Status, action)
	if err != nil {
		return nil, err
	}
	if next == model.InstanceRunning && !sub.IsActive() {
		return nil, ErrSubscriptionInactive
	}

	now := s.now().UTC()
	st := State{Status: next, UpdatedAt: now}
	if next == model.InstanceRunning {
		st.StartedAt = &now
	}
	if err := s.states.PutState(ctx, userID, instanceID, st); err != nil {
		return nil, fmt.Errorf("save instance state: %w", err)
	}

	inst.Status = st.Status
	inst.StartedAt = st.StartedAt
	inst.UpdatedAt = st.UpdatedAt

	s.metrics.IncInstanceTransition(action)
	s.logger.InfoContext(ctx, "instance transitioned",
		"user_id", userID,
		"instance_id", instanceID,
		"action", action,
		"status", next,
	)
	return inst, nil
}

func (s *Service) overlay(ctx context.Context, userID string, inst *model.Instance) error {
	st, ok, err := s.states.GetState(ctx, userID, inst.ID)
	if err != nil {
		return fmt.Errorf("load instance state: %w", err)
	}
	if ok {
		inst.Status = st.Status
		inst.StartedAt = st.StartedAt
		inst.UpdatedAt = st.UpdatedAt
	}
	return nil
}

func find(subs []model.Subscription, instanceID string) (*model.Instance, *model.Subscription) {
	for i := range subs {
		for _, inst := range defaults(subs[i]) {
			if inst.ID == instanceID {
				return &inst, &subs[i]
			}
		}
	}
	return nil, nil
}

// defaults derives the initial instances of a subscription: one per
// subscription, two for enterprise plans. Active subscriptions start running.
func defaults(sub model.Subscription) []model.Instance {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sub.ID))
	sum := h.Sum32()

	count := 1
	if sub.Plan == "enterprise" {
		count = 2
	}

	status := model.InstanceStopped
	var started *time.Time
	if sub.IsActive() {
		status = model.InstanceRunning
		t := sub.StartDate
		started = &t
	}

	out := make([]model.Instance, count)
	for i := range count {
		out[i] = model.Instance{
			ID:             fmt.Sprintf("%s-i%d", sub.ID, i+1),
			SubscriptionID: sub.ID,
			ModelID:        sub.ModelID,
			Name:           fmt.Sprintf("%s #%d", sub.ModelName, i+1),
			Status:         status,
			Region:         regions[(int(sum%uint32(len(regions)))+i)%len(regions)],
			StartedAt:      started,
			UpdatedAt:      sub.StartDate,
		}
	}
	return out
}
