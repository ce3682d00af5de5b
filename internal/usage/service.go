package usage

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/modelhub/portal/internal/model"
)

// ErrUnknownModel is returned when filtering by a model the user is not subscribed to.
var ErrUnknownModel = errors.New("model not found in subscriptions")

// SubscriptionLister provides the user's subscriptions.
type SubscriptionLister interface {
	ListSubscriptions(ctx context.Context, token string) ([]model.Subscription, error)
}

// Service builds usage summaries for signed-in users.
type Service struct {
	subs       SubscriptionLister
	seriesDays int
	now        func() time.Time
	logger     *slog.Logger
}

// NewService creates a usage service.
func NewService(subs SubscriptionLister, logger *slog.Logger) *Service {
	return &Service{
		subs:       subs,
		seriesDays: DefaultSeriesDays,
		now:        time.Now,
		logger:     logger.With("component", "usage"),
	}
}

// Query selects what a summary covers.
type Query struct {
	Token   string
	UserID  string
	Window  Window
	ModelID string // optional
}

// Summary returns the usage view-model for the requested window.
func (s *Service) Summary(ctx context.Context, q Query) (*model.UsageSummary, error) {
	subs, err := s.subs.ListSubscriptions(ctx, q.Token)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return s.SummaryOf(ctx, q, subs)
}

// SummaryOf is Summary over subscriptions the caller already fetched.
// q.Token is not used.
func (s *Service) SummaryOf(ctx context.Context, q Query, subs []model.Subscription) (*model.UsageSummary, error) {
	now := s.now().UTC()
	perModel := make([]modelSeries, 0, len(subs))
	seen := make(map[string]bool, len(subs))
	for _, sub := range subs {
		if seen[sub.ModelID] {
			continue
		}
		seen[sub.ModelID] = true
		if q.ModelID != "" && sub.ModelID != q.ModelID {
			continue
		}
		perModel = append(perModel, modelSeries{
			id:     sub.ModelID,
			name:   sub.ModelName,
			series: GenerateSeries(q.UserID+":"+sub.ModelID, now, s.seriesDays),
		})
	}

	if q.ModelID != "" && len(perModel) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, q.ModelID)
	}

	var combined []model.DailyUsage
	if len(perModel) == 0 {
		combined = ZeroSeries(now, s.seriesDays)
	} else {
		all := make([][]model.DailyUsage, len(perModel))
		for i, m := range perModel {
			all[i] = m.series
		}
		combined = MergeSeries(all...)
	}

	res := Summarize(combined, q.Window)
	summary := &model.UsageSummary{
		Window:        string(q.Window),
		TotalCalls:    res.Totals.Calls,
		TotalCost:     res.Totals.Cost,
		TotalErrors:   res.Totals.Errors,
		ErrorRate:     res.Totals.ErrorRate(),
		AvgResponseMs: res.Totals.AvgResponseMs,
		CallsTrend:    res.CallsTrend,
		CostTrend:     res.CostTrend,
		Daily:         res.Current,
		Models:        breakdown(perModel, q.Window, q.ModelID != ""),
		GeneratedAt:   now,
	}
	if len(res.Current) > 0 {
		summary.From = res.Current[0].Date.Format("2006-01-02")
		summary.To = res.Current[len(res.Current)-1].Date.Format("2006-01-02")
	}

	s.logger.DebugContext(ctx, "usage summary built",
		"user_id", q.UserID,
		"window", q.Window,
		"models", len(perModel),
	)
	return summary, nil
}

type modelSeries struct {
	id     string
	name   string
	series []model.DailyUsage
}

// breakdown summarizes each model for the window, busiest first.
func breakdown(models []modelSeries, w Window, withDaily bool) []model.ModelUsageData {
	out := make([]model.ModelUsageData, 0, len(models))
	for _, m := range models {
		res := Summarize(m.series, w)
		d := model.ModelUsageData{
			ModelID:       m.id,
			ModelName:     m.name,
			Calls:         res.Totals.Calls,
			Cost:          res.Totals.Cost,
			ErrorRate:     res.Totals.ErrorRate(),
			AvgResponseMs: res.Totals.AvgResponseMs,
		}
		if withDaily {
			d.Daily = res.Current
		}
		out = append(out, d)
	}

	slices.SortStableFunc(out, func(a, b model.ModelUsageData) int {
		return cmp.Compare(b.Calls, a.Calls)
	})
	return out
}
