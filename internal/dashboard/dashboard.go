// Package dashboard assembles the signed-in landing page: header, sidebar
// badges, a seven day overview and the recent activity feed.
package dashboard

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/modelhub/portal/internal/model"
	"github.com/modelhub/portal/internal/money"
	"github.com/modelhub/portal/internal/notification"
	"github.com/modelhub/portal/internal/usage"
)

// DefaultActivityLimit is the number of feed entries on the dashboard.
const DefaultActivityLimit = 10

// Activity kinds.
const (
	KindSubscription = "subscription"
	KindPayment      = "payment"
	KindInvoice      = "invoice"
	KindNotification = "notification"
)

// SubscriptionLister provides the user's subscriptions.
type SubscriptionLister interface {
	ListSubscriptions(ctx context.Context, token string) ([]model.Subscription, error)
}

// UsageSummarizer builds usage summaries from fetched subscriptions.
type UsageSummarizer interface {
	SummaryOf(ctx context.Context, q usage.Query, subs []model.Subscription) (*model.UsageSummary, error)
}

// Notifications is the notification surface the dashboard reads.
type Notifications interface {
	UnreadCount(ctx context.Context, userID string) (int, error)
	List(ctx context.Context, userID string, f notification.Filter) (*notification.ListResult, error)
}

// InvoiceBuilder derives invoices from fetched subscriptions.
type InvoiceBuilder interface {
	Of(subs []model.Subscription) []model.Invoice
}

// Header is the top bar of every signed-in page.
type Header struct {
	Profile     model.Profile `json:"profile"`
	UnreadCount int           `json:"unread_count"`
}

// NavItem is a sidebar entry. Badge is omitted when zero.
type NavItem struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Path  string `json:"path"`
	Badge int    `json:"badge,omitempty"`
}

// Stats are the overview cards.
type Stats struct {
	ActiveSubscriptions int     `json:"active_subscriptions"`
	Calls7d             int64   `json:"calls_7d"`
	Cost7d              float64 `json:"cost_7d"`
	FormattedCost7d     string  `json:"formatted_cost_7d"`
	CallsTrend          float64 `json:"calls_trend"`
	ErrorRate           float64 `json:"error_rate"`
	AvgResponseMs       float64 `json:"avg_response_ms"`
}

// Overview is the dashboard view-model.
type Overview struct {
	Header         Header               `json:"header"`
	Nav            []NavItem            `json:"nav"`
	Stats          Stats                `json:"stats"`
	Daily          []model.DailyUsage   `json:"daily"`
	Subscriptions  []model.Subscription `json:"subscriptions"`
	RecentActivity []model.ActivityItem `json:"recent_activity"`
}

// Service builds the dashboard.
type Service struct {
	subs          SubscriptionLister
	usage         UsageSummarizer
	notifications Notifications
	invoices      InvoiceBuilder
	logger        *slog.Logger
}

// NewService creates a dashboard service.
func NewService(subs SubscriptionLister, usage UsageSummarizer, notifications Notifications, invoices InvoiceBuilder, logger *slog.Logger) *Service {
	return &Service{
		subs:          subs,
		usage:         usage,
		notifications: notifications,
		invoices:      invoices,
		logger:        logger.With("component", "dashboard"),
	}
}

// Overview loads every dashboard section. Subscriptions are fetched once
// and shared by the stats, the subscription list and the activity feed.
func (s *Service) Overview(ctx context.Context, token string, profile model.Profile) (*Overview, error) {
	subs, err := s.subs.ListSubscriptions(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}

	var (
		summary  *model.UsageSummary
		unread   int
		activity []model.ActivityItem
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		summary, err = s.usage.SummaryOf(gctx, usage.Query{Token: token, UserID: profile.ID, Window: usage.Window7D}, subs)
		return err
	})
	// Unread count runs first: it seeds a new user's notifications, which
	// the activity feed then reads.
	g.Go(func() error {
		var err error
		if unread, err = s.notifications.UnreadCount(gctx, profile.ID); err != nil {
			return err
		}
		activity, err = s.activity(gctx, subs, profile.ID, DefaultActivityLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	active := make([]model.Subscription, 0, len(subs))
	for _, sub := range subs {
		if sub.IsActive() {
			active = append(active, sub)
		}
	}

	return &Overview{
		Header: Header{Profile: profile, UnreadCount: unread},
		Nav:    Nav(unread, len(active)),
		Stats: Stats{
			ActiveSubscriptions: len(active),
			Calls7d:             summary.TotalCalls,
			Cost7d:              summary.TotalCost,
			FormattedCost7d:     money.Format(summary.TotalCost, "USD"),
			CallsTrend:          summary.CallsTrend,
			ErrorRate:           summary.ErrorRate,
			AvgResponseMs:       summary.AvgResponseMs,
		},
		Daily:          summary.Daily,
		Subscriptions:  active,
		RecentActivity: activity,
	}, nil
}

// Nav returns the sidebar with its badges.
func Nav(unread, activeSubscriptions int) []NavItem {
	return []NavItem{
		{Key: "dashboard", Label: "Dashboard", Path: "/dashboard"},
		{Key: "subscriptions", Label: "Subscriptions", Path: "/subscriptions", Badge: activeSubscriptions},
		{Key: "api-keys", Label: "API Keys", Path: "/api-keys"},
		{Key: "usage", Label: "Usage", Path: "/usage"},
		{Key: "invoices", Label: "Invoices", Path: "/invoices"},
		{Key: "notifications", Label: "Notifications", Path: "/notifications", Badge: unread},
		{Key: "account", Label: "Account", Path: "/account"},
	}
}

// Activity merges subscription, billing and notification events into one
// feed, newest first.
func (s *Service) Activity(ctx context.Context, token, userID string, limit int) ([]model.ActivityItem, error) {
	subs, err := s.subs.ListSubscriptions(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return s.activity(ctx, subs, userID, limit)
}

func (s *Service) activity(ctx context.Context, subs []model.Subscription, userID string, limit int) ([]model.ActivityItem, error) {
	invoices := s.invoices.Of(subs)
	notes, err := s.notifications.List(ctx, userID, notification.Filter{})
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	items := make([]model.ActivityItem, 0, len(subs)+len(invoices))
	for _, sub := range subs {
		items = append(items, subscriptionActivity(sub))
	}
	for _, inv := range invoices {
		items = append(items, invoiceActivity(inv))
	}
	for _, g := range notes.Groups {
		for _, n := range g.Items {
			items = append(items, model.ActivityItem{
				ID:          "ntf:" + n.ID,
				Kind:        KindNotification,
				Title:       n.Title,
				Description: n.Message,
				OccurredAt:  n.CreatedAt,
			})
		}
	}

	return Latest(items, limit), nil
}

// Latest sorts items newest first and keeps at most limit of them.
// A non-positive limit keeps everything.
func Latest(items []model.ActivityItem, limit int) []model.ActivityItem {
	slices.SortStableFunc(items, func(a, b model.ActivityItem) int {
		return cmp.Compare(b.OccurredAt.UnixNano(), a.OccurredAt.UnixNano())
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

func subscriptionActivity(sub model.Subscription) model.ActivityItem {
	return model.ActivityItem{
		ID:          "sub:" + sub.ID,
		Kind:        KindSubscription,
		Title:       "Subscribed to " + sub.ModelName,
		Description: fmt.Sprintf("%s plan, billed %s", sub.Plan, sub.BillingPeriod),
		OccurredAt:  sub.StartDate,
	}
}

func invoiceActivity(inv model.Invoice) model.ActivityItem {
	item := model.ActivityItem{
		ID:          "inv:" + inv.ID,
		Kind:        KindInvoice,
		Title:       "Invoice " + inv.Number + " issued",
		Description: fmt.Sprintf("%s for %s", inv.FormattedAmount, inv.ModelName),
		OccurredAt:  inv.IssuedAt,
	}
	if inv.Status == model.InvoicePaid && inv.PaidAt != nil {
		item.Kind = KindPayment
		item.Title = "Payment received for " + inv.Number
		item.OccurredAt = *inv.PaidAt
	}
	return item
}
