// Package invoice derives billing history from the user's subscriptions.
package invoice

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"maps"
	"math/rand"
	"slices"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/modelhub/portal/internal/model"
	"github.com/modelhub/portal/internal/money"
)

// Billing constants.
const (
	PaymentTerm       = 14 * 24 * time.Hour
	maxPeriodsPerSub  = 24
	paidAfterIssuance = 2 * 24 * time.Hour
)

// ErrNotFound is returned when an invoice does not exist.
var ErrNotFound = errors.New("invoice not found")

// ErrInvalidStatus is returned for an unknown status filter.
var ErrInvalidStatus = errors.New("invalid invoice status")

// SubscriptionLister provides the user's subscriptions.
type SubscriptionLister interface {
	ListSubscriptions(ctx context.Context, token string) ([]model.Subscription, error)
}

// Service implements the invoices page.
type Service struct {
	subs   SubscriptionLister
	now    func() time.Time
	logger *slog.Logger
}

// NewService creates an invoice service.
func NewService(subs SubscriptionLister, logger *slog.Logger) *Service {
	return &Service{
		subs:   subs,
		now:    time.Now,
		logger: logger.With("component", "invoice"),
	}
}

// List is the invoices page view-model. Totals hold one entry per
// currency, ordered by currency code; amounts in different currencies are
// never summed together.
type List struct {
	Invoices []model.Invoice `json:"invoices"`
	Totals   []Totals        `json:"totals"`
}

// Totals sums the invoices of one currency.
type Totals struct {
	Currency    string `json:"currency"`
	Paid        string `json:"paid"`
	Outstanding string `json:"outstanding"`
}

// ParseStatus validates a status filter. Empty means all.
func ParseStatus(s string) (model.InvoiceStatus, error) {
	switch st := model.InvoiceStatus(strings.ToLower(s)); st {
	case "", "all":
		return "", nil
	case model.InvoicePaid, model.InvoicePending, model.InvoiceOverdue:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

// List returns invoices newest first, optionally filtered by status.
func (s *Service) List(ctx context.Context, token string, status model.InvoiceStatus) (*List, error) {
	all, err := s.all(ctx, token)
	if err != nil {
		return nil, err
	}

	type sums struct{ paid, outstanding float64 }
	byCurrency := make(map[string]*sums)

	out := &List{Invoices: make([]model.Invoice, 0, len(all))}
	for _, inv := range all {
		cur := money.Normalize(inv.Currency)
		sum, ok := byCurrency[cur]
		if !ok {
			sum = &sums{}
			byCurrency[cur] = sum
		}
		if inv.Status == model.InvoicePaid {
			sum.paid += inv.Amount
		} else {
			sum.outstanding += inv.Amount
		}
		if status == "" || inv.Status == status {
			out.Invoices = append(out.Invoices, inv)
		}
	}

	out.Totals = make([]Totals, 0, len(byCurrency))
	for _, cur := range slices.Sorted(maps.Keys(byCurrency)) {
		sum := byCurrency[cur]
		out.Totals = append(out.Totals, Totals{
			Currency:    cur,
			Paid:        money.Format(sum.paid, cur),
			Outstanding: money.Format(sum.outstanding, cur),
		})
	}
	return out, nil
}

// Get returns one invoice.
func (s *Service) Get(ctx context.Context, token, id string) (*model.Invoice, error) {
	all, err := s.all(ctx, token)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, ErrNotFound
}

func (s *Service) all(ctx context.Context, token string) ([]model.Invoice, error) {
	subs, err := s.subs.ListSubscriptions(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return s.Of(subs), nil
}

// Of returns the invoices of subscriptions the caller already fetched,
// newest first.
func (s *Service) Of(subs []model.Subscription) []model.Invoice {
	now := s.now().UTC()
	var out []model.Invoice
	for _, sub := range subs {
		out = append(out, ForSubscription(sub, now)...)
	}

	slices.SortStableFunc(out, func(a, b model.Invoice) int {
		return cmp.Compare(b.IssuedAt.UnixNano(), a.IssuedAt.UnixNano())
	})
	return out
}

// ForSubscription returns one invoice per billing period that has started
// by now, oldest first. The result is stable for a given subscription and now.
func ForSubscription(sub model.Subscription, now time.Time) []model.Invoice {
	if sub.StartDate.IsZero() || sub.StartDate.After(now) {
		return nil
	}

	yearly := sub.BillingPeriod == model.BillingYearly
	next := func(t time.Time, n int) time.Time {
		if yearly {
			return t.AddDate(n, 0, 0)
		}
		return t.AddDate(0, n, 0)
	}

	stop := now
	if sub.EndDate != nil && sub.EndDate.Before(stop) {
		stop = *sub.EndDate
	}

	var starts []time.Time
	for i := 0; ; i++ {
		start := next(sub.StartDate, i)
		if !start.Before(stop) && i > 0 {
			break
		}
		starts = append(starts, start)
	}
	if len(starts) > maxPeriodsPerSub {
		starts = starts[len(starts)-maxPeriodsPerSub:]
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(sub.ID))
	entropy := rand.New(rand.NewSource(int64(h.Sum64())))

	cur := money.Normalize(sub.Currency)
	period := sub.BillingPeriod
	if period == "" {
		period = model.BillingMonthly
	}

	out := make([]model.Invoice, 0, len(starts))
	for i, start := range starts {
		issued := start.UTC()
		due := issued.Add(PaymentTerm)
		amount := money.Round(sub.Price)

		inv := model.Invoice{
			ID:              ulid.MustNew(ulid.Timestamp(issued), entropy).String(),
			Number:          fmt.Sprintf("INV-%s-%04d", issued.Format("200601"), (h.Sum64()+uint64(i))%10000),
			SubscriptionID:  sub.ID,
			ModelName:       sub.ModelName,
			Amount:          amount,
			Currency:        cur,
			FormattedAmount: money.Format(amount, cur),
			IssuedAt:        issued,
			DueAt:           due,
			PeriodStart:     issued,
			PeriodEnd:       next(issued, 1).Add(-time.Second),
			LineItems: []model.InvoiceLineItem{{
				Description: fmt.Sprintf("%s, %s plan (%s)", sub.ModelName, sub.Plan, period),
				Quantity:    1,
				UnitPrice:   amount,
				Amount:      amount,
			}},
		}

		last := i == len(starts)-1
		switch {
		case due.After(now):
			inv.Status = model.InvoicePending
		case last && sub.Status == model.SubscriptionExpired:
			inv.Status = model.InvoiceOverdue
		default:
			inv.Status = model.InvoicePaid
			paidAt := issued.Add(paidAfterIssuance)
			inv.PaidAt = &paidAt
		}

		out = append(out, inv)
	}
	return out
}
