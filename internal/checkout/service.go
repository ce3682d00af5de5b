package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/modelhub/portal/internal/metrics"
	"github.com/modelhub/portal/internal/model"
	"github.com/modelhub/portal/internal/money"
)

// ValidationError carries per-field form errors.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("checkout form has %d invalid field(s)", len(e.Fields))
}

// ModelLookup resolves catalog models.
type ModelLookup interface {
	Model(id string) (*model.CatalogModel, error)
}

// Confirmation is returned after a successful purchase.
type Confirmation struct {
	OrderID         string              `json:"order_id"`
	Subscription    *model.Subscription `json:"subscription"`
	Amount          float64             `json:"amount"`
	Currency        string              `json:"currency"`
	FormattedAmount string              `json:"formatted_amount"`
	CardLast4       string              `json:"card_last4"`
	ProcessedAt     time.Time           `json:"processed_at"`
}

// Quote is the order summary shown next to the form.
type Quote struct {
	ModelID         string  `json:"model_id"`
	ModelName       string  `json:"model_name"`
	Plan            string  `json:"plan"`
	BillingPeriod   string  `json:"billing_period"`
	Amount          float64 `json:"amount"`
	Currency        string  `json:"currency"`
	FormattedAmount string  `json:"formatted_amount"`
}

// Service runs the checkout flow: validate, price, process.
type Service struct {
	catalog   ModelLookup
	processor Processor
	metrics   metrics.Recorder
	logger    *slog.Logger
}

// NewService creates a checkout service.
func NewService(catalog ModelLookup, processor Processor, rec metrics.Recorder, logger *slog.Logger) *Service {
	if rec == nil {
		rec = metrics.NewNoop()
	}
	return &Service{
		catalog:   catalog,
		processor: processor,
		metrics:   rec,
		logger:    logger.With("component", "checkout"),
	}
}

// Validate checks the form and resolves its price.
func (s *Service) Validate(f Form) (*Quote, error) {
	errs := Validate(f)

	var quote *Quote
	if f.Plan != "" {
		m, err := s.catalog.Model(f.ModelID)
		if err != nil {
			errs["model_id"] = "Unknown model"
		} else if plan, ok := m.Plan(f.Plan); !ok {
			errs["plan"] = "Unknown plan for this model"
		} else {
			quote = newQuote(m, plan, billingPeriod(f.BillingPeriod))
		}
	}

	if len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}
	return quote, nil
}

// Submit validates the form and, when valid, processes the payment.
// A declined payment is returned as *model.PaymentErrorInfo.
func (s *Service) Submit(ctx context.Context, token string, f Form) (*Confirmation, error) {
	quote, err := s.Validate(f)
	if err != nil {
		s.metrics.IncCheckout("invalid")
		return nil, err
	}

	m, err := s.catalog.Model(f.ModelID)
	if err != nil {
		return nil, fmt.Errorf("resolve model: %w", err)
	}
	plan, _ := m.Plan(f.Plan)

	sub, err := s.processor.Process(ctx, PaymentRequest{
		Token:  token,
		Form:   f,
		Model:  m,
		Plan:   plan,
		Amount: quote.Amount,
	})
	if err != nil {
		var payErr *model.PaymentErrorInfo
		if errors.As(err, &payErr) {
			s.metrics.IncCheckout("declined")
			s.logger.InfoContext(ctx, "payment declined", "model_id", m.ID, "plan", plan.ID, "code", payErr.Code)
			return nil, payErr
		}
		s.metrics.IncCheckout("error")
		return nil, fmt.Errorf("process payment: %w", err)
	}

	s.metrics.IncCheckout("approved")
	s.logger.InfoContext(ctx, "checkout completed", "model_id", m.ID, "plan", plan.ID, "subscription_id", sub.ID)

	card := NormalizeCard(f.CardNumber)
	return &Confirmation{
		OrderID:         "ord_" + ulid.Make().String(),
		Subscription:    sub,
		Amount:          quote.Amount,
		Currency:        quote.Currency,
		FormattedAmount: quote.FormattedAmount,
		CardLast4:       card[len(card)-4:],
		ProcessedAt:     time.Now().UTC(),
	}, nil
}

func newQuote(m *model.CatalogModel, plan model.PricingPlan, period string) *Quote {
	amount := plan.MonthlyPrice
	if period == model.BillingYearly {
		amount = plan.YearlyPrice
	}
	cur := money.Normalize(plan.Currency)
	return &Quote{
		ModelID:         m.ID,
		ModelName:       m.Name,
		Plan:            plan.ID,
		BillingPeriod:   period,
		Amount:          money.Round(amount),
		Currency:        cur,
		FormattedAmount: money.Format(amount, cur),
	}
}
