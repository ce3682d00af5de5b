package checkout

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/modelhub/portal/internal/backend"
	"github.com/modelhub/portal/internal/model"
)

// PaymentRequest is everything a processor needs to complete a purchase.
type PaymentRequest struct {
	Token  string // caller's backend bearer token
	Form   Form
	Model  *model.CatalogModel
	Plan   model.PricingPlan
	Amount float64
}

// Processor completes a payment and returns the created subscription.
// Declines are returned as *model.PaymentErrorInfo.
type Processor interface {
	Process(ctx context.Context, req PaymentRequest) (*model.Subscription, error)
}

// Test card numbers recognised by SimulatedProcessor.
const (
	CardDeclined          = "4000000000000002"
	CardInsufficientFunds = "4000000000009995"
	CardExpired           = "4000000000000069"
	CardProcessingError   = "4000000000000119"
)

var simulatedDeclines = map[string]model.PaymentErrorInfo{
	CardDeclined: {
		Code:    model.PaymentCardDeclined,
		Message: "Your card was declined.",
		Field:   "card_number",
	},
	CardInsufficientFunds: {
		Code:    model.PaymentInsufficientFunds,
		Message: "Your card has insufficient funds.",
		Field:   "card_number",
	},
	CardExpired: {
		Code:    model.PaymentExpiredCard,
		Message: "Your card has expired.",
		Field:   "expiry",
	},
	CardProcessingError: {
		Code:      model.PaymentProcessingError,
		Message:   "An error occurred while processing your card. Please try again.",
		Retryable: true,
	},
}

// SimulatedProcessor approves every card except the documented test cards,
// after an artificial delay.
type SimulatedProcessor struct {
	delay time.Duration
	now   func() time.Time
}

// NewSimulatedProcessor creates a processor that waits delay before answering.
func NewSimulatedProcessor(delay time.Duration) *SimulatedProcessor {
	return &SimulatedProcessor{delay: delay, now: time.Now}
}

// Process waits for the delay or ctx, then approves or declines.
func (p *SimulatedProcessor) Process(ctx context.Context, req PaymentRequest) (*model.Subscription, error) {
	if p.delay > 0 {
		timer := time.NewTimer(p.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if info, ok := simulatedDeclines[NormalizeCard(req.Form.CardNumber)]; ok {
		return nil, &info
	}

	now := p.now().UTC()
	period := billingPeriod(req.Form.BillingPeriod)
	end := now.AddDate(0, 1, 0)
	if period == model.BillingYearly {
		end = now.AddDate(1, 0, 0)
	}

	return &model.Subscription{
		ID:            ulid.MustNew(ulid.Timestamp(now), rand.Reader).String(),
		ModelID:       req.Model.ID,
		ModelName:     req.Model.Name,
		Plan:          req.Plan.ID,
		Status:        model.SubscriptionActive,
		BillingPeriod: period,
		Price:         req.Amount,
		Currency:      req.Plan.Currency,
		UsageQuota:    req.Plan.RequestQuota,
		StartDate:     now,
		EndDate:       &end,
		AutoRenew:     true,
	}, nil
}

// SubscriptionCreator creates subscriptions on the backend.
type SubscriptionCreator interface {
	CreateSubscription(ctx context.Context, token string, dto model.SubscriptionDTO) (*model.Subscription, error)
}

// BackendProcessor hands the purchase to the marketplace backend.
type BackendProcessor struct {
	backend SubscriptionCreator
}

// NewBackendProcessor creates a processor backed by the marketplace API.
func NewBackendProcessor(b SubscriptionCreator) *BackendProcessor {
	return &BackendProcessor{backend: b}
}

// Process sends a SubscriptionDTO. Card data never leaves the portal; the
// backend receives an opaque payment token.
func (p *BackendProcessor) Process(ctx context.Context, req PaymentRequest) (*model.Subscription, error) {
	dto := model.SubscriptionDTO{
		ModelID:       req.Model.ID,
		Plan:          req.Plan.ID,
		BillingPeriod: billingPeriod(req.Form.BillingPeriod),
		PaymentToken:  paymentToken(req.Form.CardNumber),
		CustomerName:  req.Form.FullName,
		CustomerEmail: req.Form.Email,
	}

	sub, err := p.backend.CreateSubscription(ctx, req.Token, dto)
	if err == nil {
		return sub, nil
	}

	var apiErr *backend.APIError
	if !errors.As(err, &apiErr) {
		return nil, fmt.Errorf("create subscription: %w", err)
	}

	switch {
	case apiErr.Status == http.StatusPaymentRequired:
		return nil, &model.PaymentErrorInfo{Code: model.PaymentCardDeclined, Message: apiErr.Message, Field: "card_number"}
	case apiErr.Status >= 400 && apiErr.Status < 500 && apiErr.Status != http.StatusUnauthorized:
		return nil, &model.PaymentErrorInfo{Code: model.PaymentInvalidRequest, Message: apiErr.Message}
	case apiErr.Status >= 500:
		return nil, &model.PaymentErrorInfo{Code: model.PaymentProcessingError, Message: apiErr.Message, Retryable: true}
	default:
		return nil, err
	}
}

func billingPeriod(p string) string {
	if p == model.BillingYearly {
		return model.BillingYearly
	}
	return model.BillingMonthly
}

// paymentToken stands in for a card vault token: it keeps only the last four digits.
func paymentToken(card string) string {
	n := NormalizeCard(card)
	last4 := n
	if len(n) > 4 {
		last4 = n[len(n)-4:]
	}
	return "tok_" + last4 + "_" + ulid.Make().String()
}
