package model

import "time"

// SubscriptionStatus is the lifecycle state reported by the backend.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionPending   SubscriptionStatus = "pending"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
	SubscriptionExpired   SubscriptionStatus = "expired"
)

// BillingPeriod values.
const (
	BillingMonthly = "monthly"
	BillingYearly  = "yearly"
)

// Subscription is a client's plan enrollment for a given model.
type Subscription struct {
	ID            string             `json:"id"`
	ModelID       string             `json:"model_id"`
	ModelName     string             `json:"model_name"`
	Plan          string             `json:"plan"`
	Status        SubscriptionStatus `json:"status"`
	BillingPeriod string             `json:"billing_period"`
	Price         float64            `json:"price"`
	Currency      string             `json:"currency"`
	UsageQuota    int64              `json:"usage_quota"`
	UsageUsed     int64              `json:"usage_used"`
	StartDate     time.Time          `json:"start_date"`
	EndDate       *time.Time         `json:"end_date,omitempty"`
	AutoRenew     bool               `json:"auto_renew"`
}

// IsActive reports whether the subscription currently grants access.
func (s *Subscription) IsActive() bool {
	return s.Status == SubscriptionActive
}

// UsagePercent returns used/quota as a percentage, 0 when the quota is unlimited.
func (s *Subscription) UsagePercent() float64 {
	if s.UsageQuota <= 0 {
		return 0
	}
	return float64(s.UsageUsed) / float64(s.UsageQuota) * 100
}

// SubscriptionDTO is the create-subscription request sent to the backend.
type SubscriptionDTO struct {
	ModelID       string `json:"model_id"`
	Plan          string `json:"plan"`
	BillingPeriod string `json:"billing_period"`
	PaymentToken  string `json:"payment_token"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
}
