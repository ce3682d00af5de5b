package model

import "time"

// InvoiceStatus values.
type InvoiceStatus string

const (
	InvoicePaid    InvoiceStatus = "paid"
	InvoicePending InvoiceStatus = "pending"
	InvoiceOverdue InvoiceStatus = "overdue"
)

// Invoice is a billing document for one subscription period.
type Invoice struct {
	ID              string            `json:"id"`
	Number          string            `json:"number"`
	SubscriptionID  string            `json:"subscription_id"`
	ModelName       string            `json:"model_name"`
	Amount          float64           `json:"amount"`
	Currency        string            `json:"currency"`
	FormattedAmount string            `json:"formatted_amount"`
	Status          InvoiceStatus     `json:"status"`
	IssuedAt        time.Time         `json:"issued_at"`
	DueAt           time.Time         `json:"due_at"`
	PaidAt          *time.Time        `json:"paid_at,omitempty"`
	PeriodStart     time.Time         `json:"period_start"`
	PeriodEnd       time.Time         `json:"period_end"`
	LineItems       []InvoiceLineItem `json:"line_items"`
}

// InvoiceLineItem is a single charge on an invoice.
type InvoiceLineItem struct {
	Description string  `json:"description"`
	Quantity    int64   `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Amount      float64 `json:"amount"`
}
