package model

// Payment error codes.
const (
	PaymentCardDeclined      = "card_declined"
	PaymentInsufficientFunds = "insufficient_funds"
	PaymentExpiredCard       = "expired_card"
	PaymentProcessingError   = "processing_error"
	PaymentInvalidRequest    = "invalid_request"
)

// PaymentErrorInfo describes why a payment did not go through.
type PaymentErrorInfo struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Field     string `json:"field,omitempty"`
	Retryable bool   `json:"retryable"`
}

// Error implements error so payment failures can travel as errors.
func (p *PaymentErrorInfo) Error() string {
	return p.Code + ": " + p.Message
}
