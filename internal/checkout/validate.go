// Package checkout validates the payment form and runs a subscription purchase.
package checkout

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/modelhub/portal/internal/model"
)

// Form is the checkout form as submitted by the browser.
type Form struct {
	ModelID       string `json:"model_id"`
	Plan          string `json:"plan"`
	BillingPeriod string `json:"billing_period"`
	FullName      string `json:"full_name"`
	Email         string `json:"email"`
	CardNumber    string `json:"card_number"`
	Expiry        string `json:"expiry"`
	CVV           string `json:"cvv"`
	AddressLine   string `json:"address_line"`
	City          string `json:"city"`
	PostalCode    string `json:"postal_code"`
	Country       string `json:"country"`
}

// FieldErrors maps a form field name to its error message.
type FieldErrors map[string]string

var (
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	digitsPattern = regexp.MustCompile(`^[0-9]+$`)
	expiryPattern = regexp.MustCompile(`^(\d{2})/(\d{2})$`)
	cardStripper  = strings.NewReplacer(" ", "", "-", "")
)

// NormalizeCard removes spaces and dashes from a card number.
func NormalizeCard(number string) string {
	return cardStripper.Replace(strings.TrimSpace(number))
}

// Validate checks every field of the form. A non-empty result blocks submission.
// The card number is checked for length only; the expiry is checked for
// format only.
func Validate(f Form) FieldErrors {
	errs := FieldErrors{}

	required := []struct {
		field string
		value string
		label string
	}{
		{"plan", f.Plan, "Plan"},
		{"full_name", f.FullName, "Full name"},
		{"email", f.Email, "Email"},
		{"card_number", f.CardNumber, "Card number"},
		{"expiry", f.Expiry, "Expiry date"},
		{"cvv", f.CVV, "CVV"},
		{"address_line", f.AddressLine, "Address"},
		{"city", f.City, "City"},
		{"postal_code", f.PostalCode, "Postal code"},
		{"country", f.Country, "Country"},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs[r.field] = r.label + " is required"
		}
	}

	if _, missing := errs["email"]; !missing && !emailPattern.MatchString(strings.TrimSpace(f.Email)) {
		errs["email"] = "Please enter a valid email address"
	}

	if _, missing := errs["card_number"]; !missing {
		card := NormalizeCard(f.CardNumber)
		if !digitsPattern.MatchString(card) || len(card) < 13 || len(card) > 19 {
			errs["card_number"] = "Card number must be 13 to 19 digits"
		}
	}

	if _, missing := errs["expiry"]; !missing && !validExpiry(strings.TrimSpace(f.Expiry)) {
		errs["expiry"] = "Expiry must be in MM/YY format"
	}

	if _, missing := errs["cvv"]; !missing {
		cvv := strings.TrimSpace(f.CVV)
		if !digitsPattern.MatchString(cvv) || (len(cvv) != 3 && len(cvv) != 4) {
			errs["cvv"] = "CVV must be 3 or 4 digits"
		}
	}

	switch f.BillingPeriod {
	case "", model.BillingMonthly, model.BillingYearly:
	default:
		errs["billing_period"] = "Billing period must be monthly or yearly"
	}

	return errs
}

func validExpiry(s string) bool {
	m := expiryPattern.FindStringSubmatch(s)
	if m == nil {
		return false
	}
	month, err := strconv.Atoi(m[1])
	if err != nil {
		return false
	}
	return month >= 1 && month <= 12
}
