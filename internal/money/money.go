// Package money formats prices for display.
package money

import (
	"math"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
}

// Format renders amount with grouping and two decimals, e.g. "$1,234.50".
// Unknown or invalid codes fall back to USD; codes without a symbol are
// rendered as a prefix, e.g. "CHF 12.00".
func Format(amount float64, code string) string {
	unit := Normalize(code)
	p := message.NewPrinter(language.English)

	sign := ""
	if amount < 0 {
		sign = "-"
		amount = math.Abs(amount)
	}

	if sym, ok := symbols[unit]; ok {
		return sign + p.Sprintf("%s%.2f", sym, amount)
	}
	return sign + p.Sprintf("%s %.2f", unit, amount)
}

// Normalize returns the upper-case ISO 4217 code, USD when code is not valid.
func Normalize(code string) string {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return currency.USD.String()
	}
	return unit.String()
}

// Round rounds to cents.
func Round(amount float64) float64 {
	return math.Round(amount*100) / 100
}
