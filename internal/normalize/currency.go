// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// DefaultRates is the static reference table: the value of one unit of each
// currency in USD. Configuration may replace it.
var DefaultRates = map[string]float64{
	"USD": 1,
	"EUR": 1.08,
	"GBP": 1.27,
	"CAD": 0.74,
	"AUD": 0.66,
	"JPY": 0.0067,
	"CNY": 0.14,
	"INR": 0.012,
	"MXN": 0.058,
}

// CurrencyCode upper-cases and validates an ISO 4217 code. It returns ""
// when code is not a recognised currency.
func CurrencyCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return ""
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return ""
	}
	return unit.String()
}

// Convert converts amount from one currency to another through the rate
// table, rounding half away from zero to two places. ok is false when
// either rate is missing or not positive.
func Convert(amount decimal.Decimal, from, to string, rates map[string]float64) (decimal.Decimal, bool) {
	if from == to {
		return amount, true
	}
	src, ok := rates[from]
	if !ok || src <= 0 {
		return decimal.Decimal{}, false
	}
	dst, ok := rates[to]
	if !ok || dst <= 0 {
		return decimal.Decimal{}, false
	}
	converted := amount.Mul(decimal.NewFromFloat(src)).Div(decimal.NewFromFloat(dst))
	return converted.Round(2), true
}
