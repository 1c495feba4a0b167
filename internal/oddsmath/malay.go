// Package oddsmath converts upstream decimal prices into the quoting
// convention shown on the board.
package oddsmath

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Placeholder is rendered wherever a price is missing.
const Placeholder = "-"

var (
	one      = decimal.NewFromInt(1)
	two      = decimal.NewFromInt(2)
	minusOne = decimal.NewFromInt(-1)
)

// DecimalToMalay converts a decimal price to Malay odds with two places.
//
//	1.50 → "0.50"
//	2.00 → "1.00"
//	3.00 → "-0.50"
//
// Missing, unparsable, "-" and prices at or below 1 give Placeholder.
func DecimalToMalay(price string) string {
	price = strings.TrimSpace(price)
	if price == "" || price == Placeholder {
		return Placeholder
	}

	d, err := decimal.NewFromString(price)
	if err != nil || d.LessThanOrEqual(one) {
		return Placeholder
	}

	margin := d.Sub(one)
	if d.LessThanOrEqual(two) {
		return margin.StringFixed(2)
	}
	return minusOne.Div(margin).StringFixed(2)
}

// DecimalFloatToMalay is DecimalToMalay for prices already parsed as float.
// Zero is treated as absent.
func DecimalFloatToMalay(price float64) string {
	if price == 0 {
		return Placeholder
	}
	return DecimalToMalay(decimal.NewFromFloat(price).String())
}
