// Package format renders currency and quantities for display.
package format

import (
	"fmt"
	"math"

	"github.com/nicholsonjohnc/dsi-optimization/pkg/mathutil"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Currency returns a currency string with a dollar sign and thousands separators (e.g., "-$1,234.56").
func Currency(amount float64) string {
	amount = mathutil.Round(amount)
	if amount < 0 {
		return "-$" + NumericCurrency(math.Abs(amount))
	}
	return "$" + NumericCurrency(amount)
}

// NumericCurrency returns a currency string without a currency symbol but with separators (e.g., "-1,234.56").
func NumericCurrency(amount float64) string {
	amount = mathutil.Round(amount)
	if amount == 0 {
		amount = 0 // drop the sign of -0
	}
	return printer.Sprintf("%.2f", amount)
}

// Quantity renders an order quantity with separators and the given number
// of decimals.
func Quantity(q float64, decimals int) string {
	q = mathutil.CleanZero(q)
	if decimals < 0 {
		decimals = 0
	}
	return printer.Sprintf(fmt.Sprintf("%%.%df", decimals), q)
}

// Percent renders a percentage with two decimals and a sign.
func Percent(p float64) string {
	p = mathutil.Round(p)
	if p > 0 {
		return "+" + printer.Sprintf("%.2f%%", p)
	}
	return printer.Sprintf("%.2f%%", p)
}
