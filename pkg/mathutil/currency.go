// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/nicholsonjohnc/dsi-optimization/pkg/constants"
)

// Round rounds a value to two decimals, i.e. to represent real currency.
// Used for making logical comparisons.
func Round(val float64) float64 {
	return math.Round(val*constants.DecimalPrecision) / constants.DecimalPrecision
}

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}

// CleanZero maps values within the quantity tolerance of zero, including
// negative zero, to exactly zero.
func CleanZero(val float64) float64 {
	if math.Abs(val) <= constants.QuantityTolerance {
		return 0
	}
	return val
}

// CalculatePercentage calculates what percentage value is of total
func CalculatePercentage(value, total float64) float64 {
	if total == 0 {
		return 0
	}
	return (value / total) * constants.PercentageMultiplier
}
