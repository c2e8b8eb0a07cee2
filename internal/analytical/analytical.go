// Package analytical computes closed-form newsvendor optima used to check
// the results of the linear program.
package analytical

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Quantiler is satisfied by any continuous distribution with an inverse
// CDF.
type Quantiler interface {
	Quantile(p float64) float64
}

// CriticalFractile returns cu/(cu+co).
func CriticalFractile(underageCost, overageCost float64) (float64, error) {
	if !(underageCost > 0) || !(overageCost > 0) || math.IsInf(underageCost, 0) || math.IsInf(overageCost, 0) {
		return 0, fmt.Errorf("underage and overage costs must be positive and finite (got %v, %v)", underageCost, overageCost)
	}
	return underageCost / (underageCost + overageCost), nil
}

// ContinuousOptimum returns F^-1(cu/(cu+co)) for a continuous demand
// distribution.
func ContinuousOptimum(underageCost, overageCost float64, dist Quantiler) (float64, error) {
	if dist == nil {
		return 0, fmt.Errorf("distribution cannot be nil")
	}
	frac, err := CriticalFractile(underageCost, overageCost)
	if err != nil {
		return 0, err
	}
	return dist.Quantile(frac), nil
}

// DiscreteOptimum returns the smallest demand value whose cumulative
// probability reaches the critical fractile. Probabilities are used as
// relative weights, so they need not sum to one. The inputs are not
// modified.
func DiscreteOptimum(underageCost, overageCost float64, demands, probabilities []float64) (float64, error) {
	if len(demands) == 0 {
		return 0, fmt.Errorf("at least one demand value is required")
	}
	if len(demands) != len(probabilities) {
		return 0, fmt.Errorf("got %d demand values but %d probabilities", len(demands), len(probabilities))
	}
	frac, err := CriticalFractile(underageCost, overageCost)
	if err != nil {
		return 0, err
	}

	x := append([]float64(nil), demands...)
	w := append([]float64(nil), probabilities...)
	stat.SortWeighted(x, w)

	// shave the fractile so accumulated rounding in the weights cannot push
	// an exact hit to the next demand value
	return stat.Quantile(frac*(1-1e-12), stat.Empirical, x, w), nil
}
