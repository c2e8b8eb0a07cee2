package demand

import (
	"fmt"
	"strings"
)

const (
	// Random draws independent samples from the distribution.
	Random = "random"
	// Stratified places one sample at the midpoint quantile of each of n
	// equal probability bands.
	Stratified = "stratified"
)

// CanonicalMethod normalises a sampling method name. An empty name selects
// Random.
func CanonicalMethod(name string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "random", "monte-carlo", "montecarlo", "mc":
		return Random, true
	case "stratified", "quantile", "quantiles", "grid":
		return Stratified, true
	default:
		return "", false
	}
}

// Sample draws n positive demand values.
func Sample(dist Distribution, n int) ([]float64, error) {
	if err := checkCount(dist, n); err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = dist.Rand()
	}
	return out, nil
}

// StratifiedSample returns F^-1((i-0.5)/n) for i = 1..n in increasing
// order. The result depends only on the distribution and n.
func StratifiedSample(dist Distribution, n int) ([]float64, error) {
	if err := checkCount(dist, n); err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = dist.Quantile((float64(i) + 0.5) / float64(n))
	}
	return out, nil
}

// Generate draws n values with the named method.
func Generate(dist Distribution, method string, n int) ([]float64, error) {
	canonical, ok := CanonicalMethod(method)
	if !ok {
		return nil, fmt.Errorf("unknown sampling method %q", method)
	}
	if canonical == Stratified {
		return StratifiedSample(dist, n)
	}
	return Sample(dist, n)
}

func checkCount(dist Distribution, n int) error {
	if dist == nil {
		return fmt.Errorf("distribution cannot be nil")
	}
	if n <= 0 {
		return fmt.Errorf("sample count must be positive, got %d", n)
	}
	return nil
}
