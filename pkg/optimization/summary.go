// Package optimization provides shared data structures for optimization results.
package optimization

import "time"

// Summary captures the solved order decision for a single problem.
type Summary struct {
	Name             string        `json:"name"`
	Kind             string        `json:"kind"`
	Scenarios        int           `json:"scenarios"`
	Solver           string        `json:"solver"`
	Status           string        `json:"status"`
	UnderageCost     float64       `json:"underageCost"`
	OverageCost      float64       `json:"overageCost"`
	CriticalFractile float64       `json:"criticalFractile"`
	Quantity         float64       `json:"quantity"`
	ExpectedCost     float64       `json:"expectedCost"`
	Analytical       *float64      `json:"analytical,omitempty"`
	AnalyticalCost   *float64      `json:"analyticalCost,omitempty"`
	Gap              float64       `json:"gap"`
	GapPercent       float64       `json:"gapPercent"`
	Duration         time.Duration `json:"duration"`
	Notes            []string      `json:"notes,omitempty"`
}

// HasAnalytical reports whether a closed-form optimum was computed.
func (s Summary) HasAnalytical() bool {
	return s.Analytical != nil
}
