// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/nicholsonjohnc/dsi-optimization/pkg/optimization"
)

// FindSummary finds a summary by problem name in the results slice.
// Returns a pointer to the summary if found, nil otherwise.
func FindSummary(results []optimization.Summary, name string) *optimization.Summary {
	for i := range results {
		if results[i].Name == name {
			return &results[i]
		}
	}
	return nil
}

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 {
	return &v
}
