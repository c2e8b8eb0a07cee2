// Package validation provides configuration validation utilities.
package validation

import (
	"fmt"
	"math"

	"github.com/nicholsonjohnc/dsi-optimization/pkg/constants"
)

// ValidateProbabilitySum warns when scenario probabilities do not sum to
// one. normalized reports whether the problem rescales them.
func ValidateProbabilitySum(problemName string, total float64, normalized bool) string {
	if math.Abs(total-1) <= constants.ProbabilitySumTolerance {
		return ""
	}
	if normalized {
		return fmt.Sprintf("Problem '%s' scenario probabilities sum to %.6f and will be normalized", problemName, total)
	}
	return fmt.Sprintf("Problem '%s' scenario probabilities sum to %.6f, not 1 - expected cost is scaled accordingly", problemName, total)
}

// ValidateScenarioCount warns about scenario counts that take more than a
// few seconds to solve.
func ValidateScenarioCount(problemName string, count int) string {
	if count <= constants.LargeScenarioCount {
		return ""
	}
	return fmt.Sprintf("Problem '%s' has %d scenarios (more than %d) - solving may be slow",
		problemName, count, constants.LargeScenarioCount)
}

// ValidateQuantityStart warns when the start hint lies outside the
// demand range, where it is of little use to an engine that accepts one.
func ValidateQuantityStart(problemName string, start, minDemand, maxDemand float64) string {
	if start == 0 || (start >= minDemand && start <= maxDemand) {
		return ""
	}
	return fmt.Sprintf("Problem '%s' quantity start %.2f lies outside the demand range [%.2f, %.2f]",
		problemName, start, minDemand, maxDemand)
}

// ProblemConfig is the subset of a problem's configuration the validator
// inspects.
type ProblemConfig struct {
	Name             string
	Active           bool
	Scenarios        int
	TotalProbability float64
	Normalize        bool
	QuantityStart    float64
	MinDemand        float64
	MaxDemand        float64
	Sampled          bool
}

// ConfigValidator collects warnings across problems.
type ConfigValidator struct {
	Problems []ProblemConfig
}

// ValidateAll validates the entire configuration and returns warnings
func (cv *ConfigValidator) ValidateAll() []string {
	var warnings []string

	seen := make(map[string]bool, len(cv.Problems))
	active := 0
	for _, problem := range cv.Problems {
		if seen[problem.Name] {
			warnings = append(warnings, fmt.Sprintf("Problem '%s' is defined more than once", problem.Name))
		}
		seen[problem.Name] = true

		if !problem.Active {
			continue
		}
		active++

		if w := ValidateScenarioCount(problem.Name, problem.Scenarios); w != "" {
			warnings = append(warnings, w)
		}
		// sampled problems are equal-weight by construction
		if !problem.Sampled {
			if w := ValidateProbabilitySum(problem.Name, problem.TotalProbability, problem.Normalize); w != "" {
				warnings = append(warnings, w)
			}
			if w := ValidateQuantityStart(problem.Name, problem.QuantityStart, problem.MinDemand, problem.MaxDemand); w != "" {
				warnings = append(warnings, w)
			}
		}
	}

	if len(cv.Problems) > 0 && active == 0 {
		warnings = append(warnings, "No active problems - nothing will be solved")
	}

	return warnings
}
