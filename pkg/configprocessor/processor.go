// Package configprocessor provides shared configuration processing utilities.
package configprocessor

import (
	"github.com/nicholsonjohnc/dsi-optimization/pkg/validation"
	"gonum.org/v1/gonum/floats"
)

// ProblemInfo represents problem configuration information. Sampled
// problems carry SampleCount instead of explicit demands.
type ProblemInfo struct {
	Name          string
	Active        bool
	Demands       []float64
	Probabilities []float64
	Normalize     bool
	QuantityStart float64
	Sampled       bool
	SampleCount   int
}

// Processor handles configuration processing and validation
type Processor struct{}

// NewProcessor creates a new configuration processor
func NewProcessor() *Processor {
	return &Processor{}
}

// ValidateConfiguration validates the problems and returns warnings
func (p *Processor) ValidateConfiguration(problems []ProblemInfo) []string {
	validator := validation.ConfigValidator{
		Problems: make([]validation.ProblemConfig, 0, len(problems)),
	}

	for _, problem := range problems {
		vc := validation.ProblemConfig{
			Name:          problem.Name,
			Active:        problem.Active,
			Normalize:     problem.Normalize,
			QuantityStart: problem.QuantityStart,
			Sampled:       problem.Sampled,
		}
		if problem.Sampled {
			vc.Scenarios = problem.SampleCount
		} else {
			vc.Scenarios = len(problem.Demands)
			vc.TotalProbability = floats.Sum(problem.Probabilities)
			if len(problem.Demands) > 0 {
				vc.MinDemand = floats.Min(problem.Demands)
				vc.MaxDemand = floats.Max(problem.Demands)
			}
		}
		validator.Problems = append(validator.Problems, vc)
	}

	warnings := validator.ValidateAll()
	if len(warnings) == 0 {
		return nil
	}
	return warnings
}
