package newsvendor

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// DemandScenario is one possible demand outcome and its probability.
type DemandScenario struct {
	Demand      float64 `json:"demand" yaml:"demand" mapstructure:"demand"`
	Probability float64 `json:"probability" yaml:"probability" mapstructure:"probability"`
}

// ScenarioSet is an ordered list of scenarios. Position i (zero based) is
// reported as scenario i+1 in variable and constraint names.
type ScenarioSet []DemandScenario

// Deterministic returns a single scenario with probability one.
func Deterministic(demand float64) ScenarioSet {
	return ScenarioSet{{Demand: demand, Probability: 1}}
}

// EqualWeight turns raw demand samples into a set where every sample has
// probability 1/len(demands).
func EqualWeight(demands []float64) ScenarioSet {
	if len(demands) == 0 {
		return nil
	}
	p := 1 / float64(len(demands))
	set := make(ScenarioSet, len(demands))
	for i, d := range demands {
		set[i] = DemandScenario{Demand: d, Probability: p}
	}
	return set
}

// Validate checks every scenario. It does not require the probabilities to
// sum to one.
func (s ScenarioSet) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("%w: at least one scenario is required", ErrInvalidScenarios)
	}
	for i, sc := range s {
		if math.IsNaN(sc.Demand) || math.IsInf(sc.Demand, 0) || sc.Demand <= 0 {
			return fmt.Errorf("%w: scenario %d demand must be positive and finite, got %v", ErrInvalidScenarios, i+1, sc.Demand)
		}
		if math.IsNaN(sc.Probability) || sc.Probability <= 0 || sc.Probability > 1 {
			return fmt.Errorf("%w: scenario %d probability must be in (0, 1], got %v", ErrInvalidScenarios, i+1, sc.Probability)
		}
	}
	return nil
}

// Demands returns the demand of every scenario in order.
func (s ScenarioSet) Demands() []float64 {
	out := make([]float64, len(s))
	for i, sc := range s {
		out[i] = sc.Demand
	}
	return out
}

// Probabilities returns the probability of every scenario in order.
func (s ScenarioSet) Probabilities() []float64 {
	out := make([]float64, len(s))
	for i, sc := range s {
		out[i] = sc.Probability
	}
	return out
}

// TotalProbability sums the scenario probabilities.
func (s ScenarioSet) TotalProbability() float64 {
	return floats.Sum(s.Probabilities())
}

// Normalized returns a copy whose probabilities sum to one. The receiver is
// left untouched.
func (s ScenarioSet) Normalized() (ScenarioSet, error) {
	total := s.TotalProbability()
	if len(s) == 0 || total <= 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return nil, fmt.Errorf("%w: cannot normalise probabilities summing to %v", ErrInvalidScenarios, total)
	}
	out := make(ScenarioSet, len(s))
	for i, sc := range s {
		out[i] = DemandScenario{Demand: sc.Demand, Probability: sc.Probability / total}
	}
	return out, nil
}

// Clone returns an independent copy.
func (s ScenarioSet) Clone() ScenarioSet {
	return append(ScenarioSet(nil), s...)
}
