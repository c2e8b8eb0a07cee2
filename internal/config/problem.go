package config

import (
	"fmt"
	"strings"

	"github.com/nicholsonjohnc/dsi-optimization/internal/demand"
	"github.com/nicholsonjohnc/dsi-optimization/internal/newsvendor"
	"github.com/nicholsonjohnc/dsi-optimization/pkg/constants"
)

const (
	DemandKindDeterministic = "deterministic"
	DemandKindThreeScenario = "three-scenario"
	DemandKindScenarios     = "scenarios"
	DemandKindSampled       = "sampled"
)

// ProblemConfig defines one newsvendor problem.
type ProblemConfig struct {
	Name          string       `yaml:"name" mapstructure:"name"`
	Active        *bool        `yaml:"active,omitempty" mapstructure:"active"`
	Price         float64      `yaml:"price" mapstructure:"price"`
	Cost          float64      `yaml:"cost" mapstructure:"cost"`
	SalvageValue  float64      `yaml:"salvageValue" mapstructure:"salvageValue"`
	QuantityStart float64      `yaml:"quantityStart,omitempty" mapstructure:"quantityStart"`
	Demand        DemandConfig `yaml:"demand" mapstructure:"demand"`
}

// DemandConfig describes demand for one problem. Which fields are read
// depends on Kind.
type DemandConfig struct {
	Kind                   string                      `yaml:"kind,omitempty" mapstructure:"kind"`
	Value                  float64                     `yaml:"value,omitempty" mapstructure:"value"`
	Scenarios              []newsvendor.DemandScenario `yaml:"scenarios,omitempty" mapstructure:"scenarios"`
	Distribution           *demand.Params              `yaml:"distribution,omitempty" mapstructure:"distribution"`
	Samples                int                         `yaml:"samples,omitempty" mapstructure:"samples"`
	Sampling               string                      `yaml:"sampling,omitempty" mapstructure:"sampling"`
	Seed                   uint64                      `yaml:"seed,omitempty" mapstructure:"seed"`
	NormalizeProbabilities bool                        `yaml:"normalizeProbabilities,omitempty" mapstructure:"normalizeProbabilities"`
}

// CanonicalDemandKind returns the canonical identifier for a demand kind.
func CanonicalDemandKind(value string) string {
	trimmed := strings.TrimSpace(value)
	switch strings.ToLower(trimmed) {
	case "deterministic", "fixed", "single":
		return DemandKindDeterministic
	case "three-scenario", "three_scenario", "threescenario", "3-scenario", "stochastic":
		return DemandKindThreeScenario
	case "scenarios", "discrete", "generalized", "generalised", "stochastic-generalized":
		return DemandKindScenarios
	case "sampled", "monte-carlo", "montecarlo", "distribution":
		return DemandKindSampled
	default:
		return strings.ToLower(trimmed)
	}
}

// IsActive reports whether the problem should be solved. Problems are
// active unless explicitly disabled.
func (p ProblemConfig) IsActive() bool {
	return p.Active == nil || *p.Active
}

// Normalize ensures defaults and canonical values are applied before
// validation. index names unnamed problems.
func (p *ProblemConfig) Normalize(index int) {
	if p == nil {
		return
	}
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		p.Name = fmt.Sprintf("problem-%d", index+1)
	}
	p.Demand.Normalize()
}

// Normalize infers a missing kind and applies sampling defaults.
func (d *DemandConfig) Normalize() {
	if d == nil {
		return
	}
	d.Kind = CanonicalDemandKind(d.Kind)
	if d.Kind == "" {
		switch {
		case d.Distribution != nil:
			d.Kind = DemandKindSampled
		case len(d.Scenarios) > 0:
			d.Kind = DemandKindScenarios
		default:
			d.Kind = DemandKindDeterministic
		}
	}

	if d.Kind != DemandKindSampled {
		return
	}
	if d.Samples <= 0 {
		d.Samples = constants.DefaultSamples
	}
	if method, ok := demand.CanonicalMethod(d.Sampling); ok {
		d.Sampling = method
	}
	if d.Distribution != nil {
		if name, ok := demand.CanonicalDistribution(d.Distribution.Name); ok {
			d.Distribution.Name = name
		}
	}
}

// ScenarioCount returns the number of demand scenarios the problem is
// solved over.
func (p ProblemConfig) ScenarioCount() int {
	switch p.Demand.Kind {
	case DemandKindDeterministic:
		return 1
	case DemandKindSampled:
		return p.Demand.Samples
	default:
		return len(p.Demand.Scenarios)
	}
}

// Costs builds the validated cost structure for the problem.
func (p ProblemConfig) Costs() (newsvendor.CostStructure, error) {
	costs, err := newsvendor.NewCostStructure(p.Price, p.Cost, p.SalvageValue, p.QuantityStart)
	if err != nil {
		return newsvendor.CostStructure{}, fmt.Errorf("problem %q: %w", p.Name, err)
	}
	return costs, nil
}

// ScenarioSet returns the explicit scenarios of a deterministic,
// three-scenario or scenarios problem, normalised when requested. Sampled
// problems have no explicit scenarios and return an error.
func (d DemandConfig) ScenarioSet() (newsvendor.ScenarioSet, error) {
	var set newsvendor.ScenarioSet
	switch d.Kind {
	case DemandKindDeterministic:
		set = newsvendor.Deterministic(d.Value)
	case DemandKindThreeScenario:
		if len(d.Scenarios) != 3 {
			return nil, fmt.Errorf("%w: three-scenario demand needs exactly 3 scenarios, got %d",
				newsvendor.ErrInvalidScenarios, len(d.Scenarios))
		}
		set = newsvendor.ScenarioSet(d.Scenarios).Clone()
	case DemandKindScenarios:
		set = newsvendor.ScenarioSet(d.Scenarios).Clone()
	case DemandKindSampled:
		return nil, fmt.Errorf("sampled demand has no explicit scenarios")
	default:
		return nil, fmt.Errorf("demand kind %q is not supported", d.Kind)
	}

	if err := set.Validate(); err != nil {
		return nil, err
	}
	if d.NormalizeProbabilities {
		return set.Normalized()
	}
	return set, nil
}

// Validate returns an error when the problem cannot be solved.
func (p *ProblemConfig) Validate() error {
	if p == nil {
		return fmt.Errorf("problem configuration cannot be nil")
	}
	if _, err := p.Costs(); err != nil {
		return err
	}

	d := p.Demand
	switch d.Kind {
	case DemandKindDeterministic, DemandKindThreeScenario, DemandKindScenarios:
		if _, err := d.ScenarioSet(); err != nil {
			return fmt.Errorf("problem %q: %w", p.Name, err)
		}
	case DemandKindSampled:
		if d.Distribution == nil {
			return fmt.Errorf("problem %q: %w: sampled demand requires a distribution",
				p.Name, demand.ErrInvalidDistribution)
		}
		if err := d.Distribution.Validate(); err != nil {
			return fmt.Errorf("problem %q: %w", p.Name, err)
		}
		if d.Samples <= 0 {
			return fmt.Errorf("problem %q: samples must be positive, got %d", p.Name, d.Samples)
		}
		if _, ok := demand.CanonicalMethod(d.Sampling); !ok {
			return fmt.Errorf("problem %q: sampling method %q is not supported", p.Name, d.Sampling)
		}
	default:
		return fmt.Errorf("problem %q: demand kind %q is not supported", p.Name, d.Kind)
	}
	return nil
}
