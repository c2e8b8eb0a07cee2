package config

import (
	"errors"
	"fmt"

	"github.com/nicholsonjohnc/dsi-optimization/internal/lp"
	"github.com/nicholsonjohnc/dsi-optimization/internal/newsvendor"
	"github.com/nicholsonjohnc/dsi-optimization/pkg/validation"
)

// ErrNoProblems is returned when a configuration defines nothing to solve.
var ErrNoProblems = errors.New("configuration defines no problems")

// Validate returns the first structural error in the configuration.
func (c *Configuration) Validate() error {
	if c == nil {
		return fmt.Errorf("configuration cannot be nil")
	}
	if err := c.Solver.Validate(); err != nil {
		return err
	}
	if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
		return err
	}
	if err := validation.ValidateLogLevel(c.Logging.Level); err != nil {
		return err
	}
	if err := validation.ValidateLogFormat(c.Logging.Format); err != nil {
		return err
	}

	if len(c.Problems) == 0 {
		return ErrNoProblems
	}
	limits, err := lp.LimitsOf(c.Solver.Name)
	if err != nil {
		return err
	}
	for i := range c.Problems {
		p := &c.Problems[i]
		if !p.IsActive() {
			continue
		}
		if err := p.Validate(); err != nil {
			return err
		}
		if n := p.ScenarioCount(); !limits.Admits(n * newsvendor.ConstraintsPerScenario) {
			return fmt.Errorf("problem %q: %w: %d scenarios exceed the %d constraints the %s solver accepts",
				p.Name, lp.ErrUnsupportedModel, n, limits.MaxConstraints, c.Solver.Name)
		}
	}
	return nil
}

// Validate returns an error when the solver section is unusable.
func (s SolverConfig) Validate() error {
	if _, err := lp.New(s.Name, lp.Options{Tolerance: s.Tolerance}); err != nil {
		return err
	}
	if s.Tolerance < 0 {
		return fmt.Errorf("solver tolerance must not be negative, got %v", s.Tolerance)
	}
	if s.Timeout < 0 {
		return fmt.Errorf("solver timeout must not be negative, got %s", s.Timeout)
	}
	if s.Parallelism < 0 {
		return fmt.Errorf("solver parallelism must not be negative, got %d", s.Parallelism)
	}
	return nil
}
