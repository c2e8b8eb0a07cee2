package newsvendor

import (
	"context"
	"fmt"
	"time"

	"github.com/nicholsonjohnc/dsi-optimization/internal/lp"
)

// Result is the solved order decision for one DecisionModel. Overage and
// Underage hold s[i] and t[i] in scenario order.
type Result struct {
	Status       lp.Status
	Quantity     float64
	ExpectedCost float64
	Overage      []float64
	Underage     []float64
	Solver       string
	Duration     time.Duration
}

// Solve submits the model to solver and reads the decision back. Any
// outcome other than an optimal solution is returned as an error wrapping
// ErrSolverFailure and the engine's cause; the Result is nil in that case.
func Solve(ctx context.Context, solver lp.Solver, model *DecisionModel) (*Result, error) {
	if model == nil || model.program == nil {
		return nil, fmt.Errorf("%w: decision model is nil", ErrSolverFailure)
	}
	if solver == nil {
		return nil, fmt.Errorf("%w: no solver supplied", ErrSolverFailure)
	}

	start := time.Now()
	sol, err := solver.Solve(ctx, model.program)
	if err != nil {
		return nil, fmt.Errorf("%w: %s on %s: %w", ErrSolverFailure, solver.Name(), model.program.Name, err)
	}
	if !sol.IsOptimal() {
		status := lp.StatusUnknown
		if sol != nil {
			status = sol.Status
		}
		return nil, fmt.Errorf("%w: %s returned status %s for %s", ErrSolverFailure, solver.Name(), status, model.program.Name)
	}

	res := &Result{
		Status:       sol.Status,
		Quantity:     sol.Value(model.quantity),
		ExpectedCost: sol.Objective,
		Overage:      make([]float64, len(model.overage)),
		Underage:     make([]float64, len(model.underage)),
		Solver:       solver.Name(),
		Duration:     time.Since(start),
	}
	for i := range model.overage {
		res.Overage[i] = sol.Value(model.overage[i])
		res.Underage[i] = sol.Value(model.underage[i])
	}
	return res, nil
}

// SolveWith looks up a registered solver by name and solves the model.
func SolveWith(ctx context.Context, solverName string, opts lp.Options, model *DecisionModel) (*Result, error) {
	solver, err := lp.New(solverName, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSolverFailure, err)
	}
	return Solve(ctx, solver, model)
}
