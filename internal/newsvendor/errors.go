package newsvendor

import "errors"

var (
	// ErrInvalidCosts reports price, cost, salvage or start values that do
	// not describe a newsvendor problem.
	ErrInvalidCosts = errors.New("invalid cost structure")

	// ErrInvalidScenarios reports an empty scenario set or a scenario with a
	// bad demand or probability.
	ErrInvalidScenarios = errors.New("invalid demand scenarios")

	// ErrSolverFailure reports that the LP engine did not return an optimal
	// solution. The engine's cause is wrapped alongside it.
	ErrSolverFailure = errors.New("solver failure")
)
