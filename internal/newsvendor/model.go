package newsvendor

import (
	"fmt"
	"math"

	"github.com/nicholsonjohnc/dsi-optimization/internal/lp"
)

const (
	quantityVariable = "quantity"

	// ConstraintsPerScenario is the number of constraints each demand
	// scenario adds to a DecisionModel.
	ConstraintsPerScenario = 2
)

// DecisionModel is the linear program for one problem together with the
// handles needed to read a solution back.
//
//	minimise   sum_i p[i] * (co*s[i] + cu*t[i])
//	subject to s[i] >= quantity - demand[i]
//	           t[i] >= demand[i] - quantity
//	           quantity, s[i], t[i] >= 0
type DecisionModel struct {
	costs     CostStructure
	scenarios ScenarioSet
	program   *lp.Model
	quantity  lp.Var
	overage   []lp.Var
	underage  []lp.Var
}

// BuildDeterministicModel builds the model for a single known demand.
func BuildDeterministicModel(costs CostStructure, demand float64) (*DecisionModel, error) {
	return BuildScenarioModel(costs, Deterministic(demand))
}

// BuildThreeScenarioModel builds the model for exactly three scenarios.
func BuildThreeScenarioModel(costs CostStructure, scenarios [3]DemandScenario) (*DecisionModel, error) {
	return BuildScenarioModel(costs, scenarios[:])
}

// BuildScenarioModel builds the model for any non-empty scenario set. The
// set is copied, so later changes by the caller do not affect the model.
func BuildScenarioModel(costs CostStructure, scenarios ScenarioSet) (*DecisionModel, error) {
	if costs == (CostStructure{}) {
		return nil, fmt.Errorf("%w: cost structure was not constructed", ErrInvalidCosts)
	}
	if err := scenarios.Validate(); err != nil {
		return nil, err
	}

	n := len(scenarios)
	dm := &DecisionModel{
		costs:     costs,
		scenarios: scenarios.Clone(),
		program:   lp.NewModel(fmt.Sprintf("newsvendor[%d]", n)),
		overage:   make([]lp.Var, n),
		underage:  make([]lp.Var, n),
	}

	var err error
	if dm.quantity, err = dm.program.AddVariable(quantityVariable, costs.QuantityStart()); err != nil {
		return nil, err
	}

	co, cu := costs.OverageCost(), costs.UnderageCost()
	for i, sc := range dm.scenarios {
		idx := i + 1
		if dm.overage[i], err = dm.program.AddVariable(fmt.Sprintf("s[%d]", idx), 0); err != nil {
			return nil, err
		}
		if dm.underage[i], err = dm.program.AddVariable(fmt.Sprintf("t[%d]", idx), 0); err != nil {
			return nil, err
		}

		if err = dm.program.AddObjectiveTerm(sc.Probability*co, dm.overage[i]); err != nil {
			return nil, err
		}
		if err = dm.program.AddObjectiveTerm(sc.Probability*cu, dm.underage[i]); err != nil {
			return nil, err
		}

		// s[i] - quantity >= -demand[i]
		if err = dm.program.AddConstraint(fmt.Sprintf("overage[%d]", idx), lp.GreaterOrEqual, -sc.Demand,
			lp.Term{Var: dm.overage[i], Coef: 1},
			lp.Term{Var: dm.quantity, Coef: -1},
		); err != nil {
			return nil, err
		}
		// t[i] + quantity >= demand[i]
		if err = dm.program.AddConstraint(fmt.Sprintf("underage[%d]", idx), lp.GreaterOrEqual, sc.Demand,
			lp.Term{Var: dm.underage[i], Coef: 1},
			lp.Term{Var: dm.quantity, Coef: 1},
		); err != nil {
			return nil, err
		}
	}

	return dm, nil
}

// Program returns the underlying linear program.
func (dm *DecisionModel) Program() *lp.Model { return dm.program }

// Costs returns the cost structure the model was built from.
func (dm *DecisionModel) Costs() CostStructure { return dm.costs }

// Scenarios returns a copy of the scenarios the model was built from.
func (dm *DecisionModel) Scenarios() ScenarioSet { return dm.scenarios.Clone() }

// QuantityVar returns the handle of the shared order quantity variable.
func (dm *DecisionModel) QuantityVar() lp.Var { return dm.quantity }

// ExpectedCost evaluates the objective at order quantity q with the slacks
// at their smallest feasible values.
func (dm *DecisionModel) ExpectedCost(q float64) float64 {
	co, cu := dm.costs.OverageCost(), dm.costs.UnderageCost()
	var total float64
	for _, sc := range dm.scenarios {
		total += sc.Probability * (co*math.Max(q-sc.Demand, 0) + cu*math.Max(sc.Demand-q, 0))
	}
	return total
}
