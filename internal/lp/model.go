// Package lp describes linear programs independently of the engine that
// solves them. Every variable is continuous and non-negative; constraints
// are linear and carry a sense and a right-hand side.
package lp

import (
	"fmt"
	"math"
	"strings"
)

// Var addresses a variable inside the Model that created it.
type Var int

// Sense is the relation between a constraint's left-hand side and its
// right-hand side.
type Sense int

const (
	GreaterOrEqual Sense = iota
	LessOrEqual
	Equal
)

func (s Sense) String() string {
	switch s {
	case GreaterOrEqual:
		return ">="
	case LessOrEqual:
		return "<="
	case Equal:
		return "=="
	default:
		return fmt.Sprintf("Sense(%d)", int(s))
	}
}

// Term is a coefficient applied to a variable.
type Term struct {
	Var  Var
	Coef float64
}

// Variable is a non-negative decision variable. Start is a hint for engines
// that accept one and is never treated as a bound.
type Variable struct {
	Name  string
	Start float64
}

// Constraint is sum(Terms) <Sense> RHS.
type Constraint struct {
	Name  string
	Terms []Term
	Sense Sense
	RHS   float64
}

// Model is a minimisation linear program.
type Model struct {
	Name        string
	variables   []Variable
	objective   []Term
	constraints []Constraint
	index       map[string]Var
}

// NewModel returns an empty model.
func NewModel(name string) *Model {
	return &Model{Name: name, index: make(map[string]Var)}
}

// AddVariable registers a new non-negative variable. Names must be unique
// within the model.
func (m *Model) AddVariable(name string, start float64) (Var, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return -1, fmt.Errorf("variable name cannot be empty")
	}
	if _, exists := m.index[name]; exists {
		return -1, fmt.Errorf("variable %q already defined", name)
	}
	if math.IsNaN(start) || math.IsInf(start, 0) {
		return -1, fmt.Errorf("variable %q has non-finite start value", name)
	}
	v := Var(len(m.variables))
	m.variables = append(m.variables, Variable{Name: name, Start: start})
	m.index[name] = v
	return v, nil
}

// AddObjectiveTerm adds coef*v to the objective.
func (m *Model) AddObjectiveTerm(coef float64, v Var) error {
	if err := m.checkTerm(Term{Var: v, Coef: coef}); err != nil {
		return fmt.Errorf("objective: %w", err)
	}
	m.objective = append(m.objective, Term{Var: v, Coef: coef})
	return nil
}

// AddConstraint appends a named linear constraint.
func (m *Model) AddConstraint(name string, sense Sense, rhs float64, terms ...Term) error {
	switch sense {
	case GreaterOrEqual, LessOrEqual, Equal:
	default:
		return fmt.Errorf("constraint %q has unsupported sense %s", name, sense)
	}
	if math.IsNaN(rhs) || math.IsInf(rhs, 0) {
		return fmt.Errorf("constraint %q has non-finite right-hand side", name)
	}
	for _, term := range terms {
		if err := m.checkTerm(term); err != nil {
			return fmt.Errorf("constraint %q: %w", name, err)
		}
	}
	m.constraints = append(m.constraints, Constraint{
		Name:  name,
		Terms: append([]Term(nil), terms...),
		Sense: sense,
		RHS:   rhs,
	})
	return nil
}

func (m *Model) checkTerm(term Term) error {
	if term.Var < 0 || int(term.Var) >= len(m.variables) {
		return fmt.Errorf("unknown variable %d", term.Var)
	}
	if math.IsNaN(term.Coef) || math.IsInf(term.Coef, 0) {
		return fmt.Errorf("non-finite coefficient on %s", m.variables[term.Var].Name)
	}
	return nil
}

// NumVariables returns the number of variables.
func (m *Model) NumVariables() int { return len(m.variables) }

// NumConstraints returns the number of constraints.
func (m *Model) NumConstraints() int { return len(m.constraints) }

// Variable returns the definition of v.
func (m *Model) Variable(v Var) Variable { return m.variables[v] }

// Lookup finds a variable by name.
func (m *Model) Lookup(name string) (Var, bool) {
	v, ok := m.index[name]
	return v, ok
}

// Objective returns a copy of the objective terms.
func (m *Model) Objective() []Term {
	return append([]Term(nil), m.objective...)
}

// Constraints returns a copy of the constraints.
func (m *Model) Constraints() []Constraint {
	out := make([]Constraint, len(m.constraints))
	for i, c := range m.constraints {
		c.Terms = append([]Term(nil), c.Terms...)
		out[i] = c
	}
	return out
}

// Starts returns the start hint of every variable, indexed by Var.
func (m *Model) Starts() []float64 {
	starts := make([]float64, len(m.variables))
	for i, v := range m.variables {
		starts[i] = v.Start
	}
	return starts
}

// Validate reports structural problems an engine cannot work with.
func (m *Model) Validate() error {
	if m == nil {
		return fmt.Errorf("model cannot be nil")
	}
	if len(m.variables) == 0 {
		return fmt.Errorf("model %q has no variables", m.Name)
	}
	return nil
}

// ObjectiveValue evaluates the objective at x.
func (m *Model) ObjectiveValue(x []float64) float64 {
	var total float64
	for _, term := range m.objective {
		total += term.Coef * x[term.Var]
	}
	return total
}

// MaxViolation returns the largest amount by which x violates a constraint
// or a non-negativity bound. Zero means x is feasible.
func (m *Model) MaxViolation(x []float64) float64 {
	var worst float64
	for _, value := range x {
		worst = math.Max(worst, -value)
	}
	for _, c := range m.constraints {
		var lhs float64
		for _, term := range c.Terms {
			lhs += term.Coef * x[term.Var]
		}
		var violation float64
		switch c.Sense {
		case GreaterOrEqual:
			violation = c.RHS - lhs
		case LessOrEqual:
			violation = lhs - c.RHS
		case Equal:
			violation = math.Abs(lhs - c.RHS)
		}
		worst = math.Max(worst, violation)
	}
	return worst
}
