package lp

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestModelRejectsBadInput(t *testing.T) {
	m := NewModel("checks")
	x, err := m.AddVariable("x", 1)
	if err != nil {
		t.Fatalf("AddVariable() error = %v", err)
	}

	if _, err := m.AddVariable("x", 0); err == nil {
		t.Fatal("expected duplicate variable error")
	}
	if _, err := m.AddVariable("  ", 0); err == nil {
		t.Fatal("expected empty name error")
	}
	if _, err := m.AddVariable("nan", math.NaN()); err == nil {
		t.Fatal("expected non-finite start error")
	}
	if err := m.AddObjectiveTerm(math.Inf(1), x); err == nil {
		t.Fatal("expected non-finite objective coefficient error")
	}
	if err := m.AddObjectiveTerm(1, Var(7)); err == nil {
		t.Fatal("expected unknown variable error")
	}
	if err := m.AddConstraint("bad sense", Sense(9), 0, Term{x, 1}); err == nil {
		t.Fatal("expected unsupported sense error")
	}
	if err := m.AddConstraint("bad rhs", GreaterOrEqual, math.NaN(), Term{x, 1}); err == nil {
		t.Fatal("expected non-finite rhs error")
	}
	if m.NumConstraints() != 0 {
		t.Fatalf("rejected constraints must not be stored, got %d", m.NumConstraints())
	}
}

func TestModelAccessors(t *testing.T) {
	m := NewModel("accessors")
	x, _ := m.AddVariable("x", 2)
	y, _ := m.AddVariable("y", 0)
	_ = m.AddObjectiveTerm(3, x)
	_ = m.AddObjectiveTerm(1, y)
	_ = m.AddConstraint("sum", Equal, 5, Term{x, 1}, Term{y, 1})

	if got, ok := m.Lookup("y"); !ok || got != y {
		t.Fatalf("Lookup(y) = %v, %v", got, ok)
	}
	if _, ok := m.Lookup("z"); ok {
		t.Fatal("Lookup(z) should fail")
	}
	if starts := m.Starts(); starts[x] != 2 || starts[y] != 0 {
		t.Fatalf("unexpected starts %v", starts)
	}

	constraints := m.Constraints()
	constraints[0].Terms[0].Coef = 99
	if m.Constraints()[0].Terms[0].Coef != 1 {
		t.Fatal("Constraints() must return a copy")
	}

	point := []float64{2, 3}
	if got := m.ObjectiveValue(point); got != 9 {
		t.Fatalf("ObjectiveValue = %v, want 9", got)
	}
	if v := m.MaxViolation(point); v != 0 {
		t.Fatalf("MaxViolation = %v, want 0", v)
	}
	if v := m.MaxViolation([]float64{-1, 3}); v != 3 {
		t.Fatalf("MaxViolation = %v, want 3", v)
	}
}

func TestRegistry(t *testing.T) {
	solver, err := New(" SIMPLEX ", Options{})
	if err != nil {
		t.Fatalf("New(simplex) error = %v", err)
	}
	if solver.Name() != SimplexSolverName {
		t.Fatalf("expected %s, got %s", SimplexSolverName, solver.Name())
	}

	solver, err = New("", Options{})
	if err != nil {
		t.Fatalf("empty name should select the default solver, got %v", err)
	}
	if solver.Name() != RevisedSolverName {
		t.Fatalf("expected default %s, got %s", RevisedSolverName, solver.Name())
	}

	if _, err := New("glpk", Options{}); !errors.Is(err, ErrUnknownSolver) {
		t.Fatalf("expected ErrUnknownSolver, got %v", err)
	}

	Register("fixed-test", func(Options) Solver { return fixedSolver{} })
	solver, err = New("fixed-test", Options{})
	if err != nil {
		t.Fatalf("New(fixed-test) error = %v", err)
	}
	if _, err := solver.Solve(context.Background(), NewModel("x")); err != nil {
		t.Fatalf("fixed solver error = %v", err)
	}

	limits, err := LimitsOf("fixed-test")
	if err != nil || limits.Interruptible || !limits.Admits(1<<30) {
		t.Fatalf("unexpected limits %+v for a plain registration (err %v)", limits, err)
	}

	found := false
	for _, name := range Names() {
		if name == "fixed-test" {
			found = true
		}
	}
	if !found {
		t.Fatalf("registered solver missing from %v", Names())
	}
}

func TestBuiltInEngineLimits(t *testing.T) {
	testCases := []struct {
		name          string
		interruptible bool
		admits        int
		rejects       int
	}{
		{RevisedSolverName, true, 10000, revisedMaxConstraints + 1},
		{SimplexSolverName, false, 400, 10000},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			limits, err := LimitsOf(tc.name)
			if err != nil {
				t.Fatalf("LimitsOf() error = %v", err)
			}
			if limits.Interruptible != tc.interruptible {
				t.Fatalf("expected interruptible=%v, got %+v", tc.interruptible, limits)
			}
			if !limits.Admits(tc.admits) || limits.Admits(tc.rejects) {
				t.Fatalf("limits %+v should admit %d and reject %d constraints", limits, tc.admits, tc.rejects)
			}
		})
	}

	if _, err := LimitsOf("glpk"); !errors.Is(err, ErrUnknownSolver) {
		t.Fatalf("expected ErrUnknownSolver, got %v", err)
	}
}

type fixedSolver struct{}

func (fixedSolver) Name() string { return "fixed-test" }

func (fixedSolver) Solve(context.Context, *Model) (*Solution, error) {
	return &Solution{Status: StatusOptimal}, nil
}

func TestStatusStrings(t *testing.T) {
	testCases := []struct {
		status Status
		want   string
	}{
		{StatusOptimal, "optimal"},
		{StatusInfeasible, "infeasible"},
		{StatusUnbounded, "unbounded"},
		{StatusNumericalFailure, "numerical failure"},
		{StatusCancelled, "cancelled"},
		{StatusUnknown, "unknown"},
	}
	for _, tc := range testCases {
		if got := tc.status.String(); got != tc.want {
			t.Errorf("Status(%d).String() = %q, want %q", tc.status, got, tc.want)
		}
	}
	if GreaterOrEqual.String() != ">=" || LessOrEqual.String() != "<=" || Equal.String() != "==" {
		t.Error("unexpected Sense strings")
	}
}
