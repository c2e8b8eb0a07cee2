package lp

import (
	"context"
	"errors"
	"math"
	"testing"
)

func mustVar(t *testing.T, m *Model, name string) Var {
	t.Helper()
	v, err := m.AddVariable(name, 0)
	if err != nil {
		t.Fatalf("AddVariable(%q) error = %v", name, err)
	}
	return v
}

func mustConstrain(t *testing.T, m *Model, name string, sense Sense, rhs float64, terms ...Term) {
	t.Helper()
	if err := m.AddConstraint(name, sense, rhs, terms...); err != nil {
		t.Fatalf("AddConstraint(%q) error = %v", name, err)
	}
}

func mustObjective(t *testing.T, m *Model, coef float64, v Var) {
	t.Helper()
	if err := m.AddObjectiveTerm(coef, v); err != nil {
		t.Fatalf("AddObjectiveTerm error = %v", err)
	}
}

func TestSimplexSolvesLessOrEqualProgram(t *testing.T) {
	m := NewModel("production")
	x := mustVar(t, m, "x")
	y := mustVar(t, m, "y")
	mustObjective(t, m, -1, x)
	mustObjective(t, m, -1, y)
	mustConstrain(t, m, "capacity-a", LessOrEqual, 4, Term{x, 1}, Term{y, 2})
	mustConstrain(t, m, "capacity-b", LessOrEqual, 6, Term{x, 3}, Term{y, 1})

	sol, err := NewSimplex(Options{}).Solve(context.Background(), m)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	if !sol.IsOptimal() {
		t.Fatalf("expected optimal status, got %s", sol.Status)
	}
	if math.Abs(sol.Value(x)-1.6) > 1e-9 || math.Abs(sol.Value(y)-1.2) > 1e-9 {
		t.Fatalf("expected x=1.6 y=1.2, got x=%v y=%v", sol.Value(x), sol.Value(y))
	}
	if math.Abs(sol.Objective+2.8) > 1e-9 {
		t.Fatalf("expected objective -2.8, got %v", sol.Objective)
	}
	if v := m.MaxViolation(sol.Values); v > 1e-9 {
		t.Fatalf("solution violates constraints by %v", v)
	}
}

func TestSimplexSolvesWithoutStartingBasis(t *testing.T) {
	// x occurs in both rows, so no slack/singleton basis exists for the
	// second row and gonum has to find one itself.
	m := NewModel("covering")
	x := mustVar(t, m, "x")
	y := mustVar(t, m, "y")
	mustObjective(t, m, 2, x)
	mustObjective(t, m, 3, y)
	mustConstrain(t, m, "demand", GreaterOrEqual, 4, Term{x, 1}, Term{y, 1})
	mustConstrain(t, m, "minimum-x", GreaterOrEqual, 1, Term{x, 1})

	sf, err := toStandardForm(m)
	if err != nil {
		t.Fatalf("toStandardForm() error = %v", err)
	}
	if sf.basis != nil {
		t.Fatalf("expected no starting basis, got %v", sf.basis)
	}

	sol, err := NewSimplex(Options{}).Solve(context.Background(), m)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	if math.Abs(sol.Value(x)-4) > 1e-9 || math.Abs(sol.Value(y)) > 1e-9 {
		t.Fatalf("expected x=4 y=0, got x=%v y=%v", sol.Value(x), sol.Value(y))
	}
	if math.Abs(sol.Objective-8) > 1e-9 {
		t.Fatalf("expected objective 8, got %v", sol.Objective)
	}
}

func TestStandardFormStartingBasis(t *testing.T) {
	m := NewModel("slack pair")
	q := mustVar(t, m, "quantity")
	s := mustVar(t, m, "s")
	u := mustVar(t, m, "t")
	mustObjective(t, m, 30, s)
	mustObjective(t, m, 50, u)
	mustConstrain(t, m, "overage", GreaterOrEqual, -100, Term{s, 1}, Term{q, -1})
	mustConstrain(t, m, "underage", GreaterOrEqual, 100, Term{u, 1}, Term{q, 1})

	sf, err := toStandardForm(m)
	if err != nil {
		t.Fatalf("toStandardForm() error = %v", err)
	}
	if sf.basis == nil {
		t.Fatal("expected a starting basis")
	}
	// overage row is flipped so its surplus column (index 3) is basic;
	// underage row uses the singleton column of t (index 2).
	if sf.basis[0] != 3 || sf.basis[1] != 2 {
		t.Fatalf("unexpected starting basis %v", sf.basis)
	}
	for i, b := range sf.b {
		if b < 0 {
			t.Fatalf("row %d has negative right-hand side %v", i, b)
		}
	}
}

func TestSimplexDropsUnusedVariables(t *testing.T) {
	m := NewModel("unused")
	x := mustVar(t, m, "x")
	idle := mustVar(t, m, "idle")
	mustObjective(t, m, 1, x)
	mustObjective(t, m, 5, idle)
	mustConstrain(t, m, "floor", GreaterOrEqual, 2, Term{x, 1})

	sol, err := NewSimplex(Options{}).Solve(context.Background(), m)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	if sol.Value(idle) != 0 {
		t.Fatalf("expected unused variable fixed at zero, got %v", sol.Value(idle))
	}
	if math.Abs(sol.Value(x)-2) > 1e-9 {
		t.Fatalf("expected x=2, got %v", sol.Value(x))
	}
}

func TestSimplexFailures(t *testing.T) {
	testCases := []struct {
		name   string
		build  func(t *testing.T) *Model
		want   error
		status Status
	}{
		{
			name: "infeasible bounds",
			build: func(t *testing.T) *Model {
				m := NewModel("infeasible")
				x := mustVar(t, m, "x")
				mustObjective(t, m, 1, x)
				mustConstrain(t, m, "low", GreaterOrEqual, 5, Term{x, 1})
				mustConstrain(t, m, "high", LessOrEqual, 3, Term{x, 1})
				return m
			},
			want:   ErrInfeasible,
			status: StatusInfeasible,
		},
		{
			name: "empty constraint that cannot hold",
			build: func(t *testing.T) *Model {
				m := NewModel("empty row")
				x := mustVar(t, m, "x")
				mustObjective(t, m, 1, x)
				mustConstrain(t, m, "floor", GreaterOrEqual, 1, Term{x, 1})
				mustConstrain(t, m, "impossible", GreaterOrEqual, 1)
				return m
			},
			want:   ErrInfeasible,
			status: StatusInfeasible,
		},
		{
			name: "unbounded ray",
			build: func(t *testing.T) *Model {
				m := NewModel("unbounded")
				x := mustVar(t, m, "x")
				y := mustVar(t, m, "y")
				mustObjective(t, m, -1, x)
				mustConstrain(t, m, "gap", LessOrEqual, 1, Term{x, 1}, Term{y, -1})
				return m
			},
			want:   ErrUnbounded,
			status: StatusUnbounded,
		},
		{
			name: "unconstrained negative cost",
			build: func(t *testing.T) *Model {
				m := NewModel("free fall")
				x := mustVar(t, m, "x")
				mustObjective(t, m, -1, x)
				return m
			},
			want:   ErrUnbounded,
			status: StatusUnbounded,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sol, err := NewSimplex(Options{}).Solve(context.Background(), tc.build(t))
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if sol == nil || sol.Status != tc.status {
				t.Fatalf("expected status %s, got %+v", tc.status, sol)
			}
			if sol.IsOptimal() {
				t.Fatal("failed solve must not report optimal")
			}
		})
	}
}

func TestSimplexHonoursCancelledContext(t *testing.T) {
	m := NewModel("cancelled")
	x := mustVar(t, m, "x")
	mustObjective(t, m, 1, x)
	mustConstrain(t, m, "floor", GreaterOrEqual, 1, Term{x, 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sol, err := NewSimplex(Options{}).Solve(ctx, m)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if sol.Status != StatusCancelled {
		t.Fatalf("expected cancelled status, got %s", sol.Status)
	}
}

func TestSimplexRejectsEmptyModel(t *testing.T) {
	_, err := NewSimplex(Options{}).Solve(context.Background(), NewModel("empty"))
	if !errors.Is(err, ErrUnsupportedModel) {
		t.Fatalf("expected ErrUnsupportedModel, got %v", err)
	}
}
