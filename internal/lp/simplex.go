package lp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"
	gonumlp "gonum.org/v1/gonum/optimize/convex/lp"
)

const (
	// SimplexSolverName selects the dense simplex engine from gonum.
	SimplexSolverName = "simplex"

	// simplexMaxConstraints is the largest model the dense engine finishes
	// within the default solve timeout, about 256 newsvendor scenarios.
	simplexMaxConstraints = 512

	// DefaultSimplexTolerance is the reduced-cost tolerance used when
	// Options.Tolerance is unset.
	DefaultSimplexTolerance = 1e-10

	// roundoff below this magnitude is reported as zero
	valueZeroTol = 1e-9

	// maxDenseCells caps the size of the dense constraint matrix (8 MiB of
	// float64).
	maxDenseCells = 1 << 20
)

type simplexSolver struct {
	tol float64
}

// NewSimplex returns a Solver backed by gonum's dense simplex
// implementation. Variable start values are not used by this engine. Its
// cost grows steeply with model size, so it only accepts small models; use
// the revised engine for sampled demand.
func NewSimplex(opts Options) Solver {
	tol := opts.Tolerance
	if tol <= 0 {
		tol = DefaultSimplexTolerance
	}
	return &simplexSolver{tol: tol}
}

func (s *simplexSolver) Name() string { return SimplexSolverName }

type simplexOutcome struct {
	x   []float64
	err error
}

// Solve converts m to standard form and runs the simplex method. The engine
// call itself cannot be interrupted; when ctx ends first Solve returns
// immediately and the abandoned run finishes in the background. The size
// cap bounds how long that can take.
func (s *simplexSolver) Solve(ctx context.Context, m *Model) (*Solution, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return &Solution{Status: StatusCancelled}, err
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedModel, err)
	}

	sf, err := toStandardForm(m)
	if err != nil {
		return &Solution{Status: statusOf(err), Duration: time.Since(start)}, err
	}

	values := make([]float64, m.NumVariables())
	if sf.a == nil {
		return &Solution{Status: StatusOptimal, Values: values, Duration: time.Since(start)}, nil
	}

	done := make(chan simplexOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- simplexOutcome{err: fmt.Errorf("%w: %v", ErrNumerical, r)}
			}
		}()
		_, x, err := gonumlp.Simplex(sf.c, sf.a, sf.b, s.tol, sf.basis)
		done <- simplexOutcome{x: x, err: err}
	}()

	var out simplexOutcome
	select {
	case <-ctx.Done():
		return &Solution{Status: StatusCancelled, Duration: time.Since(start)}, ctx.Err()
	case out = <-done:
	}

	if out.err != nil {
		err := translateSimplexError(out.err)
		return &Solution{Status: statusOf(err), Duration: time.Since(start)}, err
	}

	values = columnValues(sf.column, out.x)

	return &Solution{
		Status:    StatusOptimal,
		Values:    values,
		Objective: m.ObjectiveValue(values),
		Duration:  time.Since(start),
	}, nil
}

func translateSimplexError(err error) error {
	switch {
	case errors.Is(err, ErrNumerical):
		return err
	case errors.Is(err, gonumlp.ErrInfeasible):
		return fmt.Errorf("%w: %v", ErrInfeasible, err)
	case errors.Is(err, gonumlp.ErrUnbounded):
		return fmt.Errorf("%w: %v", ErrUnbounded, err)
	default:
		return fmt.Errorf("%w: %v", ErrNumerical, err)
	}
}

func statusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOptimal
	case errors.Is(err, ErrInfeasible):
		return StatusInfeasible
	case errors.Is(err, ErrUnbounded):
		return StatusUnbounded
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return StatusCancelled
	default:
		return StatusNumericalFailure
	}
}

// standardForm is the dense matrix form of a standardLayout.
type standardForm struct {
	c      []float64
	a      *mat.Dense
	b      []float64
	basis  []int
	column []int
}

func toStandardForm(m *Model) (*standardForm, error) {
	l, err := newStandardLayout(m)
	if err != nil {
		return nil, err
	}

	nRows, nCols := len(l.rows), l.nCols
	if nRows == 0 {
		return &standardForm{column: l.column}, nil
	}
	if nRows > nCols {
		return nil, fmt.Errorf("%w: %d equality rows exceed %d columns", ErrUnsupportedModel, nRows, nCols)
	}
	if nRows > simplexMaxConstraints || nRows*nCols > maxDenseCells {
		return nil, fmt.Errorf("%w: %dx%d constraint matrix is too large for the dense simplex engine",
			ErrUnsupportedModel, nRows, nCols)
	}

	sf := &standardForm{
		c:      l.cost,
		a:      mat.NewDense(nRows, nCols, nil),
		b:      make([]float64, nRows),
		column: l.column,
	}
	for i, row := range l.rows {
		for _, e := range row.entries {
			sf.a.Set(i, e.col, e.coef)
		}
		if row.slack >= 0 {
			sf.a.Set(i, row.slack, row.slackCoef)
		}
		sf.b[i] = row.rhs
	}

	// Without a complete starting basis gonum solves its own phase I
	// problem.
	basis := l.crashBasis()
	for _, col := range basis {
		if col < 0 {
			return sf, nil
		}
	}
	sf.basis = basis
	return sf, nil
}
