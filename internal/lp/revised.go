package lp

import (
	"context"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	// RevisedSolverName selects the sparse revised simplex engine.
	RevisedSolverName = "revised"

	// revisedMaxConstraints bounds the models the revised engine accepts,
	// about 20000 newsvendor scenarios.
	revisedMaxConstraints = 40000

	// maxCoupledColumns caps the dense block of the basis factorization.
	maxCoupledColumns = 256

	// maxBasisCondition is the largest condition number accepted for the
	// dense block before the basis is treated as singular.
	maxBasisCondition = 1e12

	pivotTol       = 1e-9
	feasibilityTol = 1e-7

	// blandAfter consecutive degenerate pivots switch pricing to Bland's
	// rule until the objective moves again.
	blandAfter = 50
)

type revisedSolver struct {
	tol float64
}

// NewRevised returns a Solver running a revised simplex method over sparse
// columns. The basis is factorized as a block triangular matrix: columns
// with a single non-zero cover their own row and only the remaining coupled
// columns go through a dense LU. Two-stage models whose recourse variables
// each touch one row, such as the newsvendor program, keep that dense block
// tiny, so each pivot costs time linear in the number of non-zeros.
//
// The engine checks ctx before every pivot and stops as soon as it ends.
func NewRevised(opts Options) Solver {
	tol := opts.Tolerance
	if tol <= 0 {
		tol = DefaultSimplexTolerance
	}
	return &revisedSolver{tol: tol}
}

func (s *revisedSolver) Name() string { return RevisedSolverName }

// Solve runs phase one over artificial columns when the model has no
// complete slack basis, then optimizes the objective.
func (s *revisedSolver) Solve(ctx context.Context, m *Model) (*Solution, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return &Solution{Status: StatusCancelled}, err
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedModel, err)
	}

	l, err := newStandardLayout(m)
	if err != nil {
		return &Solution{Status: statusOf(err), Duration: time.Since(start)}, err
	}
	if len(l.rows) > revisedMaxConstraints {
		err := fmt.Errorf("%w: %d constraints exceed the revised engine limit of %d",
			ErrUnsupportedModel, len(l.rows), revisedMaxConstraints)
		return &Solution{Status: statusOf(err), Duration: time.Since(start)}, err
	}
	if len(l.rows) == 0 {
		return &Solution{Status: StatusOptimal, Values: make([]float64, m.NumVariables()), Duration: time.Since(start)}, nil
	}

	x, err := newRevisedSimplex(l, s.tol).solve(ctx)
	if err != nil {
		return &Solution{Status: statusOf(err), Duration: time.Since(start)}, err
	}

	values := columnValues(l.column, x)
	return &Solution{
		Status:    StatusOptimal,
		Values:    values,
		Objective: m.ObjectiveValue(values),
		Duration:  time.Since(start),
	}, nil
}

type sparseColumn struct {
	rows []int
	vals []float64
}

type revisedSimplex struct {
	cols []sparseColumn
	cost []float64
	b    []float64
	// columns at or above nReal are phase one artificials
	nReal int
	tol   float64

	basis []int
	posOf []int

	// block triangular factorization of the current basis
	rowOf  []int
	diag   []float64
	owner  []int
	kPos   []int
	kRows  []int
	kIndex []int
	lu     mat.LU
	kb, kx *mat.VecDense

	xB, costB, y, dir, rhs, work []float64
}

func newRevisedSimplex(l *standardLayout, tol float64) *revisedSimplex {
	nRows := len(l.rows)
	r := &revisedSimplex{
		cols:  make([]sparseColumn, l.nCols),
		cost:  append([]float64(nil), l.cost...),
		b:     make([]float64, nRows),
		nReal: l.nCols,
		tol:   tol,
	}
	for i, row := range l.rows {
		for _, e := range row.entries {
			r.cols[e.col].rows = append(r.cols[e.col].rows, i)
			r.cols[e.col].vals = append(r.cols[e.col].vals, e.coef)
		}
		if row.slack >= 0 {
			r.cols[row.slack].rows = append(r.cols[row.slack].rows, i)
			r.cols[row.slack].vals = append(r.cols[row.slack].vals, row.slackCoef)
		}
		r.b[i] = row.rhs
	}

	r.basis = l.crashBasis()
	for i, col := range r.basis {
		if col >= 0 {
			continue
		}
		r.basis[i] = len(r.cols)
		r.cols = append(r.cols, sparseColumn{rows: []int{i}, vals: []float64{1}})
		r.cost = append(r.cost, 0)
	}

	r.posOf = make([]int, len(r.cols))
	for j := range r.posOf {
		r.posOf[j] = -1
	}
	for pos, col := range r.basis {
		r.posOf[col] = pos
	}

	r.rowOf = make([]int, nRows)
	r.diag = make([]float64, nRows)
	r.owner = make([]int, nRows)
	r.kIndex = make([]int, nRows)
	r.xB = make([]float64, nRows)
	r.costB = make([]float64, nRows)
	r.y = make([]float64, nRows)
	r.dir = make([]float64, nRows)
	r.rhs = make([]float64, nRows)
	r.work = make([]float64, nRows)
	return r
}

// solve returns the value of every real column at an optimal basis.
func (r *revisedSimplex) solve(ctx context.Context) ([]float64, error) {
	if len(r.cols) > r.nReal {
		phaseOne := make([]float64, len(r.cols))
		for j := r.nReal; j < len(r.cols); j++ {
			phaseOne[j] = 1
		}
		if err := r.iterate(ctx, phaseOne, true); err != nil {
			return nil, err
		}
		if infeasibility := floats.Dot(r.costB, r.xB); infeasibility > feasibilityTol*(1+floats.Max(r.b)) {
			return nil, fmt.Errorf("%w: phase one ended with infeasibility %g", ErrInfeasible, infeasibility)
		}
	}

	if err := r.iterate(ctx, r.cost, false); err != nil {
		return nil, err
	}

	x := make([]float64, r.nReal)
	for pos, col := range r.basis {
		if col < r.nReal {
			x[col] = r.xB[pos]
		}
	}
	return x, nil
}

// iterate pivots until no column prices out. On return xB and costB hold
// the final basic solution.
func (r *revisedSimplex) iterate(ctx context.Context, cost []float64, phaseOne bool) error {
	limit := 50 * (len(r.cols) + len(r.b))
	degenerate := 0
	for iter := 0; ; iter++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if iter > limit {
			return fmt.Errorf("%w: no optimum after %d pivots", ErrNumerical, limit)
		}

		if err := r.factor(); err != nil {
			return err
		}
		if err := r.ftran(r.b, r.xB); err != nil {
			return err
		}
		for pos, col := range r.basis {
			r.costB[pos] = cost[col]
		}
		if err := r.btran(r.costB, r.y); err != nil {
			return err
		}

		bland := degenerate >= blandAfter
		enter := r.price(cost, phaseOne, bland)
		if enter < 0 {
			return nil
		}

		clear(r.rhs)
		col := &r.cols[enter]
		for idx, row := range col.rows {
			r.rhs[row] = col.vals[idx]
		}
		if err := r.ftran(r.rhs, r.dir); err != nil {
			return err
		}

		leave, step := r.ratio(phaseOne, bland)
		if leave < 0 {
			if phaseOne {
				return fmt.Errorf("%w: phase one is unbounded", ErrNumerical)
			}
			return fmt.Errorf("%w: column %d can increase without limit", ErrUnbounded, enter)
		}
		if step <= feasibilityTol {
			degenerate++
		} else {
			degenerate = 0
		}

		r.posOf[r.basis[leave]] = -1
		r.basis[leave] = enter
		r.posOf[enter] = leave
	}
}

// price returns the entering column, or -1 when the basis is optimal.
// Dantzig's rule picks the most negative reduced cost; Bland's rule the
// first negative one.
func (r *revisedSimplex) price(cost []float64, phaseOne, bland bool) int {
	limit := r.nReal
	if phaseOne {
		limit = len(r.cols)
	}
	enter, best := -1, -r.tol
	for j := 0; j < limit; j++ {
		if r.posOf[j] >= 0 {
			continue
		}
		c := &r.cols[j]
		d := cost[j]
		for idx, row := range c.rows {
			d -= r.y[row] * c.vals[idx]
		}
		if d >= best {
			continue
		}
		if bland {
			return j
		}
		enter, best = j, d
	}
	return enter
}

// ratio returns the leaving basis position and the step length.
func (r *revisedSimplex) ratio(phaseOne, bland bool) (int, float64) {
	leave, step := -1, math.Inf(1)
	for pos, col := range r.basis {
		a := r.dir[pos]
		if !phaseOne && col >= r.nReal && math.Abs(a) > pivotTol {
			// artificials left in the basis stay at zero
			return pos, 0
		}
		if a <= pivotTol {
			continue
		}
		ratio := math.Max(r.xB[pos], 0) / a
		if leave >= 0 {
			tie := math.Abs(ratio-step) <= 1e-12*math.Max(1, step)
			if !tie && ratio > step {
				continue
			}
			if tie && !r.preferLeaving(pos, leave, bland) {
				continue
			}
		}
		leave, step = pos, ratio
	}
	return leave, step
}

func (r *revisedSimplex) preferLeaving(pos, current int, bland bool) bool {
	if bland {
		return r.basis[pos] < r.basis[current]
	}
	return r.dir[pos] > r.dir[current]
}

// factor assigns every singleton basic column to its row and factorizes
// the block of coupled columns against the rows nothing else covers:
//
//	B = [ D  X ]
//	    [ 0  S ]
//
// with D diagonal, so B is singular exactly when S is.
func (r *revisedSimplex) factor() error {
	for row := range r.owner {
		r.owner[row] = -1
	}
	r.kPos = r.kPos[:0]
	for pos, col := range r.basis {
		c := &r.cols[col]
		r.rowOf[pos] = -1
		if len(c.rows) == 1 && r.owner[c.rows[0]] < 0 && math.Abs(c.vals[0]) > pivotTol {
			row := c.rows[0]
			r.owner[row], r.rowOf[pos], r.diag[pos] = pos, row, c.vals[0]
			continue
		}
		r.kPos = append(r.kPos, pos)
	}

	r.kRows = r.kRows[:0]
	for row, pos := range r.owner {
		r.kIndex[row] = -1
		if pos < 0 {
			r.kIndex[row] = len(r.kRows)
			r.kRows = append(r.kRows, row)
		}
	}

	k := len(r.kPos)
	if k == 0 {
		return nil
	}
	if k > maxCoupledColumns {
		return fmt.Errorf("%w: basis couples %d columns, the limit is %d", ErrUnsupportedModel, k, maxCoupledColumns)
	}

	s := mat.NewDense(k, k, nil)
	for j, pos := range r.kPos {
		c := &r.cols[r.basis[pos]]
		for idx, row := range c.rows {
			if i := r.kIndex[row]; i >= 0 {
				s.Set(i, j, c.vals[idx])
			}
		}
	}
	r.lu.Factorize(s)
	if cond := r.lu.Cond(); math.IsInf(cond, 1) || cond > maxBasisCondition {
		return fmt.Errorf("%w: basis is singular (condition %g)", ErrNumerical, cond)
	}
	if r.kb == nil || r.kb.Len() != k {
		r.kb = mat.NewVecDense(k, nil)
		r.kx = mat.NewVecDense(k, nil)
	}
	return nil
}

// ftran solves B out = rhs, with out indexed by basis position.
func (r *revisedSimplex) ftran(rhs, out []float64) error {
	clear(r.work)
	if len(r.kPos) > 0 {
		for i, row := range r.kRows {
			r.kb.SetVec(i, rhs[row])
		}
		if err := r.lu.SolveVecTo(r.kx, false, r.kb); err != nil {
			return fmt.Errorf("%w: %v", ErrNumerical, err)
		}
		for j, pos := range r.kPos {
			v := r.kx.AtVec(j)
			out[pos] = v
			c := &r.cols[r.basis[pos]]
			for idx, row := range c.rows {
				r.work[row] += c.vals[idx] * v
			}
		}
	}
	for pos, row := range r.rowOf {
		if row >= 0 {
			out[pos] = (rhs[row] - r.work[row]) / r.diag[pos]
		}
	}
	return nil
}

// btran solves y'B = costB', with y indexed by row.
func (r *revisedSimplex) btran(costB, y []float64) error {
	clear(y)
	for pos, row := range r.rowOf {
		if row >= 0 {
			y[row] = costB[pos] / r.diag[pos]
		}
	}
	if len(r.kPos) == 0 {
		return nil
	}

	// rows covered by coupled columns are still zero in y here
	for j, pos := range r.kPos {
		c := &r.cols[r.basis[pos]]
		v := costB[pos]
		for idx, row := range c.rows {
			v -= y[row] * c.vals[idx]
		}
		r.kb.SetVec(j, v)
	}
	if err := r.lu.SolveVecTo(r.kx, true, r.kb); err != nil {
		return fmt.Errorf("%w: %v", ErrNumerical, err)
	}
	for i, row := range r.kRows {
		y[row] = r.kx.AtVec(i)
	}
	return nil
}
