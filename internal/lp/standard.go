package lp

import (
	"fmt"
	"sort"
)

// standardLayout is a Model rewritten as
//
//	minimize c'x  s.t.  a x = b,  x >= 0,  b >= 0
//
// with one slack column per inequality. Rows are stored sparsely and are
// already sign-adjusted so that b >= 0. column maps model variables to
// structural columns; variables that appear in no constraint are fixed at
// zero and mapped to -1.
type standardLayout struct {
	rows   []standardRow
	cost   []float64
	column []int
	// single marks columns with exactly one non-zero entry
	single []bool
	nCols  int
}

type rowEntry struct {
	col  int
	coef float64
}

type standardRow struct {
	entries   []rowEntry
	slack     int
	slackCoef float64
	rhs       float64
}

func newStandardLayout(m *Model) (*standardLayout, error) {
	nVars := m.NumVariables()
	cost := make([]float64, nVars)
	for _, term := range m.objective {
		cost[term.Var] += term.Coef
	}

	type rawRow struct {
		entries []rowEntry
		sense   Sense
		rhs     float64
	}

	occurrences := make([]int, nVars)
	raw := make([]rawRow, 0, len(m.constraints))
	for _, c := range m.constraints {
		coefs := make(map[int]float64, len(c.Terms))
		for _, term := range c.Terms {
			coefs[int(term.Var)] += term.Coef
		}
		row := rawRow{sense: c.Sense, rhs: c.RHS}
		for v, coef := range coefs {
			if coef != 0 {
				row.entries = append(row.entries, rowEntry{col: v, coef: coef})
			}
		}
		sort.Slice(row.entries, func(i, j int) bool { return row.entries[i].col < row.entries[j].col })

		if len(row.entries) == 0 {
			if emptyRowHolds(c.Sense, c.RHS) {
				continue
			}
			return nil, fmt.Errorf("%w: constraint %q has no terms and cannot hold", ErrInfeasible, c.Name)
		}
		for _, e := range row.entries {
			occurrences[e.col]++
		}
		raw = append(raw, row)
	}

	l := &standardLayout{column: make([]int, nVars)}
	for v := 0; v < nVars; v++ {
		if occurrences[v] == 0 {
			if cost[v] < 0 {
				return nil, fmt.Errorf("%w: variable %q is unconstrained with negative cost", ErrUnbounded, m.variables[v].Name)
			}
			l.column[v] = -1
			continue
		}
		l.column[v] = l.nCols
		l.cost = append(l.cost, cost[v])
		l.single = append(l.single, occurrences[v] == 1)
		l.nCols++
	}

	l.rows = make([]standardRow, len(raw))
	for i, r := range raw {
		row := standardRow{slack: -1}
		switch r.sense {
		case GreaterOrEqual:
			row.slackCoef = -1
		case LessOrEqual:
			row.slackCoef = 1
		}
		if r.sense != Equal {
			row.slack = l.nCols
			l.cost = append(l.cost, 0)
			l.single = append(l.single, true)
			l.nCols++
		}

		sign := 1.0
		if r.rhs < 0 || (r.rhs == 0 && row.slackCoef < 0) {
			sign = -1
		}
		row.entries = make([]rowEntry, len(r.entries))
		for j, e := range r.entries {
			row.entries[j] = rowEntry{col: l.column[e.col], coef: sign * e.coef}
		}
		row.slackCoef *= sign
		row.rhs = sign * r.rhs
		l.rows[i] = row
	}
	return l, nil
}

// crashBasis picks, for every row, either its slack or a singleton
// structural column with a positive coefficient. Rows without such a
// column get -1.
func (l *standardLayout) crashBasis() []int {
	basis := make([]int, len(l.rows))
	for i, row := range l.rows {
		if row.slack >= 0 && row.slackCoef > 0 {
			basis[i] = row.slack
			continue
		}
		basis[i] = -1
		for _, e := range row.entries {
			if l.single[e.col] && e.coef > 0 {
				basis[i] = e.col
				break
			}
		}
	}
	return basis
}

// columnValues maps standard-form column values back onto model variables,
// rounding tiny negative roundoff to zero.
func columnValues(column []int, x []float64) []float64 {
	values := make([]float64, len(column))
	for v, col := range column {
		if col < 0 {
			continue
		}
		value := x[col]
		if value < 0 && value > -valueZeroTol {
			value = 0
		}
		values[v] = value
	}
	return values
}

func emptyRowHolds(sense Sense, rhs float64) bool {
	switch sense {
	case GreaterOrEqual:
		return rhs <= 0
	case LessOrEqual:
		return rhs >= 0
	default:
		return rhs == 0
	}
}
