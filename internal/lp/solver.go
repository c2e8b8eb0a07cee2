package lp

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	ErrUnknownSolver    = errors.New("lp: unknown solver")
	ErrInfeasible       = errors.New("lp: model is infeasible")
	ErrUnbounded        = errors.New("lp: model is unbounded")
	ErrNumerical        = errors.New("lp: numerical failure")
	ErrUnsupportedModel = errors.New("lp: unsupported model")
)

// Status is the outcome of a solve.
type Status int

const (
	StatusUnknown Status = iota
	StatusOptimal
	StatusInfeasible
	StatusUnbounded
	StatusNumericalFailure
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	case StatusNumericalFailure:
		return "numerical failure"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Solution holds the values an engine assigned to a Model's variables.
type Solution struct {
	Status    Status
	Values    []float64
	Objective float64
	Duration  time.Duration
}

// IsOptimal reports whether the solution can be trusted.
func (s *Solution) IsOptimal() bool {
	return s != nil && s.Status == StatusOptimal
}

// Value returns the value of v, or 0 when v is out of range.
func (s *Solution) Value(v Var) float64 {
	if s == nil || v < 0 || int(v) >= len(s.Values) {
		return 0
	}
	return s.Values[v]
}

// Solver solves a Model. Solve must return once ctx ends; engines that
// cannot stop their work say so through Limits.
type Solver interface {
	Name() string
	Solve(ctx context.Context, m *Model) (*Solution, error)
}

// Options tune a Solver. Zero values select engine defaults.
type Options struct {
	Tolerance float64
}

// Factory constructs a Solver from Options.
type Factory func(opts Options) Solver

// Limits describe what a registered engine can be trusted with.
type Limits struct {
	// MaxConstraints is the largest model, counted in constraints, the
	// engine accepts. Zero means no limit.
	MaxConstraints int
	// Interruptible engines stop working as soon as ctx ends rather than
	// finishing in the background.
	Interruptible bool
}

// Admits reports whether a model with n constraints fits within l.
func (l Limits) Admits(n int) bool {
	return l.MaxConstraints <= 0 || n <= l.MaxConstraints
}

type engine struct {
	factory Factory
	limits  Limits
}

// DefaultSolverName is the engine used when no name is given.
const DefaultSolverName = RevisedSolverName

var (
	registryMu sync.RWMutex
	registry   = map[string]engine{
		RevisedSolverName: {factory: NewRevised, limits: Limits{MaxConstraints: revisedMaxConstraints, Interruptible: true}},
		SimplexSolverName: {factory: NewSimplex, limits: Limits{MaxConstraints: simplexMaxConstraints}},
	}
)

// Register makes a solver available under name, replacing any previous
// registration. The engine is assumed to be unbounded and not
// interruptible; use RegisterWithLimits to say otherwise.
func Register(name string, factory Factory) {
	RegisterWithLimits(name, factory, Limits{})
}

// RegisterWithLimits is Register with explicit engine limits.
func RegisterWithLimits(name string, factory Factory, limits Limits) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		panic("lp: Register requires a name and a factory")
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[key] = engine{factory: factory, limits: limits}
}

func lookup(name string) (engine, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = DefaultSolverName
	}
	registryMu.RLock()
	e, ok := registry[key]
	registryMu.RUnlock()
	if !ok {
		return engine{}, fmt.Errorf("%w %q (available: %s)", ErrUnknownSolver, name, strings.Join(Names(), ", "))
	}
	return e, nil
}

// New returns the solver registered under name.
func New(name string, opts Options) (Solver, error) {
	e, err := lookup(name)
	if err != nil {
		return nil, err
	}
	return e.factory(opts), nil
}

// LimitsOf returns the limits of the solver registered under name.
func LimitsOf(name string) (Limits, error) {
	e, err := lookup(name)
	if err != nil {
		return Limits{}, err
	}
	return e.limits, nil
}

// Names lists the registered solvers in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
