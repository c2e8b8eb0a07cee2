package optimizer

import (
	"context"
	"fmt"
	"runtime"

	"github.com/nicholsonjohnc/dsi-optimization/internal/analytical"
	"github.com/nicholsonjohnc/dsi-optimization/internal/config"
	"github.com/nicholsonjohnc/dsi-optimization/internal/demand"
	"github.com/nicholsonjohnc/dsi-optimization/internal/lp"
	"github.com/nicholsonjohnc/dsi-optimization/internal/newsvendor"
	"github.com/nicholsonjohnc/dsi-optimization/pkg/constants"
	"github.com/nicholsonjohnc/dsi-optimization/pkg/mathutil"
	"github.com/nicholsonjohnc/dsi-optimization/pkg/optimization"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Runner solves every active problem of a configuration.
type Runner struct {
	logger *zap.Logger
	conf   *config.Configuration
	solver lp.Solver
}

// Result holds one summary per active problem, in configuration order.
type Result struct {
	Summaries []optimization.Summary
}

// Empty indicates whether any problem was solved.
func (r Result) Empty() bool {
	return len(r.Summaries) == 0
}

// NewRunner validates the configuration and constructs a Runner using the
// configured solver.
func NewRunner(logger *zap.Logger, conf *config.Configuration) (*Runner, error) {
	if conf == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	solver, err := lp.New(conf.Solver.Name, lp.Options{Tolerance: conf.Solver.Tolerance})
	if err != nil {
		return nil, err
	}
	return NewRunnerWithSolver(logger, conf, solver)
}

// NewRunnerWithSolver constructs a Runner around an explicit solver.
func NewRunnerWithSolver(logger *zap.Logger, conf *config.Configuration, solver lp.Solver) (*Runner, error) {
	if conf == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if solver == nil {
		return nil, fmt.Errorf("solver cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &Runner{logger: logger, conf: conf, solver: solver}, nil
}

// Run solves the active problems concurrently. The first failure cancels
// the remaining solves and is returned.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	problems := r.conf.ActiveProblems()
	summaries := make([]optimization.Summary, len(problems))

	limit := r.conf.Solver.Parallelism
	if limit <= 0 {
		limit = runtime.NumCPU()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, problem := range problems {
		g.Go(func() error {
			summary, err := r.solveProblem(gctx, problem)
			if err != nil {
				return fmt.Errorf("problem %q: %w", problem.Name, err)
			}
			summaries[i] = summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		r.logger.Error("optimizer run failed",
			zap.String("op", "optimizer.Run"),
			zap.Error(err),
		)
		return nil, err
	}

	r.logger.Info("optimizer run complete",
		zap.String("op", "optimizer.Run"),
		zap.Int("problems", len(summaries)),
		zap.Int("parallelism", limit),
	)
	return &Result{Summaries: summaries}, nil
}

// SolveProblem solves a single problem outside of a full run.
func (r *Runner) SolveProblem(ctx context.Context, problem config.ProblemConfig) (optimization.Summary, error) {
	if err := problem.Validate(); err != nil {
		return optimization.Summary{}, err
	}
	return r.solveProblem(ctx, problem)
}

// prepared is a built model plus what is needed to check its solution.
type prepared struct {
	model *newsvendor.DecisionModel
	dist  demand.Distribution
	notes []string
}

func (r *Runner) solveProblem(ctx context.Context, problem config.ProblemConfig) (optimization.Summary, error) {
	costs, err := problem.Costs()
	if err != nil {
		return optimization.Summary{}, err
	}

	prep, err := buildModel(costs, problem.Demand)
	if err != nil {
		return optimization.Summary{}, err
	}

	r.logger.Debug("built decision model",
		zap.String("op", "optimizer.solveProblem"),
		zap.String("problem", problem.Name),
		zap.String("kind", problem.Demand.Kind),
		zap.Int("variables", prep.model.Program().NumVariables()),
		zap.Int("constraints", prep.model.Program().NumConstraints()),
	)

	if timeout := r.conf.Solver.Timeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	res, err := newsvendor.Solve(ctx, r.solver, prep.model)
	if err != nil {
		r.logger.Warn("solve failed",
			zap.String("op", "optimizer.solveProblem"),
			zap.String("problem", problem.Name),
			zap.Error(err),
		)
		return optimization.Summary{}, err
	}

	summary := optimization.Summary{
		Name:             problem.Name,
		Kind:             problem.Demand.Kind,
		Scenarios:        len(prep.model.Scenarios()),
		Solver:           res.Solver,
		Status:           res.Status.String(),
		UnderageCost:     costs.UnderageCost(),
		OverageCost:      costs.OverageCost(),
		CriticalFractile: costs.CriticalFractile(),
		Quantity:         mathutil.CleanZero(res.Quantity),
		ExpectedCost:     mathutil.CleanZero(res.ExpectedCost),
		Duration:         res.Duration,
		Notes:            prep.notes,
	}

	if err := compareWithOracle(&summary, prep); err != nil {
		return optimization.Summary{}, err
	}

	r.logger.Info("solved newsvendor problem",
		zap.String("op", "optimizer.solveProblem"),
		zap.String("problem", summary.Name),
		zap.String("kind", summary.Kind),
		zap.Int("scenarios", summary.Scenarios),
		zap.Float64("quantity", summary.Quantity),
		zap.Float64("expectedCost", summary.ExpectedCost),
		zap.Float64("gap", summary.Gap),
		zap.Duration("duration", summary.Duration),
	)
	return summary, nil
}

func buildModel(costs newsvendor.CostStructure, d config.DemandConfig) (*prepared, error) {
	prep := &prepared{}

	var err error
	switch d.Kind {
	case config.DemandKindDeterministic:
		prep.model, err = newsvendor.BuildDeterministicModel(costs, d.Value)
	case config.DemandKindThreeScenario:
		set, serr := d.ScenarioSet()
		if serr != nil {
			return nil, serr
		}
		prep.model, err = newsvendor.BuildThreeScenarioModel(costs, [3]newsvendor.DemandScenario(set))
	case config.DemandKindScenarios:
		set, serr := d.ScenarioSet()
		if serr != nil {
			return nil, serr
		}
		prep.model, err = newsvendor.BuildScenarioModel(costs, set)
	case config.DemandKindSampled:
		prep.dist, err = demand.New(*d.Distribution, d.Seed)
		if err != nil {
			return nil, err
		}
		draws, gerr := demand.Generate(prep.dist, d.Sampling, d.Samples)
		if gerr != nil {
			return nil, gerr
		}
		prep.model, err = newsvendor.BuildScenarioModel(costs, newsvendor.EqualWeight(draws))
		prep.notes = append(prep.notes, fmt.Sprintf("%d %s samples from %s demand", d.Samples, d.Sampling, d.Distribution.Name))
	default:
		return nil, fmt.Errorf("demand kind %q is not supported", d.Kind)
	}
	if err != nil {
		return nil, err
	}

	if d.NormalizeProbabilities && d.Kind != config.DemandKindSampled {
		prep.notes = append(prep.notes, "scenario probabilities normalized")
	}
	return prep, nil
}

// compareWithOracle fills the analytical fields of summary. Sampled
// problems are compared with the continuous quantile, explicit scenario
// sets with the weighted discrete quantile.
func compareWithOracle(summary *optimization.Summary, prep *prepared) error {
	var (
		target float64
		err    error
	)
	if prep.dist != nil {
		target, err = analytical.ContinuousOptimum(summary.UnderageCost, summary.OverageCost, prep.dist)
	} else {
		set := prep.model.Scenarios()
		target, err = analytical.DiscreteOptimum(summary.UnderageCost, summary.OverageCost, set.Demands(), set.Probabilities())
	}
	if err != nil {
		return fmt.Errorf("analytical optimum: %w", err)
	}

	targetCost := prep.model.ExpectedCost(target)
	summary.Analytical = &target
	summary.AnalyticalCost = &targetCost
	summary.Gap = mathutil.CleanZero(summary.Quantity - target)
	summary.GapPercent = mathutil.CalculatePercentage(summary.Gap, target)

	// a flat stretch of the cost curve makes several quantities optimal
	if prep.dist == nil && summary.Gap != 0 &&
		mathutil.WithinTolerance(targetCost, summary.ExpectedCost, constants.QuantityTolerance*(1+summary.ExpectedCost)) {
		summary.Notes = append(summary.Notes, "several order quantities attain the optimal expected cost")
	}
	return nil
}
