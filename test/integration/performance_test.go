package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/nicholsonjohnc/dsi-optimization/internal/demand"
	"github.com/nicholsonjohnc/dsi-optimization/internal/lp"
	"github.com/nicholsonjohnc/dsi-optimization/internal/newsvendor"
)

func sampledModel(b testing.TB, n int) *newsvendor.DecisionModel {
	b.Helper()
	costs, err := newsvendor.NewCostStructure(150, 100, 70, 5000)
	if err != nil {
		b.Fatalf("NewCostStructure() error = %v", err)
	}
	dist, err := demand.New(demand.Params{Name: demand.Normal, Mean: 3649, StdDev: 926}, 1)
	if err != nil {
		b.Fatalf("demand.New() error = %v", err)
	}
	draws, err := demand.StratifiedSample(dist, n)
	if err != nil {
		b.Fatalf("StratifiedSample() error = %v", err)
	}
	model, err := newsvendor.BuildScenarioModel(costs, newsvendor.EqualWeight(draws))
	if err != nil {
		b.Fatalf("BuildScenarioModel() error = %v", err)
	}
	return model
}

// TestPerformance checks that each engine solves the largest scenario
// model it is meant for within the default solve timeout.
func TestPerformance(t *testing.T) {
	if testing.Short() {
		t.Skip("performance test skipped in short mode")
	}

	testCases := []struct {
		solver    lp.Solver
		scenarios int
	}{
		{lp.NewRevised(lp.Options{}), 5000},
		{lp.NewSimplex(lp.Options{}), 150},
	}
	for _, tc := range testCases {
		t.Run(tc.solver.Name(), func(t *testing.T) {
			model := sampledModel(t, tc.scenarios)

			start := time.Now()
			res, err := newsvendor.Solve(context.Background(), tc.solver, model)
			if err != nil {
				t.Fatalf("Solve() error = %v", err)
			}
			elapsed := time.Since(start)

			t.Logf("%d scenarios solved in %s (q=%.2f)", tc.scenarios, elapsed, res.Quantity)
			if elapsed > 30*time.Second {
				t.Fatalf("solve took %s", elapsed)
			}
		})
	}
}

func BenchmarkSolveScenarioModel(b *testing.B) {
	benchmarks := []struct {
		solver lp.Solver
		sizes  []int
	}{
		{lp.NewRevised(lp.Options{}), []int{100, 1000, 5000}},
		{lp.NewSimplex(lp.Options{}), []int{10, 50, 100}},
	}
	for _, bm := range benchmarks {
		for _, n := range bm.sizes {
			b.Run(fmt.Sprintf("%s/scenarios=%d", bm.solver.Name(), n), func(b *testing.B) {
				model := sampledModel(b, n)
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					if _, err := newsvendor.Solve(context.Background(), bm.solver, model); err != nil {
						b.Fatalf("Solve() error = %v", err)
					}
				}
			})
		}
	}
}
