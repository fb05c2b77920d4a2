package optimizer

import (
	"context"
	"fmt"
	"math"

	"factorportfolio/internal/domain"
)

const (
	defaultMaxIterations = 100000
	defaultTolerance     = 1e-10
	ctxCheckInterval     = 64
)

// ProjectedGradientSolver runs accelerated projected gradient descent
// (FISTA with adaptive restart) over the capped simplex. Linear problems
// are solved exactly by greedy allocation.
type ProjectedGradientSolver struct {
	MaxIterations int
	Tolerance     float64
}

func NewProjectedGradientSolver(maxIterations int, tolerance float64) ProjectedGradientSolver {
	if maxIterations <= 0 {
		maxIterations = defaultMaxIterations
	}
	if tolerance <= 0 {
		tolerance = defaultTolerance
	}
	return ProjectedGradientSolver{
		MaxIterations: maxIterations,
		Tolerance:     tolerance,
	}
}

func (s ProjectedGradientSolver) Name() string {
	return "projected_gradient"
}

func (s ProjectedGradientSolver) Solve(ctx context.Context, p Problem) ([]float64, error) {
	if err := p.validate(); err != nil {
		return nil, domain.SolverFailure{Solver: s.Name(), Reason: domain.SolverFailureNumerical, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, failureFromContext(s.Name(), err)
	}

	lipschitz, err := p.lipschitz()
	if err != nil {
		return nil, domain.SolverFailure{Solver: s.Name(), Reason: domain.SolverFailureNumerical, Err: err}
	}
	if lipschitz <= 1e-15 {
		return greedyAllocation(p.Mu, p.Lower, p.Upper, p.Budget), nil
	}
	step := 1 / lipschitz

	n := len(p.Mu)
	x := make([]float64, n)
	projectCappedSimplex(x, make([]float64, n), p.Lower, p.Upper, p.Budget)
	y := append([]float64{}, x...)
	next := make([]float64, n)
	moved := make([]float64, n)
	grad := make([]float64, n)
	t := 1.0

	for k := 0; k < s.MaxIterations; k++ {
		if k%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, failureFromContext(s.Name(), err)
			}
		}

		p.gradient(grad, y)
		for i := range moved {
			moved[i] = y[i] - step*grad[i]
		}
		projectCappedSimplex(next, moved, p.Lower, p.Upper, p.Budget)
		if hasNaN(next) {
			return nil, domain.SolverFailure{
				Solver: s.Name(),
				Reason: domain.SolverFailureNumerical,
				Err:    fmt.Errorf("iterate became non-finite at iteration %d", k),
			}
		}

		// restart momentum when it points uphill
		restart := 0.0
		delta := 0.0
		for i := range next {
			restart += (y[i] - next[i]) * (next[i] - x[i])
			delta = math.Max(delta, math.Abs(next[i]-x[i]))
		}
		tNext := (1 + math.Sqrt(1+4*t*t)) / 2
		momentum := (t - 1) / tNext
		if restart > 0 {
			tNext, momentum = 1, 0
		}
		for i := range y {
			y[i] = next[i] + momentum*(next[i]-x[i])
		}
		x, next = next, x
		t = tNext

		if delta <= s.Tolerance && p.residual(x, step) <= s.Tolerance {
			return append([]float64{}, x...), nil
		}
	}

	return nil, domain.SolverFailure{
		Solver: s.Name(),
		Reason: domain.SolverFailureMaxIterations,
		Err:    fmt.Errorf("no certified optimum after %d iterations", s.MaxIterations),
	}
}
