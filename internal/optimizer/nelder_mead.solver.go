package optimizer

import (
	"context"
	"fmt"

	"factorportfolio/internal/domain"

	"gonum.org/v1/gonum/optimize"
)

// NelderMeadSolver minimizes the objective composed with the capped
// simplex projection using gonum's derivative-free Nelder-Mead method.
// The result is certified with the same fixed-point residual as the
// gradient solver, at a looser default tolerance.
type NelderMeadSolver struct {
	MaxIterations int
	Tolerance     float64
}

func NewNelderMeadSolver(maxIterations int, tolerance float64) NelderMeadSolver {
	if maxIterations <= 0 {
		maxIterations = defaultMaxIterations
	}
	if tolerance <= 0 {
		tolerance = 1e-6
	}
	return NelderMeadSolver{
		MaxIterations: maxIterations,
		Tolerance:     tolerance,
	}
}

func (s NelderMeadSolver) Name() string {
	return "nelder_mead"
}

func (s NelderMeadSolver) Solve(ctx context.Context, p Problem) ([]float64, error) {
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
	step := 1.0
	if lipschitz > 1e-15 {
		step = 1 / lipschitz
	}

	n := len(p.Mu)
	w := make([]float64, n)
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			projectCappedSimplex(w, x, p.Lower, p.Upper, p.Budget)
			return p.objective(w)
		},
		Status: func() (optimize.Status, error) {
			if err := ctx.Err(); err != nil {
				return optimize.Failure, err
			}
			return optimize.NotTerminated, nil
		},
	}

	initial := make([]float64, n)
	for i := range initial {
		initial[i] = p.Budget / float64(n)
	}
	settings := &optimize.Settings{
		MajorIterations: s.MaxIterations,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-15,
			Relative:   1e-15,
			Iterations: 200,
		},
	}

	result, err := optimize.Minimize(problem, initial, settings, &optimize.NelderMead{})
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, failureFromContext(s.Name(), ctxErr)
	}
	if result == nil {
		return nil, domain.SolverFailure{Solver: s.Name(), Reason: domain.SolverFailureNumerical, Err: err}
	}
	switch result.Status {
	case optimize.IterationLimit, optimize.FunctionEvaluationLimit:
		return nil, domain.SolverFailure{Solver: s.Name(), Reason: domain.SolverFailureMaxIterations, Err: err}
	case optimize.RuntimeLimit:
		return nil, domain.SolverFailure{Solver: s.Name(), Reason: domain.SolverFailureTimeout, Err: err}
	case optimize.Failure:
		return nil, domain.SolverFailure{Solver: s.Name(), Reason: domain.SolverFailureNumerical, Err: err}
	}

	out := make([]float64, n)
	projectCappedSimplex(out, result.X, p.Lower, p.Upper, p.Budget)
	if hasNaN(out) {
		return nil, domain.SolverFailure{Solver: s.Name(), Reason: domain.SolverFailureNumerical, Err: fmt.Errorf("non-finite solution")}
	}
	if r := p.residual(out, step); r > s.Tolerance {
		return nil, domain.SolverFailure{
			Solver: s.Name(),
			Reason: domain.SolverFailureNotConverged,
			Err:    fmt.Errorf("stopped with %s and residual %g above tolerance %g", result.Status, r, s.Tolerance),
		}
	}

	return out, nil
}
