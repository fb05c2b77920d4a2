package optimizer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"factorportfolio/internal/domain"
	"factorportfolio/internal/logger"
	"factorportfolio/internal/metrics"
)

const (
	feasibilityTolerance = 1e-12
	budgetTolerance      = 1e-6
)

type Config struct {
	MinWeight    float64
	MaxWeight    float64
	RiskAversion float64
	// SolveTimeout bounds a single solve; zero means no deadline.
	SolveTimeout time.Duration
}

func (c Config) Validate() error {
	if math.IsNaN(c.MinWeight) || c.MinWeight < 0 || c.MinWeight > 1 {
		return InvalidInputError{Field: "minWeight", Reason: fmt.Sprintf("must be in [0, 1], got %g", c.MinWeight)}
	}
	if math.IsNaN(c.MaxWeight) || c.MaxWeight < 0 || c.MaxWeight > 1 {
		return InvalidInputError{Field: "maxWeight", Reason: fmt.Sprintf("must be in [0, 1], got %g", c.MaxWeight)}
	}
	if c.MinWeight > c.MaxWeight {
		return InvalidInputError{Field: "minWeight", Reason: fmt.Sprintf("min weight %g exceeds max weight %g", c.MinWeight, c.MaxWeight)}
	}
	if math.IsNaN(c.RiskAversion) || math.IsInf(c.RiskAversion, 0) || c.RiskAversion < 0 {
		return InvalidInputError{Field: "riskAversion", Reason: fmt.Sprintf("must be a finite value >= 0, got %g", c.RiskAversion)}
	}
	if c.SolveTimeout < 0 {
		return InvalidInputError{Field: "solveTimeout", Reason: "cannot be negative"}
	}
	return nil
}

type InvalidInputError struct {
	Field  string
	Reason string
}

func (e InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

type Input struct {
	Selection domain.RankedSelection
	// ExpectedReturns overrides the combined scores when set and must
	// cover every selected symbol.
	ExpectedReturns map[string]float64
	// Covariance defaults to IdentityFallback.
	Covariance CovarianceModel
}

type PortfolioOptimizer interface {
	Optimize(ctx context.Context, in Input) (*domain.WeightVector, error)
}

type portfolioOptimizerHandler struct {
	Config Config
	Solver QuadraticProgramSolver
}

func NewPortfolioOptimizer(cfg Config, solver QuadraticProgramSolver) PortfolioOptimizer {
	return portfolioOptimizerHandler{
		Config: cfg,
		Solver: solver,
	}
}

func (h portfolioOptimizerHandler) Optimize(ctx context.Context, in Input) (*domain.WeightVector, error) {
	log := logger.FromContext(ctx)

	if err := h.Config.Validate(); err != nil {
		return nil, err
	}

	symbols := in.Selection.Symbols()
	n := len(symbols)
	if n == 0 {
		return nil, domain.EmptyUniverseError{}
	}
	if err := checkFeasible(n, h.Config.MinWeight, h.Config.MaxWeight); err != nil {
		return nil, err
	}
	if n == 1 {
		return domain.NewWeightVector(symbols, map[string]float64{symbols[0]: 1})
	}

	mu, err := expectedReturns(in)
	if err != nil {
		return nil, err
	}

	covariance := in.Covariance
	if covariance == nil {
		log.Warnw("no covariance supplied, using identity fallback", "assets", n)
		covariance = IdentityFallback{}
	}
	sigma, err := covariance.Matrix(symbols)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s covariance: %w", covariance.Name(), err)
	}

	problem := Problem{
		Mu:           mu,
		Sigma:        sigma,
		RiskAversion: h.Config.RiskAversion,
		Lower:        h.Config.MinWeight,
		Upper:        h.Config.MaxWeight,
		Budget:       1,
	}

	solveCtx := ctx
	if h.Config.SolveTimeout > 0 {
		var cancel context.CancelFunc
		solveCtx, cancel = context.WithTimeout(ctx, h.Config.SolveTimeout)
		defer cancel()
	}

	start := time.Now()
	w, err := h.Solver.Solve(solveCtx, problem)
	metrics.RecordSolve(h.Solver.Name(), time.Since(start), err)
	if err != nil {
		var failure domain.SolverFailure
		if errors.As(err, &failure) {
			return nil, failure
		}
		return nil, domain.SolverFailure{
			Solver: h.Solver.Name(),
			Reason: domain.SolverFailureNumerical,
			Err:    err,
		}
	}

	if err := verifySolution(w, n, h.Config.MinWeight, h.Config.MaxWeight); err != nil {
		return nil, domain.SolverFailure{
			Solver: h.Solver.Name(),
			Reason: domain.SolverFailureNumerical,
			Err:    err,
		}
	}

	weights := make(map[string]float64, n)
	for i, symbol := range symbols {
		weights[symbol] = w[i]
	}

	log.Debugw(
		"optimized portfolio",
		"solver", h.Solver.Name(),
		"covariance", covariance.Name(),
		"elapsed", time.Since(start),
	)

	return domain.NewWeightVector(symbols, weights)
}

func checkFeasible(n int, minWeight, maxWeight float64) error {
	if float64(n)*minWeight > 1+feasibilityTolerance || float64(n)*maxWeight < 1-feasibilityTolerance {
		return domain.InfeasibleConstraintError{
			N:         n,
			MinWeight: minWeight,
			MaxWeight: maxWeight,
		}
	}
	return nil
}

func expectedReturns(in Input) ([]float64, error) {
	mu := make([]float64, 0, len(in.Selection))
	for _, asset := range in.Selection {
		v := asset.CombinedScore
		if in.ExpectedReturns != nil {
			supplied, ok := in.ExpectedReturns[asset.Symbol]
			if !ok {
				return nil, InvalidInputError{Field: "expectedReturns", Reason: fmt.Sprintf("missing expected return for %s", asset.Symbol)}
			}
			v = supplied
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, InvalidInputError{Field: "expectedReturns", Reason: fmt.Sprintf("non-finite expected return for %s", asset.Symbol)}
		}
		mu = append(mu, v)
	}
	return mu, nil
}

func verifySolution(w []float64, n int, minWeight, maxWeight float64) error {
	if len(w) != n {
		return fmt.Errorf("solver returned %d weights for %d assets", len(w), n)
	}
	sum := 0.0
	for i, v := range w {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("weight %d is not finite", i)
		}
		if v < minWeight || v > maxWeight {
			return fmt.Errorf("weight %d = %g outside [%g, %g]", i, v, minWeight, maxWeight)
		}
		sum += v
	}
	if math.Abs(sum-1) > budgetTolerance {
		return fmt.Errorf("weights sum to %g, expected 1", sum)
	}
	return nil
}
