package optimizer

import (
	"context"
	"errors"
	"testing"
	"time"

	"factorportfolio/internal/domain"

	"github.com/stretchr/testify/require"
)

type spySolver struct {
	calls  int
	inner  QuadraticProgramSolver
	result []float64
	err    error
}

func (s *spySolver) Name() string {
	return "spy"
}

func (s *spySolver) Solve(ctx context.Context, p Problem) ([]float64, error) {
	s.calls++
	if s.inner != nil {
		return s.inner.Solve(ctx, p)
	}
	return s.result, s.err
}

func selection(scores ...float64) domain.RankedSelection {
	symbols := []string{"A", "B", "C", "D", "E", "F", "G", "H"}
	out := domain.RankedSelection{}
	for i, s := range scores {
		out = append(out, domain.RankedAsset{Symbol: symbols[i], CombinedScore: s})
	}
	return out
}

func requireValidWeights(t *testing.T, w *domain.WeightVector, cfg Config) {
	t.Helper()
	require.InDelta(t, 1, w.Sum(), 1e-6)
	_, ok := w.WithinBounds(cfg.MinWeight, cfg.MaxWeight, 0)
	require.True(t, ok)
}

func Test_portfolioOptimizerHandler_Optimize(t *testing.T) {
	ctx := context.Background()

	t.Run("linear objective puts everything on the best asset", func(t *testing.T) {
		cfg := Config{MinWeight: 0, MaxWeight: 1, RiskAversion: 0}
		for _, solver := range []QuadraticProgramSolver{
			NewProjectedGradientSolver(0, 0),
			NewNelderMeadSolver(0, 0),
		} {
			w, err := NewPortfolioOptimizer(cfg, solver).Optimize(ctx, Input{
				Selection: selection(0.1, 0.2),
			})
			require.NoError(t, err, solver.Name())
			require.InDelta(t, 0, w.Weight("A"), 1e-6, solver.Name())
			require.InDelta(t, 1, w.Weight("B"), 1e-6, solver.Name())
			requireValidWeights(t, w, cfg)
		}
	})

	t.Run("interior optimum with identity covariance", func(t *testing.T) {
		cfg := Config{MinWeight: 0, MaxWeight: 1, RiskAversion: 1}
		cases := []struct {
			solver QuadraticProgramSolver
			delta  float64
		}{
			{solver: NewProjectedGradientSolver(0, 0), delta: 1e-8},
			{solver: NewNelderMeadSolver(0, 0), delta: 1e-4},
		}
		for _, tc := range cases {
			w, err := NewPortfolioOptimizer(cfg, tc.solver).Optimize(ctx, Input{
				Selection:  selection(0.1, 0.2),
				Covariance: IdentityFallback{},
			})
			require.NoError(t, err, tc.solver.Name())
			require.InDelta(t, 0.475, w.Weight("A"), tc.delta, tc.solver.Name())
			require.InDelta(t, 0.525, w.Weight("B"), tc.delta, tc.solver.Name())
			requireValidWeights(t, w, cfg)
		}
	})

	t.Run("caps bind on a wider universe", func(t *testing.T) {
		cfg := Config{MinWeight: 0, MaxWeight: 0.3, RiskAversion: 0.1}
		w, err := NewPortfolioOptimizer(cfg, NewProjectedGradientSolver(0, 0)).Optimize(ctx, Input{
			Selection: selection(1.2, 0.8, 0.3, -0.1, -0.9),
		})
		require.NoError(t, err)
		requireValidWeights(t, w, cfg)
		require.InDelta(t, 0.3, w.Weight("A"), 1e-9)
		require.Equal(t, []string{"A", "B", "C", "D", "E"}, w.Symbols())
	})

	t.Run("supplied covariance shifts weight to the low variance asset", func(t *testing.T) {
		cfg := Config{MinWeight: 0, MaxWeight: 1, RiskAversion: 1}
		cov, err := NewSuppliedCovariance([]string{"A", "B"}, [][]float64{
			{1, 0},
			{0, 4},
		})
		require.NoError(t, err)

		w, err := NewPortfolioOptimizer(cfg, NewProjectedGradientSolver(0, 0)).Optimize(ctx, Input{
			Selection:  selection(0, 0),
			Covariance: cov,
		})
		require.NoError(t, err)
		require.InDelta(t, 0.8, w.Weight("A"), 1e-8)
		require.InDelta(t, 0.2, w.Weight("B"), 1e-8)
	})

	t.Run("expected returns override scores", func(t *testing.T) {
		cfg := Config{MinWeight: 0, MaxWeight: 1, RiskAversion: 0}
		w, err := NewPortfolioOptimizer(cfg, NewProjectedGradientSolver(0, 0)).Optimize(ctx, Input{
			Selection:       selection(0.9, 0.1),
			ExpectedReturns: map[string]float64{"A": 0.01, "B": 0.02},
		})
		require.NoError(t, err)
		require.Equal(t, 1.0, w.Weight("B"))
	})

	t.Run("missing expected return", func(t *testing.T) {
		cfg := Config{MinWeight: 0, MaxWeight: 1, RiskAversion: 0}
		_, err := NewPortfolioOptimizer(cfg, NewProjectedGradientSolver(0, 0)).Optimize(ctx, Input{
			Selection:       selection(0.9, 0.1),
			ExpectedReturns: map[string]float64{"A": 0.01},
		})
		require.ErrorAs(t, err, &InvalidInputError{})
	})

	t.Run("single asset takes the whole budget without solving", func(t *testing.T) {
		spy := &spySolver{}
		w, err := NewPortfolioOptimizer(Config{MinWeight: 0, MaxWeight: 1}, spy).Optimize(ctx, Input{
			Selection: selection(0.4),
		})
		require.NoError(t, err)
		require.Equal(t, 1.0, w.Weight("A"))
		require.Equal(t, 0, spy.calls)
	})

	t.Run("infeasible bounds never reach the solver", func(t *testing.T) {
		cases := []struct {
			name string
			cfg  Config
			n    int
		}{
			{name: "max too small", cfg: Config{MinWeight: 0, MaxWeight: 0.3}, n: 3},
			{name: "min too large", cfg: Config{MinWeight: 0.3, MaxWeight: 1}, n: 4},
			{name: "single asset capped", cfg: Config{MinWeight: 0, MaxWeight: 0.5}, n: 1},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				spy := &spySolver{}
				scores := make([]float64, tc.n)
				_, err := NewPortfolioOptimizer(tc.cfg, spy).Optimize(ctx, Input{
					Selection: selection(scores...),
				})
				infeasible := domain.InfeasibleConstraintError{}
				require.ErrorAs(t, err, &infeasible)
				require.Equal(t, tc.n, infeasible.N)
				require.Equal(t, 0, spy.calls)
			})
		}
	})

	t.Run("bounds at the feasibility edge", func(t *testing.T) {
		cfg := Config{MinWeight: 0.25, MaxWeight: 0.25}
		w, err := NewPortfolioOptimizer(cfg, NewProjectedGradientSolver(0, 0)).Optimize(ctx, Input{
			Selection: selection(4, 3, 2, 1),
		})
		require.NoError(t, err)
		for _, symbol := range w.Symbols() {
			require.Equal(t, 0.25, w.Weight(symbol))
		}
	})

	t.Run("empty selection", func(t *testing.T) {
		_, err := NewPortfolioOptimizer(Config{MaxWeight: 1}, &spySolver{}).Optimize(ctx, Input{})
		require.ErrorAs(t, err, &domain.EmptyUniverseError{})
	})

	t.Run("invalid config", func(t *testing.T) {
		_, err := NewPortfolioOptimizer(Config{MinWeight: 0.5, MaxWeight: 0.2}, &spySolver{}).Optimize(ctx, Input{
			Selection: selection(1, 2),
		})
		require.ErrorAs(t, err, &InvalidInputError{})
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := NewPortfolioOptimizer(Config{MaxWeight: 1, RiskAversion: 1}, NewProjectedGradientSolver(0, 0)).Optimize(cancelled, Input{
			Selection: selection(1, 2),
		})
		failure := domain.SolverFailure{}
		require.ErrorAs(t, err, &failure)
		require.Equal(t, domain.SolverFailureCancelled, failure.Reason)
	})

	t.Run("expired deadline", func(t *testing.T) {
		expired, cancel := context.WithDeadline(ctx, time.Now().Add(-time.Second))
		defer cancel()
		_, err := NewPortfolioOptimizer(Config{MaxWeight: 1, RiskAversion: 1}, NewNelderMeadSolver(0, 0)).Optimize(expired, Input{
			Selection: selection(1, 2),
		})
		failure := domain.SolverFailure{}
		require.ErrorAs(t, err, &failure)
		require.Equal(t, domain.SolverFailureTimeout, failure.Reason)
		require.True(t, errors.Is(err, context.DeadlineExceeded))
	})

	t.Run("solution outside bounds is rejected", func(t *testing.T) {
		spy := &spySolver{result: []float64{1.2, -0.2}}
		_, err := NewPortfolioOptimizer(Config{MaxWeight: 1}, spy).Optimize(ctx, Input{
			Selection: selection(1, 2),
		})
		failure := domain.SolverFailure{}
		require.ErrorAs(t, err, &failure)
		require.Equal(t, domain.SolverFailureNumerical, failure.Reason)
		require.Equal(t, 1, spy.calls)
	})

	t.Run("plain solver errors become numerical failures", func(t *testing.T) {
		spy := &spySolver{err: errors.New("singular")}
		_, err := NewPortfolioOptimizer(Config{MaxWeight: 1}, spy).Optimize(ctx, Input{
			Selection: selection(1, 2),
		})
		failure := domain.SolverFailure{}
		require.ErrorAs(t, err, &failure)
		require.Equal(t, "spy", failure.Solver)
		require.Equal(t, domain.SolverFailureNumerical, failure.Reason)
	})
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, Config{MinWeight: 0, MaxWeight: 0.3, RiskAversion: 0.1}.Validate())
	require.Error(t, Config{MinWeight: -0.1, MaxWeight: 0.3}.Validate())
	require.Error(t, Config{MinWeight: 0, MaxWeight: 1.5}.Validate())
	require.Error(t, Config{MinWeight: 0, MaxWeight: 1, RiskAversion: -1}.Validate())
	require.Error(t, Config{MinWeight: 0, MaxWeight: 1, SolveTimeout: -time.Second}.Validate())
}
