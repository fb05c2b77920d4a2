package optimizer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"factorportfolio/internal/domain"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Problem is
//
//	minimize    RiskAversion·wᵀΣw − μᵀw
//	subject to  Σw = Budget, Lower ≤ w_i ≤ Upper
//
// which is the mean-variance program with the sign flipped.
type Problem struct {
	Mu           []float64
	Sigma        *mat.SymDense
	RiskAversion float64
	Lower        float64
	Upper        float64
	Budget       float64
}

// QuadraticProgramSolver returns the optimal vector for p, or a
// domain.SolverFailure.
type QuadraticProgramSolver interface {
	Name() string
	Solve(ctx context.Context, p Problem) ([]float64, error)
}

func (p Problem) validate() error {
	n := len(p.Mu)
	if n == 0 {
		return fmt.Errorf("problem has no variables")
	}
	if p.Sigma == nil || p.Sigma.SymmetricDim() != n {
		return fmt.Errorf("covariance must be %dx%d", n, n)
	}
	if p.Lower > p.Upper {
		return fmt.Errorf("lower bound %g exceeds upper bound %g", p.Lower, p.Upper)
	}
	return nil
}

func (p Problem) objective(w []float64) float64 {
	risk := mat.Inner(mat.NewVecDense(len(w), w), p.Sigma, mat.NewVecDense(len(w), w))
	return p.RiskAversion*risk - floats.Dot(p.Mu, w)
}

func (p Problem) gradient(dst, w []float64) {
	var sw mat.VecDense
	sw.MulVec(p.Sigma, mat.NewVecDense(len(w), w))
	for i := range dst {
		dst[i] = 2*p.RiskAversion*sw.AtVec(i) - p.Mu[i]
	}
}

// lipschitz is the gradient Lipschitz constant 2λ·λmax(Σ).
func (p Problem) lipschitz() (float64, error) {
	if p.RiskAversion == 0 {
		return 0, nil
	}
	var eig mat.EigenSym
	if ok := eig.Factorize(p.Sigma, false); !ok {
		return 0, fmt.Errorf("eigen decomposition of covariance failed")
	}
	values := eig.Values(nil)
	return 2 * p.RiskAversion * math.Max(0, floats.Max(values)), nil
}

// residual is the infinity norm of w − proj(w − step·∇f(w)), zero
// exactly at the optimum.
func (p Problem) residual(w []float64, step float64) float64 {
	grad := make([]float64, len(w))
	p.gradient(grad, w)
	moved := make([]float64, len(w))
	for i := range w {
		moved[i] = w[i] - step*grad[i]
	}
	projected := make([]float64, len(w))
	projectCappedSimplex(projected, moved, p.Lower, p.Upper, p.Budget)
	worst := 0.0
	for i := range w {
		worst = math.Max(worst, math.Abs(w[i]-projected[i]))
	}
	return worst
}

func clamp(x, lower, upper float64) float64 {
	return math.Min(upper, math.Max(lower, x))
}

// projectCappedSimplex writes the Euclidean projection of v onto
// {w : Σw = budget, lower ≤ w_i ≤ upper} into dst. The projection is
// w_i = clamp(v_i − τ) for the unique τ that meets the budget; τ is
// bracketed by bisection and then solved exactly on the free set.
func projectCappedSimplex(dst, v []float64, lower, upper, budget float64) {
	sumAt := func(tau float64) float64 {
		s := 0.0
		for _, x := range v {
			s += clamp(x-tau, lower, upper)
		}
		return s
	}

	tauLo := floats.Min(v) - upper
	tauHi := floats.Max(v) - lower
	for i := 0; i < 100; i++ {
		mid := 0.5 * (tauLo + tauHi)
		if mid <= tauLo || mid >= tauHi {
			break
		}
		if sumAt(mid) > budget {
			tauLo = mid
		} else {
			tauHi = mid
		}
	}
	tau := 0.5 * (tauLo + tauHi)

	free := 0
	freeSum, fixedSum := 0.0, 0.0
	for _, x := range v {
		w := x - tau
		switch {
		case w <= lower:
			fixedSum += lower
		case w >= upper:
			fixedSum += upper
		default:
			free++
			freeSum += x
		}
	}
	if free > 0 {
		exact := (freeSum + fixedSum - budget) / float64(free)
		consistent := true
		for _, x := range v {
			before, after := x-tau, x-exact
			wasFree := before > lower && before < upper
			if wasFree != (after > lower && after < upper) {
				consistent = false
				break
			}
		}
		if consistent {
			tau = exact
		}
	}

	for i, x := range v {
		dst[i] = clamp(x-tau, lower, upper)
	}
}

// greedyAllocation is the exact optimum when the objective is linear:
// start every weight at the lower bound and hand the remaining budget to
// the highest expected returns first.
func greedyAllocation(mu []float64, lower, upper, budget float64) []float64 {
	n := len(mu)
	w := make([]float64, n)
	order := make([]int, n)
	for i := range w {
		w[i] = lower
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return mu[order[a]] > mu[order[b]]
	})

	remaining := budget - float64(n)*lower
	for _, i := range order {
		if remaining <= 0 {
			break
		}
		add := math.Min(upper-lower, remaining)
		if add == upper-lower {
			w[i] = upper
		} else {
			w[i] = math.Min(upper, lower+add)
		}
		remaining -= add
	}
	return w
}

func failureFromContext(solver string, err error) domain.SolverFailure {
	reason := domain.SolverFailureCancelled
	if errors.Is(err, context.DeadlineExceeded) {
		reason = domain.SolverFailureTimeout
	}
	return domain.SolverFailure{
		Solver: solver,
		Reason: reason,
		Err:    err,
	}
}

func hasNaN(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return true
		}
	}
	return false
}
