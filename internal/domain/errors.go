package domain

import "fmt"

// DataInsufficientError means a price series or fundamentals record
// cannot support the requested computation.
type DataInsufficientError struct {
	Symbol string
	Reason string
}

func (e DataInsufficientError) Error() string {
	if e.Symbol == "" {
		return fmt.Sprintf("insufficient data: %s", e.Reason)
	}
	return fmt.Sprintf("insufficient data for %s: %s", e.Symbol, e.Reason)
}

type DegenerateFactorError struct {
	Factor FactorName
	Reason string
}

func (e DegenerateFactorError) Error() string {
	return fmt.Sprintf("degenerate factor %s: %s", e.Factor, e.Reason)
}

// EmptyUniverseError is raised when no asset survives factor filtering.
// It unwraps to a DataInsufficientError.
type EmptyUniverseError struct {
	Considered int
}

func (e EmptyUniverseError) Error() string {
	return fmt.Sprintf("empty universe: none of %d asset(s) survived filtering", e.Considered)
}

func (e EmptyUniverseError) Unwrap() error {
	return DataInsufficientError{
		Reason: "no asset survived factor filtering",
	}
}

type InfeasibleConstraintError struct {
	N         int
	MinWeight float64
	MaxWeight float64
}

func (e InfeasibleConstraintError) Error() string {
	return fmt.Sprintf(
		"infeasible weight bounds: %d asset(s) with min weight %g and max weight %g cannot sum to 1 (need %d*min <= 1 <= %d*max)",
		e.N, e.MinWeight, e.MaxWeight, e.N, e.N,
	)
}

type SolverFailureReason string

const (
	SolverFailureTimeout       SolverFailureReason = "timeout"
	SolverFailureCancelled     SolverFailureReason = "cancelled"
	SolverFailureMaxIterations SolverFailureReason = "max_iterations"
	SolverFailureNumerical     SolverFailureReason = "numerical"
	SolverFailureNotConverged  SolverFailureReason = "not_converged"
)

type SolverFailure struct {
	Solver string
	Reason SolverFailureReason
	Err    error
}

func (e SolverFailure) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("solver %s failed: %s", e.Solver, e.Reason)
	}
	return fmt.Sprintf("solver %s failed: %s: %s", e.Solver, e.Reason, e.Err.Error())
}

func (e SolverFailure) Unwrap() error {
	return e.Err
}
