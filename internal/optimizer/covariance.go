package optimizer

import (
	"fmt"
	"math"

	"factorportfolio/internal/domain"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const (
	symmetryTolerance = 1e-10
	psdTolerance      = 1e-10
)

// CovarianceModel supplies Σ for an ordered list of symbols.
type CovarianceModel interface {
	Name() string
	Matrix(symbols []string) (*mat.SymDense, error)
}

// IdentityFallback treats every asset as unit variance and uncorrelated.
// It is not a risk model; it is what the optimizer uses when no
// covariance is available.
type IdentityFallback struct{}

func (IdentityFallback) Name() string {
	return "identity_fallback"
}

func (IdentityFallback) Matrix(symbols []string) (*mat.SymDense, error) {
	n := len(symbols)
	if n == 0 {
		return nil, InvalidInputError{Field: "covariance", Reason: "no symbols"}
	}
	sigma := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		sigma.SetSym(i, i, 1)
	}
	return sigma, nil
}

// SuppliedCovariance is a validated symmetric positive semidefinite
// matrix labelled by symbol. It may cover more symbols than a selection.
type SuppliedCovariance struct {
	symbols []string
	index   map[string]int
	matrix  *mat.SymDense
}

func NewSuppliedCovariance(symbols []string, rows [][]float64) (*SuppliedCovariance, error) {
	n := len(symbols)
	if n == 0 {
		return nil, InvalidInputError{Field: "covariance", Reason: "no symbols"}
	}
	if len(rows) != n {
		return nil, InvalidInputError{Field: "covariance", Reason: fmt.Sprintf("expected %d rows, got %d", n, len(rows))}
	}

	index := map[string]int{}
	for i, symbol := range symbols {
		if _, ok := index[symbol]; ok {
			return nil, InvalidInputError{Field: "covariance", Reason: fmt.Sprintf("duplicate symbol %s", symbol)}
		}
		index[symbol] = i
	}

	dense := mat.NewDense(n, n, nil)
	for i, row := range rows {
		if len(row) != n {
			return nil, InvalidInputError{Field: "covariance", Reason: fmt.Sprintf("row %d has %d columns, expected %d", i, len(row), n)}
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, InvalidInputError{Field: "covariance", Reason: fmt.Sprintf("non-finite entry at (%d, %d)", i, j)}
			}
			dense.Set(i, j, v)
		}
	}

	sigma, err := newValidatedSymDense(dense)
	if err != nil {
		return nil, err
	}

	return &SuppliedCovariance{
		symbols: append([]string{}, symbols...),
		index:   index,
		matrix:  sigma,
	}, nil
}

func (c SuppliedCovariance) Name() string {
	return "supplied"
}

func (c SuppliedCovariance) Symbols() []string {
	return append([]string{}, c.symbols...)
}

// Matrix returns the sub-matrix for symbols in the given order.
func (c SuppliedCovariance) Matrix(symbols []string) (*mat.SymDense, error) {
	idx := make([]int, len(symbols))
	for i, symbol := range symbols {
		j, ok := c.index[symbol]
		if !ok {
			return nil, InvalidInputError{Field: "covariance", Reason: fmt.Sprintf("no covariance for %s", symbol)}
		}
		idx[i] = j
	}

	out := mat.NewSymDense(len(symbols), nil)
	for i := range idx {
		for j := i; j < len(idx); j++ {
			out.SetSym(i, j, c.matrix.At(idx[i], idx[j]))
		}
	}
	return out, nil
}

func newValidatedSymDense(m *mat.Dense) (*mat.SymDense, error) {
	n, _ := m.Dims()
	sigma := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			a, b := m.At(i, j), m.At(j, i)
			if math.Abs(a-b) > symmetryTolerance*math.Max(1, math.Max(math.Abs(a), math.Abs(b))) {
				return nil, InvalidInputError{Field: "covariance", Reason: fmt.Sprintf("not symmetric at (%d, %d)", i, j)}
			}
			sigma.SetSym(i, j, 0.5*(a+b))
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(sigma, false); !ok {
		return nil, InvalidInputError{Field: "covariance", Reason: "eigen decomposition failed"}
	}
	values := eig.Values(nil)
	largest := 0.0
	for _, v := range values {
		largest = math.Max(largest, math.Abs(v))
	}
	for _, v := range values {
		if v < -psdTolerance*math.Max(1, largest) {
			return nil, InvalidInputError{Field: "covariance", Reason: fmt.Sprintf("not positive semidefinite (eigenvalue %g)", v)}
		}
	}
	return sigma, nil
}

// EstimateCovariance returns the annualized sample covariance of daily
// simple returns over the trailing lookback window (the whole history
// when lookback is not positive).
func EstimateCovariance(prices *domain.PriceHistory, symbols []string, lookback int) (*SuppliedCovariance, error) {
	if len(symbols) == 0 {
		return nil, InvalidInputError{Field: "covariance", Reason: "no symbols"}
	}
	numPrices := prices.Len()
	if lookback > 0 && lookback+1 < numPrices {
		numPrices = lookback + 1
	}
	if numPrices < 3 {
		return nil, domain.DataInsufficientError{Reason: fmt.Sprintf("need at least 3 prices to estimate covariance, have %d", numPrices)}
	}

	offset := prices.Len() - numPrices
	returns := mat.NewDense(numPrices-1, len(symbols), nil)
	for j, symbol := range symbols {
		series, ok := prices.Series(symbol)
		if !ok {
			return nil, domain.DataInsufficientError{Symbol: symbol, Reason: "no price history"}
		}
		window := series[offset:]
		for i := 1; i < len(window); i++ {
			if !domain.IsValidPrice(window[i]) || !domain.IsValidPrice(window[i-1]) {
				return nil, domain.DataInsufficientError{Symbol: symbol, Reason: "gap in covariance window"}
			}
			returns.Set(i-1, j, window[i]/window[i-1]-1)
		}
	}

	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, returns, nil)
	cov.ScaleSym(252, &cov)

	index := map[string]int{}
	for i, symbol := range symbols {
		index[symbol] = i
	}
	return &SuppliedCovariance{
		symbols: append([]string{}, symbols...),
		index:   index,
		matrix:  &cov,
	}, nil
}
