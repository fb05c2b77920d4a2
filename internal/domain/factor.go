package domain

import "sort"

type FactorName string

const (
	FactorMomentum          FactorName = "momentum"
	FactorInverseVolatility FactorName = "inverse_volatility"
	FactorEarningsYield     FactorName = "earnings_yield"
)

// AllFactors is the fixed, ordered factor set every asset must carry.
var AllFactors = []FactorName{
	FactorMomentum,
	FactorInverseVolatility,
	FactorEarningsYield,
}

type FactorTable struct {
	Factors []FactorName                      `json:"factors"`
	Scores  map[string]map[FactorName]float64 `json:"scores"`
}

func (f FactorTable) Symbols() []string {
	out := make([]string, 0, len(f.Scores))
	for symbol := range f.Scores {
		out = append(out, symbol)
	}
	sort.Strings(out)
	return out
}

// Column returns the values of one factor in Symbols() order.
func (f FactorTable) Column(factor FactorName) []float64 {
	symbols := f.Symbols()
	out := make([]float64, 0, len(symbols))
	for _, symbol := range symbols {
		out = append(out, f.Scores[symbol][factor])
	}
	return out
}
