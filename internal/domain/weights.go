package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// WeightVector maps each asset of a fixed universe to its target
// weight. The zero value is empty; use NewWeightVector.
type WeightVector struct {
	symbols []string
	weights map[string]float64
}

// NewWeightVector fails unless the keys of weights are exactly the
// symbols of universe and every weight is finite.
func NewWeightVector(universe []string, weights map[string]float64) (*WeightVector, error) {
	if len(universe) == 0 {
		return nil, fmt.Errorf("weight vector universe cannot be empty")
	}

	seen := map[string]bool{}
	for _, symbol := range universe {
		if seen[symbol] {
			return nil, fmt.Errorf("duplicate symbol %s in weight vector universe", symbol)
		}
		seen[symbol] = true

		w, ok := weights[symbol]
		if !ok {
			return nil, fmt.Errorf("missing weight for %s", symbol)
		}
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("invalid weight %f for %s", w, symbol)
		}
	}
	for symbol := range weights {
		if !seen[symbol] {
			return nil, fmt.Errorf("weight given for %s which is outside the selected universe", symbol)
		}
	}

	symbols := append([]string{}, universe...)
	sort.Strings(symbols)
	out := make(map[string]float64, len(weights))
	for symbol, w := range weights {
		out[symbol] = w
	}

	return &WeightVector{
		symbols: symbols,
		weights: out,
	}, nil
}

func (w WeightVector) Symbols() []string {
	return append([]string{}, w.symbols...)
}

func (w WeightVector) Get(symbol string) (float64, bool) {
	v, ok := w.weights[symbol]
	return v, ok
}

// Weight is the weight of symbol, zero when it is not in the universe.
func (w WeightVector) Weight(symbol string) float64 {
	return w.weights[symbol]
}

func (w WeightVector) Len() int {
	return len(w.symbols)
}

func (w WeightVector) Sum() float64 {
	sum := 0.0
	for _, symbol := range w.symbols {
		sum += w.weights[symbol]
	}
	return sum
}

func (w WeightVector) Map() map[string]float64 {
	out := make(map[string]float64, len(w.weights))
	for symbol, v := range w.weights {
		out[symbol] = v
	}
	return out
}

// WithinBounds reports the first symbol whose weight falls outside
// [lower-tol, upper+tol], if any.
func (w WeightVector) WithinBounds(lower, upper, tol float64) (string, bool) {
	for _, symbol := range w.symbols {
		v := w.weights[symbol]
		if v < lower-tol || v > upper+tol {
			return symbol, false
		}
	}
	return "", true
}

func (w WeightVector) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.weights)
}
