package domain

import (
	"fmt"
	"sort"
)

// Portfolio is a set of fractional share quantities. It is always fully
// invested, so there is no cash leg.
type Portfolio struct {
	Positions map[string]*Position
}

func NewPortfolio() *Portfolio {
	return &Portfolio{
		Positions: map[string]*Position{},
	}
}

// PortfolioAtTarget buys the quantities that put weight·totalValue into
// each symbol at the given prices.
func PortfolioAtTarget(weights WeightVector, priceMap map[string]float64, totalValue float64) (*Portfolio, error) {
	out := NewPortfolio()
	for _, symbol := range weights.Symbols() {
		price, ok := priceMap[symbol]
		if !ok || !IsValidPrice(price) {
			return nil, DataInsufficientError{
				Symbol: symbol,
				Reason: "no valid price to size position",
			}
		}
		out.Positions[symbol] = &Position{
			Symbol:   symbol,
			Quantity: weights.Weight(symbol) * totalValue / price,
		}
	}
	return out, nil
}

func (p Portfolio) HeldSymbols() []string {
	symbols := []string{}
	for symbol := range p.Positions {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}

func (p Portfolio) DeepCopy() *Portfolio {
	newPortfolio := NewPortfolio()
	for symbol, position := range p.Positions {
		newPortfolio.Positions[symbol] = position.DeepCopy()
	}
	return newPortfolio
}

func (p Portfolio) TotalValue(priceMap map[string]float64) (float64, error) {
	totalValue := 0.0
	for _, symbol := range p.HeldSymbols() {
		price, ok := priceMap[symbol]
		if !ok {
			return 0, fmt.Errorf("cannot compute portfolio total value: price map missing %s", symbol)
		}
		totalValue += p.Positions[symbol].Quantity * price
	}
	return totalValue, nil
}

// Weights returns each position's share of the portfolio value.
func (p Portfolio) Weights(priceMap map[string]float64) (map[string]float64, error) {
	total, err := p.TotalValue(priceMap)
	if err != nil {
		return nil, err
	}
	if total <= 0 {
		return nil, fmt.Errorf("cannot compute weights of portfolio with value %f", total)
	}
	out := map[string]float64{}
	for symbol, position := range p.Positions {
		out[symbol] = position.Quantity * priceMap[symbol] / total
	}
	return out, nil
}

type Position struct {
	Symbol   string
	Quantity float64
}

func (p Position) DeepCopy() *Position {
	return &Position{
		Symbol:   p.Symbol,
		Quantity: p.Quantity,
	}
}
