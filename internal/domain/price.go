package domain

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

type AssetPrice struct {
	Symbol string
	Price  decimal.Decimal
	Date   time.Time
}

// PriceHistory is a date-indexed, symbol-keyed price matrix. Every
// series has exactly one entry per date; a missing observation is NaN.
type PriceHistory struct {
	Dates  []time.Time
	Prices map[string][]float64
}

func NewPriceHistory(dates []time.Time, prices map[string][]float64) (*PriceHistory, error) {
	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			return nil, fmt.Errorf("dates must be strictly increasing: %s follows %s", dates[i].Format(time.DateOnly), dates[i-1].Format(time.DateOnly))
		}
	}
	out := map[string][]float64{}
	for symbol, series := range prices {
		if len(series) != len(dates) {
			return nil, fmt.Errorf("series for %s has %d values, expected %d", symbol, len(series), len(dates))
		}
		out[symbol] = append([]float64{}, series...)
	}
	return &PriceHistory{
		Dates:  append([]time.Time{}, dates...),
		Prices: out,
	}, nil
}

// NewPriceHistoryFromAssetPrices pivots long-form observations into a
// PriceHistory over the union of observed dates. Duplicate (symbol, date)
// rows keep the last value seen.
func NewPriceHistoryFromAssetPrices(assetPrices []AssetPrice) *PriceHistory {
	dateSet := map[string]time.Time{}
	bySymbol := map[string]map[string]float64{}
	for _, p := range assetPrices {
		d := time.Date(p.Date.Year(), p.Date.Month(), p.Date.Day(), 0, 0, 0, 0, time.UTC)
		key := d.Format(time.DateOnly)
		dateSet[key] = d
		if _, ok := bySymbol[p.Symbol]; !ok {
			bySymbol[p.Symbol] = map[string]float64{}
		}
		bySymbol[p.Symbol][key] = p.Price.InexactFloat64()
	}

	dates := make([]time.Time, 0, len(dateSet))
	for _, d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})

	prices := map[string][]float64{}
	for symbol, byDate := range bySymbol {
		series := make([]float64, len(dates))
		for i, d := range dates {
			price, ok := byDate[d.Format(time.DateOnly)]
			if !ok {
				price = math.NaN()
			}
			series[i] = price
		}
		prices[symbol] = series
	}

	return &PriceHistory{
		Dates:  dates,
		Prices: prices,
	}
}

func (p PriceHistory) Symbols() []string {
	out := make([]string, 0, len(p.Prices))
	for symbol := range p.Prices {
		out = append(out, symbol)
	}
	sort.Strings(out)
	return out
}

func (p PriceHistory) Series(symbol string) ([]float64, bool) {
	series, ok := p.Prices[symbol]
	return series, ok
}

func (p PriceHistory) Len() int {
	return len(p.Dates)
}

// HasGaps reports whether any observation for symbol is missing or
// not a positive finite number.
func (p PriceHistory) HasGaps(symbol string) bool {
	series, ok := p.Prices[symbol]
	if !ok {
		return true
	}
	for _, v := range series {
		if !IsValidPrice(v) {
			return true
		}
	}
	return false
}

// Restrict returns a history holding only the given symbols.
func (p PriceHistory) Restrict(symbols []string) (*PriceHistory, error) {
	prices := map[string][]float64{}
	for _, symbol := range symbols {
		series, ok := p.Prices[symbol]
		if !ok {
			return nil, DataInsufficientError{
				Symbol: symbol,
				Reason: "no price history",
			}
		}
		prices[symbol] = series
	}
	return NewPriceHistory(p.Dates, prices)
}

// Between returns the inclusive [start, end] slice of the history.
func (p PriceHistory) Between(start, end time.Time) *PriceHistory {
	lo := sort.Search(len(p.Dates), func(i int) bool {
		return !p.Dates[i].Before(start)
	})
	hi := sort.Search(len(p.Dates), func(i int) bool {
		return p.Dates[i].After(end)
	})
	if hi < lo {
		hi = lo
	}

	prices := map[string][]float64{}
	for symbol, series := range p.Prices {
		prices[symbol] = append([]float64{}, series[lo:hi]...)
	}
	return &PriceHistory{
		Dates:  append([]time.Time{}, p.Dates[lo:hi]...),
		Prices: prices,
	}
}

func IsValidPrice(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
