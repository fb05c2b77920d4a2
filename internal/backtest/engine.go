package backtest

import (
	"context"
	"fmt"
	"time"

	"factorportfolio/internal/domain"
	"factorportfolio/internal/logger"
)

type BacktestEngine interface {
	Run(ctx context.Context, prices *domain.PriceHistory, weights *domain.WeightVector, schedule Schedule) (domain.EquityCurve, error)
}

type backtestEngineHandler struct {
	Strategy Strategy
}

func NewBacktestEngine(strategy Strategy) BacktestEngine {
	if strategy == "" {
		strategy = StrategyStaticDailyRebalance
	}
	return backtestEngineHandler{
		Strategy: strategy,
	}
}

func (h backtestEngineHandler) Run(ctx context.Context, prices *domain.PriceHistory, weights *domain.WeightVector, schedule Schedule) (domain.EquityCurve, error) {
	log := logger.FromContext(ctx)

	if weights == nil || weights.Len() == 0 {
		return nil, fmt.Errorf("cannot backtest an empty weight vector")
	}
	if err := schedule.Validate(); err != nil {
		return nil, err
	}
	if err := checkCoverage(prices, weights); err != nil {
		return nil, err
	}

	var curve domain.EquityCurve
	var err error
	switch h.Strategy {
	case StrategyStaticDailyRebalance:
		curve = staticDailyRebalance(prices, weights)
	case StrategyDriftingBuyAndHold:
		anchors, anchorErr := schedule.AnchorIndices(prices.Dates)
		if anchorErr != nil {
			return nil, anchorErr
		}
		curve, err = driftingBuyAndHold(prices, weights, anchors)
	default:
		return nil, fmt.Errorf("unknown backtest strategy %q", h.Strategy)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to simulate %s: %w", h.Strategy, err)
	}

	log.Debugw(
		"completed backtest",
		"strategy", h.Strategy,
		"schedule", schedule.Frequency,
		"days", len(curve),
		"finalValue", curve.Final(),
	)

	return curve, nil
}

// checkCoverage requires a valid price for every weighted symbol on
// every date, before anything is simulated.
func checkCoverage(prices *domain.PriceHistory, weights *domain.WeightVector) error {
	if prices == nil || prices.Len() == 0 {
		return domain.DataInsufficientError{Reason: "backtest window has no trading days"}
	}
	for i := 1; i < len(prices.Dates); i++ {
		if !prices.Dates[i].After(prices.Dates[i-1]) {
			return domain.DataInsufficientError{
				Reason: fmt.Sprintf("dates not strictly increasing at %s", prices.Dates[i].Format(time.DateOnly)),
			}
		}
	}
	for _, symbol := range weights.Symbols() {
		series, ok := prices.Series(symbol)
		if !ok {
			return domain.DataInsufficientError{
				Symbol: symbol,
				Reason: "no price history in backtest window",
			}
		}
		for i, v := range series {
			if !domain.IsValidPrice(v) {
				return domain.DataInsufficientError{
					Symbol: symbol,
					Reason: fmt.Sprintf("missing price on %s", prices.Dates[i].Format(time.DateOnly)),
				}
			}
		}
	}
	return nil
}

func newCurve(dates []time.Time) domain.EquityCurve {
	curve := make(domain.EquityCurve, len(dates))
	curve[0] = domain.EquityPoint{
		Date:        dates[0],
		Value:       1.0,
		DailyReturn: 0,
	}
	return curve
}

func staticDailyRebalance(prices *domain.PriceHistory, weights *domain.WeightVector) domain.EquityCurve {
	curve := newCurve(prices.Dates)
	symbols := weights.Symbols()
	for t := 1; t < len(prices.Dates); t++ {
		dailyReturn := 0.0
		for _, symbol := range symbols {
			series := prices.Prices[symbol]
			dailyReturn += weights.Weight(symbol) * (series[t]/series[t-1] - 1)
		}
		curve[t] = domain.EquityPoint{
			Date:        prices.Dates[t],
			Value:       curve[t-1].Value * (1 + dailyReturn),
			DailyReturn: dailyReturn,
		}
	}
	return curve
}

func driftingBuyAndHold(prices *domain.PriceHistory, weights *domain.WeightVector, anchors []int) (domain.EquityCurve, error) {
	curve := newCurve(prices.Dates)
	isAnchor := map[int]bool{}
	for _, idx := range anchors {
		isAnchor[idx] = true
	}

	priceMapAt := func(t int) map[string]float64 {
		out := map[string]float64{}
		for _, symbol := range weights.Symbols() {
			out[symbol] = prices.Prices[symbol][t]
		}
		return out
	}

	previousPrices := priceMapAt(0)
	portfolio, err := domain.PortfolioAtTarget(*weights, previousPrices, 1.0)
	if err != nil {
		return nil, err
	}

	for t := 1; t < len(prices.Dates); t++ {
		currentPrices := priceMapAt(t)
		before, err := portfolio.TotalValue(previousPrices)
		if err != nil {
			return nil, err
		}
		after, err := portfolio.TotalValue(currentPrices)
		if err != nil {
			return nil, err
		}

		dailyReturn := after/before - 1
		curve[t] = domain.EquityPoint{
			Date:        prices.Dates[t],
			Value:       curve[t-1].Value * (1 + dailyReturn),
			DailyReturn: dailyReturn,
		}

		if isAnchor[t] {
			portfolio, err = domain.PortfolioAtTarget(*weights, currentPrices, curve[t].Value)
			if err != nil {
				return nil, err
			}
		}
		previousPrices = currentPrices
	}
	return curve, nil
}
