package calculator

import (
	"context"
	"fmt"
	"math"
	"sort"

	"factorportfolio/internal/domain"
	"factorportfolio/internal/logger"

	"github.com/montanaflynn/stats"
)

const degenerateStdevTolerance = 1e-12

type FactorScorerConfig struct {
	// LookbackWindow is measured in trading days.
	LookbackWindow int
}

type FactorScorer interface {
	Score(ctx context.Context, prices *domain.PriceHistory, fundamentals domain.FundamentalsTable) (*domain.FactorTable, error)
}

type factorScorerHandler struct {
	Config FactorScorerConfig
}

func NewFactorScorer(cfg FactorScorerConfig) FactorScorer {
	return factorScorerHandler{
		Config: cfg,
	}
}

type factorExclusion struct {
	Factor domain.FactorName
	Reason string
}

func (h factorScorerHandler) Score(ctx context.Context, prices *domain.PriceHistory, fundamentals domain.FundamentalsTable) (*domain.FactorTable, error) {
	log := logger.FromContext(ctx)

	lookback := h.Config.LookbackWindow
	if lookback <= 0 {
		return nil, fmt.Errorf("lookback window must be positive, got %d", lookback)
	}
	if prices == nil {
		return nil, domain.DataInsufficientError{Reason: "no price history"}
	}

	symbols := prices.Symbols()
	raw := map[string]map[domain.FactorName]float64{}
	for _, symbol := range symbols {
		values, exclusion := rawFactors(prices.Prices[symbol], fundamentals[symbol], lookback)
		if exclusion != nil {
			log.Infow(
				"excluding asset from factor scoring",
				"symbol", symbol,
				"factor", exclusion.Factor,
				"reason", exclusion.Reason,
			)
			continue
		}
		raw[symbol] = values
	}

	if len(raw) == 0 {
		return nil, domain.EmptyUniverseError{Considered: len(symbols)}
	}

	scores := map[string]map[domain.FactorName]float64{}
	for symbol := range raw {
		scores[symbol] = map[domain.FactorName]float64{}
	}
	for _, factor := range domain.AllFactors {
		column := map[string]float64{}
		for symbol, values := range raw {
			column[symbol] = values[factor]
		}
		normalized, err := zScoreBySymbol(factor, column)
		if err != nil {
			return nil, err
		}
		for symbol, z := range normalized {
			scores[symbol][factor] = z
		}
	}

	log.Debugw("scored universe", "considered", len(symbols), "surviving", len(scores))

	return &domain.FactorTable{
		Factors: append([]domain.FactorName{}, domain.AllFactors...),
		Scores:  scores,
	}, nil
}

// rawFactors computes the unnormalized factor values for one asset from
// the trailing lookback+1 prices, or reports why the asset is ineligible.
func rawFactors(series []float64, fundamentals domain.Fundamentals, lookback int) (map[domain.FactorName]float64, *factorExclusion) {
	if len(series) < lookback+1 {
		return nil, &factorExclusion{
			Factor: domain.FactorMomentum,
			Reason: fmt.Sprintf("need %d observations, have %d", lookback+1, len(series)),
		}
	}
	window := series[len(series)-lookback-1:]
	for _, p := range window {
		if !domain.IsValidPrice(p) {
			return nil, &factorExclusion{
				Factor: domain.FactorMomentum,
				Reason: "missing or non-positive price in lookback window",
			}
		}
	}

	first, last := window[0], window[len(window)-1]
	momentum := (last - first) / first

	returns := make([]float64, 0, lookback)
	for i := 1; i < len(window); i++ {
		returns = append(returns, window[i]/window[i-1]-1)
	}
	if len(returns) < 2 {
		return nil, &factorExclusion{
			Factor: domain.FactorInverseVolatility,
			Reason: "volatility undefined for fewer than two returns",
		}
	}
	stdev, err := stats.StandardDeviationSample(returns)
	if err != nil || math.IsNaN(stdev) || stdev <= degenerateStdevTolerance {
		return nil, &factorExclusion{
			Factor: domain.FactorInverseVolatility,
			Reason: "zero or undefined return volatility",
		}
	}

	if fundamentals.TrailingPE == nil || *fundamentals.TrailingPE <= 0 || math.IsNaN(*fundamentals.TrailingPE) {
		return nil, &factorExclusion{
			Factor: domain.FactorEarningsYield,
			Reason: "missing or non-positive trailing PE",
		}
	}

	return map[domain.FactorName]float64{
		domain.FactorMomentum:          momentum,
		domain.FactorInverseVolatility: 1 / stdev,
		domain.FactorEarningsYield:     1 / *fundamentals.TrailingPE,
	}, nil
}

func zScoreBySymbol(factor domain.FactorName, factorScoreBySymbol map[string]float64) (map[string]float64, error) {
	if len(factorScoreBySymbol) < 2 {
		return nil, domain.DegenerateFactorError{
			Factor: factor,
			Reason: fmt.Sprintf("cannot normalize fewer than two values, got %d", len(factorScoreBySymbol)),
		}
	}
	symbols := make([]string, 0, len(factorScoreBySymbol))
	for symbol := range factorScoreBySymbol {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	dataset := make([]float64, 0, len(symbols))
	for _, symbol := range symbols {
		dataset = append(dataset, factorScoreBySymbol[symbol])
	}
	mean, err := stats.Mean(dataset)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate mean of %s: %w", factor, err)
	}
	stdev, err := stats.StandardDeviationSample(dataset)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate stdev of %s: %w", factor, err)
	}
	// identical inputs can leave rounding noise in the stdev
	if math.IsNaN(stdev) || stdev <= degenerateStdevTolerance*math.Max(1, math.Abs(mean)) {
		return nil, domain.DegenerateFactorError{
			Factor: factor,
			Reason: "zero cross-sectional variance",
		}
	}

	out := make(map[string]float64, len(factorScoreBySymbol))
	for symbol, v := range factorScoreBySymbol {
		out[symbol] = (v - mean) / stdev
	}
	return out, nil
}
