package calculator

import (
	"context"
	"fmt"
	"sort"

	"factorportfolio/internal/domain"
	"factorportfolio/internal/logger"

	"github.com/montanaflynn/stats"
)

type StockRanker interface {
	Rank(ctx context.Context, table *domain.FactorTable, topN int) (domain.RankedSelection, error)
}

type stockRankerHandler struct{}

func NewStockRanker() StockRanker {
	return stockRankerHandler{}
}

// Rank orders assets by the equal-weighted mean of their normalized
// factors, highest first, breaking ties by symbol.
func (h stockRankerHandler) Rank(ctx context.Context, table *domain.FactorTable, topN int) (domain.RankedSelection, error) {
	log := logger.FromContext(ctx)

	if topN <= 0 {
		return nil, fmt.Errorf("top n must be positive, got %d", topN)
	}
	if table == nil || len(table.Scores) == 0 {
		return nil, domain.EmptyUniverseError{}
	}

	ranked := make(domain.RankedSelection, 0, len(table.Scores))
	for _, symbol := range table.Symbols() {
		values := make([]float64, 0, len(table.Factors))
		for _, factor := range table.Factors {
			v, ok := table.Scores[symbol][factor]
			if !ok {
				return nil, domain.DataInsufficientError{
					Symbol: symbol,
					Reason: fmt.Sprintf("missing normalized %s", factor),
				}
			}
			values = append(values, v)
		}
		combined, err := stats.Mean(values)
		if err != nil {
			return nil, fmt.Errorf("failed to combine factor scores for %s: %w", symbol, err)
		}
		ranked = append(ranked, domain.RankedAsset{
			Symbol:        symbol,
			CombinedScore: combined,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].CombinedScore != ranked[j].CombinedScore {
			return ranked[i].CombinedScore > ranked[j].CombinedScore
		}
		return ranked[i].Symbol < ranked[j].Symbol
	})

	if topN > len(ranked) {
		log.Infow(
			"requested more assets than the universe holds, returning full universe",
			"topN", topN,
			"universe", len(ranked),
		)
		return ranked, nil
	}

	return ranked[:topN], nil
}
