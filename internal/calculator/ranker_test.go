package calculator

import (
	"context"
	"testing"

	"factorportfolio/internal/domain"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func factorTable(scores map[string][]float64) *domain.FactorTable {
	out := &domain.FactorTable{
		Factors: domain.AllFactors,
		Scores:  map[string]map[domain.FactorName]float64{},
	}
	for symbol, values := range scores {
		out.Scores[symbol] = map[domain.FactorName]float64{}
		for i, factor := range domain.AllFactors {
			out.Scores[symbol][factor] = values[i]
		}
	}
	return out
}

func Test_stockRankerHandler_Rank(t *testing.T) {
	ctx := context.Background()
	ranker := NewStockRanker()

	t.Run("descending by combined score with symbol tie break", func(t *testing.T) {
		table := factorTable(map[string][]float64{
			"MSFT": {1, 1, 1},
			"AAPL": {0, 0, 0},
			"AMZN": {1, 0, -1},
			"NVDA": {3, 0, 0},
			"META": {-1, -1, -1},
		})

		out, err := ranker.Rank(ctx, table, 4)
		require.NoError(t, err)
		require.Equal(
			t,
			"",
			cmp.Diff(
				domain.RankedSelection{
					{Symbol: "MSFT", CombinedScore: 1},
					{Symbol: "NVDA", CombinedScore: 1},
					{Symbol: "AAPL", CombinedScore: 0},
					{Symbol: "AMZN", CombinedScore: 0},
				},
				out,
			),
		)
	})

	t.Run("idempotent", func(t *testing.T) {
		table := factorTable(map[string][]float64{
			"A": {0.5, -0.2, 0.1},
			"B": {0.5, -0.2, 0.1},
			"C": {-1, 0.4, 0.3},
		})
		first, err := ranker.Rank(ctx, table, 3)
		require.NoError(t, err)
		for i := 0; i < 10; i++ {
			again, err := ranker.Rank(ctx, table, 3)
			require.NoError(t, err)
			require.Equal(t, "", cmp.Diff(first, again))
		}
		require.Equal(t, []string{"A", "B", "C"}, first.Symbols())
	})

	t.Run("top n larger than universe returns everything", func(t *testing.T) {
		table := factorTable(map[string][]float64{
			"A": {1, 1, 1},
			"B": {0, 0, 0},
		})
		out, err := ranker.Rank(ctx, table, 10)
		require.NoError(t, err)
		require.Equal(t, []string{"A", "B"}, out.Symbols())
	})

	t.Run("top n must be positive", func(t *testing.T) {
		_, err := ranker.Rank(ctx, factorTable(map[string][]float64{"A": {1, 1, 1}}), 0)
		require.Error(t, err)
	})
}
