package domain

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestNewPriceHistoryFromAssetPrices(t *testing.T) {
	t.Run("pivots and marks gaps", func(t *testing.T) {
		history := NewPriceHistoryFromAssetPrices([]AssetPrice{
			{Symbol: "AAPL", Price: decimal.NewFromInt(101), Date: date(2020, 1, 3)},
			{Symbol: "AAPL", Price: decimal.NewFromInt(100), Date: date(2020, 1, 2)},
			{Symbol: "MSFT", Price: decimal.NewFromInt(200), Date: date(2020, 1, 2)},
		})

		require.Equal(t, "", cmp.Diff([]time.Time{date(2020, 1, 2), date(2020, 1, 3)}, history.Dates))
		require.Equal(t, []string{"AAPL", "MSFT"}, history.Symbols())
		require.Equal(t, []float64{100, 101}, history.Prices["AAPL"])
		require.Equal(t, 200.0, history.Prices["MSFT"][0])
		require.True(t, math.IsNaN(history.Prices["MSFT"][1]))
		require.False(t, history.HasGaps("AAPL"))
		require.True(t, history.HasGaps("MSFT"))
	})
}

func TestNewPriceHistory(t *testing.T) {
	t.Run("rejects non increasing dates", func(t *testing.T) {
		_, err := NewPriceHistory(
			[]time.Time{date(2020, 1, 2), date(2020, 1, 2)},
			map[string][]float64{"A": {1, 2}},
		)
		require.Error(t, err)
	})
	t.Run("rejects misaligned series", func(t *testing.T) {
		_, err := NewPriceHistory(
			[]time.Time{date(2020, 1, 2), date(2020, 1, 3)},
			map[string][]float64{"A": {1}},
		)
		require.Error(t, err)
	})
}

func TestPriceHistory_Restrict(t *testing.T) {
	history, err := NewPriceHistory(
		[]time.Time{date(2020, 1, 2), date(2020, 1, 3)},
		map[string][]float64{"A": {1, 2}, "B": {3, 4}},
	)
	require.NoError(t, err)

	t.Run("keeps requested symbols", func(t *testing.T) {
		out, err := history.Restrict([]string{"B"})
		require.NoError(t, err)
		require.Equal(t, []string{"B"}, out.Symbols())
	})
	t.Run("missing symbol is insufficient data", func(t *testing.T) {
		_, err := history.Restrict([]string{"C"})
		var dataErr DataInsufficientError
		require.True(t, errors.As(err, &dataErr))
		require.Equal(t, "C", dataErr.Symbol)
	})
}

func TestPriceHistory_Between(t *testing.T) {
	history, err := NewPriceHistory(
		[]time.Time{date(2020, 1, 2), date(2020, 1, 3), date(2020, 1, 6)},
		map[string][]float64{"A": {1, 2, 3}},
	)
	require.NoError(t, err)

	out := history.Between(date(2020, 1, 3), date(2020, 1, 10))
	require.Equal(t, "", cmp.Diff([]time.Time{date(2020, 1, 3), date(2020, 1, 6)}, out.Dates))
	require.Equal(t, []float64{2, 3}, out.Prices["A"])

	empty := history.Between(date(2021, 1, 1), date(2021, 2, 1))
	require.Equal(t, 0, empty.Len())
}

func TestEmptyUniverseError(t *testing.T) {
	var err error = EmptyUniverseError{Considered: 3}

	var emptyErr EmptyUniverseError
	require.True(t, errors.As(err, &emptyErr))
	var dataErr DataInsufficientError
	require.True(t, errors.As(err, &dataErr))
}
