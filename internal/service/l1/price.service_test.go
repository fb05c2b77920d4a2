package l1_service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	mock_data "factorportfolio/internal/data/mocks"
	"factorportfolio/internal/domain"
	mock_repository "factorportfolio/internal/repository/mocks"
	"factorportfolio/internal/util"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newHistory(t *testing.T, dates []time.Time, prices map[string][]float64) *domain.PriceHistory {
	t.Helper()
	h, err := domain.NewPriceHistory(dates, prices)
	require.NoError(t, err)
	return h
}

func Test_priceServiceHandler_LoadPrices(t *testing.T) {
	ctx := context.Background()
	d := []time.Time{
		util.NewDate(2023, 12, 29),
		util.NewDate(2024, 1, 2),
		util.NewDate(2024, 1, 3),
		util.NewDate(2024, 1, 4),
	}
	start := util.NewDate(2024, 1, 1)
	end := util.NewDate(2024, 1, 31)
	nan := math.NaN()

	t.Run("trims window and drops gapped symbols", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		source := mock_data.NewMockPriceDataSource(ctrl)
		source.EXPECT().Fetch(ctx, []string{"AAPL", "MSFT", "TSLA", "NVDA"}, start, end).Return(newHistory(t, d, map[string][]float64{
			"AAPL": {190, 185, 184, 181},
			"MSFT": {375, 370, 370, 367},
			"TSLA": {248, 248, nan, 237},
		}), nil)

		history, err := NewPriceService(source).LoadPrices(ctx, []string{"AAPL", "MSFT", "TSLA", "NVDA"}, start, end)
		require.NoError(t, err)
		require.Equal(t, []string{"AAPL", "MSFT"}, history.Symbols())
		require.Equal(t, "", cmp.Diff(d[1:], history.Dates))
		require.Equal(t, []float64{185, 184, 181}, history.Prices["AAPL"])
	})

	t.Run("drops sparse days", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		source := mock_data.NewMockPriceDataSource(ctrl)
		source.EXPECT().Fetch(ctx, gomock.Any(), start, end).Return(newHistory(t, d[1:], map[string][]float64{
			"AAPL": {185, 184, 181},
			"MSFT": {370, nan, 367},
			"JPM":  {170, nan, 171},
		}), nil)

		history, err := NewPriceService(source).LoadPrices(ctx, []string{"AAPL", "MSFT", "JPM"}, start, end)
		require.NoError(t, err)
		require.Equal(t, []string{"AAPL", "JPM", "MSFT"}, history.Symbols())
		require.Equal(t, []time.Time{d[1], d[3]}, history.Dates)
	})

	t.Run("every symbol dropped", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		source := mock_data.NewMockPriceDataSource(ctrl)
		source.EXPECT().Fetch(ctx, gomock.Any(), start, end).Return(newHistory(t, d[1:3], map[string][]float64{
			"AAPL": {185, 184},
		}), nil)

		_, err := NewPriceService(source).LoadPrices(ctx, []string{"NVDA"}, start, end)
		var emptyErr domain.EmptyUniverseError
		require.ErrorAs(t, err, &emptyErr)
		require.Equal(t, 1, emptyErr.Considered)
	})

	t.Run("nothing in window", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		source := mock_data.NewMockPriceDataSource(ctrl)
		source.EXPECT().Fetch(ctx, gomock.Any(), start, end).Return(newHistory(t, d[:1], map[string][]float64{
			"AAPL": {190},
		}), nil)

		_, err := NewPriceService(source).LoadPrices(ctx, []string{"AAPL"}, start, end)
		var dataErr domain.DataInsufficientError
		require.ErrorAs(t, err, &dataErr)
	})

	t.Run("source error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		source := mock_data.NewMockPriceDataSource(ctrl)
		source.EXPECT().Fetch(ctx, gomock.Any(), start, end).Return(nil, errors.New("rate limited"))

		_, err := NewPriceService(source).LoadPrices(ctx, []string{"AAPL"}, start, end)
		require.ErrorContains(t, err, "rate limited")
	})

	t.Run("invalid window", func(t *testing.T) {
		_, err := NewPriceService(nil).LoadPrices(ctx, []string{"AAPL"}, end, start)
		require.Error(t, err)
	})
}

func Test_ingestServiceHandler(t *testing.T) {
	ctx := context.Background()
	start := util.NewDate(2024, 1, 2)
	end := util.NewDate(2024, 1, 3)

	t.Run("prices skip gaps", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		source := mock_data.NewMockPriceDataSource(ctrl)
		adjPriceRepository := mock_repository.NewMockAdjustedPriceRepository(ctrl)

		source.EXPECT().Fetch(ctx, []string{"AAPL", "MSFT"}, start, end).Return(newHistory(t, []time.Time{start, end}, map[string][]float64{
			"AAPL": {185.5, 184},
			"MSFT": {370, math.NaN()},
		}), nil)
		adjPriceRepository.EXPECT().Add(nil, gomock.Any()).DoAndReturn(func(_ any, prices []domain.AssetPrice) error {
			require.Len(t, prices, 3)
			require.Equal(t, "AAPL", prices[0].Symbol)
			require.True(t, decimal.NewFromFloat(185.5).Equal(prices[0].Price))
			require.Equal(t, "MSFT", prices[2].Symbol)
			return nil
		})

		h := NewIngestService(source, nil, adjPriceRepository, nil)
		n, err := h.IngestPrices(ctx, nil, []string{"AAPL", "MSFT"}, start, end)
		require.NoError(t, err)
		require.Equal(t, 3, n)
	})

	t.Run("fundamentals", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		source := mock_data.NewMockFundamentalsDataSource(ctrl)
		afRepository := mock_repository.NewMockAssetFundamentalsRepository(ctrl)
		pe := 30.0
		table := domain.FundamentalsTable{"AAPL": {TrailingPE: &pe}}

		source.EXPECT().Fetch(ctx, []string{"AAPL"}).Return(table, nil)
		afRepository.EXPECT().Add(nil, end, table).Return(nil)

		h := NewIngestService(nil, source, nil, afRepository)
		n, err := h.IngestFundamentals(ctx, nil, []string{"AAPL"}, end)
		require.NoError(t, err)
		require.Equal(t, 1, n)
	})

	t.Run("empty fundamentals", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		source := mock_data.NewMockFundamentalsDataSource(ctrl)
		source.EXPECT().Fetch(ctx, gomock.Any()).Return(domain.FundamentalsTable{}, nil)

		h := NewIngestService(nil, source, nil, nil)
		_, err := h.IngestFundamentals(ctx, nil, []string{"AAPL"}, end)
		require.Error(t, err)
	})
}
