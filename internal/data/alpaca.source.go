package data

import (
	"context"
	"fmt"
	"time"

	"factorportfolio/internal/domain"
	"factorportfolio/internal/metrics"
	"factorportfolio/internal/repository"
)

type AlpacaPriceSource struct {
	AlpacaRepository repository.AlpacaRepository
}

func NewAlpacaPriceSource(alpacaRepository repository.AlpacaRepository) AlpacaPriceSource {
	return AlpacaPriceSource{AlpacaRepository: alpacaRepository}
}

func (s AlpacaPriceSource) Fetch(ctx context.Context, symbols []string, start, end time.Time) (*domain.PriceHistory, error) {
	prices, err := s.AlpacaRepository.GetDailyBars(ctx, symbols, start, end)
	if err != nil {
		metrics.RecordFetchError(string(ProviderAlpaca))
		return nil, fmt.Errorf("failed to get alpaca prices: %w", err)
	}
	return domain.NewPriceHistoryFromAssetPrices(filterWindow(prices, symbols, start, end)), nil
}
