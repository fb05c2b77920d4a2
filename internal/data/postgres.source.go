package data

import (
	"context"
	"fmt"
	"time"

	"factorportfolio/internal/domain"
	"factorportfolio/internal/metrics"
	"factorportfolio/internal/repository"
)

// PostgresPriceSource serves prices previously ingested into the
// adjusted_price table.
type PostgresPriceSource struct {
	AdjustedPriceRepository repository.AdjustedPriceRepository
}

func NewPostgresPriceSource(adjPriceRepository repository.AdjustedPriceRepository) PostgresPriceSource {
	return PostgresPriceSource{AdjustedPriceRepository: adjPriceRepository}
}

func (s PostgresPriceSource) Fetch(ctx context.Context, symbols []string, start, end time.Time) (*domain.PriceHistory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prices, err := s.AdjustedPriceRepository.List(nil, symbols, start, end)
	if err != nil {
		metrics.RecordFetchError(string(ProviderPostgres))
		return nil, fmt.Errorf("failed to list adjusted prices: %w", err)
	}
	return domain.NewPriceHistoryFromAssetPrices(prices), nil
}

type PostgresFundamentalsSource struct {
	AssetFundamentalsRepository repository.AssetFundamentalsRepository
	now                         func() time.Time
}

func NewPostgresFundamentalsSource(afRepository repository.AssetFundamentalsRepository) PostgresFundamentalsSource {
	return PostgresFundamentalsSource{
		AssetFundamentalsRepository: afRepository,
		now:                         time.Now,
	}
}

// Fetch returns the latest stored record of each symbol.
func (s PostgresFundamentalsSource) Fetch(ctx context.Context, symbols []string) (domain.FundamentalsTable, error) {
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	return s.FetchAsOf(ctx, symbols, now().UTC())
}

func (s PostgresFundamentalsSource) FetchAsOf(ctx context.Context, symbols []string, asOf time.Time) (domain.FundamentalsTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := s.AssetFundamentalsRepository.Latest(nil, symbols, asOf)
	if err != nil {
		metrics.RecordFetchError(string(ProviderPostgres))
		return nil, fmt.Errorf("failed to get fundamentals as of %s: %w", asOf.Format(time.DateOnly), err)
	}
	return out, nil
}
