package l1_service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"factorportfolio/internal/data"
	"factorportfolio/internal/domain"
	"factorportfolio/internal/logger"
	"factorportfolio/internal/repository"

	"github.com/shopspring/decimal"
)

// IngestService copies provider data into postgres so later runs can use
// the postgres sources.
type IngestService interface {
	IngestPrices(ctx context.Context, tx *sql.Tx, symbols []string, start, end time.Time) (int, error)
	IngestFundamentals(ctx context.Context, tx *sql.Tx, symbols []string, asOf time.Time) (int, error)
}

type ingestServiceHandler struct {
	PriceDataSource             data.PriceDataSource
	FundamentalsDataSource      data.FundamentalsDataSource
	AdjPriceRepository          repository.AdjustedPriceRepository
	AssetFundamentalsRepository repository.AssetFundamentalsRepository
}

func NewIngestService(
	priceDataSource data.PriceDataSource,
	fundamentalsDataSource data.FundamentalsDataSource,
	adjPriceRepository repository.AdjustedPriceRepository,
	afRepository repository.AssetFundamentalsRepository,
) IngestService {
	return ingestServiceHandler{
		PriceDataSource:             priceDataSource,
		FundamentalsDataSource:      fundamentalsDataSource,
		AdjPriceRepository:          adjPriceRepository,
		AssetFundamentalsRepository: afRepository,
	}
}

func (h ingestServiceHandler) IngestPrices(ctx context.Context, tx *sql.Tx, symbols []string, start, end time.Time) (int, error) {
	history, err := h.PriceDataSource.Fetch(ctx, symbols, start, end)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch prices: %w", err)
	}

	prices := []domain.AssetPrice{}
	for _, symbol := range history.Symbols() {
		series, _ := history.Series(symbol)
		for i, v := range series {
			if !domain.IsValidPrice(v) {
				continue
			}
			prices = append(prices, domain.AssetPrice{
				Symbol: symbol,
				Price:  decimal.NewFromFloat(v),
				Date:   history.Dates[i],
			})
		}
	}
	if len(prices) == 0 {
		return 0, domain.DataInsufficientError{Reason: "provider returned no prices"}
	}

	if err := h.AdjPriceRepository.Add(tx, prices); err != nil {
		return 0, fmt.Errorf("failed to add adjusted prices: %w", err)
	}

	logger.FromContext(ctx).Infow("ingested prices", "symbols", len(history.Symbols()), "rows", len(prices))
	return len(prices), nil
}

func (h ingestServiceHandler) IngestFundamentals(ctx context.Context, tx *sql.Tx, symbols []string, asOf time.Time) (int, error) {
	fundamentals, err := h.FundamentalsDataSource.Fetch(ctx, symbols)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch fundamentals: %w", err)
	}
	if len(fundamentals) == 0 {
		return 0, domain.DataInsufficientError{Reason: "provider returned no fundamentals"}
	}

	if err := h.AssetFundamentalsRepository.Add(tx, asOf, fundamentals); err != nil {
		return 0, fmt.Errorf("failed to add asset fundamentals: %w", err)
	}

	logger.FromContext(ctx).Infow("ingested fundamentals", "symbols", len(fundamentals), "asOf", asOf.Format(time.DateOnly))
	return len(fundamentals), nil
}
