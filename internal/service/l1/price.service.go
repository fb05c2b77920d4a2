package l1_service

import (
	"context"
	"fmt"
	"time"

	"factorportfolio/internal/data"
	"factorportfolio/internal/domain"
	"factorportfolio/internal/logger"
)

// PriceService turns raw provider output into the aligned history the
// factor scorer expects: trimmed to the window, one entry per trading
// day, and only symbols with a complete series.
type PriceService interface {
	LoadPrices(ctx context.Context, symbols []string, start, end time.Time) (*domain.PriceHistory, error)
}

type priceServiceHandler struct {
	PriceDataSource data.PriceDataSource
}

func NewPriceService(priceDataSource data.PriceDataSource) PriceService {
	return priceServiceHandler{
		PriceDataSource: priceDataSource,
	}
}

func (h priceServiceHandler) LoadPrices(ctx context.Context, symbols []string, start, end time.Time) (*domain.PriceHistory, error) {
	log := logger.FromContext(ctx)

	if len(symbols) == 0 {
		return nil, domain.DataInsufficientError{Reason: "no symbols requested"}
	}
	if !start.Before(end) {
		return nil, fmt.Errorf("start %s must be before end %s", start.Format(time.DateOnly), end.Format(time.DateOnly))
	}

	raw, err := h.PriceDataSource.Fetch(ctx, symbols, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prices: %w", err)
	}
	history, err := dropSparseDays(ctx, raw.Between(start, end))
	if err != nil {
		return nil, err
	}
	if history.Len() == 0 {
		return nil, domain.DataInsufficientError{
			Reason: fmt.Sprintf("no prices between %s and %s", start.Format(time.DateOnly), end.Format(time.DateOnly)),
		}
	}

	kept := []string{}
	for _, symbol := range symbols {
		if _, ok := history.Series(symbol); !ok {
			log.Warnw("dropping symbol with no prices", "symbol", symbol)
			continue
		}
		if history.HasGaps(symbol) {
			log.Warnw("dropping symbol with gaps in price history", "symbol", symbol)
			continue
		}
		kept = append(kept, symbol)
	}
	if len(kept) == 0 {
		return nil, domain.EmptyUniverseError{Considered: len(symbols)}
	}

	log.Infow(
		"loaded prices",
		"symbols", len(kept),
		"dropped", len(symbols)-len(kept),
		"tradingDays", history.Len(),
	)

	return history.Restrict(kept)
}

// dropSparseDays removes dates on which fewer than half of the fetched
// symbols have a valid price, such as a holiday quoted by a single
// exchange.
func dropSparseDays(ctx context.Context, history *domain.PriceHistory) (*domain.PriceHistory, error) {
	symbols := history.Symbols()
	if len(symbols) == 0 {
		return history, nil
	}

	keep := []int{}
	for i, date := range history.Dates {
		valid := 0
		for _, symbol := range symbols {
			if domain.IsValidPrice(history.Prices[symbol][i]) {
				valid++
			}
		}
		if 2*valid < len(symbols) {
			logger.FromContext(ctx).Debugw("dropping sparse trading day", "date", date.Format(time.DateOnly), "valid", valid)
			continue
		}
		keep = append(keep, i)
	}
	if len(keep) == len(history.Dates) {
		return history, nil
	}

	dates := make([]time.Time, 0, len(keep))
	for _, i := range keep {
		dates = append(dates, history.Dates[i])
	}
	prices := map[string][]float64{}
	for _, symbol := range symbols {
		series := make([]float64, 0, len(keep))
		for _, i := range keep {
			series = append(series, history.Prices[symbol][i])
		}
		prices[symbol] = series
	}
	return domain.NewPriceHistory(dates, prices)
}
