package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"factorportfolio/internal/domain"
	"factorportfolio/internal/logger"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"
)

type AlpacaRepository interface {
	// GetDailyBars returns split and dividend adjusted daily closes.
	GetDailyBars(ctx context.Context, symbols []string, start, end time.Time) ([]domain.AssetPrice, error)
}

func NewAlpacaRepository(apiKey, apiSecret string, endpoint string) AlpacaRepository {
	mdClient := marketdata.NewClient(marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
		BaseURL:   endpoint,
	})

	return alpacaRepositoryHandler{
		MdClient: mdClient,
	}
}

type alpacaRepositoryHandler struct {
	MdClient *marketdata.Client
}

func (h alpacaRepositoryHandler) GetDailyBars(ctx context.Context, symbols []string, start, end time.Time) ([]domain.AssetPrice, error) {
	log := logger.FromContext(ctx)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results, err := h.MdClient.GetMultiBars(symbols, marketdata.GetBarsRequest{
		TimeFrame:  marketdata.OneDay,
		Adjustment: marketdata.All,
		Start:      start,
		End:        end.AddDate(0, 0, 1),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get alpaca bars for %d symbols: %w", len(symbols), err)
	}

	out := []domain.AssetPrice{}
	for _, symbol := range symbols {
		bars, ok := results[symbol]
		if !ok || len(bars) == 0 {
			log.Warnw("alpaca returned no bars", "symbol", symbol)
			continue
		}
		for _, bar := range bars {
			if bar.Close <= 0 {
				return nil, fmt.Errorf("failed to get price for %s on %s: got %f close", symbol, bar.Timestamp.Format(time.DateOnly), bar.Close)
			}
			out = append(out, domain.AssetPrice{
				Symbol: symbol,
				Price:  decimal.NewFromFloat(bar.Close),
				Date:   bar.Timestamp.UTC(),
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})

	return out, nil
}
