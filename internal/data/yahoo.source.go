package data

import (
	"context"
	"fmt"
	"sync"
	"time"

	"factorportfolio/internal/domain"
	"factorportfolio/internal/logger"
	"factorportfolio/internal/metrics"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/equity"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

type barsFunc func(symbol string, start, end time.Time) ([]domain.AssetPrice, error)

type equityFunc func(symbol string) (domain.Fundamentals, error)

// YahooPriceSource pulls daily adjusted closes per symbol from Yahoo
// Finance. Symbols that fail are logged and left out of the history.
type YahooPriceSource struct {
	Limiter *rate.Limiter
	Workers int

	getBars barsFunc
}

func NewYahooPriceSource(requestsPerSecond float64, workers int) *YahooPriceSource {
	return &YahooPriceSource{
		Limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		Workers: workers,
		getBars: getYahooBars,
	}
}

func getYahooBars(symbol string, start, end time.Time) ([]domain.AssetPrice, error) {
	// chart end is exclusive
	inclusiveEnd := end.AddDate(0, 0, 1)
	params := &chart.Params{
		Start:    datetime.New(&start),
		End:      datetime.New(&inclusiveEnd),
		Symbol:   symbol,
		Interval: datetime.OneDay,
	}
	iter := chart.Get(params)

	out := []domain.AssetPrice{}
	for iter.Next() {
		bar := iter.Bar()
		if bar.AdjClose.LessThanOrEqual(decimal.Zero) {
			continue
		}
		out = append(out, domain.AssetPrice{
			Symbol: symbol,
			Price:  bar.AdjClose,
			Date:   time.Unix(int64(bar.Timestamp), 0).UTC(),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to get prices for %s: %w", symbol, err)
	}
	return out, nil
}

func (s *YahooPriceSource) Fetch(ctx context.Context, symbols []string, start, end time.Time) (*domain.PriceHistory, error) {
	log := logger.FromContext(ctx)

	var mu sync.Mutex
	prices := []domain.AssetPrice{}
	failed := 0

	err := forEachSymbol(ctx, symbols, s.Workers, s.Limiter, func(symbol string) {
		bars, err := s.getBars(symbol, start, end)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			failed++
			metrics.RecordFetchError(string(ProviderYahoo))
			log.Warnw("dropping symbol with failed price fetch", "symbol", symbol, "error", err)
			return
		}
		prices = append(prices, bars...)
	})
	if err != nil {
		return nil, err
	}
	if len(symbols) > 0 && failed == len(symbols) {
		return nil, fmt.Errorf("failed to get yahoo prices for all %d symbols", failed)
	}

	return domain.NewPriceHistoryFromAssetPrices(filterWindow(prices, symbols, start, end)), nil
}

// YahooFundamentalsSource reads the current quote snapshot of each
// symbol. Yahoo only serves the latest values, so there is no as-of date.
type YahooFundamentalsSource struct {
	Limiter *rate.Limiter
	Workers int

	getEquity equityFunc
}

func NewYahooFundamentalsSource(requestsPerSecond float64, workers int) *YahooFundamentalsSource {
	return &YahooFundamentalsSource{
		Limiter:   rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		Workers:   workers,
		getEquity: getYahooEquity,
	}
}

func positiveOrNil(v float64) *float64 {
	if v <= 0 {
		return nil
	}
	return &v
}

func getYahooEquity(symbol string) (domain.Fundamentals, error) {
	q, err := equity.Get(symbol)
	if err != nil {
		return domain.Fundamentals{}, fmt.Errorf("failed to get quote for %s: %w", symbol, err)
	}
	if q == nil {
		return domain.Fundamentals{}, fmt.Errorf("no quote returned for %s", symbol)
	}
	return domain.Fundamentals{
		MarketCap:     positiveOrNil(float64(q.MarketCap)),
		TrailingPE:    positiveOrNil(q.TrailingPE),
		PriceToBook:   positiveOrNil(q.PriceToBook),
		DividendYield: positiveOrNil(q.TrailingAnnualDividendYield),
	}, nil
}

func (s *YahooFundamentalsSource) Fetch(ctx context.Context, symbols []string) (domain.FundamentalsTable, error) {
	log := logger.FromContext(ctx)

	var mu sync.Mutex
	out := domain.FundamentalsTable{}

	err := forEachSymbol(ctx, symbols, s.Workers, s.Limiter, func(symbol string) {
		f, err := s.getEquity(symbol)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			metrics.RecordFetchError(string(ProviderYahoo))
			log.Warnw("missing fundamentals", "symbol", symbol, "error", err)
			return
		}
		out[symbol] = f
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// forEachSymbol runs fn for every symbol with at most workers in flight,
// waiting on limiter before each call. Only context errors abort.
func forEachSymbol(ctx context.Context, symbols []string, workers int, limiter *rate.Limiter, fn func(symbol string)) error {
	if workers <= 0 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, symbol := range symbols {
		symbol := symbol
		g.Go(func() error {
			if limiter != nil {
				if err := limiter.Wait(gctx); err != nil {
					return fmt.Errorf("failed to wait for rate limiter: %w", err)
				}
			}
			fn(symbol)
			return nil
		})
	}
	return g.Wait()
}
