package data

import (
	"context"
	"fmt"
	"os"
	"time"

	"factorportfolio/internal/domain"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

type priceRow struct {
	Date   string `csv:"date"`
	Symbol string `csv:"symbol"`
	Price  string `csv:"adj_close"`
}

type fundamentalsRow struct {
	Symbol        string   `csv:"symbol"`
	MarketCap     *float64 `csv:"market_cap,omitempty"`
	TrailingPE    *float64 `csv:"trailing_pe,omitempty"`
	PriceToBook   *float64 `csv:"price_to_book,omitempty"`
	DividendYield *float64 `csv:"dividend_yield,omitempty"`
}

// CSVPriceSource reads long-form date,symbol,adj_close rows.
type CSVPriceSource struct {
	Path string
}

func NewCSVPriceSource(path string) CSVPriceSource {
	return CSVPriceSource{Path: path}
}

func (s CSVPriceSource) Fetch(ctx context.Context, symbols []string, start, end time.Time) (*domain.PriceHistory, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open prices csv: %w", err)
	}
	defer f.Close()

	rows := []priceRow{}
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse prices csv %s: %w", s.Path, err)
	}

	prices := make([]domain.AssetPrice, 0, len(rows))
	for i, r := range rows {
		date, err := time.Parse(time.DateOnly, r.Date)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q on row %d of %s: %w", r.Date, i+2, s.Path, err)
		}
		price, err := decimal.NewFromString(r.Price)
		if err != nil {
			return nil, fmt.Errorf("invalid price %q on row %d of %s: %w", r.Price, i+2, s.Path, err)
		}
		prices = append(prices, domain.AssetPrice{
			Symbol: r.Symbol,
			Price:  price,
			Date:   date,
		})
	}

	return domain.NewPriceHistoryFromAssetPrices(filterWindow(prices, symbols, start, end)), nil
}

// CSVFundamentalsSource reads one row per symbol; empty cells are missing
// values.
type CSVFundamentalsSource struct {
	Path string
}

func NewCSVFundamentalsSource(path string) CSVFundamentalsSource {
	return CSVFundamentalsSource{Path: path}
}

func (s CSVFundamentalsSource) Fetch(ctx context.Context, symbols []string) (domain.FundamentalsTable, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fundamentals csv: %w", err)
	}
	defer f.Close()

	rows := []fundamentalsRow{}
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse fundamentals csv %s: %w", s.Path, err)
	}

	wanted := map[string]bool{}
	for _, symbol := range symbols {
		wanted[symbol] = true
	}

	out := domain.FundamentalsTable{}
	for _, r := range rows {
		if !wanted[r.Symbol] {
			continue
		}
		out[r.Symbol] = domain.Fundamentals{
			MarketCap:     r.MarketCap,
			TrailingPE:    r.TrailingPE,
			PriceToBook:   r.PriceToBook,
			DividendYield: r.DividendYield,
		}
	}
	return out, nil
}
