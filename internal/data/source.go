// Package data holds the price and fundamentals collaborators that feed
// the scoring pipeline.
package data

import (
	"context"
	"time"

	"factorportfolio/internal/domain"
	"factorportfolio/internal/util"
)

type Provider string

const (
	ProviderYahoo    Provider = "yahoo"
	ProviderAlpaca   Provider = "alpaca"
	ProviderCSV      Provider = "csv"
	ProviderPostgres Provider = "postgres"
)

type PriceDataSource interface {
	// Fetch returns adjusted closes for symbols over [start, end]. Symbols
	// the provider has no data for are absent from the history.
	Fetch(ctx context.Context, symbols []string, start, end time.Time) (*domain.PriceHistory, error)
}

type FundamentalsDataSource interface {
	Fetch(ctx context.Context, symbols []string) (domain.FundamentalsTable, error)
}

// FundamentalsAsOfSource serves point-in-time fundamentals.
type FundamentalsAsOfSource interface {
	FetchAsOf(ctx context.Context, symbols []string, asOf time.Time) (domain.FundamentalsTable, error)
}

func filterWindow(prices []domain.AssetPrice, symbols []string, start, end time.Time) []domain.AssetPrice {
	wanted := map[string]bool{}
	for _, s := range symbols {
		wanted[s] = true
	}
	out := []domain.AssetPrice{}
	for _, p := range prices {
		if !wanted[p.Symbol] {
			continue
		}
		if !util.DateBetween(p.Date, start, end) {
			continue
		}
		out = append(out, p)
	}
	return out
}
