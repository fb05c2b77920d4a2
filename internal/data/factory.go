package data

import (
	"database/sql"
	"fmt"

	"factorportfolio/internal/config"
	"factorportfolio/internal/repository"
)

func NewPriceDataSource(cfg config.Config, db *sql.DB) (PriceDataSource, error) {
	var source PriceDataSource
	switch Provider(cfg.Data.PriceProvider) {
	case ProviderYahoo:
		source = NewYahooPriceSource(cfg.Data.RateLimit, cfg.Data.Workers)
	case ProviderAlpaca:
		source = NewAlpacaPriceSource(repository.NewAlpacaRepository(
			cfg.Alpaca.ApiKey,
			cfg.Alpaca.ApiSecret,
			cfg.Alpaca.BaseURL,
		))
	case ProviderCSV:
		source = NewCSVPriceSource(cfg.Data.PricesCSV)
	case ProviderPostgres:
		if db == nil {
			return nil, fmt.Errorf("price provider postgres requires database.enabled")
		}
		source = NewPostgresPriceSource(repository.NewAdjustedPriceRepository(db))
	default:
		return nil, fmt.Errorf("unknown price provider %q", cfg.Data.PriceProvider)
	}

	if cfg.Data.CacheTTL > 0 {
		source = NewCachedPriceSource(source, cfg.Data.CacheTTL)
	}
	return source, nil
}

func NewFundamentalsDataSource(cfg config.Config, db *sql.DB) (FundamentalsDataSource, error) {
	switch Provider(cfg.Data.FundamentalsProvider) {
	case ProviderYahoo:
		return NewYahooFundamentalsSource(cfg.Data.RateLimit, cfg.Data.Workers), nil
	case ProviderCSV:
		return NewCSVFundamentalsSource(cfg.Data.FundamentalsCSV), nil
	case ProviderPostgres:
		if db == nil {
			return nil, fmt.Errorf("fundamentals provider postgres requires database.enabled")
		}
		return NewPostgresFundamentalsSource(repository.NewAssetFundamentalsRepository(db)), nil
	default:
		return nil, fmt.Errorf("unknown fundamentals provider %q", cfg.Data.FundamentalsProvider)
	}
}
