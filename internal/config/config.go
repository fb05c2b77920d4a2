// Package config loads the immutable run configuration and hands each
// component its own slice of it.
package config

import (
	"fmt"
	"time"

	"factorportfolio/internal/backtest"
	"factorportfolio/internal/calculator"
	"factorportfolio/internal/optimizer"
)

const dateLayout = time.DateOnly

type Config struct {
	Universe  UniverseConfig  `mapstructure:"universe" validate:"required"`
	Factors   FactorsConfig   `mapstructure:"factors" validate:"required"`
	Optimizer OptimizerConfig `mapstructure:"optimizer" validate:"required"`
	Backtest  BacktestConfig  `mapstructure:"backtest" validate:"required"`
	Data      DataConfig      `mapstructure:"data" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Alpaca    AlpacaConfig    `mapstructure:"alpaca"`
	Api       ApiConfig       `mapstructure:"api"`
	Report    ReportConfig    `mapstructure:"report"`
	Batch     BatchConfig     `mapstructure:"batch"`
}

type UniverseConfig struct {
	Symbols   []string `mapstructure:"symbols" validate:"required,min=1,dive,required"`
	StartDate string   `mapstructure:"start_date" validate:"required,date"`
	EndDate   string   `mapstructure:"end_date" validate:"required,date"`
	// FormationEnd splits the window: factors are scored on prices up to
	// it and the backtest runs on the rest. Empty scores on the whole
	// window.
	FormationEnd string `mapstructure:"formation_end" validate:"omitempty,date"`
}

type FactorsConfig struct {
	LookbackWindow int `mapstructure:"lookback_window" validate:"gt=0"`
	TopN           int `mapstructure:"top_n" validate:"gt=0"`
}

type OptimizerConfig struct {
	MinWeight     float64       `mapstructure:"min_weight" validate:"gte=0,lte=1"`
	MaxWeight     float64       `mapstructure:"max_weight" validate:"gte=0,lte=1"`
	RiskAversion  float64       `mapstructure:"risk_aversion" validate:"gte=0"`
	SolveTimeout  time.Duration `mapstructure:"solve_timeout" validate:"gte=0"`
	Solver        string        `mapstructure:"solver" validate:"oneof=projected_gradient nelder_mead"`
	MaxIterations int           `mapstructure:"max_iterations" validate:"gte=0"`
	Tolerance     float64       `mapstructure:"tolerance" validate:"gte=0"`
	// Covariance is "identity" or "estimated" (sample covariance of the
	// trailing CovarianceLookback returns).
	Covariance         string `mapstructure:"covariance" validate:"oneof=identity estimated"`
	CovarianceLookback int    `mapstructure:"covariance_lookback" validate:"gte=0"`
}

type BacktestConfig struct {
	Frequency    string   `mapstructure:"frequency" validate:"frequency"`
	Dates        []string `mapstructure:"dates" validate:"dive,date"`
	Strategy     string   `mapstructure:"strategy" validate:"strategy"`
	RiskFreeRate float64  `mapstructure:"risk_free_rate"`
	// RiskFreeRateSource "treasury" replaces RiskFreeRate with the three
	// month yield on the first backtest day.
	RiskFreeRateSource string `mapstructure:"risk_free_rate_source" validate:"oneof=fixed treasury"`
}

type DataConfig struct {
	PriceProvider        string        `mapstructure:"price_provider" validate:"oneof=yahoo alpaca csv postgres"`
	FundamentalsProvider string        `mapstructure:"fundamentals_provider" validate:"oneof=yahoo csv postgres"`
	PricesCSV            string        `mapstructure:"prices_csv" validate:"required_if=PriceProvider csv"`
	FundamentalsCSV      string        `mapstructure:"fundamentals_csv" validate:"required_if=FundamentalsProvider csv"`
	CacheTTL             time.Duration `mapstructure:"cache_ttl" validate:"gte=0"`
	RateLimit            float64       `mapstructure:"rate_limit" validate:"gt=0"`
	Workers              int           `mapstructure:"workers" validate:"gt=0"`
}

type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host" validate:"required_if=Enabled true"`
	Port     int    `mapstructure:"port" validate:"min=0,max=65535"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name" validate:"required_if=Enabled true"`
	SSLMode  string `mapstructure:"ssl_mode" validate:"oneof=disable require verify-full"`
}

func (d DatabaseConfig) ToConnectionStr() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

type AlpacaConfig struct {
	ApiKey    string `mapstructure:"api_key"`
	ApiSecret string `mapstructure:"api_secret"`
	BaseURL   string `mapstructure:"base_url" validate:"omitempty,url"`
}

type ApiConfig struct {
	Port        int    `mapstructure:"port" validate:"min=1,max=65535"`
	AuthEnabled bool   `mapstructure:"auth_enabled"`
	JwtSecret   string `mapstructure:"jwt_secret" validate:"required_if=AuthEnabled true"`
}

type ReportConfig struct {
	CSVPath string `mapstructure:"csv_path"`
	// EmailTo enables the SES summary email.
	EmailTo   []string `mapstructure:"email_to" validate:"dive,email"`
	EmailFrom string   `mapstructure:"email_from" validate:"omitempty,email"`
	SESRegion string   `mapstructure:"ses_region"`
}

type BatchConfig struct {
	Workers int `mapstructure:"workers" validate:"gt=0"`
}

// Default mirrors the original research notebook: ten large caps over
// 2020-2024, a six month lookback, top five names.
func Default() *Config {
	return &Config{
		Universe: UniverseConfig{
			Symbols:   []string{"AAPL", "MSFT", "GOOGL", "AMZN", "META", "TSLA", "JPM", "V", "JNJ", "NVDA"},
			StartDate: "2020-01-01",
			EndDate:   "2024-12-31",
		},
		Factors: FactorsConfig{
			LookbackWindow: 126,
			TopN:           5,
		},
		Optimizer: OptimizerConfig{
			MinWeight:          0.0,
			MaxWeight:          0.3,
			RiskAversion:       0.1,
			SolveTimeout:       10 * time.Second,
			Solver:             "projected_gradient",
			Covariance:         "identity",
			CovarianceLookback: 126,
		},
		Backtest: BacktestConfig{
			Frequency:          string(backtest.FrequencyMonthly),
			Strategy:           string(backtest.StrategyStaticDailyRebalance),
			RiskFreeRateSource: "fixed",
		},
		Data: DataConfig{
			PriceProvider:        "yahoo",
			FundamentalsProvider: "yahoo",
			CacheTTL:             15 * time.Minute,
			RateLimit:            5,
			Workers:              4,
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			User:    "postgres",
			Name:    "postgres",
			SSLMode: "disable",
		},
		Alpaca: AlpacaConfig{
			BaseURL: "https://data.alpaca.markets",
		},
		Api: ApiConfig{
			Port: 3009,
		},
		Report: ReportConfig{
			SESRegion: "us-east-1",
		},
		Batch: BatchConfig{
			Workers: 4,
		},
	}
}

// Window returns the start, end and optional formation end dates.
func (c Config) Window() (time.Time, time.Time, *time.Time, error) {
	start, err := time.Parse(dateLayout, c.Universe.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, nil, fmt.Errorf("invalid start_date: %w", err)
	}
	end, err := time.Parse(dateLayout, c.Universe.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, nil, fmt.Errorf("invalid end_date: %w", err)
	}
	if c.Universe.FormationEnd == "" {
		return start, end, nil, nil
	}
	formationEnd, err := time.Parse(dateLayout, c.Universe.FormationEnd)
	if err != nil {
		return time.Time{}, time.Time{}, nil, fmt.Errorf("invalid formation_end: %w", err)
	}
	return start, end, &formationEnd, nil
}

func (c Config) FactorScorerConfig() calculator.FactorScorerConfig {
	return calculator.FactorScorerConfig{
		LookbackWindow: c.Factors.LookbackWindow,
	}
}

func (c Config) PortfolioOptimizerConfig() optimizer.Config {
	return optimizer.Config{
		MinWeight:    c.Optimizer.MinWeight,
		MaxWeight:    c.Optimizer.MaxWeight,
		RiskAversion: c.Optimizer.RiskAversion,
		SolveTimeout: c.Optimizer.SolveTimeout,
	}
}

func (c Config) QuadraticProgramSolver() optimizer.QuadraticProgramSolver {
	if c.Optimizer.Solver == "nelder_mead" {
		return optimizer.NewNelderMeadSolver(c.Optimizer.MaxIterations, c.Optimizer.Tolerance)
	}
	return optimizer.NewProjectedGradientSolver(c.Optimizer.MaxIterations, c.Optimizer.Tolerance)
}

func (c Config) Schedule() (backtest.Schedule, error) {
	frequency, err := backtest.ParseFrequency(c.Backtest.Frequency)
	if err != nil {
		return backtest.Schedule{}, err
	}
	if frequency != backtest.FrequencyExplicit {
		return backtest.Schedule{Frequency: frequency}, nil
	}
	dates := make([]time.Time, 0, len(c.Backtest.Dates))
	for _, d := range c.Backtest.Dates {
		parsed, err := time.Parse(dateLayout, d)
		if err != nil {
			return backtest.Schedule{}, fmt.Errorf("invalid rebalance date %q: %w", d, err)
		}
		dates = append(dates, parsed)
	}
	schedule := backtest.ExplicitSchedule(dates)
	if err := schedule.Validate(); err != nil {
		return backtest.Schedule{}, err
	}
	return schedule, nil
}

func (c Config) BacktestStrategy() backtest.Strategy {
	strategy, err := backtest.ParseStrategy(c.Backtest.Strategy)
	if err != nil {
		return backtest.StrategyStaticDailyRebalance
	}
	return strategy
}
