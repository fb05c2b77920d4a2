package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "FACTORPORTFOLIO"

// Load builds the configuration from defaults, an optional YAML file
// (with ${VAR} expansion) and FACTORPORTFOLIO_* environment variables,
// in increasing precedence. A .env file in the working directory is
// loaded first when present.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v, Default())

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		expanded := os.ExpandEnv(string(data))
		if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("universe.symbols", d.Universe.Symbols)
	v.SetDefault("universe.start_date", d.Universe.StartDate)
	v.SetDefault("universe.end_date", d.Universe.EndDate)
	v.SetDefault("universe.formation_end", d.Universe.FormationEnd)

	v.SetDefault("factors.lookback_window", d.Factors.LookbackWindow)
	v.SetDefault("factors.top_n", d.Factors.TopN)

	v.SetDefault("optimizer.min_weight", d.Optimizer.MinWeight)
	v.SetDefault("optimizer.max_weight", d.Optimizer.MaxWeight)
	v.SetDefault("optimizer.risk_aversion", d.Optimizer.RiskAversion)
	v.SetDefault("optimizer.solve_timeout", d.Optimizer.SolveTimeout)
	v.SetDefault("optimizer.solver", d.Optimizer.Solver)
	v.SetDefault("optimizer.max_iterations", d.Optimizer.MaxIterations)
	v.SetDefault("optimizer.tolerance", d.Optimizer.Tolerance)
	v.SetDefault("optimizer.covariance", d.Optimizer.Covariance)
	v.SetDefault("optimizer.covariance_lookback", d.Optimizer.CovarianceLookback)

	v.SetDefault("backtest.frequency", d.Backtest.Frequency)
	v.SetDefault("backtest.dates", d.Backtest.Dates)
	v.SetDefault("backtest.strategy", d.Backtest.Strategy)
	v.SetDefault("backtest.risk_free_rate", d.Backtest.RiskFreeRate)
	v.SetDefault("backtest.risk_free_rate_source", d.Backtest.RiskFreeRateSource)

	v.SetDefault("data.price_provider", d.Data.PriceProvider)
	v.SetDefault("data.fundamentals_provider", d.Data.FundamentalsProvider)
	v.SetDefault("data.prices_csv", d.Data.PricesCSV)
	v.SetDefault("data.fundamentals_csv", d.Data.FundamentalsCSV)
	v.SetDefault("data.cache_ttl", d.Data.CacheTTL)
	v.SetDefault("data.rate_limit", d.Data.RateLimit)
	v.SetDefault("data.workers", d.Data.Workers)

	v.SetDefault("database.enabled", d.Database.Enabled)
	v.SetDefault("database.host", d.Database.Host)
	v.SetDefault("database.port", d.Database.Port)
	v.SetDefault("database.user", d.Database.User)
	v.SetDefault("database.password", d.Database.Password)
	v.SetDefault("database.name", d.Database.Name)
	v.SetDefault("database.ssl_mode", d.Database.SSLMode)

	v.SetDefault("alpaca.api_key", d.Alpaca.ApiKey)
	v.SetDefault("alpaca.api_secret", d.Alpaca.ApiSecret)
	v.SetDefault("alpaca.base_url", d.Alpaca.BaseURL)

	v.SetDefault("api.port", d.Api.Port)
	v.SetDefault("api.auth_enabled", d.Api.AuthEnabled)
	v.SetDefault("api.jwt_secret", d.Api.JwtSecret)

	v.SetDefault("report.csv_path", d.Report.CSVPath)
	v.SetDefault("report.email_to", d.Report.EmailTo)
	v.SetDefault("report.email_from", d.Report.EmailFrom)
	v.SetDefault("report.ses_region", d.Report.SESRegion)

	v.SetDefault("batch.workers", d.Batch.Workers)
}
