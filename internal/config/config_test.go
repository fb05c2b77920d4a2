package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"factorportfolio/internal/backtest"
	"factorportfolio/internal/optimizer"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		defaults := Default()
		require.Equal(t, defaults.Universe, cfg.Universe)
		require.Equal(t, "", cmp.Diff(defaults.Factors, cfg.Factors))
		require.Equal(t, "", cmp.Diff(defaults.Optimizer, cfg.Optimizer))
		require.Equal(t, "", cmp.Diff(defaults.Data, cfg.Data))
		require.Equal(t, defaults.Backtest.Frequency, cfg.Backtest.Frequency)
		require.Empty(t, cfg.Backtest.Dates)
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		t.Setenv("TEST_JWT_SECRET", "expanded-secret")
		path := writeConfig(t, `
universe:
  symbols: [AAPL, MSFT, NVDA]
  formation_end: "2022-12-30"
optimizer:
  max_weight: 0.5
  solver: nelder_mead
  solve_timeout: 2s
backtest:
  frequency: explicit
  dates: ["2023-03-31", "2023-06-30"]
  strategy: drifting_buy_and_hold
api:
  auth_enabled: true
  jwt_secret: ${TEST_JWT_SECRET}
`)
		cfg, err := Load(path)
		require.NoError(t, err)
		require.Equal(t, []string{"AAPL", "MSFT", "NVDA"}, cfg.Universe.Symbols)
		require.Equal(t, 0.5, cfg.Optimizer.MaxWeight)
		require.Equal(t, 2*time.Second, cfg.Optimizer.SolveTimeout)
		require.Equal(t, "expanded-secret", cfg.Api.JwtSecret)
		require.Equal(t, 126, cfg.Factors.LookbackWindow)

		_, _, formationEnd, err := cfg.Window()
		require.NoError(t, err)
		require.NotNil(t, formationEnd)
		require.Equal(t, time.Date(2022, 12, 30, 0, 0, 0, 0, time.UTC), *formationEnd)

		schedule, err := cfg.Schedule()
		require.NoError(t, err)
		require.Equal(t, backtest.FrequencyExplicit, schedule.Frequency)
		require.Len(t, schedule.Dates, 2)
		require.Equal(t, backtest.StrategyDriftingBuyAndHold, cfg.BacktestStrategy())
		require.Equal(t, "nelder_mead", cfg.QuadraticProgramSolver().Name())
	})

	t.Run("environment overrides file", func(t *testing.T) {
		t.Setenv("FACTORPORTFOLIO_OPTIMIZER_RISK_AVERSION", "2.5")
		t.Setenv("FACTORPORTFOLIO_UNIVERSE_SYMBOLS", "JPM,V")
		path := writeConfig(t, `
optimizer:
  risk_aversion: 1
`)
		cfg, err := Load(path)
		require.NoError(t, err)
		require.Equal(t, 2.5, cfg.Optimizer.RiskAversion)
		require.Equal(t, []string{"JPM", "V"}, cfg.Universe.Symbols)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "min above max", mutate: func(c *Config) { c.Optimizer.MinWeight = 0.5; c.Optimizer.MaxWeight = 0.2 }},
		{name: "max above one", mutate: func(c *Config) { c.Optimizer.MaxWeight = 1.2 }},
		{name: "negative risk aversion", mutate: func(c *Config) { c.Optimizer.RiskAversion = -1 }},
		{name: "zero lookback", mutate: func(c *Config) { c.Factors.LookbackWindow = 0 }},
		{name: "zero top n", mutate: func(c *Config) { c.Factors.TopN = 0 }},
		{name: "bad start date", mutate: func(c *Config) { c.Universe.StartDate = "01/02/2020" }},
		{name: "end before start", mutate: func(c *Config) { c.Universe.EndDate = "2019-01-01" }},
		{name: "formation end outside window", mutate: func(c *Config) { c.Universe.FormationEnd = "2026-01-01" }},
		{name: "duplicate symbols", mutate: func(c *Config) { c.Universe.Symbols = []string{"AAPL", "AAPL"} }},
		{name: "no symbols", mutate: func(c *Config) { c.Universe.Symbols = nil }},
		{name: "unknown frequency", mutate: func(c *Config) { c.Backtest.Frequency = "weekly" }},
		{name: "unknown strategy", mutate: func(c *Config) { c.Backtest.Strategy = "momentum" }},
		{name: "unsorted explicit dates", mutate: func(c *Config) {
			c.Backtest.Frequency = "explicit"
			c.Backtest.Dates = []string{"2021-06-30", "2021-03-31"}
		}},
		{name: "csv provider without path", mutate: func(c *Config) { c.Data.PriceProvider = "csv" }},
		{name: "auth without secret", mutate: func(c *Config) { c.Api.AuthEnabled = true }},
		{name: "unknown risk free rate source", mutate: func(c *Config) { c.Backtest.RiskFreeRateSource = "libor" }},
		{name: "email without sender", mutate: func(c *Config) { c.Report.EmailTo = []string{"pm@example.com"} }},
		{name: "malformed recipient", mutate: func(c *Config) {
			c.Report.EmailTo = []string{"not-an-email"}
			c.Report.EmailFrom = "reports@example.com"
		}},
		{name: "unknown solver", mutate: func(c *Config) { c.Optimizer.Solver = "simplex" }},
	}

	require.NoError(t, Validate(Default()))
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			require.Error(t, Validate(cfg))
		})
	}
}

func TestValidate_messages(t *testing.T) {
	cfg := Default()
	cfg.Report.EmailTo = []string{"not-an-email"}
	cfg.Report.EmailFrom = "reports@example.com"
	err := Validate(cfg)
	require.ErrorContains(t, err, "Field 'Config.Report.EmailTo[0]' must be an email address, got 'not-an-email'")

	cfg = Default()
	cfg.Alpaca.BaseURL = "not a url"
	err = Validate(cfg)
	require.ErrorContains(t, err, "Field 'Config.Alpaca.BaseURL' must be a valid URL")
}

func TestConfig_componentValues(t *testing.T) {
	cfg := Default()

	require.Equal(t, 126, cfg.FactorScorerConfig().LookbackWindow)
	require.Equal(
		t,
		"",
		cmp.Diff(optimizer.Config{
			MinWeight:    0,
			MaxWeight:    0.3,
			RiskAversion: 0.1,
			SolveTimeout: 10 * time.Second,
		}, cfg.PortfolioOptimizerConfig()),
	)
	require.Equal(t, "projected_gradient", cfg.QuadraticProgramSolver().Name())

	schedule, err := cfg.Schedule()
	require.NoError(t, err)
	require.Equal(t, backtest.MonthlySchedule(), schedule)
	require.Equal(t, backtest.StrategyStaticDailyRebalance, cfg.BacktestStrategy())
}
