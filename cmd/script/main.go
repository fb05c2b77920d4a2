package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"factorportfolio/cmd"
	"factorportfolio/internal/domain"
	"factorportfolio/internal/logger"
	l3_service "factorportfolio/internal/service/l3"

	"github.com/spf13/cobra"
)

var (
	configFile string

	sweepRiskAversions []float64

	ingestAsOf string
)

var rootCmd = &cobra.Command{
	Use:   "script",
	Short: "Run factor portfolio pipelines from the command line",
	Long: `Scores a universe on momentum, value and quality, picks the top
names, optimizes their weights and backtests the result.

Examples:
  go run ./cmd/script run --config config.yaml
  go run ./cmd/script sweep --risk-aversion 0,0.1,1
  go run ./cmd/script ingest --as-of 2024-06-30`,
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one pipeline with the configured parameters",
	RunE:  runPipeline,
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run the pipeline once per risk aversion value",
	RunE:  runSweep,
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Copy prices and fundamentals from the configured providers into postgres",
	RunE:  runIngest,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (defaults and FACTORPORTFOLIO_* env when empty)")

	sweepCmd.Flags().Float64SliceVar(&sweepRiskAversions, "risk-aversion", []float64{0, 0.1, 1, 10}, "risk aversion values to sweep")
	ingestCmd.Flags().StringVar(&ingestAsOf, "as-of", "", "as-of date for fundamentals (default today)")

	rootCmd.AddCommand(runCmd, sweepCmd, ingestCmd)
}

func newContext() context.Context {
	return logger.WithLogger(context.Background(), logger.New())
}

func runPipeline(_ *cobra.Command, _ []string) error {
	handler, err := cmd.InitializeDependencies(configFile)
	if err != nil {
		return err
	}
	defer cmd.CloseDependencies(handler)

	params, err := l3_service.PipelineParamsFromConfig(handler.Config)
	if err != nil {
		return err
	}

	ctx := newContext()

	result, err := handler.PipelineService.Run(ctx, params)
	if err != nil {
		return fmt.Errorf("pipeline failed: %w", err)
	}

	return printJson(map[string]any{
		"runId":     result.RunID,
		"selection": result.Selection,
		"weights":   result.Weights,
		"metrics":   result.Metrics,
	})
}

func runSweep(_ *cobra.Command, _ []string) error {
	handler, err := cmd.InitializeDependencies(configFile)
	if err != nil {
		return err
	}
	defer cmd.CloseDependencies(handler)

	base, err := l3_service.PipelineParamsFromConfig(handler.Config)
	if err != nil {
		return err
	}

	batch := make([]l3_service.PipelineParams, 0, len(sweepRiskAversions))
	for _, riskAversion := range sweepRiskAversions {
		params := base
		params.Symbols = append([]string{}, base.Symbols...)
		params.Optimizer.RiskAversion = riskAversion
		batch = append(batch, params)
	}

	ctx := newContext()

	results, err := handler.PipelineService.RunBatch(ctx, batch)
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}

	type sweepRow struct {
		RiskAversion float64              `json:"riskAversion"`
		Weights      *domain.WeightVector `json:"weights"`
		FinalValue   float64              `json:"finalValue"`
		SharpeRatio  *float64             `json:"sharpeRatio,omitempty"`
	}
	rows := make([]sweepRow, 0, len(results))
	for i, result := range results {
		row := sweepRow{
			RiskAversion: batch[i].Optimizer.RiskAversion,
			Weights:      result.Weights,
			FinalValue:   result.EquityCurve.Final(),
		}
		if result.Metrics != nil {
			sharpe := result.Metrics.SharpeRatio
			row.SharpeRatio = &sharpe
		}
		rows = append(rows, row)
	}
	return printJson(rows)
}

func runIngest(_ *cobra.Command, _ []string) error {
	handler, err := cmd.InitializeDependencies(configFile)
	if err != nil {
		return err
	}
	defer cmd.CloseDependencies(handler)

	ingestService, err := cmd.NewIngestService(handler)
	if err != nil {
		return err
	}

	start, end, _, err := handler.Config.Window()
	if err != nil {
		return err
	}
	asOf := time.Now().UTC().Truncate(24 * time.Hour)
	if ingestAsOf != "" {
		asOf, err = time.Parse(time.DateOnly, ingestAsOf)
		if err != nil {
			return fmt.Errorf("invalid --as-of: %w", err)
		}
	}

	ctx := newContext()
	log := logger.FromContext(ctx)

	tx, err := handler.Db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	symbols := handler.Config.Universe.Symbols
	numPrices, err := ingestService.IngestPrices(ctx, tx, symbols, start, end)
	if err != nil {
		return err
	}
	numFundamentals, err := ingestService.IngestFundamentals(ctx, tx, symbols, asOf)
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tx: %w", err)
	}

	log.Infow("ingest complete", "prices", numPrices, "fundamentals", numFundamentals, "asOf", asOf.Format(time.DateOnly))
	return nil
}

func printJson(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
