package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"factorportfolio/api"
	"factorportfolio/internal/config"
	"factorportfolio/internal/data"
	"factorportfolio/internal/logger"
	"factorportfolio/internal/repository"
	l1_service "factorportfolio/internal/service/l1"
	l3_service "factorportfolio/internal/service/l3"
	interestrate "factorportfolio/pkg/interest_rate"

	_ "github.com/lib/pq"
)

func CloseDependencies(handler *api.ApiHandler) {
	if handler.Db == nil {
		return
	}
	err := handler.Db.Close()
	if err != nil {
		log.Fatalf("failed to close db: %v", err)
	}
}

func InitializeDependencies(configPath string) (*api.ApiHandler, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var dbConn *sql.DB
	if cfg.Database.Enabled {
		dbConn, err = sql.Open("postgres", cfg.Database.ToConnectionStr())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to db: %w", err)
		}
	}

	priceDataSource, err := data.NewPriceDataSource(*cfg, dbConn)
	if err != nil {
		return nil, fmt.Errorf("failed to create price data source: %w", err)
	}
	fundamentalsDataSource, err := data.NewFundamentalsDataSource(*cfg, dbConn)
	if err != nil {
		return nil, fmt.Errorf("failed to create fundamentals data source: %w", err)
	}

	reporters := []l3_service.Reporter{
		l3_service.LogReporter{RiskFreeRate: cfg.Backtest.RiskFreeRate},
	}
	if cfg.Report.CSVPath != "" {
		reporters = append(reporters, l3_service.CSVReporter{Path: cfg.Report.CSVPath})
	}

	if len(cfg.Report.EmailTo) > 0 {
		emailRepository, err := repository.NewEmailRepository(context.Background(), cfg.Report.SESRegion, cfg.Report.EmailFrom)
		if err != nil {
			return nil, fmt.Errorf("failed to create email repository: %w", err)
		}
		reporters = append(reporters, l3_service.EmailReporter{
			EmailRepository: emailRepository,
			To:              cfg.Report.EmailTo,
			RiskFreeRate:    cfg.Backtest.RiskFreeRate,
		})
	}

	var riskFreeRateProvider l3_service.RiskFreeRateProvider
	if cfg.Backtest.RiskFreeRateSource == "treasury" {
		riskFreeRateProvider = interestrate.NewClient()
	}

	var pipelineRunRepository repository.PipelineRunRepository
	if dbConn != nil {
		pipelineRunRepository = repository.NewPipelineRunRepository(dbConn)
	}

	solver := cfg.QuadraticProgramSolver()
	pipelineService := l3_service.NewPipelineService(l3_service.PipelineServiceInput{
		PriceService:           l1_service.NewPriceService(priceDataSource),
		FundamentalsDataSource: fundamentalsDataSource,
		Solver:                 solver,
		Reporters:              reporters,
		BatchWorkers:           cfg.Batch.Workers,
		PipelineRunRepository:  pipelineRunRepository,
		RiskFreeRateProvider:   riskFreeRateProvider,
	})

	apiHandler := &api.ApiHandler{
		Db:                    dbConn,
		Config:                *cfg,
		PipelineService:       pipelineService,
		Solver:                solver,
		Logger:                logger.New(),
		PipelineRunRepository: pipelineRunRepository,
		AuthEnabled:           cfg.Api.AuthEnabled,
		JwtDecodeToken:        cfg.Api.JwtSecret,
	}

	return apiHandler, nil
}

// NewIngestService reads from the configured providers and writes to the
// handler's database. Providers must not themselves be postgres.
func NewIngestService(handler *api.ApiHandler) (l1_service.IngestService, error) {
	if handler.Db == nil {
		return nil, fmt.Errorf("ingest requires database.enabled")
	}
	cfg := handler.Config
	if cfg.Data.PriceProvider == string(data.ProviderPostgres) || cfg.Data.FundamentalsProvider == string(data.ProviderPostgres) {
		return nil, fmt.Errorf("ingest cannot read from the postgres provider it writes to")
	}
	// ingest always goes to the provider
	cfg.Data.CacheTTL = 0

	priceDataSource, err := data.NewPriceDataSource(cfg, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create price data source: %w", err)
	}
	fundamentalsDataSource, err := data.NewFundamentalsDataSource(cfg, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create fundamentals data source: %w", err)
	}

	return l1_service.NewIngestService(
		priceDataSource,
		fundamentalsDataSource,
		repository.NewAdjustedPriceRepository(handler.Db),
		repository.NewAssetFundamentalsRepository(handler.Db),
	), nil
}
