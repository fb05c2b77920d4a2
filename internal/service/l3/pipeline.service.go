package l3_service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"factorportfolio/internal/backtest"
	"factorportfolio/internal/calculator"
	"factorportfolio/internal/config"
	"factorportfolio/internal/data"
	"factorportfolio/internal/db/models/postgres/public/model"
	"factorportfolio/internal/domain"
	"factorportfolio/internal/logger"
	"factorportfolio/internal/metrics"
	"factorportfolio/internal/optimizer"
	"factorportfolio/internal/repository"
	l1_service "factorportfolio/internal/service/l1"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	CovarianceIdentity  = "identity"
	CovarianceEstimated = "estimated"
)

type PipelineParams struct {
	Symbols []string  `json:"symbols"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	// FormationEnd splits scoring from simulation when set.
	FormationEnd *time.Time `json:"formationEnd,omitempty"`

	LookbackWindow     int               `json:"lookbackWindow"`
	TopN               int               `json:"topN"`
	Optimizer          optimizer.Config  `json:"optimizer"`
	Covariance         string            `json:"covariance"`
	CovarianceLookback int               `json:"covarianceLookback"`
	Schedule           backtest.Schedule `json:"schedule"`
	Strategy           backtest.Strategy `json:"strategy"`
	RiskFreeRate       float64           `json:"riskFreeRate"`
}

func PipelineParamsFromConfig(cfg config.Config) (PipelineParams, error) {
	start, end, formationEnd, err := cfg.Window()
	if err != nil {
		return PipelineParams{}, err
	}
	schedule, err := cfg.Schedule()
	if err != nil {
		return PipelineParams{}, err
	}
	return PipelineParams{
		Symbols:            append([]string{}, cfg.Universe.Symbols...),
		Start:              start,
		End:                end,
		FormationEnd:       formationEnd,
		LookbackWindow:     cfg.FactorScorerConfig().LookbackWindow,
		TopN:               cfg.Factors.TopN,
		Optimizer:          cfg.PortfolioOptimizerConfig(),
		Covariance:         cfg.Optimizer.Covariance,
		CovarianceLookback: cfg.Optimizer.CovarianceLookback,
		Schedule:           schedule,
		Strategy:           cfg.BacktestStrategy(),
		RiskFreeRate:       cfg.Backtest.RiskFreeRate,
	}, nil
}

type PipelineResult struct {
	RunID       uuid.UUID                      `json:"runId"`
	Params      PipelineParams                 `json:"params"`
	Factors     *domain.FactorTable            `json:"factors"`
	Selection   domain.RankedSelection         `json:"selection"`
	Weights     *domain.WeightVector           `json:"weights"`
	EquityCurve domain.EquityCurve             `json:"equityCurve"`
	Metrics     *calculator.PerformanceMetrics `json:"metrics,omitempty"`
	Profile     *domain.Profile                `json:"profile"`
}

// RiskFreeRateProvider supplies the annual risk-free rate on a date.
type RiskFreeRateProvider interface {
	RiskFreeRate(ctx context.Context, date time.Time) (float64, error)
}

type PipelineService interface {
	Run(ctx context.Context, params PipelineParams) (*PipelineResult, error)
	// RunBatch runs independent pipelines with bounded parallelism. The
	// first failure cancels the rest.
	RunBatch(ctx context.Context, params []PipelineParams) ([]*PipelineResult, error)
}

type pipelineServiceHandler struct {
	PriceService           l1_service.PriceService
	FundamentalsDataSource data.FundamentalsDataSource
	StockRanker            calculator.StockRanker
	Solver                 optimizer.QuadraticProgramSolver
	Reporters              []Reporter
	BatchWorkers           int

	// optional
	PipelineRunRepository repository.PipelineRunRepository
	RiskFreeRateProvider  RiskFreeRateProvider
}

type PipelineServiceInput struct {
	PriceService           l1_service.PriceService
	FundamentalsDataSource data.FundamentalsDataSource
	Solver                 optimizer.QuadraticProgramSolver
	Reporters              []Reporter
	BatchWorkers           int
	PipelineRunRepository  repository.PipelineRunRepository
	RiskFreeRateProvider   RiskFreeRateProvider
}

func NewPipelineService(in PipelineServiceInput) PipelineService {
	workers := in.BatchWorkers
	if workers <= 0 {
		workers = 1
	}
	return pipelineServiceHandler{
		PriceService:           in.PriceService,
		FundamentalsDataSource: in.FundamentalsDataSource,
		StockRanker:            calculator.NewStockRanker(),
		Solver:                 in.Solver,
		Reporters:              in.Reporters,
		BatchWorkers:           workers,
		PipelineRunRepository:  in.PipelineRunRepository,
		RiskFreeRateProvider:   in.RiskFreeRateProvider,
	}
}

func (h pipelineServiceHandler) Run(ctx context.Context, params PipelineParams) (*PipelineResult, error) {
	profile, endProfile := domain.NewProfile()
	result := &PipelineResult{
		RunID:   uuid.New(),
		Params:  params,
		Profile: profile,
	}
	log := logger.FromContext(ctx).With("runId", result.RunID.String())
	ctx = logger.WithLogger(domain.ContextWithProfile(ctx, profile), log)

	err := h.run(ctx, params, result)
	endProfile()
	metrics.RecordPipelineRun(err)
	h.persist(ctx, result, err)

	if err != nil {
		log.Errorw("pipeline run failed", "error", err, "elapsedMs", *profile.TotalMs)
		return nil, err
	}
	log.Infow(
		"pipeline run complete",
		"selected", len(result.Selection),
		"finalValue", result.EquityCurve.Final(),
		"elapsedMs", *profile.TotalMs,
	)
	return result, nil
}

// stage runs fn inside a named span that is closed on every return path.
func stage(profile *domain.Profile, name string, fn func() error) error {
	_, endSpan := profile.StartSpan(name)
	defer endSpan()
	return fn()
}

func (h pipelineServiceHandler) run(ctx context.Context, params PipelineParams, result *PipelineResult) error {
	profile := domain.GetProfile(ctx)

	var (
		formationPrices *domain.PriceHistory
		backtestPrices  *domain.PriceHistory
		fundamentals    domain.FundamentalsTable
	)

	err := stage(profile, "load", func() error {
		prices, err := h.PriceService.LoadPrices(ctx, params.Symbols, params.Start, params.End)
		if err != nil {
			return fmt.Errorf("failed to load prices: %w", err)
		}
		formationPrices, backtestPrices, err = splitWindow(prices, params)
		if err != nil {
			return err
		}
		fundamentals, err = h.loadFundamentals(ctx, formationPrices.Symbols(), params)
		if err != nil {
			return fmt.Errorf("failed to load fundamentals: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	err = stage(profile, "score", func() error {
		scorer := calculator.NewFactorScorer(calculator.FactorScorerConfig{
			LookbackWindow: params.LookbackWindow,
		})
		factors, err := scorer.Score(ctx, formationPrices, fundamentals)
		if err != nil {
			return fmt.Errorf("failed to score factors: %w", err)
		}
		result.Factors = factors
		return nil
	})
	if err != nil {
		return err
	}

	err = stage(profile, "rank", func() error {
		selection, err := h.StockRanker.Rank(ctx, result.Factors, params.TopN)
		if err != nil {
			return fmt.Errorf("failed to rank assets: %w", err)
		}
		result.Selection = selection
		return nil
	})
	if err != nil {
		return err
	}

	err = stage(profile, "optimize", func() error {
		input := optimizer.Input{
			Selection: result.Selection,
		}
		if params.Covariance == CovarianceEstimated {
			cov, err := optimizer.EstimateCovariance(formationPrices, result.Selection.Symbols(), params.CovarianceLookback)
			if err != nil {
				return fmt.Errorf("failed to estimate covariance: %w", err)
			}
			input.Covariance = cov
		}
		weights, err := optimizer.NewPortfolioOptimizer(params.Optimizer, h.Solver).Optimize(ctx, input)
		if err != nil {
			return fmt.Errorf("failed to optimize weights: %w", err)
		}
		result.Weights = weights
		return nil
	})
	if err != nil {
		return err
	}

	err = stage(profile, "backtest", func() error {
		held, err := backtestPrices.Restrict(result.Weights.Symbols())
		if err != nil {
			return fmt.Errorf("failed to restrict backtest prices: %w", err)
		}
		curve, err := backtest.NewBacktestEngine(params.Strategy).Run(ctx, held, result.Weights, params.Schedule)
		if err != nil {
			return fmt.Errorf("failed to run backtest: %w", err)
		}
		result.EquityCurve = curve
		return nil
	})
	if err != nil {
		return err
	}

	return stage(profile, "report", func() error {
		if len(result.EquityCurve) >= 2 {
			rf := h.riskFreeRate(ctx, params, result.EquityCurve[0].Date)
			m, err := calculator.CalculatePerformance(result.EquityCurve, rf)
			if err != nil {
				return fmt.Errorf("failed to calculate performance: %w", err)
			}
			result.Metrics = m
		}
		for _, reporter := range h.Reporters {
			if err := reporter.Render(ctx, result.EquityCurve); err != nil {
				return fmt.Errorf("failed to render report: %w", err)
			}
		}
		return nil
	})
}

// splitWindow returns the scoring and simulation histories. Without a
// formation end both are the full history.
func splitWindow(prices *domain.PriceHistory, params PipelineParams) (*domain.PriceHistory, *domain.PriceHistory, error) {
	if params.FormationEnd == nil {
		return prices, prices, nil
	}
	formation := prices.Between(params.Start, *params.FormationEnd)
	simulation := prices.Between(params.FormationEnd.AddDate(0, 0, 1), params.End)
	if formation.Len() == 0 || simulation.Len() == 0 {
		return nil, nil, domain.DataInsufficientError{
			Reason: fmt.Sprintf("formation end %s leaves an empty scoring or backtest window", params.FormationEnd.Format(time.DateOnly)),
		}
	}
	return formation, simulation, nil
}

// loadFundamentals reads point-in-time values at the formation end when
// the source supports it.
func (h pipelineServiceHandler) loadFundamentals(ctx context.Context, symbols []string, params PipelineParams) (domain.FundamentalsTable, error) {
	if asOfSource, ok := h.FundamentalsDataSource.(data.FundamentalsAsOfSource); ok {
		asOf := params.End
		if params.FormationEnd != nil {
			asOf = *params.FormationEnd
		}
		return asOfSource.FetchAsOf(ctx, symbols, asOf)
	}
	return h.FundamentalsDataSource.Fetch(ctx, symbols)
}

func (h pipelineServiceHandler) riskFreeRate(ctx context.Context, params PipelineParams, date time.Time) float64 {
	if h.RiskFreeRateProvider == nil {
		return params.RiskFreeRate
	}
	rf, err := h.RiskFreeRateProvider.RiskFreeRate(ctx, date)
	if err != nil {
		logger.FromContext(ctx).Warnw("falling back to configured risk free rate", "error", err, "riskFreeRate", params.RiskFreeRate)
		return params.RiskFreeRate
	}
	return rf
}

func (h pipelineServiceHandler) persist(ctx context.Context, result *PipelineResult, runErr error) {
	if h.PipelineRunRepository == nil {
		return
	}
	log := logger.FromContext(ctx)

	paramsJson, err := json.Marshal(result.Params)
	if err != nil {
		log.Warnw("failed to marshal pipeline params", "error", err)
		return
	}
	pr := model.PipelineRun{
		PipelineRunID: result.RunID,
		Status:        "success",
		Parameters:    string(paramsJson),
	}
	if result.Profile.TotalMs != nil {
		pr.ElapsedMs = *result.Profile.TotalMs
	}
	if runErr != nil {
		pr.Status = "failure"
		msg := runErr.Error()
		pr.ErrorMessage = &msg
	} else {
		weightsJson, err := json.Marshal(result.Weights)
		if err != nil {
			log.Warnw("failed to marshal weights", "error", err)
			return
		}
		weights := string(weightsJson)
		final := result.EquityCurve.Final()
		pr.Weights = &weights
		pr.FinalValue = &final
		if result.Metrics != nil {
			pr.SharpeRatio = &result.Metrics.SharpeRatio
			pr.MaxDrawdown = &result.Metrics.MaxDrawdown
		}
	}

	if _, err := h.PipelineRunRepository.Add(nil, pr); err != nil {
		log.Warnw("failed to persist pipeline run", "error", err)
	}
}

func (h pipelineServiceHandler) RunBatch(ctx context.Context, params []PipelineParams) ([]*PipelineResult, error) {
	if len(params) == 0 {
		return nil, errors.New("batch requires at least one pipeline")
	}

	results := make([]*PipelineResult, len(params))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.BatchWorkers)
	for i, p := range params {
		i, p := i, p
		g.Go(func() error {
			result, err := h.Run(gctx, p)
			if err != nil {
				return fmt.Errorf("pipeline %d of %d failed: %w", i+1, len(params), err)
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
