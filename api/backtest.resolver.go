package api

import (
	"fmt"
	"net/http"

	"factorportfolio/internal/config"
	l3_service "factorportfolio/internal/service/l3"

	"github.com/gin-gonic/gin"
)

// BacktestRequest overrides the configured run. Omitted fields keep the
// configured value.
type BacktestRequest struct {
	Symbols        []string `json:"symbols"`
	StartDate      *string  `json:"startDate"`
	EndDate        *string  `json:"endDate"`
	FormationEnd   *string  `json:"formationEnd"`
	LookbackWindow *int     `json:"lookbackWindow"`
	TopN           *int     `json:"topN"`
	MinWeight      *float64 `json:"minWeight"`
	MaxWeight      *float64 `json:"maxWeight"`
	RiskAversion   *float64 `json:"riskAversion"`
	Covariance     *string  `json:"covariance"`
	Frequency      *string  `json:"frequency"`
	RebalanceDates []string `json:"rebalanceDates"`
	Strategy       *string  `json:"strategy"`
	RiskFreeRate   *float64 `json:"riskFreeRate"`
}

// applyTo returns a validated copy of cfg with the overrides applied.
func (r BacktestRequest) applyTo(cfg config.Config) (*config.Config, error) {
	out := cfg
	if len(r.Symbols) > 0 {
		out.Universe.Symbols = append([]string{}, r.Symbols...)
	}
	if r.StartDate != nil {
		out.Universe.StartDate = *r.StartDate
	}
	if r.EndDate != nil {
		out.Universe.EndDate = *r.EndDate
	}
	if r.FormationEnd != nil {
		out.Universe.FormationEnd = *r.FormationEnd
	}
	if r.LookbackWindow != nil {
		out.Factors.LookbackWindow = *r.LookbackWindow
	}
	if r.TopN != nil {
		out.Factors.TopN = *r.TopN
	}
	if r.MinWeight != nil {
		out.Optimizer.MinWeight = *r.MinWeight
	}
	if r.MaxWeight != nil {
		out.Optimizer.MaxWeight = *r.MaxWeight
	}
	if r.RiskAversion != nil {
		out.Optimizer.RiskAversion = *r.RiskAversion
	}
	if r.Covariance != nil {
		out.Optimizer.Covariance = *r.Covariance
	}
	if r.Frequency != nil {
		out.Backtest.Frequency = *r.Frequency
	}
	if r.RebalanceDates != nil {
		out.Backtest.Dates = append([]string{}, r.RebalanceDates...)
	}
	if r.Strategy != nil {
		out.Backtest.Strategy = *r.Strategy
	}
	if r.RiskFreeRate != nil {
		out.Backtest.RiskFreeRate = *r.RiskFreeRate
	}

	if err := config.Validate(&out); err != nil {
		return nil, badRequestError{err}
	}
	return &out, nil
}

type BacktestResponse struct {
	*l3_service.PipelineResult
}

func (m ApiHandler) backtest(c *gin.Context) {
	ctx := c.Request.Context()

	var requestBody BacktestRequest
	if err := c.ShouldBindJSON(&requestBody); err != nil {
		returnErrorJsonCode(fmt.Errorf("invalid request body: %w", err), c, http.StatusBadRequest)
		return
	}

	cfg, err := requestBody.applyTo(m.Config)
	if err != nil {
		returnErrorJson(err, c)
		return
	}
	params, err := l3_service.PipelineParamsFromConfig(*cfg)
	if err != nil {
		returnErrorJson(badRequestError{err}, c)
		return
	}

	result, err := m.PipelineService.Run(ctx, params)
	if err != nil {
		returnErrorJson(fmt.Errorf("failed to run backtest: %w", err), c)
		return
	}

	c.JSON(http.StatusOK, BacktestResponse{result})
}

func (m ApiHandler) listRuns(c *gin.Context) {
	if m.PipelineRunRepository == nil {
		returnErrorJsonCode(fmt.Errorf("pipeline run persistence is disabled"), c, http.StatusNotFound)
		return
	}
	runs, err := m.PipelineRunRepository.List(50)
	if err != nil {
		returnErrorJson(fmt.Errorf("failed to list pipeline runs: %w", err), c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}
