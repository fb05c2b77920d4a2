package api

import (
	"fmt"
	"net/http"
	"sort"

	"factorportfolio/internal/domain"
	"factorportfolio/internal/optimizer"

	"github.com/gin-gonic/gin"
)

type OptimizeRequest struct {
	// Scores are combined factor scores keyed by symbol.
	Scores          map[string]float64 `json:"scores" binding:"required"`
	ExpectedReturns map[string]float64 `json:"expectedReturns"`
	// Covariance rows follow CovarianceSymbols.
	CovarianceSymbols []string    `json:"covarianceSymbols"`
	Covariance        [][]float64 `json:"covariance"`
	MinWeight         *float64    `json:"minWeight"`
	MaxWeight         *float64    `json:"maxWeight"`
	RiskAversion      *float64    `json:"riskAversion"`
}

type OptimizeResponse struct {
	Weights    map[string]float64 `json:"weights"`
	Covariance string             `json:"covariance"`
}

func rankedFromScores(scores map[string]float64) domain.RankedSelection {
	out := make(domain.RankedSelection, 0, len(scores))
	for symbol, score := range scores {
		out = append(out, domain.RankedAsset{Symbol: symbol, CombinedScore: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CombinedScore != out[j].CombinedScore {
			return out[i].CombinedScore > out[j].CombinedScore
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

func (m ApiHandler) optimize(c *gin.Context) {
	ctx := c.Request.Context()

	var requestBody OptimizeRequest
	if err := c.ShouldBindJSON(&requestBody); err != nil {
		returnErrorJsonCode(fmt.Errorf("invalid request body: %w", err), c, http.StatusBadRequest)
		return
	}

	cfg := m.Config.PortfolioOptimizerConfig()
	if requestBody.MinWeight != nil {
		cfg.MinWeight = *requestBody.MinWeight
	}
	if requestBody.MaxWeight != nil {
		cfg.MaxWeight = *requestBody.MaxWeight
	}
	if requestBody.RiskAversion != nil {
		cfg.RiskAversion = *requestBody.RiskAversion
	}

	in := optimizer.Input{
		Selection:       rankedFromScores(requestBody.Scores),
		ExpectedReturns: requestBody.ExpectedReturns,
	}
	covarianceName := optimizer.IdentityFallback{}.Name()
	if requestBody.Covariance != nil {
		cov, err := optimizer.NewSuppliedCovariance(requestBody.CovarianceSymbols, requestBody.Covariance)
		if err != nil {
			returnErrorJson(badRequestError{err}, c)
			return
		}
		in.Covariance = cov
		covarianceName = cov.Name()
	}

	weights, err := optimizer.NewPortfolioOptimizer(cfg, m.Solver).Optimize(ctx, in)
	if err != nil {
		returnErrorJson(fmt.Errorf("failed to optimize: %w", err), c)
		return
	}

	c.JSON(http.StatusOK, OptimizeResponse{
		Weights:    weights.Map(),
		Covariance: covarianceName,
	})
}
