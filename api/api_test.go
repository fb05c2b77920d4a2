package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"factorportfolio/internal/config"
	"factorportfolio/internal/domain"
	"factorportfolio/internal/optimizer"
	l3_service "factorportfolio/internal/service/l3"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/require"
)

type fakePipelineService struct {
	params []l3_service.PipelineParams
	result *l3_service.PipelineResult
	err    error
}

func (f *fakePipelineService) Run(ctx context.Context, params l3_service.PipelineParams) (*l3_service.PipelineResult, error) {
	f.params = append(f.params, params)
	return f.result, f.err
}

func (f *fakePipelineService) RunBatch(ctx context.Context, params []l3_service.PipelineParams) ([]*l3_service.PipelineResult, error) {
	return nil, fmt.Errorf("not implemented")
}

func newTestHandler(pipeline l3_service.PipelineService) ApiHandler {
	gin.SetMode(gin.TestMode)
	return ApiHandler{
		Config:          *config.Default(),
		PipelineService: pipeline,
		Solver:          optimizer.NewProjectedGradientSolver(0, 0),
	}
}

func doRequest(t *testing.T, router http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestOptimize(t *testing.T) {
	router := newTestHandler(&fakePipelineService{}).InitializeRouterEngine()

	t.Run("corner solution", func(t *testing.T) {
		w := doRequest(t, router, http.MethodPost, "/optimize", map[string]any{
			"scores":       map[string]float64{"A": 0.1, "B": 0.2},
			"maxWeight":    1.0,
			"riskAversion": 0.0,
		}, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		response := OptimizeResponse{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.InDelta(t, 0.0, response.Weights["A"], 1e-4)
		require.InDelta(t, 1.0, response.Weights["B"], 1e-4)
		require.Equal(t, "identity", response.Covariance)
	})

	t.Run("supplied covariance", func(t *testing.T) {
		w := doRequest(t, router, http.MethodPost, "/optimize", map[string]any{
			"scores":            map[string]float64{"A": 0, "B": 0},
			"covarianceSymbols": []string{"A", "B"},
			"covariance":        [][]float64{{1, 0}, {0, 4}},
			"maxWeight":         1.0,
			"riskAversion":      1.0,
		}, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		response := OptimizeResponse{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.InDelta(t, 0.8, response.Weights["A"], 1e-4)
		require.InDelta(t, 0.2, response.Weights["B"], 1e-4)
		require.Equal(t, "supplied", response.Covariance)
	})

	t.Run("infeasible bounds", func(t *testing.T) {
		w := doRequest(t, router, http.MethodPost, "/optimize", map[string]any{
			"scores":    map[string]float64{"A": 0.1, "B": 0.2},
			"maxWeight": 0.3,
		}, nil)
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("invalid bounds", func(t *testing.T) {
		w := doRequest(t, router, http.MethodPost, "/optimize", map[string]any{
			"scores":    map[string]float64{"A": 0.1},
			"maxWeight": 2.0,
		}, nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("asymmetric covariance", func(t *testing.T) {
		w := doRequest(t, router, http.MethodPost, "/optimize", map[string]any{
			"scores":            map[string]float64{"A": 0, "B": 0},
			"covarianceSymbols": []string{"A", "B"},
			"covariance":        [][]float64{{1, 0.5}, {0, 1}},
		}, nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing scores", func(t *testing.T) {
		w := doRequest(t, router, http.MethodPost, "/optimize", map[string]any{}, nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestBacktest(t *testing.T) {
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	weights, err := domain.NewWeightVector([]string{"AAPL"}, map[string]float64{"AAPL": 1})
	require.NoError(t, err)

	t.Run("applies overrides", func(t *testing.T) {
		fake := &fakePipelineService{result: &l3_service.PipelineResult{
			Selection:   domain.RankedSelection{{Symbol: "AAPL", CombinedScore: 1}},
			Weights:     weights,
			EquityCurve: domain.EquityCurve{{Date: day, Value: 1}},
		}}
		router := newTestHandler(fake).InitializeRouterEngine()

		w := doRequest(t, router, http.MethodPost, "/backtest", map[string]any{
			"symbols":      []string{"AAPL", "MSFT", "NVDA"},
			"startDate":    "2021-01-01",
			"riskAversion": 0.5,
			"frequency":    "quarterly",
		}, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		require.Len(t, fake.params, 1)
		require.Equal(t, []string{"AAPL", "MSFT", "NVDA"}, fake.params[0].Symbols)
		require.Equal(t, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), fake.params[0].Start)
		require.Equal(t, 0.5, fake.params[0].Optimizer.RiskAversion)
		require.Equal(t, 0.3, fake.params[0].Optimizer.MaxWeight)

		body := map[string]any{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Equal(t, map[string]any{"AAPL": 1.0}, body["weights"])
	})

	t.Run("invalid override", func(t *testing.T) {
		fake := &fakePipelineService{}
		router := newTestHandler(fake).InitializeRouterEngine()

		w := doRequest(t, router, http.MethodPost, "/backtest", map[string]any{
			"startDate": "01/01/2021",
		}, nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Empty(t, fake.params)
	})

	t.Run("solver timeout", func(t *testing.T) {
		fake := &fakePipelineService{err: fmt.Errorf("failed to optimize weights: %w", domain.SolverFailure{
			Solver: "projected_gradient",
			Reason: domain.SolverFailureTimeout,
			Err:    context.DeadlineExceeded,
		})}
		router := newTestHandler(fake).InitializeRouterEngine()

		w := doRequest(t, router, http.MethodPost, "/backtest", map[string]any{}, nil)
		require.Equal(t, http.StatusGatewayTimeout, w.Code)
	})

	t.Run("empty universe", func(t *testing.T) {
		fake := &fakePipelineService{err: domain.EmptyUniverseError{Considered: 10}}
		router := newTestHandler(fake).InitializeRouterEngine()

		w := doRequest(t, router, http.MethodPost, "/backtest", map[string]any{}, nil)
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("runs without persistence", func(t *testing.T) {
		router := newTestHandler(&fakePipelineService{}).InitializeRouterEngine()
		w := doRequest(t, router, http.MethodGet, "/runs", nil, nil)
		require.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestStatusForError(t *testing.T) {
	require.Equal(t, http.StatusBadRequest, statusForError(optimizer.InvalidInputError{Field: "minWeight"}))
	require.Equal(t, http.StatusUnprocessableEntity, statusForError(fmt.Errorf("wrapped: %w", domain.DataInsufficientError{Symbol: "A"})))
	require.Equal(t, http.StatusUnprocessableEntity, statusForError(domain.DegenerateFactorError{Factor: domain.FactorMomentum}))
	require.Equal(t, http.StatusUnprocessableEntity, statusForError(domain.InfeasibleConstraintError{N: 2}))
	require.Equal(t, http.StatusInternalServerError, statusForError(domain.SolverFailure{Reason: domain.SolverFailureNumerical}))
	require.Equal(t, http.StatusInternalServerError, statusForError(fmt.Errorf("boom")))
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestAuth(t *testing.T) {
	h := newTestHandler(&fakePipelineService{})
	h.AuthEnabled = true
	h.JwtDecodeToken = "test-secret"
	router := h.InitializeRouterEngine()
	body := map[string]any{"scores": map[string]float64{"A": 0.1, "B": 0.2}, "maxWeight": 1.0}

	t.Run("missing token", func(t *testing.T) {
		w := doRequest(t, router, http.MethodPost, "/optimize", body, nil)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		token := signToken(t, "test-secret", jwt.MapClaims{
			"sub": "analyst",
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		w := doRequest(t, router, http.MethodPost, "/optimize", body, map[string]string{"Authorization": "Bearer " + token})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	t.Run("wrong secret", func(t *testing.T) {
		token := signToken(t, "other-secret", jwt.MapClaims{"sub": "analyst"})
		w := doRequest(t, router, http.MethodPost, "/optimize", body, map[string]string{"Authorization": "Bearer " + token})
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		token := signToken(t, "test-secret", jwt.MapClaims{
			"sub": "analyst",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})
		w := doRequest(t, router, http.MethodPost, "/optimize", body, map[string]string{"Authorization": "Bearer " + token})
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("metrics stay public", func(t *testing.T) {
		w := doRequest(t, router, http.MethodGet, "/metrics", nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
	})
}
