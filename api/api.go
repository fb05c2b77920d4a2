package api

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"factorportfolio/internal/config"
	"factorportfolio/internal/domain"
	"factorportfolio/internal/logger"
	"factorportfolio/internal/metrics"
	"factorportfolio/internal/optimizer"
	"factorportfolio/internal/repository"
	l3_service "factorportfolio/internal/service/l3"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ApiHandler struct {
	Db              *sql.DB
	Config          config.Config
	PipelineService l3_service.PipelineService
	Solver          optimizer.QuadraticProgramSolver
	Logger          *zap.SugaredLogger

	// nil when persistence is disabled
	PipelineRunRepository repository.PipelineRunRepository

	AuthEnabled    bool
	JwtDecodeToken string
}

func (m ApiHandler) InitializeRouterEngine() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())
	router.Use(m.logRequestMiddleware)

	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, map[string]string{"message": "welcome to factorportfolio"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	authed := router.Group("/")
	if m.AuthEnabled {
		authed.Use(m.authMiddleware)
	}
	authed.POST("/backtest", m.backtest)
	authed.POST("/optimize", m.optimize)
	authed.GET("/runs", m.listRuns)

	return router
}

func (m ApiHandler) StartApi(port int) error {
	return m.InitializeRouterEngine().Run(fmt.Sprintf(":%d", port))
}

type badRequestError struct {
	err error
}

func (e badRequestError) Error() string {
	return e.err.Error()
}

func (e badRequestError) Unwrap() error {
	return e.err
}

// statusForError maps typed pipeline errors onto HTTP status codes.
func statusForError(err error) int {
	var (
		badRequest   badRequestError
		invalidInput optimizer.InvalidInputError
		insufficient domain.DataInsufficientError
		empty        domain.EmptyUniverseError
		degenerate   domain.DegenerateFactorError
		infeasible   domain.InfeasibleConstraintError
		solverFail   domain.SolverFailure
	)
	switch {
	case errors.As(err, &badRequest), errors.As(err, &invalidInput):
		return http.StatusBadRequest
	case errors.As(err, &empty), errors.As(err, &insufficient), errors.As(err, &degenerate), errors.As(err, &infeasible):
		return http.StatusUnprocessableEntity
	case errors.As(err, &solverFail) && solverFail.Reason == domain.SolverFailureTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func returnErrorJson(err error, c *gin.Context) {
	returnErrorJsonCode(err, c, statusForError(err))
}

func returnErrorJsonCode(err error, c *gin.Context, code int) {
	log := logger.FromContext(c.Request.Context())
	if code >= http.StatusInternalServerError {
		log.Errorw("request failed", "status", code, "error", err)
	} else {
		log.Infow("request rejected", "status", code, "error", err)
	}
	c.AbortWithStatusJSON(code, gin.H{
		"error": err.Error(),
	})
}

func (m ApiHandler) logRequestMiddleware(c *gin.Context) {
	log := m.Logger
	if log == nil {
		log = logger.New()
	}
	log = log.With("method", c.Request.Method, "route", c.Request.URL.Path)
	c.Request = c.Request.WithContext(logger.WithLogger(c.Request.Context(), log))

	start := time.Now()
	c.Next()

	log.Infow(
		"handled request",
		"status", c.Writer.Status(),
		"durationMs", time.Since(start).Milliseconds(),
		"clientIp", c.ClientIP(),
	)
}
