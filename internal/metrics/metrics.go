// Package metrics holds the Prometheus collectors for pipeline runs,
// optimizer solves and data fetches.
package metrics

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"factorportfolio/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "factorportfolio"

var (
	registry *prometheus.Registry
	once     sync.Once
)

var (
	PipelineRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pipeline_runs_total",
		Help:      "Pipeline runs by outcome",
	}, []string{"status"})

	SolveDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "optimizer_solve_duration_seconds",
		Help:      "Wall time of quadratic program solves by solver",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
	}, []string{"solver"})

	SolverFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "optimizer_solver_failures_total",
		Help:      "Solver failures by solver and reason",
	}, []string{"solver", "reason"})

	DataFetchErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "data_fetch_errors_total",
		Help:      "Failed data source fetches by provider",
	}, []string{"provider"})
)

// Registry returns the process registry with every collector registered.
func Registry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			PipelineRunsTotal,
			SolveDuration,
			SolverFailuresTotal,
			DataFetchErrorsTotal,
		)
	})
	return registry
}

func Handler() http.Handler {
	return promhttp.HandlerFor(Registry(), promhttp.HandlerOpts{})
}

func RecordSolve(solver string, elapsed time.Duration, err error) {
	SolveDuration.WithLabelValues(solver).Observe(elapsed.Seconds())
	if err == nil {
		return
	}
	reason := "error"
	var failure domain.SolverFailure
	if errors.As(err, &failure) {
		reason = string(failure.Reason)
	}
	SolverFailuresTotal.WithLabelValues(solver, reason).Inc()
}

func RecordPipelineRun(err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	PipelineRunsTotal.WithLabelValues(status).Inc()
}

func RecordFetchError(provider string) {
	DataFetchErrorsTotal.WithLabelValues(provider).Inc()
}
