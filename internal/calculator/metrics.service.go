package calculator

import (
	"fmt"
	"math"

	"factorportfolio/internal/domain"

	"github.com/montanaflynn/stats"
)

const TradingDaysPerYear = 252

type PerformanceMetrics struct {
	TotalReturn      float64 `json:"totalReturn"`
	AnnualizedReturn float64 `json:"annualizedReturn"`
	AnnualizedStdev  float64 `json:"annualizedStdev"`
	SharpeRatio      float64 `json:"sharpeRatio"`
	MaxDrawdown      float64 `json:"maxDrawdown"`
}

// CalculatePerformance summarizes an equity curve. riskFreeRate is an
// annual rate; Sharpe uses the daily excess return series including the
// zero first-day return.
func CalculatePerformance(curve domain.EquityCurve, riskFreeRate float64) (*PerformanceMetrics, error) {
	if len(curve) < 2 {
		return nil, fmt.Errorf("cannot calculate metrics on < 2 equity points")
	}

	returns := curve.Returns()
	stdev, err := stats.StandardDeviationSample(returns)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate stdev of returns: %w", err)
	}

	startValue := curve[0].Value
	endValue := curve.Final()
	totalReturn := endValue/startValue - 1

	annualizedReturn := 0.0
	numHours := curve[len(curve)-1].Date.Sub(curve[0].Date).Hours()
	numYears := numHours / (365 * 24)
	if numYears > 0 {
		annualizedReturn = math.Pow(endValue/startValue, 1/numYears) - 1
	}

	sharpe, err := SharpeRatio(returns, riskFreeRate)
	if err != nil {
		return nil, err
	}

	return &PerformanceMetrics{
		TotalReturn:      totalReturn,
		AnnualizedReturn: annualizedReturn,
		AnnualizedStdev:  stdev * math.Sqrt(TradingDaysPerYear),
		SharpeRatio:      sharpe,
		MaxDrawdown:      MaxDrawdown(curve.Values()),
	}, nil
}

func SharpeRatio(dailyReturns []float64, riskFreeRate float64) (float64, error) {
	excess := make([]float64, len(dailyReturns))
	for i, r := range dailyReturns {
		excess[i] = r - riskFreeRate/TradingDaysPerYear
	}
	mean, err := stats.Mean(excess)
	if err != nil {
		return 0, fmt.Errorf("failed to calculate mean excess return: %w", err)
	}
	stdev, err := stats.StandardDeviationSample(excess)
	if err != nil {
		return 0, fmt.Errorf("failed to calculate stdev of excess returns: %w", err)
	}
	if stdev == 0 || math.IsNaN(stdev) {
		return 0, nil
	}
	return math.Sqrt(TradingDaysPerYear) * mean / stdev, nil
}

// Drawdowns returns (value - runningPeak) / runningPeak for each point.
func Drawdowns(values []float64) []float64 {
	out := make([]float64, len(values))
	peak := math.Inf(-1)
	for i, v := range values {
		peak = math.Max(peak, v)
		out[i] = (v - peak) / peak
	}
	return out
}

func MaxDrawdown(values []float64) float64 {
	worst := 0.0
	for _, dd := range Drawdowns(values) {
		worst = math.Min(worst, dd)
	}
	return worst
}
