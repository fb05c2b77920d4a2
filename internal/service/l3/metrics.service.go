package l3_service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"os"
	"time"

	"factorportfolio/internal/calculator"
	"factorportfolio/internal/domain"
	"factorportfolio/internal/logger"
	"factorportfolio/internal/repository"

	"github.com/gocarina/gocsv"
)

type Reporter interface {
	Render(ctx context.Context, curve domain.EquityCurve) error
}

// LogReporter logs the summary metrics of a curve.
type LogReporter struct {
	RiskFreeRate float64
}

func (r LogReporter) Render(ctx context.Context, curve domain.EquityCurve) error {
	log := logger.FromContext(ctx)
	if len(curve) < 2 {
		log.Infow("equity curve too short for metrics", "points", len(curve))
		return nil
	}

	m, err := calculator.CalculatePerformance(curve, r.RiskFreeRate)
	if err != nil {
		return fmt.Errorf("failed to calculate metrics: %w", err)
	}
	log.Infow(
		"backtest performance",
		"start", curve[0].Date.Format(time.DateOnly),
		"end", curve[len(curve)-1].Date.Format(time.DateOnly),
		"finalValue", curve.Final(),
		"totalReturn", m.TotalReturn,
		"annualizedReturn", m.AnnualizedReturn,
		"annualizedStdev", m.AnnualizedStdev,
		"sharpeRatio", m.SharpeRatio,
		"maxDrawdown", m.MaxDrawdown,
	)
	return nil
}

type equityCurveRow struct {
	Date        string  `csv:"date"`
	Value       float64 `csv:"value"`
	DailyReturn float64 `csv:"daily_return"`
	Drawdown    float64 `csv:"drawdown"`
}

func equityCurveRows(curve domain.EquityCurve) []*equityCurveRow {
	drawdowns := calculator.Drawdowns(curve.Values())
	rows := make([]*equityCurveRow, 0, len(curve))
	for i, p := range curve {
		rows = append(rows, &equityCurveRow{
			Date:        p.Date.Format(time.DateOnly),
			Value:       p.Value,
			DailyReturn: p.DailyReturn,
			Drawdown:    drawdowns[i],
		})
	}
	return rows
}

// CSVReporter writes the curve with its running drawdown to Path, or to
// Writer when set.
type CSVReporter struct {
	Path   string
	Writer io.Writer
}

func (r CSVReporter) Render(ctx context.Context, curve domain.EquityCurve) error {
	rows := equityCurveRows(curve)

	if r.Writer != nil {
		if err := gocsv.Marshal(rows, r.Writer); err != nil {
			return fmt.Errorf("failed to write equity curve csv: %w", err)
		}
		return nil
	}

	f, err := os.Create(r.Path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", r.Path, err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(rows, f); err != nil {
		return fmt.Errorf("failed to write equity curve csv: %w", err)
	}
	logger.FromContext(ctx).Infow("wrote equity curve", "path", r.Path, "rows", len(rows))
	return nil
}

var emailSummaryTemplate = template.Must(template.New("summary").Funcs(template.FuncMap{
	"pct": func(v float64) float64 { return v * 100 },
}).Parse(`<h2>Backtest {{.Start}} to {{.End}}</h2>
<table>
<tr><td>Final value</td><td>{{printf "%.4f" .FinalValue}}</td></tr>
{{- with .Metrics}}
<tr><td>Total return</td><td>{{printf "%.2f%%" (pct .TotalReturn)}}</td></tr>
<tr><td>Annualized return</td><td>{{printf "%.2f%%" (pct .AnnualizedReturn)}}</td></tr>
<tr><td>Annualized volatility</td><td>{{printf "%.2f%%" (pct .AnnualizedStdev)}}</td></tr>
<tr><td>Sharpe ratio</td><td>{{printf "%.3f" .SharpeRatio}}</td></tr>
<tr><td>Max drawdown</td><td>{{printf "%.2f%%" (pct .MaxDrawdown)}}</td></tr>
{{- end}}
</table>
`))

type emailSummary struct {
	Start      string
	End        string
	FinalValue float64
	Metrics    *calculator.PerformanceMetrics
}

// EmailReporter mails an HTML summary of the curve through SES.
type EmailReporter struct {
	EmailRepository repository.EmailRepository
	To              []string
	RiskFreeRate    float64
}

func renderEmailSummary(curve domain.EquityCurve, riskFreeRate float64) (string, string, error) {
	if len(curve) == 0 {
		return "", "", fmt.Errorf("cannot summarize an empty equity curve")
	}
	summary := emailSummary{
		Start:      curve[0].Date.Format(time.DateOnly),
		End:        curve[len(curve)-1].Date.Format(time.DateOnly),
		FinalValue: curve.Final(),
	}
	if len(curve) >= 2 {
		m, err := calculator.CalculatePerformance(curve, riskFreeRate)
		if err != nil {
			return "", "", fmt.Errorf("failed to calculate metrics: %w", err)
		}
		summary.Metrics = m
	}

	var body bytes.Buffer
	if err := emailSummaryTemplate.Execute(&body, summary); err != nil {
		return "", "", fmt.Errorf("failed to render email: %w", err)
	}
	subject := fmt.Sprintf("Factor portfolio backtest %s to %s", summary.Start, summary.End)
	return subject, body.String(), nil
}

func (r EmailReporter) Render(ctx context.Context, curve domain.EquityCurve) error {
	subject, body, err := renderEmailSummary(curve, r.RiskFreeRate)
	if err != nil {
		return err
	}
	if err := r.EmailRepository.SendEmail(ctx, r.To, subject, body); err != nil {
		return fmt.Errorf("failed to email backtest summary: %w", err)
	}
	return nil
}
