package domain

import "time"

type EquityPoint struct {
	Date        time.Time `json:"date"`
	Value       float64   `json:"value"`
	DailyReturn float64   `json:"dailyReturn"`
}

// EquityCurve starts at 1.0 and compounds DailyReturn day over day.
type EquityCurve []EquityPoint

func (e EquityCurve) Values() []float64 {
	out := make([]float64, len(e))
	for i, p := range e {
		out[i] = p.Value
	}
	return out
}

func (e EquityCurve) Returns() []float64 {
	out := make([]float64, len(e))
	for i, p := range e {
		out[i] = p.DailyReturn
	}
	return out
}

func (e EquityCurve) Final() float64 {
	if len(e) == 0 {
		return 0
	}
	return e[len(e)-1].Value
}
