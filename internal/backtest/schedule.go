package backtest

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

type Frequency string

const (
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyExplicit  Frequency = "explicit"
)

func ParseFrequency(s string) (Frequency, error) {
	switch f := Frequency(strings.ToLower(strings.TrimSpace(s))); f {
	case FrequencyMonthly, FrequencyQuarterly, FrequencyExplicit:
		return f, nil
	}
	return "", fmt.Errorf("unknown rebalance frequency %q", s)
}

// Schedule picks the closes at which holdings are reset to target.
// Dates is only read for FrequencyExplicit.
type Schedule struct {
	Frequency Frequency
	Dates     []time.Time
}

func MonthlySchedule() Schedule {
	return Schedule{Frequency: FrequencyMonthly}
}

func QuarterlySchedule() Schedule {
	return Schedule{Frequency: FrequencyQuarterly}
}

func ExplicitSchedule(dates []time.Time) Schedule {
	return Schedule{
		Frequency: FrequencyExplicit,
		Dates:     append([]time.Time{}, dates...),
	}
}

func (s Schedule) Validate() error {
	if _, err := ParseFrequency(string(s.Frequency)); err != nil {
		return err
	}
	if s.Frequency != FrequencyExplicit {
		return nil
	}
	for i := 1; i < len(s.Dates); i++ {
		if !s.Dates[i].After(s.Dates[i-1]) {
			return fmt.Errorf(
				"explicit rebalance dates must be strictly increasing: %s follows %s",
				s.Dates[i].Format(time.DateOnly),
				s.Dates[i-1].Format(time.DateOnly),
			)
		}
	}
	return nil
}

// AnchorIndices maps the schedule onto trading dates. Each anchor is the
// last trading day on or before the anchor date; for monthly and
// quarterly schedules that is the last trading day of each period.
// Anchors before the first trading day are dropped.
func (s Schedule) AnchorIndices(dates []time.Time) ([]int, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	out := []int{}
	switch s.Frequency {
	case FrequencyMonthly, FrequencyQuarterly:
		period := monthPeriod
		if s.Frequency == FrequencyQuarterly {
			period = quarterPeriod
		}
		for i := range dates {
			if i == len(dates)-1 || period(dates[i+1]) != period(dates[i]) {
				out = append(out, i)
			}
		}
	case FrequencyExplicit:
		for _, anchor := range s.Dates {
			next := sort.Search(len(dates), func(i int) bool {
				return dates[i].After(anchor)
			})
			idx := next - 1
			if idx < 0 {
				continue
			}
			if len(out) > 0 && out[len(out)-1] == idx {
				continue
			}
			out = append(out, idx)
		}
	}
	return out, nil
}

func monthPeriod(t time.Time) int {
	return t.Year()*12 + int(t.Month()) - 1
}

func quarterPeriod(t time.Time) int {
	return t.Year()*4 + (int(t.Month())-1)/3
}
