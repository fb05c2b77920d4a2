package backtest

import (
	"fmt"
	"strings"
)

// Strategy decides how the target weights are held between anchors.
type Strategy string

const (
	// StrategyStaticDailyRebalance holds exactly the target every day, so
	// the schedule has no effect on the curve.
	StrategyStaticDailyRebalance Strategy = "static_daily_rebalance"
	// StrategyDriftingBuyAndHold buys the target at the first close and at
	// each anchor close and lets positions drift with prices in between.
	StrategyDriftingBuyAndHold Strategy = "drifting_buy_and_hold"
)

func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(strings.ToLower(strings.TrimSpace(s))); st {
	case "":
		return StrategyStaticDailyRebalance, nil
	case StrategyStaticDailyRebalance, StrategyDriftingBuyAndHold:
		return st, nil
	}
	return "", fmt.Errorf("unknown backtest strategy %q", s)
}
