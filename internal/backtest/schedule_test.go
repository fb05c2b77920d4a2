package backtest

import (
	"testing"
	"time"

	"factorportfolio/internal/util"

	"github.com/stretchr/testify/require"
)

func TestSchedule_AnchorIndices(t *testing.T) {
	t.Run("monthly picks the last trading day of each month", func(t *testing.T) {
		dates := []time.Time{
			util.NewDate(2024, 1, 30),
			util.NewDate(2024, 1, 31),
			util.NewDate(2024, 2, 1),
			util.NewDate(2024, 2, 29),
			util.NewDate(2024, 3, 1),
		}
		out, err := MonthlySchedule().AnchorIndices(dates)
		require.NoError(t, err)
		require.Equal(t, []int{1, 3, 4}, out)
	})

	t.Run("quarterly picks the last trading day of each quarter", func(t *testing.T) {
		dates := []time.Time{
			util.NewDate(2023, 12, 29),
			util.NewDate(2024, 1, 2),
			util.NewDate(2024, 3, 28),
			util.NewDate(2024, 4, 1),
			util.NewDate(2024, 6, 28),
			util.NewDate(2024, 7, 1),
		}
		out, err := QuarterlySchedule().AnchorIndices(dates)
		require.NoError(t, err)
		require.Equal(t, []int{0, 2, 4, 5}, out)
	})

	t.Run("explicit dates map to the last trading day on or before", func(t *testing.T) {
		dates := []time.Time{
			util.NewDate(2024, 1, 5),
			util.NewDate(2024, 1, 8),
			util.NewDate(2024, 1, 9),
		}
		out, err := ExplicitSchedule([]time.Time{
			util.NewDate(2024, 1, 1),
			util.NewDate(2024, 1, 6),
			util.NewDate(2024, 1, 7),
			util.NewDate(2024, 1, 9),
			util.NewDate(2024, 2, 1),
		}).AnchorIndices(dates)
		require.NoError(t, err)
		require.Equal(t, []int{0, 2}, out)
	})

	t.Run("explicit dates must increase", func(t *testing.T) {
		_, err := ExplicitSchedule([]time.Time{
			util.NewDate(2024, 1, 9),
			util.NewDate(2024, 1, 9),
		}).AnchorIndices(nil)
		require.Error(t, err)
	})
}

func TestParseFrequency(t *testing.T) {
	f, err := ParseFrequency(" Quarterly ")
	require.NoError(t, err)
	require.Equal(t, FrequencyQuarterly, f)

	_, err = ParseFrequency("weekly")
	require.Error(t, err)
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("")
	require.NoError(t, err)
	require.Equal(t, StrategyStaticDailyRebalance, s)

	s, err = ParseStrategy("drifting_buy_and_hold")
	require.NoError(t, err)
	require.Equal(t, StrategyDriftingBuyAndHold, s)

	_, err = ParseStrategy("momentum")
	require.Error(t, err)
}
