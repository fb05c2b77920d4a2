package domain

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewWeightVector(t *testing.T) {
	t.Run("domain matches universe", func(t *testing.T) {
		w, err := NewWeightVector([]string{"B", "A"}, map[string]float64{"A": 0.4, "B": 0.6})
		require.NoError(t, err)
		require.Equal(t, []string{"A", "B"}, w.Symbols())
		require.InDelta(t, 1.0, w.Sum(), 1e-12)

		v, ok := w.Get("B")
		require.True(t, ok)
		require.Equal(t, 0.6, v)
		require.Equal(t, 0.4, w.Weight("A"))
		require.Equal(t, 0.0, w.Weight("C"))
	})
	t.Run("partial coverage", func(t *testing.T) {
		_, err := NewWeightVector([]string{"A", "B"}, map[string]float64{"A": 1})
		require.Error(t, err)
	})
	t.Run("extra symbol", func(t *testing.T) {
		_, err := NewWeightVector([]string{"A"}, map[string]float64{"A": 0.5, "B": 0.5})
		require.Error(t, err)
	})
	t.Run("nan weight", func(t *testing.T) {
		_, err := NewWeightVector([]string{"A"}, map[string]float64{"A": math.NaN()})
		require.Error(t, err)
	})
	t.Run("map is a copy", func(t *testing.T) {
		w, err := NewWeightVector([]string{"A"}, map[string]float64{"A": 1})
		require.NoError(t, err)
		m := w.Map()
		m["A"] = 0
		v, _ := w.Get("A")
		require.Equal(t, 1.0, v)
	})
	t.Run("bounds", func(t *testing.T) {
		w, err := NewWeightVector([]string{"A", "B"}, map[string]float64{"A": 0.35, "B": 0.65})
		require.NoError(t, err)
		symbol, ok := w.WithinBounds(0, 0.6, 1e-9)
		require.False(t, ok)
		require.Equal(t, "B", symbol)
	})
	t.Run("json", func(t *testing.T) {
		w, err := NewWeightVector([]string{"A"}, map[string]float64{"A": 1})
		require.NoError(t, err)
		b, err := json.Marshal(w)
		require.NoError(t, err)
		require.JSONEq(t, `{"A":1}`, string(b))
	})
}
