package models

import (
	"testing"
	"time"

	"blackbox/internal/features"
	"blackbox/types"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signalVec(entries map[string]float64) types.Vector {
	out := types.NewVector()
	for sym, val := range entries {
		out[sym] = decimal.NewFromFloat(val)
	}
	return out
}

func volWindow(vols map[string]float64) *features.Window {
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	builder := features.NewBuilder()
	for sym, vol := range vols {
		builder.Set(date, sym, "rolling_std_20", vol)
	}
	return builder.Build()
}

func TestPositionLimitRiskTopN(t *testing.T) {
	risk, err := NewPositionLimitRisk(paramsNode(t, `
max_positions: 2
max_position_size: 0.5
max_leverage: 1.0
`))
	require.NoError(t, err)

	signals := signalVec(map[string]float64{
		"AAPL": 0.5,
		"MSFT": -0.3,
		"KO":   0.1,
	})
	out, err := risk.Apply(signals, nil)
	require.NoError(t, err)

	require.Len(t, out, 2)
	assert.True(t, out.Has("AAPL"))
	assert.True(t, out.Has("MSFT"))
	assert.False(t, out.Has("KO"), "weakest signal must be cut")

	// Gross exposure scales to max_leverage.
	gross := grossExposure(out)
	assert.True(t, gross.Sub(decimal.NewFromInt(1)).Abs().LessThan(decimal.New(1, -9)))
}

func TestPositionLimitRiskClipsSingleName(t *testing.T) {
	risk, err := NewPositionLimitRisk(paramsNode(t, `
max_positions: 5
max_position_size: 0.2
max_leverage: 1.0
`))
	require.NoError(t, err)

	out, err := risk.Apply(signalVec(map[string]float64{"AAPL": 0.9, "MSFT": 0.1}), nil)
	require.NoError(t, err)

	// Clipping happens before leverage scaling, so the book is rebalanced
	// rather than dominated by one name.
	ratio := out["AAPL"].Div(out["MSFT"].Abs())
	assert.True(t, ratio.LessThan(decimal.NewFromInt(3)), "clip must cap concentration, got ratio %s", ratio)
}

func TestPositionLimitRiskEmptySignals(t *testing.T) {
	risk, err := NewPositionLimitRisk(nil)
	require.NoError(t, err)

	out, err := risk.Apply(types.NewVector(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestVolatilityCapRiskDropsVolatileNames(t *testing.T) {
	risk, err := NewVolatilityCapRisk(paramsNode(t, `
period: 20
max_vol: 0.05
`))
	require.NoError(t, err)

	window := volWindow(map[string]float64{
		"AAPL": 0.02,
		"MSFT": 0.09, // over the cap
	})
	signals := signalVec(map[string]float64{"AAPL": 0.5, "MSFT": 0.5})

	out, err := risk.Apply(signals, window)
	require.NoError(t, err)

	assert.False(t, out.Has("MSFT"))
	// Survivors absorb the dropped gross exposure.
	assert.True(t, out["AAPL"].Equal(decimal.NewFromFloat(1.0)))
}

func TestVolatilityCapRiskNoSurvivors(t *testing.T) {
	risk, err := NewVolatilityCapRisk(nil)
	require.NoError(t, err)

	window := volWindow(map[string]float64{"AAPL": 0.50})
	out, err := risk.Apply(signalVec(map[string]float64{"AAPL": 1.0}), window)
	require.NoError(t, err)
	assert.Empty(t, out)
}
