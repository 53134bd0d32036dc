package models

import (
	"fmt"
	"sort"

	"blackbox/internal/engine"
	"blackbox/internal/features"
	"blackbox/types"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

func init() {
	RegisterRisk("position_limit", func(params *yaml.Node) (engine.RiskModel, error) {
		return NewPositionLimitRisk(params)
	})
	RegisterRisk("volatility_cap", func(params *yaml.Node) (engine.RiskModel, error) {
		return NewVolatilityCapRisk(params)
	})
}

type PositionLimitRiskConfig struct {
	MaxPositions    int     `yaml:"max_positions"`
	MaxPositionSize float64 `yaml:"max_position_size"`
	MaxLeverage     float64 `yaml:"max_leverage"`
}

func (c *PositionLimitRiskConfig) Validate() error {
	if c.MaxPositions <= 0 {
		return fmt.Errorf("max_positions must be positive, got %d", c.MaxPositions)
	}
	if c.MaxPositionSize <= 0 || c.MaxPositionSize > 1 {
		return fmt.Errorf("max_position_size must be in (0, 1], got %v", c.MaxPositionSize)
	}
	if c.MaxLeverage <= 0 {
		return fmt.Errorf("max_leverage must be positive, got %v", c.MaxLeverage)
	}
	return nil
}

// PositionLimitRisk concentrates exposure into the strongest signals: keep the
// top max_positions by absolute value, clip each to max_position_size and
// scale the book to max_leverage gross.
type PositionLimitRisk struct {
	cfg PositionLimitRiskConfig
}

func NewPositionLimitRisk(params *yaml.Node) (*PositionLimitRisk, error) {
	cfg := PositionLimitRiskConfig{
		MaxPositions:    10,
		MaxPositionSize: 0.20,
		MaxLeverage:     1.0,
	}
	if err := decodeParams(params, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &PositionLimitRisk{cfg: cfg}, nil
}

func (r *PositionLimitRisk) Name() string { return "position_limit" }

func (r *PositionLimitRisk) Apply(signals types.Vector, _ *features.Window) (types.Vector, error) {
	if signals.IsEmpty() {
		return types.NewVector(), nil
	}

	symbols := signals.Symbols()
	sort.SliceStable(symbols, func(i, j int) bool {
		return signals[symbols[i]].Abs().GreaterThan(signals[symbols[j]].Abs())
	})
	if len(symbols) > r.cfg.MaxPositions {
		symbols = symbols[:r.cfg.MaxPositions]
	}

	maxSize := decimal.NewFromFloat(r.cfg.MaxPositionSize)
	out := types.NewVector()
	gross := decimal.Zero
	for _, sym := range symbols {
		w := signals[sym]
		if w.Abs().GreaterThan(maxSize) {
			w = maxSize.Mul(decimal.NewFromInt(int64(w.Sign())))
		}
		out[sym] = w
		gross = gross.Add(w.Abs())
	}
	if !gross.IsPositive() {
		return types.NewVector(), nil
	}

	scale := decimal.NewFromFloat(r.cfg.MaxLeverage).Div(gross)
	for sym, w := range out {
		out[sym] = w.Mul(scale)
	}
	return out, nil
}

type VolatilityCapRiskConfig struct {
	Period int     `yaml:"period"`
	MaxVol float64 `yaml:"max_vol"`
}

func (c *VolatilityCapRiskConfig) Validate() error {
	if c.Period <= 1 {
		return fmt.Errorf("period must be > 1, got %d", c.Period)
	}
	if c.MaxVol <= 0 {
		return fmt.Errorf("max_vol must be positive, got %v", c.MaxVol)
	}
	return nil
}

// VolatilityCapRisk drops symbols whose trailing rolling volatility exceeds
// the cap, then renormalizes the survivors to the original gross exposure.
type VolatilityCapRisk struct {
	cfg VolatilityCapRiskConfig
	col string
}

func NewVolatilityCapRisk(params *yaml.Node) (*VolatilityCapRisk, error) {
	cfg := VolatilityCapRiskConfig{Period: 20, MaxVol: 0.05}
	if err := decodeParams(params, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &VolatilityCapRisk{cfg: cfg, col: features.RollingStdColumn(cfg.Period)}, nil
}

func (r *VolatilityCapRisk) Name() string { return "volatility_cap" }

func (r *VolatilityCapRisk) Apply(signals types.Vector, window *features.Window) (types.Vector, error) {
	if signals.IsEmpty() || window.Empty() {
		return signals.Clone(), nil
	}
	dates := window.Dates()
	latest := window.Latest(dates[len(dates)-1])

	grossBefore := decimal.Zero
	for _, w := range signals {
		grossBefore = grossBefore.Add(w.Abs())
	}

	out := types.NewVector()
	gross := decimal.Zero
	for sym, w := range signals {
		row, ok := latest[sym]
		if !ok {
			continue
		}
		vol, ok := row[r.col]
		if !ok || vol > r.cfg.MaxVol {
			continue
		}
		out[sym] = w
		gross = gross.Add(w.Abs())
	}
	if !gross.IsPositive() {
		return types.NewVector(), nil
	}

	scale := grossBefore.Div(gross)
	for sym, w := range out {
		out[sym] = w.Mul(scale)
	}
	return out, nil
}
