package models

import (
	"fmt"

	"blackbox/internal/engine"
	"blackbox/internal/features"
	"blackbox/types"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

func init() {
	RegisterCost("fixed", func(params *yaml.Node) (engine.CostModel, error) {
		return NewFixedCost(params)
	})
	RegisterCost("none", func(params *yaml.Node) (engine.CostModel, error) {
		return NoopCost{}, nil
	})
}

type FixedCostConfig struct {
	Slippage   float64 `yaml:"slippage"`
	Commission float64 `yaml:"commission"`
	Penalty    float64 `yaml:"penalty"`
}

func (c *FixedCostConfig) Validate() error {
	if c.Slippage < 0 || c.Commission < 0 {
		return fmt.Errorf("slippage and commission must be >= 0, got %v/%v", c.Slippage, c.Commission)
	}
	if c.Penalty < 0 {
		return fmt.Errorf("penalty must be >= 0, got %v", c.Penalty)
	}
	return nil
}

// FixedCost shrinks each signal toward zero by its expected round-trip cost,
// scaled by a penalty multiplier. Signals smaller than their own cost drag
// are zeroed rather than flipped.
type FixedCost struct {
	cfg  FixedCostConfig
	drag decimal.Decimal
}

func NewFixedCost(params *yaml.Node) (*FixedCost, error) {
	cfg := FixedCostConfig{Slippage: 0.001, Commission: 0.0005, Penalty: 1.0}
	if err := decodeParams(params, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	drag := decimal.NewFromFloat(cfg.Slippage).
		Add(decimal.NewFromFloat(cfg.Commission)).
		Mul(decimal.NewFromFloat(cfg.Penalty))
	return &FixedCost{cfg: cfg, drag: drag}, nil
}

func (c *FixedCost) Name() string { return "fixed" }

func (c *FixedCost) Adjust(signals types.Vector, _ *features.Window) (types.Vector, error) {
	out := types.NewVector()
	for sym, w := range signals {
		shrunk := w.Abs().Sub(w.Abs().Mul(c.drag))
		if !shrunk.IsPositive() {
			continue
		}
		out[sym] = shrunk.Mul(decimal.NewFromInt(int64(w.Sign())))
	}
	return out, nil
}

// NoopCost passes signals through unchanged.
type NoopCost struct{}

func (NoopCost) Name() string { return "none" }

func (NoopCost) Adjust(signals types.Vector, _ *features.Window) (types.Vector, error) {
	return signals.Clone(), nil
}
