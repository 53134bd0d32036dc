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
	RegisterAlpha("mean_reversion", func(params *yaml.Node) (engine.AlphaModel, error) {
		return NewMeanReversionAlpha(params)
	})
}

type MeanReversionAlphaConfig struct {
	Period    int     `yaml:"period"`
	Threshold float64 `yaml:"threshold"`
}

func (c *MeanReversionAlphaConfig) Validate() error {
	if c.Period <= 1 {
		return fmt.Errorf("period must be > 1, got %d", c.Period)
	}
	if c.Threshold < 0 {
		return fmt.Errorf("threshold must be >= 0, got %v", c.Threshold)
	}
	return nil
}

// MeanReversionAlpha bets against z-score extremes: a stretched price is
// expected to revert, so the signal is the negated z-score.
type MeanReversionAlpha struct {
	cfg MeanReversionAlphaConfig
	col string
}

func NewMeanReversionAlpha(params *yaml.Node) (*MeanReversionAlpha, error) {
	cfg := MeanReversionAlphaConfig{Period: 20, Threshold: 1.0}
	if err := decodeParams(params, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &MeanReversionAlpha{cfg: cfg, col: features.ZScoreColumn(cfg.Period)}, nil
}

func (m *MeanReversionAlpha) Name() string { return "mean_reversion" }

func (m *MeanReversionAlpha) Predict(today features.Day) (types.Vector, error) {
	signals := types.NewVector()
	for sym, row := range today.Rows {
		z, ok := row[m.col]
		if !ok {
			return nil, fmt.Errorf("symbol %s missing column %s on %s",
				sym, m.col, today.Date.Format("2006-01-02"))
		}
		if z < m.cfg.Threshold && z > -m.cfg.Threshold {
			continue
		}
		signals[sym] = decimal.NewFromFloat(-z)
	}
	return normalizeGross(signals), nil
}
