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
	RegisterAlpha("momentum", func(params *yaml.Node) (engine.AlphaModel, error) {
		return NewMomentumAlpha(params)
	})
}

// MomentumAlphaConfig parameterizes the dual-horizon momentum signal.
type MomentumAlphaConfig struct {
	ShortPeriod int     `yaml:"short_period"`
	LongPeriod  int     `yaml:"long_period"`
	ShortWeight float64 `yaml:"short_weight"`
	LongWeight  float64 `yaml:"long_weight"`
	Threshold   float64 `yaml:"threshold"`
}

func (c *MomentumAlphaConfig) Validate() error {
	if c.ShortPeriod <= 0 || c.LongPeriod <= 0 {
		return fmt.Errorf("momentum periods must be positive, got %d/%d", c.ShortPeriod, c.LongPeriod)
	}
	if c.ShortPeriod >= c.LongPeriod {
		return fmt.Errorf("short_period %d must be below long_period %d", c.ShortPeriod, c.LongPeriod)
	}
	if c.Threshold < 0 {
		return fmt.Errorf("threshold must be >= 0, got %v", c.Threshold)
	}
	return nil
}

// MomentumAlpha blends short- and long-horizon momentum into one signal per
// symbol, drops signals inside the noise threshold and normalizes the rest to
// unit gross exposure.
type MomentumAlpha struct {
	cfg      MomentumAlphaConfig
	shortCol string
	longCol  string
}

func NewMomentumAlpha(params *yaml.Node) (*MomentumAlpha, error) {
	cfg := MomentumAlphaConfig{
		ShortPeriod: 20,
		LongPeriod:  60,
		ShortWeight: 0.5,
		LongWeight:  0.5,
		Threshold:   0.01,
	}
	if err := decodeParams(params, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &MomentumAlpha{
		cfg:      cfg,
		shortCol: features.MomentumColumn(cfg.ShortPeriod),
		longCol:  features.MomentumColumn(cfg.LongPeriod),
	}, nil
}

func (m *MomentumAlpha) Name() string { return "momentum" }

func (m *MomentumAlpha) Predict(today features.Day) (types.Vector, error) {
	signals := types.NewVector()
	for sym, row := range today.Rows {
		short, okS := row[m.shortCol]
		long, okL := row[m.longCol]
		if !okS || !okL {
			return nil, fmt.Errorf("symbol %s missing columns %s/%s on %s",
				sym, m.shortCol, m.longCol, today.Date.Format("2006-01-02"))
		}
		score := m.cfg.ShortWeight*short + m.cfg.LongWeight*long
		if score < m.cfg.Threshold && score > -m.cfg.Threshold {
			continue
		}
		signals[sym] = decimal.NewFromFloat(score)
	}
	return normalizeGross(signals), nil
}

// normalizeGross scales the vector so absolute values sum to one. An empty or
// all-zero vector passes through unchanged.
func normalizeGross(v types.Vector) types.Vector {
	gross := decimal.Zero
	for _, val := range v {
		gross = gross.Add(val.Abs())
	}
	if !gross.IsPositive() {
		return v
	}
	out := types.NewVector()
	for sym, val := range v {
		out[sym] = val.Div(gross)
	}
	return out
}
