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
	RegisterPortfolio("volatility_scaled", func(params *yaml.Node) (engine.PortfolioModel, error) {
		return NewVolatilityScaledPortfolio(params)
	})
	RegisterPortfolio("equal_weight", func(params *yaml.Node) (engine.PortfolioModel, error) {
		return NewEqualWeightPortfolio(params)
	})
}

type VolatilityScaledPortfolioConfig struct {
	VolPeriod  int     `yaml:"vol_period"`
	RiskTarget float64 `yaml:"risk_target"`
	MaxWeight  float64 `yaml:"max_weight"`
}

func (c *VolatilityScaledPortfolioConfig) Validate() error {
	if c.VolPeriod <= 1 {
		return fmt.Errorf("vol_period must be > 1, got %d", c.VolPeriod)
	}
	if c.RiskTarget <= 0 {
		return fmt.Errorf("risk_target must be positive, got %v", c.RiskTarget)
	}
	if c.MaxWeight <= 0 || c.MaxWeight > 1 {
		return fmt.Errorf("max_weight must be in (0, 1], got %v", c.MaxWeight)
	}
	return nil
}

// VolatilityScaledPortfolio sizes each position inversely to its trailing
// volatility: weight = signal * risk_target / vol, clipped to ±max_weight.
// If gross exposure exceeds one after clipping, the book is scaled back down.
type VolatilityScaledPortfolio struct {
	cfg VolatilityScaledPortfolioConfig
	col string

	lastFeedback map[string]types.Feedback
}

func NewVolatilityScaledPortfolio(params *yaml.Node) (*VolatilityScaledPortfolio, error) {
	cfg := VolatilityScaledPortfolioConfig{
		VolPeriod:  20,
		RiskTarget: 0.02,
		MaxWeight:  0.20,
	}
	if err := decodeParams(params, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &VolatilityScaledPortfolio{
		cfg: cfg,
		col: features.RollingStdColumn(cfg.VolPeriod),
	}, nil
}

func (p *VolatilityScaledPortfolio) Name() string { return "volatility_scaled" }

func (p *VolatilityScaledPortfolio) Construct(signals types.Vector, capital decimal.Decimal, window *features.Window, _ types.Snapshot) (engine.PortfolioTarget, error) {
	target := engine.PortfolioTarget{
		Weights:        types.NewVector(),
		Capital:        capital,
		ExecutionStyle: "market",
		Signals:        signals.Clone(),
	}
	if signals.IsEmpty() || window.Empty() {
		return target, nil
	}

	dates := window.Dates()
	latest := window.Latest(dates[len(dates)-1])
	riskTarget := decimal.NewFromFloat(p.cfg.RiskTarget)
	maxWeight := decimal.NewFromFloat(p.cfg.MaxWeight)

	gross := decimal.Zero
	for sym, s := range signals {
		row, ok := latest[sym]
		if !ok {
			continue
		}
		vol, ok := row[p.col]
		if !ok || vol <= 0 {
			continue
		}
		w := s.Mul(riskTarget).Div(decimal.NewFromFloat(vol))
		if w.Abs().GreaterThan(maxWeight) {
			w = maxWeight.Mul(decimal.NewFromInt(int64(w.Sign())))
		}
		target.Weights[sym] = w
		gross = gross.Add(w.Abs())
	}

	if gross.GreaterThan(decimal.NewFromInt(1)) {
		for sym, w := range target.Weights {
			target.Weights[sym] = w.Div(gross)
		}
	}
	return target, nil
}

// FeedbackFromExecution keeps the most recent execution feedback so the next
// construction can inspect rejections.
func (p *VolatilityScaledPortfolio) FeedbackFromExecution(feedback map[string]types.Feedback) {
	p.lastFeedback = feedback
}

// LastFeedback returns the execution feedback from the most recent fill pass.
func (p *VolatilityScaledPortfolio) LastFeedback() map[string]types.Feedback {
	return p.lastFeedback
}

type EqualWeightPortfolioConfig struct {
	MaxWeight float64 `yaml:"max_weight"`
}

// EqualWeightPortfolio splits gross exposure evenly across signaled symbols,
// keeping each signal's direction.
type EqualWeightPortfolio struct {
	cfg          EqualWeightPortfolioConfig
	lastFeedback map[string]types.Feedback
}

func NewEqualWeightPortfolio(params *yaml.Node) (*EqualWeightPortfolio, error) {
	cfg := EqualWeightPortfolioConfig{MaxWeight: 0.20}
	if err := decodeParams(params, &cfg); err != nil {
		return nil, err
	}
	if cfg.MaxWeight <= 0 || cfg.MaxWeight > 1 {
		return nil, fmt.Errorf("max_weight must be in (0, 1], got %v", cfg.MaxWeight)
	}
	return &EqualWeightPortfolio{cfg: cfg}, nil
}

func (p *EqualWeightPortfolio) Name() string { return "equal_weight" }

func (p *EqualWeightPortfolio) Construct(signals types.Vector, capital decimal.Decimal, _ *features.Window, _ types.Snapshot) (engine.PortfolioTarget, error) {
	target := engine.PortfolioTarget{
		Weights:        types.NewVector(),
		Capital:        capital,
		ExecutionStyle: "market",
		Signals:        signals.Clone(),
	}
	n := len(signals)
	if n == 0 {
		return target, nil
	}

	w := decimal.NewFromInt(1).Div(decimal.NewFromInt(int64(n)))
	maxWeight := decimal.NewFromFloat(p.cfg.MaxWeight)
	if w.GreaterThan(maxWeight) {
		w = maxWeight
	}
	for sym, s := range signals {
		if s.IsZero() {
			continue
		}
		target.Weights[sym] = w.Mul(decimal.NewFromInt(int64(s.Sign())))
	}
	return target, nil
}

func (p *EqualWeightPortfolio) FeedbackFromExecution(feedback map[string]types.Feedback) {
	p.lastFeedback = feedback
}
