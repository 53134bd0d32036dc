package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ExecutionConfig holds the fill-simulation knobs.
type ExecutionConfig struct {
	Slippage            float64 `yaml:"slippage"`
	Commission          float64 `yaml:"commission"`
	AllowShorts         bool    `yaml:"allow_shorts"`
	MinNotional         float64 `yaml:"min_notional"`
	MinExecutionCapital float64 `yaml:"min_execution_capital"`
	MaxAdversePricePct  float64 `yaml:"max_adverse_price_pct"`
}

// Config holds the loop-level knobs. Invalid combinations fail at startup,
// before the loop runs.
type Config struct {
	RunID                 string          `yaml:"run_id"`
	InitialPortfolioValue float64         `yaml:"initial_portfolio_value"`
	MinHoldingPeriod      int             `yaml:"min_holding_period"`
	MinTradeSize          float64         `yaml:"min_trade_size"`
	MaxPositionSize       float64         `yaml:"max_position_size"`
	Warmup                int             `yaml:"warmup"`
	RiskFreeRate          float64         `yaml:"risk_free_rate"`
	Execution             ExecutionConfig `yaml:"execution"`
}

// DefaultConfig mirrors the documented knob defaults.
func DefaultConfig() Config {
	return Config{
		InitialPortfolioValue: 1_000_000,
		MinTradeSize:          0.0001,
		MaxPositionSize:       0.20,
		Warmup:                20,
		Execution: ExecutionConfig{
			Slippage:            0.001,
			Commission:          0.0005,
			AllowShorts:         true,
			MinNotional:         1.0,
			MinExecutionCapital: 100.0,
			MaxAdversePricePct:  0.03,
		},
	}
}

func (c *Config) Validate() error {
	if c.InitialPortfolioValue <= 0 {
		return fmt.Errorf("initial_portfolio_value must be positive, got %v", c.InitialPortfolioValue)
	}
	if c.MinHoldingPeriod < 0 {
		return fmt.Errorf("min_holding_period must be >= 0, got %d", c.MinHoldingPeriod)
	}
	if c.MinTradeSize < 0 {
		return fmt.Errorf("min_trade_size must be >= 0, got %v", c.MinTradeSize)
	}
	if c.MaxPositionSize <= 0 || c.MaxPositionSize > 1 {
		return fmt.Errorf("max_position_size must be in (0, 1], got %v", c.MaxPositionSize)
	}
	if c.Warmup < 0 {
		return fmt.Errorf("warmup must be >= 0, got %d", c.Warmup)
	}
	return c.Execution.Validate()
}

func (e *ExecutionConfig) Validate() error {
	if e.Slippage < 0 || e.Slippage >= 1 {
		return fmt.Errorf("slippage must be in [0, 1), got %v", e.Slippage)
	}
	if e.Commission < 0 || e.Commission >= 1 {
		return fmt.Errorf("commission must be in [0, 1), got %v", e.Commission)
	}
	if e.MinNotional < 0 {
		return fmt.Errorf("min_notional must be >= 0, got %v", e.MinNotional)
	}
	if e.MinExecutionCapital < 0 {
		return fmt.Errorf("min_execution_capital must be >= 0, got %v", e.MinExecutionCapital)
	}
	if e.MaxAdversePricePct <= 0 {
		return fmt.Errorf("max_adverse_price_pct must be positive, got %v", e.MaxAdversePricePct)
	}
	return nil
}

// Params converts the config to the decimal form the simulator consumes.
func (e *ExecutionConfig) Params() ExecutionParams {
	return ExecutionParams{
		Slippage:            decimal.NewFromFloat(e.Slippage),
		Commission:          decimal.NewFromFloat(e.Commission),
		AllowShorts:         e.AllowShorts,
		MinNotional:         decimal.NewFromFloat(e.MinNotional),
		MinExecutionCapital: decimal.NewFromFloat(e.MinExecutionCapital),
		MaxAdversePricePct:  decimal.NewFromFloat(e.MaxAdversePricePct),
	}
}

func (c *Config) InitialCapital() decimal.Decimal {
	return decimal.NewFromFloat(c.InitialPortfolioValue)
}

func (c *Config) MinTradeSizeDec() decimal.Decimal {
	return decimal.NewFromFloat(c.MinTradeSize)
}

func (c *Config) MaxPositionSizeDec() decimal.Decimal {
	return decimal.NewFromFloat(c.MaxPositionSize)
}

func (c *Config) RiskFreeRateDec() decimal.Decimal {
	return decimal.NewFromFloat(c.RiskFreeRate)
}
