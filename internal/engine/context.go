package engine

import (
	"errors"

	"go.uber.org/zap"
)

// RunContext carries everything one backtest run needs. It is constructed
// once and passed explicitly; there is no package-level state.
type RunContext struct {
	RunID   string
	Config  Config
	Log     *zap.Logger
	Models  Models
	Tracker *PositionTracker
	Account *Account
}

func NewRunContext(runID string, cfg Config, models Models, log *zap.Logger) (*RunContext, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if models.Alpha == nil || models.Risk == nil || models.Cost == nil || models.Portfolio == nil {
		return nil, errors.New("all four pipeline models must be supplied")
	}
	if log == nil {
		log = zap.NewNop()
	}
	initial := cfg.InitialCapital()
	return &RunContext{
		RunID:   runID,
		Config:  cfg,
		Log:     log,
		Models:  models,
		Tracker: NewPositionTracker(initial, log),
		Account: NewAccount(initial, log),
	}, nil
}
