package engine

import (
	"blackbox/internal/features"
	"blackbox/types"

	"github.com/shopspring/decimal"
)

// Model contracts consumed by the daily loop. Implementations are supplied
// externally and resolved by name through the model registry at startup.
// A stage returning an empty vector is a valid "no signal today" result.

type AlphaModel interface {
	Name() string
	// Predict produces raw alpha signals from today's feature cross-section.
	Predict(today features.Day) (types.Vector, error)
}

type RiskModel interface {
	Name() string
	// Apply adjusts raw signals using the trailing feature window.
	Apply(signals types.Vector, window *features.Window) (types.Vector, error)
}

type CostModel interface {
	Name() string
	// Adjust penalizes signals for expected transaction costs.
	Adjust(signals types.Vector, window *features.Window) (types.Vector, error)
}

// PortfolioTarget is the construction stage's output: target weights plus
// metadata about how the target should be executed.
type PortfolioTarget struct {
	Weights        types.Vector
	Capital        decimal.Decimal
	ExecutionStyle string
	Signals        types.Vector
}

type PortfolioModel interface {
	Name() string
	Construct(signals types.Vector, capital decimal.Decimal, window *features.Window, snapshot types.Snapshot) (PortfolioTarget, error)
	// FeedbackFromExecution is an optional learning hook invoked with the
	// feedback of each pending-order execution.
	FeedbackFromExecution(feedback map[string]types.Feedback)
}

// Models bundles the four externally supplied pipeline stages.
type Models struct {
	Alpha     AlphaModel
	Risk      RiskModel
	Cost      CostModel
	Portfolio PortfolioModel
}
