package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyLog is one record of the run's append-only ledger. The full list is
// the run's canonical output.
type DailyLog struct {
	Date      time.Time
	Prices    Vector
	Trades    Vector
	Portfolio Vector
	Feedback  map[string]Feedback
	Equity    decimal.Decimal
	Cash      decimal.Decimal
	PnL       decimal.Decimal
	Drawdown  decimal.Decimal
}
