package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// PendingOrder is a trade decided at one day's close, deferred for execution
// at the next day's open.
type PendingOrder struct {
	Symbol        string
	Delta         decimal.Decimal
	DecisionPrice decimal.Decimal
}

// PendingOrders is the single-slot order buffer recorded at reconciliation
// and consumed at the next open.
type PendingOrders []PendingOrder

// Weights returns the order deltas as a weight vector.
func (p PendingOrders) Weights() Vector {
	out := make(Vector, len(p))
	for _, o := range p {
		out[o.Symbol] = o.Delta
	}
	return out
}

// DecisionPrices returns the per-symbol prices at decision time.
func (p PendingOrders) DecisionPrices() Vector {
	out := make(Vector, len(p))
	for _, o := range p {
		out[o.Symbol] = o.DecisionPrice
	}
	return out
}

type TradeAction string

const (
	ActionEnter  TradeAction = "enter"
	ActionAdjust TradeAction = "adjust"
	ActionExit   TradeAction = "exit"
)

// TradeRecord is one row of the flat trade-history table.
type TradeRecord struct {
	Date     time.Time
	Symbol   string
	Weight   decimal.Decimal
	Price    decimal.Decimal
	Notional decimal.Decimal
	Action   TradeAction
}
