package types

import (
	"github.com/shopspring/decimal"
)

type FillStatus string

const (
	StatusFilled      FillStatus = "filled"
	StatusPartialFill FillStatus = "partial_fill"
	StatusRejected    FillStatus = "rejected"
)

// Rejection reasons. These are expected outcomes, not errors, and must stay
// queryable per symbol.
const (
	ReasonPriceLimitExceeded  = "price_limit_exceeded"
	ReasonTradeTooSmall       = "trade_too_small"
	ReasonInsufficientCapital = "insufficient_capital"
	ReasonMissingPrice        = "missing_price"
	ReasonShortNotAllowed     = "short_not_allowed"
)

// Feedback is the structured outcome for a single considered symbol.
type Feedback struct {
	Status         FillStatus
	Reason         string
	FillPrice      decimal.Decimal
	OriginalPrice  decimal.Decimal
	DecisionPrice  decimal.Decimal
	PriceChangePct decimal.Decimal
	Slippage       decimal.Decimal
	Commission     decimal.Decimal
	Notional       decimal.Decimal
	ScalingFactor  decimal.Decimal
}

// TradeResult is the outcome of one execution-simulation call. Executed and
// FillPrices contain only symbols that actually filled; Feedback covers every
// symbol that was considered.
type TradeResult struct {
	Executed   Vector
	FillPrices Vector
	Feedback   map[string]Feedback
}

func NewTradeResult() TradeResult {
	return TradeResult{
		Executed:   NewVector(),
		FillPrices: NewVector(),
		Feedback:   make(map[string]Feedback),
	}
}

// Filled counts symbols that filled fully or partially.
func (r TradeResult) Filled() int {
	n := 0
	for _, fb := range r.Feedback {
		if fb.Status == StatusFilled || fb.Status == StatusPartialFill {
			n++
		}
	}
	return n
}

// Rejected counts symbols whose trade was rejected.
func (r TradeResult) Rejected() int {
	n := 0
	for _, fb := range r.Feedback {
		if fb.Status == StatusRejected {
			n++
		}
	}
	return n
}
