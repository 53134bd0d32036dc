package engine

import (
	"blackbox/types"

	"github.com/shopspring/decimal"
)

// tradePrecision is the number of decimals trade weights are rounded to,
// to keep floating noise out of the pending-order buffer.
const tradePrecision = 6

// Reconcile computes the weight deltas needed to move the current portfolio
// to the target. Targets are clipped to ±maxPositionSize and deltas smaller
// than minTradeSize are dropped. Pure; no side effects.
func Reconcile(current, target types.Vector, minTradeSize, maxPositionSize decimal.Decimal) types.Vector {
	trades := types.NewVector()
	for _, sym := range current.UnionSymbols(target) {
		clipped := clip(target.Get(sym), maxPositionSize.Neg(), maxPositionSize)
		delta := clipped.Sub(current.Get(sym))
		if delta.Abs().LessThan(minTradeSize) {
			continue
		}
		trades[sym] = delta.Round(tradePrecision)
	}
	return trades
}

func clip(d, lower, upper decimal.Decimal) decimal.Decimal {
	if d.LessThan(lower) {
		return lower
	}
	if d.GreaterThan(upper) {
		return upper
	}
	return d
}
