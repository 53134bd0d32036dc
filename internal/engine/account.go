package engine

import (
	"blackbox/types"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Account tracks cash, mark-to-market equity and the share-quantity position
// vector. Decisions upstream are made in weight space; executed weight deltas
// convert to share deltas here, at their fill prices.
type Account struct {
	cash      decimal.Decimal
	equity    decimal.Decimal
	positions types.Vector
	log       *zap.Logger
}

func NewAccount(initialCapital decimal.Decimal, log *zap.Logger) *Account {
	if log == nil {
		log = zap.NewNop()
	}
	return &Account{
		cash:      initialCapital,
		equity:    initialCapital,
		positions: types.NewVector(),
		log:       log,
	}
}

func (a *Account) Cash() decimal.Decimal {
	return a.cash
}

// Equity is the latest mark-to-market portfolio value.
func (a *Account) Equity() decimal.Decimal {
	return a.equity
}

// AvailableCapital returns the capital available for trading.
func (a *Account) AvailableCapital() decimal.Decimal {
	return a.equity
}

// Positions returns a copy of the share-quantity vector.
func (a *Account) Positions() types.Vector {
	return a.positions.Clone()
}

// Weights derives the current weight vector at the given prices. Symbols
// without a price are omitted.
func (a *Account) Weights(prices types.Vector) types.Vector {
	out := types.NewVector()
	if !a.equity.IsPositive() {
		return out
	}
	for sym, qty := range a.positions {
		price, ok := prices[sym]
		if !ok {
			continue
		}
		w := qty.Mul(price).Div(a.equity)
		if !types.IsZero(w) {
			out[sym] = w
		}
	}
	return out
}

// QuantityDeltas converts executed weight deltas to share deltas at their
// fill prices. Symbols without a fill price are skipped.
func (a *Account) QuantityDeltas(result types.TradeResult, capital decimal.Decimal) types.Vector {
	deltas := types.NewVector()
	for sym, dw := range result.Executed {
		fillPrice := result.FillPrices.Get(sym)
		if !fillPrice.IsPositive() {
			continue
		}
		deltas[sym] = dw.Mul(capital).Div(fillPrice)
	}
	return deltas
}

// UpdatePortfolio applies an execution result: positions take the share
// deltas, invested value is recomputed at prices, cash is re-derived as
// capital minus invested minus trading costs, and equity as invested plus
// cash. Positions whose quantity falls below epsilon are dropped.
// Returns the new position vector and the applied share deltas.
func (a *Account) UpdatePortfolio(result types.TradeResult, capital decimal.Decimal, prices types.Vector) (types.Vector, types.Vector) {
	deltas := a.QuantityDeltas(result, capital)

	next := a.positions.Clone()
	for sym, dq := range deltas {
		next[sym] = next.Get(sym).Add(dq)
	}
	next = next.NonZero()

	costs := decimal.Zero
	for sym := range result.Executed {
		fb := result.Feedback[sym]
		costs = costs.Add(fb.Slippage).Add(fb.Commission)
	}

	invested := decimal.Zero
	for sym, qty := range next {
		price, ok := prices[sym]
		if !ok {
			continue
		}
		invested = invested.Add(qty.Mul(price))
	}

	a.positions = next
	a.cash = capital.Sub(invested).Sub(costs)
	a.equity = invested.Add(a.cash)

	if a.cash.IsNegative() {
		a.log.Error("negative cash balance after portfolio update",
			zap.String("cash", a.cash.StringFixed(2)))
	}
	return next.Clone(), deltas
}

// MarkToMarket recomputes equity as cash plus position value at the given
// prices. Positions with a missing price are excluded from the sum, not
// zeroed, and logged.
func (a *Account) MarkToMarket(prices types.Vector) {
	invested := decimal.Zero
	for sym, qty := range a.positions {
		price, ok := prices[sym]
		if !ok {
			a.log.Warn("missing price at mark-to-market", zap.String("symbol", sym))
			continue
		}
		invested = invested.Add(qty.Mul(price))
	}
	a.equity = a.cash.Add(invested)
	a.log.Debug("mark-to-market",
		zap.String("equity", a.equity.StringFixed(2)),
		zap.String("cash", a.cash.StringFixed(2)))
}
