package engine

import (
	"time"

	"blackbox/types"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Position is one symbol's live holding state. Created on the first nonzero
// fill, mutated on every subsequent fill, removed once its quantity crosses
// the epsilon-zero threshold.
type Position struct {
	Symbol      string
	Quantity    decimal.Decimal
	EntryDate   time.Time
	EntryPrice  decimal.Decimal
	CostBasis   decimal.Decimal
	LastPrice   decimal.Decimal
	HoldingDays int

	lastUpdated time.Time
}

// applyFill folds one fill into the position: weighted-average entry price on
// increases, proportional cost-basis shrink on decreases.
func (p *Position) applyFill(date time.Time, price, qtyDelta, cost decimal.Decimal) {
	days := int(date.Sub(p.lastUpdated).Hours() / 24)
	if days > 0 {
		p.HoldingDays += days
	}
	p.lastUpdated = date
	p.LastPrice = price

	if qtyDelta.IsZero() {
		return
	}
	newQty := p.Quantity.Add(qtyDelta)

	switch {
	case types.IsZero(newQty):
		p.EntryPrice = decimal.Zero
		p.CostBasis = decimal.Zero
	case qtyDelta.Sign() == p.Quantity.Sign() || p.Quantity.IsZero():
		// Increasing (or opening): weighted-average the entry price.
		total := p.EntryPrice.Mul(p.Quantity.Abs()).Add(price.Mul(qtyDelta.Abs()))
		p.EntryPrice = total.Div(newQty.Abs())
		p.CostBasis = p.CostBasis.Add(cost)
	case newQty.Sign() != p.Quantity.Sign():
		// Flipped through zero: the remainder is a fresh position.
		p.EntryPrice = price
		p.CostBasis = cost
	default:
		// Reducing: shrink the basis in proportion to the quantity sold.
		ratio := qtyDelta.Abs().Div(p.Quantity.Abs())
		if ratio.GreaterThan(decimal.NewFromInt(1)) {
			ratio = decimal.NewFromInt(1)
		}
		p.CostBasis = p.CostBasis.Mul(decimal.NewFromInt(1).Sub(ratio))
	}
	p.Quantity = newQty
}

// PositionTracker owns per-symbol holding state and the pending-order slot.
// Cash is mastered by the Account and mirrored here after fills so that
// ComputePortfolioValue sees a consistent balance.
type PositionTracker struct {
	cash      decimal.Decimal
	positions map[string]*Position
	pending   types.PendingOrders
	log       *zap.Logger
}

func NewPositionTracker(initialCash decimal.Decimal, log *zap.Logger) *PositionTracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &PositionTracker{
		cash:      initialCash,
		positions: make(map[string]*Position),
		log:       log,
	}
}

// Portfolio returns the current non-zero positions as a quantity vector.
func (t *PositionTracker) Portfolio() types.Vector {
	out := types.NewVector()
	for sym, pos := range t.positions {
		if !types.IsZero(pos.Quantity) {
			out[sym] = pos.Quantity
		}
	}
	return out
}

// Position returns a copy of the symbol's holding state.
func (t *PositionTracker) Position(symbol string) (Position, bool) {
	pos, ok := t.positions[symbol]
	if !ok {
		return Position{}, false
	}
	return *pos, true
}

// CanTrade reports whether a reducing trade in the symbol is allowed: true
// if there is no position, or it has been held at least minHolding days.
func (t *PositionTracker) CanTrade(symbol string, date time.Time, minHolding int) bool {
	pos, ok := t.positions[symbol]
	if !ok {
		return true
	}
	held := int(date.Sub(pos.EntryDate).Hours() / 24)
	return held >= minHolding
}

// Filter removes trades that would violate the minimum holding period.
// Trades with weight >= 0 always pass; trades with weight < 0 pass only if
// CanTrade holds. Reducing a long and opening a short are deliberately
// treated the same: both are negative and both are gated.
func (t *PositionTracker) Filter(trades types.Vector, date time.Time, minHolding int) types.Vector {
	out := types.NewVector()
	for sym, delta := range trades {
		if delta.Sign() >= 0 || t.CanTrade(sym, date, minHolding) {
			out[sym] = delta
			continue
		}
		t.log.Debug("trade blocked by holding period",
			zap.String("symbol", sym),
			zap.Time("date", date),
			zap.Int("min_holding", minHolding))
	}
	return out
}

// ApplyFills folds executed fills into position metadata: entry price,
// cost basis and holding-day bookkeeping.
func (t *PositionTracker) ApplyFills(qtyDeltas, fillPrices, costs types.Vector, date time.Time) {
	for sym, delta := range qtyDeltas {
		if delta.IsZero() {
			continue
		}
		price := fillPrices.Get(sym)
		cost := costs.Get(sym)

		pos, ok := t.positions[sym]
		if !ok || types.IsZero(pos.Quantity) {
			t.positions[sym] = &Position{
				Symbol:      sym,
				Quantity:    delta,
				EntryDate:   date,
				EntryPrice:  price,
				CostBasis:   cost,
				LastPrice:   price,
				lastUpdated: date,
			}
			continue
		}
		pos.applyFill(date, price, delta, cost)
		if types.IsZero(pos.Quantity) {
			delete(t.positions, sym)
		}
	}
}

// Update reconciles tracker state to the post-trade portfolio: new or
// reopened symbols get their entry date reset to date, existing symbols keep
// their entry date and take the new quantity, and symbols whose new quantity
// is epsilon-zero are removed.
func (t *PositionTracker) Update(newPortfolio types.Vector, date time.Time) {
	for sym, qty := range newPortfolio {
		prev, ok := t.positions[sym]
		if !ok || types.IsZero(prev.Quantity) {
			t.positions[sym] = &Position{
				Symbol:      sym,
				Quantity:    qty,
				EntryDate:   date,
				lastUpdated: date,
			}
			continue
		}
		prev.Quantity = qty
	}
	for sym := range t.positions {
		if types.IsZero(newPortfolio.Get(sym)) {
			delete(t.positions, sym)
		}
	}
}

// RecordPendingOrders stores one set of orders for execution at the next
// open. The slot holds a single set; recording replaces any previous one.
func (t *PositionTracker) RecordPendingOrders(orders types.PendingOrders) {
	if len(orders) == 0 {
		t.pending = nil
		return
	}
	t.pending = make(types.PendingOrders, len(orders))
	copy(t.pending, orders)
}

func (t *PositionTracker) PendingOrders() types.PendingOrders {
	return t.pending
}

func (t *PositionTracker) ClearPendingOrders() {
	t.pending = nil
}

// ComputePortfolioValue returns cash plus the value of positions over the
// symbols present in prices. Symbols missing a price are excluded, not
// treated as zero-valued.
func (t *PositionTracker) ComputePortfolioValue(prices types.Vector) decimal.Decimal {
	value := t.cash
	for sym, pos := range t.positions {
		price, ok := prices[sym]
		if !ok {
			continue
		}
		value = value.Add(pos.Quantity.Mul(price))
	}
	return value
}

func (t *PositionTracker) Cash() decimal.Decimal {
	return t.cash
}

// SetCash mirrors the account's cash balance after fills are applied.
func (t *PositionTracker) SetCash(cash decimal.Decimal) {
	t.cash = cash
}
