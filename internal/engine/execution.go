package engine

import (
	"sort"
	"time"

	"blackbox/types"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var one = decimal.NewFromInt(1)

// ExecutionParams are the fill-model constraints, in decimal form.
type ExecutionParams struct {
	Slippage            decimal.Decimal
	Commission          decimal.Decimal
	AllowShorts         bool
	MinNotional         decimal.Decimal
	MinExecutionCapital decimal.Decimal
	MaxAdversePricePct  decimal.Decimal
}

// ExecutionInput is one batch of desired trades to simulate.
type ExecutionInput struct {
	// Trades are desired weight deltas per symbol.
	Trades types.Vector
	// Prices are the execution prices (e.g. today's open).
	Prices types.Vector
	// DecisionPrices, when present, enable the adverse-drift guard.
	DecisionPrices types.Vector
	// Current holds current portfolio weights, used for the short check.
	Current types.Vector
	// Capital available at the start of this execution call.
	Capital decimal.Decimal
	Date    time.Time
}

type candidate struct {
	symbol     string
	delta      decimal.Decimal
	price      decimal.Decimal
	adjPrice   decimal.Decimal
	notional   decimal.Decimal
	slipCost   decimal.Decimal
	commission decimal.Decimal
}

func (c candidate) totalCost() decimal.Decimal {
	return c.notional.Add(c.slipCost).Add(c.commission)
}

// SimulateExecution turns desired weight deltas into fills under slippage,
// commission, capital, drift and notional constraints. It never mutates
// shared state; the caller applies Executed via Account.UpdatePortfolio.
//
// Sells are filled first and are never capital-constrained. Buys fill in
// descending order of requested dollar size; the first buy that cannot be
// fully funded is scaled down to consume the remaining capital exactly, and
// every buy after it is rejected.
func SimulateExecution(in ExecutionInput, params ExecutionParams, log *zap.Logger) types.TradeResult {
	if log == nil {
		log = zap.NewNop()
	}
	result := types.NewTradeResult()
	if in.Trades.IsEmpty() {
		return result
	}

	// Per-trade dollar floor; both knobs are dust filters.
	minSize := params.MinNotional
	if params.MinExecutionCapital.GreaterThan(minSize) {
		minSize = params.MinExecutionCapital
	}

	var sells, buys []candidate
	for _, sym := range in.Trades.Symbols() {
		delta := in.Trades[sym]
		if delta.IsZero() {
			continue
		}

		price, ok := in.Prices[sym]
		if !ok || !price.IsPositive() {
			log.Warn("missing execution price", zap.String("symbol", sym), zap.Time("date", in.Date))
			result.Feedback[sym] = types.Feedback{
				Status: types.StatusRejected,
				Reason: types.ReasonMissingPrice,
			}
			continue
		}

		// Buys pay up, sells receive down.
		sign := decimal.NewFromInt(int64(delta.Sign()))
		adjPrice := price.Mul(one.Add(params.Slippage.Mul(sign)))

		if fb, rejected := driftRejection(sym, delta, price, in.DecisionPrices, params.MaxAdversePricePct); rejected {
			result.Feedback[sym] = fb
			continue
		}

		notional := delta.Abs().Mul(in.Capital)
		if notional.LessThan(minSize) {
			result.Feedback[sym] = types.Feedback{
				Status:        types.StatusRejected,
				Reason:        types.ReasonTradeTooSmall,
				OriginalPrice: price,
				Notional:      notional,
			}
			continue
		}

		if !params.AllowShorts && in.Current.Get(sym).Add(delta).LessThan(types.Epsilon.Neg()) {
			result.Feedback[sym] = types.Feedback{
				Status:        types.StatusRejected,
				Reason:        types.ReasonShortNotAllowed,
				OriginalPrice: price,
				Notional:      notional,
			}
			continue
		}

		c := candidate{
			symbol:     sym,
			delta:      delta,
			price:      price,
			adjPrice:   adjPrice,
			notional:   notional,
			slipCost:   notional.Mul(params.Slippage),
			commission: notional.Mul(params.Commission),
		}
		if delta.Sign() < 0 {
			sells = append(sells, c)
		} else {
			buys = append(buys, c)
		}
	}

	remaining := in.Capital

	// Sells free capital and can never be capital-constrained.
	for _, c := range sells {
		result.Executed[c.symbol] = c.delta
		result.FillPrices[c.symbol] = c.adjPrice
		remaining = remaining.Add(c.notional).Sub(c.slipCost).Sub(c.commission)
		result.Feedback[c.symbol] = types.Feedback{
			Status:        types.StatusFilled,
			FillPrice:     c.adjPrice,
			OriginalPrice: c.price,
			Slippage:      c.slipCost,
			Commission:    c.commission,
			Notional:      c.notional,
		}
	}

	// Largest dollar size first; ties break on symbol for determinism.
	sort.Slice(buys, func(i, j int) bool {
		if !buys[i].notional.Equal(buys[j].notional) {
			return buys[i].notional.GreaterThan(buys[j].notional)
		}
		return buys[i].symbol < buys[j].symbol
	})

	exhausted := false
	for _, c := range buys {
		cost := c.totalCost()
		switch {
		case !exhausted && cost.LessThanOrEqual(remaining):
			result.Executed[c.symbol] = c.delta
			result.FillPrices[c.symbol] = c.adjPrice
			remaining = remaining.Sub(cost)
			result.Feedback[c.symbol] = types.Feedback{
				Status:        types.StatusFilled,
				FillPrice:     c.adjPrice,
				OriginalPrice: c.price,
				Slippage:      c.slipCost,
				Commission:    c.commission,
				Notional:      c.notional,
			}
		case !exhausted && remaining.IsPositive():
			// Single partial-fill boundary: scale down to consume the
			// remaining capital exactly.
			scale := remaining.Div(cost)
			result.Executed[c.symbol] = c.delta.Mul(scale)
			result.FillPrices[c.symbol] = c.adjPrice
			result.Feedback[c.symbol] = types.Feedback{
				Status:        types.StatusPartialFill,
				FillPrice:     c.adjPrice,
				OriginalPrice: c.price,
				Slippage:      c.slipCost.Mul(scale),
				Commission:    c.commission.Mul(scale),
				Notional:      c.notional.Mul(scale),
				ScalingFactor: scale,
			}
			remaining = decimal.Zero
			exhausted = true
		default:
			exhausted = true
			result.Feedback[c.symbol] = types.Feedback{
				Status:        types.StatusRejected,
				Reason:        types.ReasonInsufficientCapital,
				OriginalPrice: c.price,
				Notional:      c.notional,
			}
		}
	}

	log.Debug("execution summary",
		zap.Time("date", in.Date),
		zap.Int("filled", result.Filled()),
		zap.Int("rejected", result.Rejected()),
		zap.String("deployed", in.Capital.Sub(remaining).StringFixed(2)))

	return result
}

// driftRejection applies the price-drift guard: if the execution price has
// moved against the trade direction by more than maxAdverse since the
// decision price, the order is rejected rather than filled off a stale
// signal.
func driftRejection(sym string, delta, price decimal.Decimal, decisionPrices types.Vector, maxAdverse decimal.Decimal) (types.Feedback, bool) {
	if decisionPrices == nil {
		return types.Feedback{}, false
	}
	dp, ok := decisionPrices[sym]
	if !ok || !dp.IsPositive() {
		return types.Feedback{}, false
	}
	change := price.Div(dp).Sub(one)
	adverse := (delta.Sign() > 0 && change.GreaterThan(maxAdverse)) ||
		(delta.Sign() < 0 && change.LessThan(maxAdverse.Neg()))
	if !adverse {
		return types.Feedback{}, false
	}
	return types.Feedback{
		Status:         types.StatusRejected,
		Reason:         types.ReasonPriceLimitExceeded,
		OriginalPrice:  price,
		DecisionPrice:  dp,
		PriceChangePct: change,
	}, true
}
