package engine

import (
	"errors"
	"fmt"
	"time"

	"blackbox/internal/features"
	"blackbox/types"

	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrNoDaysProcessed flags a run in which every day was skipped or failed.
var ErrNoDaysProcessed = errors.New("no trading days processed")

type DayStatus string

const (
	DayProcessed              DayStatus = "processed"
	DaySkippedWarmup          DayStatus = "skipped_warmup"
	DaySkippedMissingFeatures DayStatus = "skipped_missing_features"
	DaySkippedError           DayStatus = "skipped_error"
)

// DayOutcome is the explicit per-day result the loop branches on; skips are
// values, not control-flow exceptions.
type DayOutcome struct {
	Date   time.Time
	Status DayStatus
	Reason string
	Log    *types.DailyLog
}

// RunResult is the canonical output of one backtest run.
type RunResult struct {
	Logs     []types.DailyLog
	Trades   []types.TradeRecord
	Outcomes []DayOutcome
}

// Backtester sequences per-day processing over a pre-assembled snapshot
// series and feature window. Strictly single-threaded: each day's fills feed
// the next day's capital and holding-period clocks.
type Backtester struct {
	ctx       *RunContext
	snapshots []types.Snapshot
	window    *features.Window

	logs          []types.DailyLog
	tradeRecords  []types.TradeRecord
	prevPortfolio types.Vector
	prevEquity    decimal.Decimal
	peakEquity    decimal.Decimal
}

func NewBacktester(ctx *RunContext, snapshots []types.Snapshot, window *features.Window) *Backtester {
	initial := ctx.Config.InitialCapital()
	return &Backtester{
		ctx:           ctx,
		snapshots:     snapshots,
		window:        window,
		prevPortfolio: types.NewVector(),
		prevEquity:    initial,
		peakEquity:    initial,
	}
}

// Run iterates the trading days in order. A failure inside one day is
// recovered at the day boundary and the loop continues; only a run with zero
// processed days is reported as ErrNoDaysProcessed.
func (b *Backtester) Run() (*RunResult, error) {
	log := b.ctx.Log
	log.Info("starting backtest",
		zap.String("run_id", b.ctx.RunID),
		zap.Int("days", len(b.snapshots)))

	bar := newProgressBar(len(b.snapshots))
	outcomes := make([]DayOutcome, 0, len(b.snapshots))

	for _, snapshot := range b.snapshots {
		outcome := b.safeProcessDay(snapshot)
		outcomes = append(outcomes, outcome)

		switch outcome.Status {
		case DayProcessed:
			b.logs = append(b.logs, *outcome.Log)
			b.recordTradesForDay(*outcome.Log)
			b.prevPortfolio = outcome.Log.Portfolio.Clone()
			b.prevEquity = outcome.Log.Equity
		case DaySkippedMissingFeatures:
			log.Warn("no features for date, skipping",
				zap.Time("date", snapshot.Date))
		case DaySkippedError:
			log.Error("trading day failed, skipping",
				zap.Time("date", snapshot.Date),
				zap.String("reason", outcome.Reason))
		}
		_ = bar.Add(1)
	}

	result := &RunResult{Logs: b.logs, Trades: b.tradeRecords, Outcomes: outcomes}
	if len(b.logs) == 0 {
		return result, ErrNoDaysProcessed
	}
	log.Info("backtest complete", zap.Int("processed_days", len(b.logs)))
	return result, nil
}

// safeProcessDay recovers panics at the day boundary so a single bad day
// cannot abort the run. Fills already applied in step 1 are not rolled back.
func (b *Backtester) safeProcessDay(snapshot types.Snapshot) (outcome DayOutcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = DayOutcome{
				Date:   snapshot.Date,
				Status: DaySkippedError,
				Reason: fmt.Sprintf("panic: %v", r),
			}
		}
	}()
	return b.processDay(snapshot)
}

func (b *Backtester) processDay(snapshot types.Snapshot) DayOutcome {
	date := snapshot.Date

	if b.window.Empty() || date.Before(b.window.MinDate()) {
		return DayOutcome{Date: date, Status: DaySkippedWarmup, Reason: "date precedes feature availability"}
	}
	today, ok := b.window.At(date)
	if !ok {
		return DayOutcome{Date: date, Status: DaySkippedMissingFeatures, Reason: "date not in feature window"}
	}

	dayLog, err := b.simulateDay(snapshot, today)
	if err != nil {
		return DayOutcome{Date: date, Status: DaySkippedError, Reason: err.Error()}
	}
	return DayOutcome{Date: date, Status: DayProcessed, Log: dayLog}
}

func (b *Backtester) simulateDay(snapshot types.Snapshot, today features.Day) (*types.DailyLog, error) {
	cfg := b.ctx.Config
	log := b.ctx.Log
	tracker := b.ctx.Tracker
	account := b.ctx.Account
	date := snapshot.Date

	// 1. Execute pending orders from the previous close at today's open.
	execResult := types.NewTradeResult()
	if pending := tracker.PendingOrders(); len(pending) > 0 {
		capitalAtOpen := tracker.ComputePortfolioValue(snapshot.Open)
		log.Debug("executing pending orders",
			zap.Time("date", date),
			zap.Int("orders", len(pending)),
			zap.String("capital", capitalAtOpen.StringFixed(2)))

		execResult = SimulateExecution(ExecutionInput{
			Trades:         pending.Weights(),
			Prices:         snapshot.Open,
			DecisionPrices: pending.DecisionPrices(),
			Current:        account.Weights(snapshot.Open),
			Capital:        capitalAtOpen,
			Date:           date,
		}, cfg.Execution.Params(), log)

		newPortfolio, qtyDeltas := account.UpdatePortfolio(execResult, capitalAtOpen, snapshot.Open)
		tracker.ApplyFills(qtyDeltas, execResult.FillPrices, executionCosts(execResult), date)
		tracker.Update(newPortfolio, date)
		tracker.SetCash(account.Cash())
		tracker.ClearPendingOrders()

		b.ctx.Models.Portfolio.FeedbackFromExecution(execResult.Feedback)
	}

	// 2. Recompute capital at today's close for signal-generation context.
	account.MarkToMarket(snapshot.Close)
	capital := account.AvailableCapital()

	// 3. Alpha -> risk -> cost -> portfolio construction.
	trailing := b.window.Trailing(date, cfg.Warmup)

	raw, err := b.ctx.Models.Alpha.Predict(today)
	if err != nil {
		return nil, fmt.Errorf("alpha %s: %w", b.ctx.Models.Alpha.Name(), err)
	}
	riskAdjusted, err := b.ctx.Models.Risk.Apply(raw, trailing)
	if err != nil {
		return nil, fmt.Errorf("risk %s: %w", b.ctx.Models.Risk.Name(), err)
	}
	costAdjusted, err := b.ctx.Models.Cost.Adjust(riskAdjusted, trailing)
	if err != nil {
		return nil, fmt.Errorf("cost %s: %w", b.ctx.Models.Cost.Name(), err)
	}
	target, err := b.ctx.Models.Portfolio.Construct(costAdjusted, capital, trailing, snapshot)
	if err != nil {
		return nil, fmt.Errorf("portfolio %s: %w", b.ctx.Models.Portfolio.Name(), err)
	}

	// 4. Reconcile target against current holdings.
	currentWeights := account.Weights(snapshot.Close)
	trades := Reconcile(currentWeights, target.Weights, cfg.MinTradeSizeDec(), cfg.MaxPositionSizeDec())

	// 5. Gate by holding period and queue for tomorrow's open. Executing on
	// the same bar that produced the signal would be look-ahead.
	allowed := tracker.Filter(trades, date, cfg.MinHoldingPeriod)
	tracker.RecordPendingOrders(pendingFromTrades(allowed, snapshot.Close))

	// 6. Mark to market and emit the ledger entry.
	account.MarkToMarket(snapshot.Close)
	equity := account.Equity()
	pnl := equity.Sub(b.prevEquity)
	if equity.GreaterThan(b.peakEquity) {
		b.peakEquity = equity
	}
	drawdown := decimal.Zero
	if b.peakEquity.IsPositive() {
		drawdown = equity.Div(b.peakEquity).Sub(one)
	}

	dayLog := &types.DailyLog{
		Date:      date,
		Prices:    snapshot.Close.Clone(),
		Trades:    execResult.Executed.Clone(),
		Portfolio: account.Weights(snapshot.Close),
		Feedback:  execResult.Feedback,
		Equity:    equity,
		Cash:      account.Cash(),
		PnL:       pnl,
		Drawdown:  drawdown,
	}

	if len(execResult.Executed) > 0 || !pnl.IsZero() {
		log.Info("trading day",
			zap.Time("date", date),
			zap.String("equity", equity.StringFixed(2)),
			zap.String("cash", account.Cash().StringFixed(2)),
			zap.String("pnl", pnl.StringFixed(2)),
			zap.Int("trades", len(execResult.Executed)))
	}
	return dayLog, nil
}

// recordTradesForDay appends flat trade-history rows for the day's executed
// trades, plus exit rows for symbols that left the portfolio.
func (b *Backtester) recordTradesForDay(dayLog types.DailyLog) {
	for _, sym := range dayLog.Trades.Symbols() {
		weight := dayLog.Trades[sym]
		if types.IsZero(weight) {
			continue
		}
		action := types.ActionEnter
		if !types.IsZero(b.prevPortfolio.Get(sym)) {
			action = types.ActionAdjust
		}
		b.tradeRecords = append(b.tradeRecords, types.TradeRecord{
			Date:     dayLog.Date,
			Symbol:   sym,
			Weight:   weight,
			Price:    dayLog.Prices.Get(sym),
			Notional: weight.Mul(dayLog.Equity),
			Action:   action,
		})
	}
	for _, sym := range b.prevPortfolio.Symbols() {
		if types.IsZero(b.prevPortfolio[sym]) || dayLog.Portfolio.Has(sym) {
			continue
		}
		b.tradeRecords = append(b.tradeRecords, types.TradeRecord{
			Date:   dayLog.Date,
			Symbol: sym,
			Price:  dayLog.Prices.Get(sym),
			Action: types.ActionExit,
		})
	}
}

func pendingFromTrades(trades types.Vector, closePrices types.Vector) types.PendingOrders {
	if trades.IsEmpty() {
		return nil
	}
	orders := make(types.PendingOrders, 0, len(trades))
	for _, sym := range trades.Symbols() {
		orders = append(orders, types.PendingOrder{
			Symbol:        sym,
			Delta:         trades[sym],
			DecisionPrice: closePrices.Get(sym),
		})
	}
	return orders
}

func executionCosts(result types.TradeResult) types.Vector {
	costs := types.NewVector()
	for sym := range result.Executed {
		fb := result.Feedback[sym]
		costs[sym] = fb.Slippage.Add(fb.Commission)
	}
	return costs
}

func newProgressBar(maxTicks int) *progressbar.ProgressBar {
	return progressbar.NewOptions(maxTicks,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetDescription("Backtesting in progress..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
