package engine

import (
	"testing"

	"blackbox/types"

	"github.com/shopspring/decimal"
)

func ledgerLogs(initial string, equities ...string) []types.DailyLog {
	logs := make([]types.DailyLog, len(equities))
	prev := d(initial)
	for i, eq := range equities {
		equity := d(eq)
		logs[i] = types.DailyLog{
			Date:   day(i + 1),
			Equity: equity,
			PnL:    equity.Sub(prev),
		}
		prev = equity
	}
	return logs
}

func TestSummarizeEmptyLedger(t *testing.T) {
	s := Summarize(nil, decimal.Zero)
	if s.Days != 0 || !s.TotalReturn.IsZero() {
		t.Errorf("expected zero summary, got %+v", s)
	}
}

func TestSummarizeTotalReturn(t *testing.T) {
	logs := ledgerLogs("1000", "1010", "1020", "1100")
	s := Summarize(logs, decimal.Zero)

	assertApprox(t, d("0.1"), s.TotalReturn)
	if s.Days != 3 {
		t.Errorf("expected 3 days, got %d", s.Days)
	}
	if !s.StartDate.Equal(day(1)) || !s.EndDate.Equal(day(3)) {
		t.Errorf("unexpected date range %s..%s", s.StartDate, s.EndDate)
	}
	if !s.AnnualizedReturn.IsPositive() {
		t.Errorf("expected positive annualized return, got %s", s.AnnualizedReturn)
	}
}

func TestSummarizeFlatEquityHasNoVol(t *testing.T) {
	logs := ledgerLogs("1000", "1000", "1000", "1000")
	s := Summarize(logs, decimal.Zero)

	if !s.AnnualizedVolatility.IsZero() {
		t.Errorf("expected zero volatility, got %s", s.AnnualizedVolatility)
	}
	// Undefined ratios stay at zero rather than dividing by zero.
	if !s.Sharpe.IsZero() || !s.Sortino.IsZero() || !s.Calmar.IsZero() {
		t.Errorf("expected zero ratios on flat equity, got %+v", s)
	}
}

func TestSummarizeMaxDrawdown(t *testing.T) {
	// Peak at 1100, trough at 880: drawdown is -20% from the running peak,
	// not from the starting equity.
	logs := ledgerLogs("1000", "1100", "990", "880", "950")
	s := Summarize(logs, decimal.Zero)

	assertApprox(t, d("-0.2"), s.MaxDrawdown)
	if !s.Calmar.IsNegative() {
		t.Errorf("expected negative calmar for a losing run, got %s", s.Calmar)
	}
}

func TestSummarizeSortinoIgnoresUpside(t *testing.T) {
	// One big up day and one small down day: downside deviation only sees
	// the down day, so Sortino exceeds Sharpe.
	logs := ledgerLogs("1000", "1100", "1089", "1150", "1200")
	s := Summarize(logs, decimal.Zero)

	if !s.Sortino.GreaterThan(s.Sharpe) {
		t.Errorf("expected sortino %s > sharpe %s", s.Sortino, s.Sharpe)
	}
}

func TestSummarizeRiskFreeRateLowersSharpe(t *testing.T) {
	logs := ledgerLogs("1000", "1005", "1011", "1016", "1022")
	base := Summarize(logs, decimal.Zero)
	withRf := Summarize(logs, d("0.05"))

	if !withRf.Sharpe.LessThan(base.Sharpe) {
		t.Errorf("expected risk-free rate to lower sharpe: %s vs %s", withRf.Sharpe, base.Sharpe)
	}
}
