package engine

import (
	"math"
	"time"

	"blackbox/types"

	"github.com/shopspring/decimal"
)

// tradingDaysPerYear is the annualization base for daily bars.
const tradingDaysPerYear = 252

// Summary holds the run-level performance statistics derived from the daily
// ledger.
type Summary struct {
	StartDate time.Time
	EndDate   time.Time
	Days      int

	TotalReturn          decimal.Decimal
	AnnualizedReturn     decimal.Decimal
	AnnualizedVolatility decimal.Decimal
	Sharpe               decimal.Decimal
	Sortino              decimal.Decimal
	Calmar               decimal.Decimal
	MaxDrawdown          decimal.Decimal
}

// Summarize computes performance statistics over the processed-day ledger.
// Skipped days never appear in logs, so every step is one trading day.
// Ratio math runs in float64; inputs and outputs stay decimal.
func Summarize(logs []types.DailyLog, riskFreeRate decimal.Decimal) Summary {
	if len(logs) == 0 {
		return Summary{}
	}

	s := Summary{
		StartDate: logs[0].Date,
		EndDate:   logs[len(logs)-1].Date,
		Days:      len(logs),
	}

	returns := dailyReturns(logs)
	first := logs[0].Equity.Sub(logs[0].PnL)
	last := logs[len(logs)-1].Equity
	if first.IsPositive() {
		s.TotalReturn = last.Div(first).Sub(one)
	}

	s.AnnualizedReturn = decimal.NewFromFloat(annualizedReturn(s.TotalReturn.InexactFloat64(), len(logs)))

	vol := stdDev(returns) * math.Sqrt(tradingDaysPerYear)
	s.AnnualizedVolatility = decimal.NewFromFloat(vol)

	rf := riskFreeRate.InexactFloat64()
	excess := s.AnnualizedReturn.InexactFloat64() - rf
	if vol > 0 {
		s.Sharpe = decimal.NewFromFloat(excess / vol)
	}

	downside := downsideDeviation(returns) * math.Sqrt(tradingDaysPerYear)
	if downside > 0 {
		s.Sortino = decimal.NewFromFloat(excess / downside)
	}

	s.MaxDrawdown = maxDrawdown(logs)
	if s.MaxDrawdown.IsNegative() {
		s.Calmar = decimal.NewFromFloat(
			s.AnnualizedReturn.InexactFloat64() / math.Abs(s.MaxDrawdown.InexactFloat64()))
	}
	return s
}

// dailyReturns derives simple returns from consecutive ledger equities, with
// the first day measured against its pre-PnL base.
func dailyReturns(logs []types.DailyLog) []float64 {
	returns := make([]float64, 0, len(logs))
	prev := logs[0].Equity.Sub(logs[0].PnL)
	for _, l := range logs {
		if prev.IsPositive() {
			returns = append(returns, l.Equity.Div(prev).Sub(one).InexactFloat64())
		}
		prev = l.Equity
	}
	return returns
}

// annualizedReturn compounds the total return geometrically over the number
// of trading days observed.
func annualizedReturn(total float64, days int) float64 {
	if days == 0 || total <= -1 {
		return 0
	}
	return math.Pow(1+total, tradingDaysPerYear/float64(days)) - 1
}

// stdDev is the sample standard deviation.
func stdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))

	ss := 0.0
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

// downsideDeviation measures volatility of negative returns only, against a
// zero target, over the full sample count.
func downsideDeviation(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	ss := 0.0
	for _, x := range xs {
		if x < 0 {
			ss += x * x
		}
	}
	return math.Sqrt(ss / float64(len(xs)))
}

// maxDrawdown is the deepest equity decline from a running peak, as a
// negative fraction.
func maxDrawdown(logs []types.DailyLog) decimal.Decimal {
	maxDD := decimal.Zero
	peak := logs[0].Equity.Sub(logs[0].PnL)
	for _, l := range logs {
		if l.Equity.GreaterThan(peak) {
			peak = l.Equity
		}
		if !peak.IsPositive() {
			continue
		}
		dd := l.Equity.Div(peak).Sub(one)
		if dd.LessThan(maxDD) {
			maxDD = dd
		}
	}
	return maxDD
}
