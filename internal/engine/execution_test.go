package engine

import (
	"testing"

	"blackbox/types"

	"github.com/shopspring/decimal"
)

func testParams() ExecutionParams {
	return ExecutionParams{
		Slippage:            d("0.001"),
		Commission:          d("0.0005"),
		AllowShorts:         true,
		MinNotional:         d("1"),
		MinExecutionCapital: d("100"),
		MaxAdversePricePct:  d("0.03"),
	}
}

func assertApprox(t *testing.T, want, got decimal.Decimal) {
	t.Helper()
	if want.Sub(got).Abs().GreaterThan(d("0.000001")) {
		t.Errorf("expected ~%s, got %s", want, got)
	}
}

func TestExecutionSlippageDirection(t *testing.T) {
	in := ExecutionInput{
		Trades:  vec(map[string]string{"AAPL": "0.10", "MSFT": "-0.10"}),
		Prices:  vec(map[string]string{"AAPL": "100", "MSFT": "200"}),
		Capital: d("100000"),
		Date:    day(1),
	}
	result := SimulateExecution(in, testParams(), nil)

	// Buys pay up, sells receive down.
	assertApprox(t, d("100.1"), result.FillPrices.Get("AAPL"))
	assertApprox(t, d("199.8"), result.FillPrices.Get("MSFT"))

	if result.Feedback["AAPL"].Status != types.StatusFilled {
		t.Errorf("expected AAPL filled, got %+v", result.Feedback["AAPL"])
	}
	if result.Feedback["MSFT"].Status != types.StatusFilled {
		t.Errorf("expected MSFT filled, got %+v", result.Feedback["MSFT"])
	}
}

func TestExecutionCapitalRationing(t *testing.T) {
	// Two equal buys that together overshoot capital plus costs: the larger
	// (tie broken by symbol) fills fully, the second partially, nothing else.
	params := testParams()
	params.Slippage = decimal.Zero
	params.Commission = decimal.Zero

	in := ExecutionInput{
		Trades:  vec(map[string]string{"AAPL": "0.60", "MSFT": "0.60"}),
		Prices:  vec(map[string]string{"AAPL": "100", "MSFT": "200"}),
		Capital: d("1000"),
		Date:    day(1),
	}
	result := SimulateExecution(in, params, nil)

	if result.Feedback["AAPL"].Status != types.StatusFilled {
		t.Fatalf("expected AAPL fully filled, got %+v", result.Feedback["AAPL"])
	}
	fb := result.Feedback["MSFT"]
	if fb.Status != types.StatusPartialFill {
		t.Fatalf("expected MSFT partial fill, got %+v", fb)
	}
	// 600 spent on AAPL leaves 400 of the 600 MSFT request.
	assertApprox(t, d("0.666667"), fb.ScalingFactor.Round(6))
	assertApprox(t, d("400"), fb.Notional)
	assertApprox(t, d("0.40"), result.Executed.Get("MSFT"))

	// Total deployed never exceeds capital.
	deployed := decimal.Zero
	for _, delta := range result.Executed {
		deployed = deployed.Add(delta.Abs().Mul(in.Capital))
	}
	if deployed.GreaterThan(in.Capital.Add(d("0.000001"))) {
		t.Errorf("deployed %s exceeds capital %s", deployed, in.Capital)
	}
}

func TestExecutionRejectsAfterPartialFill(t *testing.T) {
	params := testParams()
	params.Slippage = decimal.Zero
	params.Commission = decimal.Zero

	in := ExecutionInput{
		Trades:  vec(map[string]string{"AAPL": "0.70", "MSFT": "0.50", "NVDA": "0.30"}),
		Prices:  vec(map[string]string{"AAPL": "100", "MSFT": "200", "NVDA": "300"}),
		Capital: d("1000"),
		Date:    day(1),
	}
	result := SimulateExecution(in, params, nil)

	if result.Feedback["AAPL"].Status != types.StatusFilled {
		t.Errorf("expected AAPL filled, got %+v", result.Feedback["AAPL"])
	}
	if result.Feedback["MSFT"].Status != types.StatusPartialFill {
		t.Errorf("expected MSFT partial, got %+v", result.Feedback["MSFT"])
	}
	fb := result.Feedback["NVDA"]
	if fb.Status != types.StatusRejected || fb.Reason != types.ReasonInsufficientCapital {
		t.Errorf("expected NVDA rejected for capital, got %+v", fb)
	}
	if result.Executed.Has("NVDA") {
		t.Error("rejected trade must not appear in Executed")
	}
}

func TestExecutionSellsNeverCapitalConstrained(t *testing.T) {
	in := ExecutionInput{
		Trades:  vec(map[string]string{"AAPL": "-0.50", "MSFT": "-0.80"}),
		Prices:  vec(map[string]string{"AAPL": "100", "MSFT": "200"}),
		Capital: d("200"),
		Date:    day(1),
	}
	result := SimulateExecution(in, testParams(), nil)

	for _, sym := range []string{"AAPL", "MSFT"} {
		if result.Feedback[sym].Status != types.StatusFilled {
			t.Errorf("expected %s filled regardless of capital, got %+v", sym, result.Feedback[sym])
		}
	}
}

func TestExecutionPriceDriftGuard(t *testing.T) {
	tests := []struct {
		name          string
		delta         string
		price         string
		decisionPrice string
		wantStatus    types.FillStatus
		wantReason    string
	}{
		{
			name:          "buy rejected when price ran up past limit",
			delta:         "0.10",
			price:         "104",
			decisionPrice: "100",
			wantStatus:    types.StatusRejected,
			wantReason:    types.ReasonPriceLimitExceeded,
		},
		{
			name:          "buy fills when price dropped",
			delta:         "0.10",
			price:         "95",
			decisionPrice: "100",
			wantStatus:    types.StatusFilled,
		},
		{
			name:          "sell rejected when price fell past limit",
			delta:         "-0.10",
			price:         "96",
			decisionPrice: "100",
			wantStatus:    types.StatusRejected,
			wantReason:    types.ReasonPriceLimitExceeded,
		},
		{
			name:          "sell fills when price rose",
			delta:         "-0.10",
			price:         "105",
			decisionPrice: "100",
			wantStatus:    types.StatusFilled,
		},
		{
			name:          "drift inside limit fills",
			delta:         "0.10",
			price:         "102",
			decisionPrice: "100",
			wantStatus:    types.StatusFilled,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			in := ExecutionInput{
				Trades:         vec(map[string]string{"AAPL": tc.delta}),
				Prices:         vec(map[string]string{"AAPL": tc.price}),
				DecisionPrices: vec(map[string]string{"AAPL": tc.decisionPrice}),
				Capital:        d("100000"),
				Date:           day(1),
			}
			result := SimulateExecution(in, testParams(), nil)

			fb := result.Feedback["AAPL"]
			if fb.Status != tc.wantStatus {
				t.Fatalf("expected status %s, got %+v", tc.wantStatus, fb)
			}
			if tc.wantReason != "" && fb.Reason != tc.wantReason {
				t.Errorf("expected reason %s, got %s", tc.wantReason, fb.Reason)
			}
			if tc.wantStatus == types.StatusRejected {
				if !fb.DecisionPrice.Equal(d(tc.decisionPrice)) {
					t.Errorf("rejection must carry decision price, got %s", fb.DecisionPrice)
				}
				if fb.PriceChangePct.IsZero() {
					t.Error("rejection must carry the observed price change")
				}
			}
		})
	}
}

func TestExecutionRejectionReasons(t *testing.T) {
	tests := []struct {
		name       string
		in         ExecutionInput
		params     ExecutionParams
		symbol     string
		wantReason string
	}{
		{
			name: "trade below min notional",
			in: ExecutionInput{
				Trades:  vec(map[string]string{"AAPL": "0.000001"}),
				Prices:  vec(map[string]string{"AAPL": "100"}),
				Capital: d("100000"),
			},
			params:     testParams(),
			symbol:     "AAPL",
			wantReason: types.ReasonTradeTooSmall,
		},
		{
			name: "missing price",
			in: ExecutionInput{
				Trades:  vec(map[string]string{"AAPL": "0.10"}),
				Prices:  types.NewVector(),
				Capital: d("100000"),
			},
			params:     testParams(),
			symbol:     "AAPL",
			wantReason: types.ReasonMissingPrice,
		},
		{
			name: "short not allowed",
			in: ExecutionInput{
				Trades:  vec(map[string]string{"AAPL": "-0.10"}),
				Prices:  vec(map[string]string{"AAPL": "100"}),
				Current: types.NewVector(),
				Capital: d("100000"),
			},
			params: func() ExecutionParams {
				p := testParams()
				p.AllowShorts = false
				return p
			}(),
			symbol:     "AAPL",
			wantReason: types.ReasonShortNotAllowed,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			tc.in.Date = day(1)
			result := SimulateExecution(tc.in, tc.params, nil)

			fb := result.Feedback[tc.symbol]
			if fb.Status != types.StatusRejected {
				t.Fatalf("expected rejection, got %+v", fb)
			}
			if fb.Reason != tc.wantReason {
				t.Errorf("expected reason %s, got %s", tc.wantReason, fb.Reason)
			}
		})
	}
}

func TestExecutionReducingLongIsNotShort(t *testing.T) {
	params := testParams()
	params.AllowShorts = false

	in := ExecutionInput{
		Trades:  vec(map[string]string{"AAPL": "-0.10"}),
		Prices:  vec(map[string]string{"AAPL": "100"}),
		Current: vec(map[string]string{"AAPL": "0.20"}),
		Capital: d("100000"),
		Date:    day(1),
	}
	result := SimulateExecution(in, params, nil)

	if result.Feedback["AAPL"].Status != types.StatusFilled {
		t.Errorf("reducing a long must fill with shorts disabled, got %+v", result.Feedback["AAPL"])
	}
}

func TestExecutionDustFloorIsLargerOfBothKnobs(t *testing.T) {
	// min_execution_capital (100) dominates min_notional (1): a $50 sell and
	// a $50 buy are both dust, and the rejection reason is trade_too_small,
	// never insufficient_capital.
	in := ExecutionInput{
		Trades:  vec(map[string]string{"AAPL": "0.50", "MSFT": "-0.50"}),
		Prices:  vec(map[string]string{"AAPL": "100", "MSFT": "200"}),
		Capital: d("100"),
		Date:    day(1),
	}
	result := SimulateExecution(in, testParams(), nil)

	for _, sym := range []string{"AAPL", "MSFT"} {
		fb := result.Feedback[sym]
		if fb.Status != types.StatusRejected || fb.Reason != types.ReasonTradeTooSmall {
			t.Errorf("expected %s rejected as dust, got %+v", sym, fb)
		}
	}
	if len(result.Executed) != 0 {
		t.Errorf("expected no fills, got %v", result.Executed)
	}
}
