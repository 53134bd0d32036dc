package engine

import (
	"testing"
	"time"

	"blackbox/types"
)

func day(n int) time.Time {
	return time.Date(2024, 1, n, 0, 0, 0, 0, time.UTC)
}

func TestTrackerHoldingPeriodGate(t *testing.T) {
	tracker := NewPositionTracker(d("100000"), nil)

	// Enter AAPL on day 1.
	tracker.ApplyFills(
		vec(map[string]string{"AAPL": "100"}),
		vec(map[string]string{"AAPL": "50"}),
		vec(map[string]string{"AAPL": "5"}),
		day(1),
	)

	tests := []struct {
		name       string
		trades     types.Vector
		date       time.Time
		minHolding int
		want       types.Vector
	}{
		{
			name:       "sell blocked inside holding period",
			trades:     vec(map[string]string{"AAPL": "-0.10"}),
			date:       day(3),
			minHolding: 3,
			want:       vec(nil),
		},
		{
			name:       "sell allowed once held long enough",
			trades:     vec(map[string]string{"AAPL": "-0.10"}),
			date:       day(4),
			minHolding: 3,
			want:       vec(map[string]string{"AAPL": "-0.10"}),
		},
		{
			name:       "buys always pass",
			trades:     vec(map[string]string{"AAPL": "0.10"}),
			date:       day(2),
			minHolding: 3,
			want:       vec(map[string]string{"AAPL": "0.10"}),
		},
		{
			name:       "negative trade in unheld symbol passes",
			trades:     vec(map[string]string{"MSFT": "-0.10"}),
			date:       day(2),
			minHolding: 3,
			want:       vec(map[string]string{"MSFT": "-0.10"}),
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := tracker.Filter(tc.trades, tc.date, tc.minHolding)
			assertVectorEqual(t, tc.want, got)
		})
	}
}

func TestTrackerApplyFills(t *testing.T) {
	tracker := NewPositionTracker(d("100000"), nil)

	tracker.ApplyFills(
		vec(map[string]string{"AAPL": "100"}),
		vec(map[string]string{"AAPL": "50"}),
		vec(map[string]string{"AAPL": "5"}),
		day(1),
	)

	pos, ok := tracker.Position("AAPL")
	if !ok {
		t.Fatal("expected AAPL position")
	}
	if !pos.Quantity.Equal(d("100")) {
		t.Errorf("expected quantity 100, got %s", pos.Quantity)
	}
	if !pos.EntryPrice.Equal(d("50")) {
		t.Errorf("expected entry price 50, got %s", pos.EntryPrice)
	}
	if !pos.EntryDate.Equal(day(1)) {
		t.Errorf("expected entry date %s, got %s", day(1), pos.EntryDate)
	}

	// Add at a higher price: entry price becomes the weighted average.
	tracker.ApplyFills(
		vec(map[string]string{"AAPL": "100"}),
		vec(map[string]string{"AAPL": "60"}),
		vec(map[string]string{"AAPL": "6"}),
		day(3),
	)
	pos, _ = tracker.Position("AAPL")
	if !pos.Quantity.Equal(d("200")) {
		t.Errorf("expected quantity 200, got %s", pos.Quantity)
	}
	if !pos.EntryPrice.Equal(d("55")) {
		t.Errorf("expected weighted entry price 55, got %s", pos.EntryPrice)
	}
	if !pos.EntryDate.Equal(day(1)) {
		t.Errorf("adding must not reset entry date, got %s", pos.EntryDate)
	}

	// Close out entirely: position removed.
	tracker.ApplyFills(
		vec(map[string]string{"AAPL": "-200"}),
		vec(map[string]string{"AAPL": "58"}),
		vec(map[string]string{"AAPL": "11"}),
		day(5),
	)
	if _, ok := tracker.Position("AAPL"); ok {
		t.Error("expected AAPL position removed after full close")
	}
}

func TestTrackerUpdateResetsEntryDateForNewPositions(t *testing.T) {
	tracker := NewPositionTracker(d("100000"), nil)

	tracker.Update(vec(map[string]string{"AAPL": "100"}), day(1))
	pos, _ := tracker.Position("AAPL")
	if !pos.EntryDate.Equal(day(1)) {
		t.Errorf("expected entry date %s, got %s", day(1), pos.EntryDate)
	}

	// Quantity change on an existing symbol keeps the entry date.
	tracker.Update(vec(map[string]string{"AAPL": "150"}), day(2))
	pos, _ = tracker.Position("AAPL")
	if !pos.EntryDate.Equal(day(1)) {
		t.Errorf("existing position must keep entry date, got %s", pos.EntryDate)
	}
	if !pos.Quantity.Equal(d("150")) {
		t.Errorf("expected quantity 150, got %s", pos.Quantity)
	}

	// Symbol absent from the new portfolio is removed; re-adding it later
	// starts a fresh holding clock.
	tracker.Update(types.NewVector(), day(3))
	if _, ok := tracker.Position("AAPL"); ok {
		t.Fatal("expected AAPL removed")
	}
	tracker.Update(vec(map[string]string{"AAPL": "50"}), day(6))
	pos, _ = tracker.Position("AAPL")
	if !pos.EntryDate.Equal(day(6)) {
		t.Errorf("reopened position must reset entry date, got %s", pos.EntryDate)
	}
}

func TestTrackerPendingOrderSlot(t *testing.T) {
	tracker := NewPositionTracker(d("100000"), nil)

	if got := tracker.PendingOrders(); len(got) != 0 {
		t.Fatalf("expected empty pending slot, got %d", len(got))
	}

	first := types.PendingOrders{{Symbol: "AAPL", Delta: d("0.10"), DecisionPrice: d("50")}}
	tracker.RecordPendingOrders(first)
	if got := tracker.PendingOrders(); len(got) != 1 || got[0].Symbol != "AAPL" {
		t.Fatalf("expected recorded AAPL order, got %v", got)
	}

	// Recording replaces, never appends.
	second := types.PendingOrders{{Symbol: "MSFT", Delta: d("0.05"), DecisionPrice: d("300")}}
	tracker.RecordPendingOrders(second)
	got := tracker.PendingOrders()
	if len(got) != 1 || got[0].Symbol != "MSFT" {
		t.Fatalf("expected slot replaced with MSFT order, got %v", got)
	}

	tracker.ClearPendingOrders()
	if got := tracker.PendingOrders(); len(got) != 0 {
		t.Fatalf("expected cleared slot, got %v", got)
	}
}

func TestTrackerComputePortfolioValue(t *testing.T) {
	tracker := NewPositionTracker(d("1000"), nil)
	tracker.ApplyFills(
		vec(map[string]string{"AAPL": "10", "MSFT": "2"}),
		vec(map[string]string{"AAPL": "50", "MSFT": "100"}),
		types.NewVector(),
		day(1),
	)

	// MSFT has no price today: excluded from the sum, not zeroed.
	prices := vec(map[string]string{"AAPL": "60"})
	got := tracker.ComputePortfolioValue(prices)
	if want := d("1600"); !got.Equal(want) {
		t.Errorf("expected portfolio value %s, got %s", want, got)
	}
}
