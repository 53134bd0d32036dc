package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"blackbox/types"
)

// LoadDailySnapshots fetches daily bars for every ticker in the universe and
// pivots them into per-day snapshots, ordered by date. A ticker missing a bar
// on a date is simply absent from that day's vectors.
func (db *Database) LoadDailySnapshots(ctx context.Context, universe []string, start, end time.Time) ([]types.Snapshot, error) {
	byTicker := make(map[string][]types.Candle, len(universe))
	for _, ticker := range universe {
		asset, err := db.GetAssetByTicker(ctx, ticker)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", ticker, err)
		}
		candles, err := db.GetDailyCandles(ctx, asset.Id, ticker, start, end)
		if err != nil {
			return nil, fmt.Errorf("candles for %s: %w", ticker, err)
		}
		byTicker[ticker] = candles
	}
	return buildSnapshots(byTicker), nil
}

// buildSnapshots pivots per-ticker candle series into per-day cross-sections.
func buildSnapshots(byTicker map[string][]types.Candle) []types.Snapshot {
	byDate := make(map[int64]*types.Snapshot)

	for ticker, candles := range byTicker {
		for _, c := range candles {
			day := c.Timestamp.Truncate(24 * time.Hour)
			snap, ok := byDate[day.Unix()]
			if !ok {
				snap = &types.Snapshot{
					Date:   day,
					Open:   types.NewVector(),
					High:   types.NewVector(),
					Low:    types.NewVector(),
					Close:  types.NewVector(),
					Volume: types.NewVector(),
				}
				byDate[day.Unix()] = snap
			}
			snap.Open[ticker] = c.Open
			snap.High[ticker] = c.High
			snap.Low[ticker] = c.Low
			snap.Close[ticker] = c.Close
			snap.Volume[ticker] = c.Volume
		}
	}

	snapshots := make([]types.Snapshot, 0, len(byDate))
	for _, snap := range byDate {
		snapshots = append(snapshots, *snap)
	}
	sort.Slice(snapshots, func(i, j int) bool { return snapshots[i].Date.Before(snapshots[j].Date) })
	return snapshots
}
