package repository

import (
	"context"
	"time"

	"blackbox/types"
)

const dailyCandlesSQL = `
SELECT asset_id, open, high, low, close, volume, bucket
FROM candles_daily
WHERE asset_id = $1 AND bucket >= $2 AND bucket <= $3
ORDER BY bucket`

// GetDailyCandles retrieves the asset's daily bars over [start, end].
func (db *Database) GetDailyCandles(ctx context.Context, assetId int, ticker string, start, end time.Time) ([]types.Candle, error) {
	rows, err := db.conn.Query(ctx, dailyCandlesSQL, assetId, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candles []types.Candle
	for rows.Next() {
		c := types.Candle{Ticker: ticker}
		if err := rows.Scan(&c.AssetId, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume, &c.Timestamp); err != nil {
			return nil, err
		}
		candles = append(candles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(candles) == 0 {
		return nil, ErrNoCandles
	}
	return candles, nil
}
