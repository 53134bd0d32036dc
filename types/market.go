package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type AssetType string

const (
	AssetStock  AssetType = "stock"
	AssetCrypto AssetType = "crypto"
	AssetForex  AssetType = "forex"
)

// Asset is one tradable instrument row from the datasource.
type Asset struct {
	Id         int
	Ticker     string
	Name       string
	Type       AssetType
	CreatedAt  time.Time
	ModifiedAt time.Time
}

// Candle is one daily OHLCV bar for an asset.
type Candle struct {
	AssetId   int
	Ticker    string
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    decimal.Decimal
	Timestamp time.Time
}
