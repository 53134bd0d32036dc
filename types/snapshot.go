package types

import (
	"time"
)

// Snapshot is one trading day's market data cross-section. Immutable once
// produced by the data layer.
type Snapshot struct {
	Date   time.Time
	Open   Vector
	High   Vector
	Low    Vector
	Close  Vector
	Volume Vector

	// Aux holds optional auxiliary per-symbol series keyed by name.
	Aux map[string]Vector
}

// Symbols returns the symbols present in the day's close prices.
func (s Snapshot) Symbols() []string {
	return s.Close.Symbols()
}
