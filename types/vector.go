package types

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Epsilon below which a weight or quantity is considered zero.
var Epsilon = decimal.New(1, -6)

// Vector is a sparse per-symbol series. A symbol that is absent is an
// implicit zero.
type Vector map[string]decimal.Decimal

func NewVector() Vector {
	return make(Vector)
}

func (v Vector) Get(symbol string) decimal.Decimal {
	if val, ok := v[symbol]; ok {
		return val
	}
	return decimal.Zero
}

func (v Vector) Has(symbol string) bool {
	_, ok := v[symbol]
	return ok
}

func (v Vector) Clone() Vector {
	out := make(Vector, len(v))
	for sym, val := range v {
		out[sym] = val
	}
	return out
}

// Symbols returns the vector's symbols in lexical order.
func (v Vector) Symbols() []string {
	symbols := make([]string, 0, len(v))
	for sym := range v {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	return symbols
}

// UnionSymbols returns the sorted union of both vectors' symbols.
func (v Vector) UnionSymbols(other Vector) []string {
	seen := make(map[string]struct{}, len(v)+len(other))
	for sym := range v {
		seen[sym] = struct{}{}
	}
	for sym := range other {
		seen[sym] = struct{}{}
	}
	symbols := make([]string, 0, len(seen))
	for sym := range seen {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	return symbols
}

// NonZero returns a copy with epsilon-zero entries removed.
func (v Vector) NonZero() Vector {
	out := make(Vector, len(v))
	for sym, val := range v {
		if !IsZero(val) {
			out[sym] = val
		}
	}
	return out
}

func (v Vector) IsEmpty() bool {
	return len(v) == 0
}

// IsZero reports whether d is within Epsilon of zero.
func IsZero(d decimal.Decimal) bool {
	return d.Abs().LessThan(Epsilon)
}
