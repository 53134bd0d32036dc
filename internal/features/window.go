package features

import (
	"sort"
	"time"
)

// Row holds one symbol's feature values for one date, keyed by column name.
type Row map[string]float64

// Day is a single-date cross-section of the feature window.
type Day struct {
	Date time.Time
	Rows map[string]Row
}

// Window is an immutable date-by-symbol table of derived indicators.
type Window struct {
	dates   []time.Time
	index   map[int64]int
	days    []map[string]Row
	columns []string
}

// Builder accumulates feature values and produces a Window.
type Builder struct {
	days    map[int64]map[string]Row
	dates   map[int64]time.Time
	columns map[string]struct{}
}

func NewBuilder() *Builder {
	return &Builder{
		days:    make(map[int64]map[string]Row),
		dates:   make(map[int64]time.Time),
		columns: make(map[string]struct{}),
	}
}

func (b *Builder) Set(date time.Time, symbol, column string, value float64) {
	key := date.Unix()
	day, ok := b.days[key]
	if !ok {
		day = make(map[string]Row)
		b.days[key] = day
		b.dates[key] = date
	}
	row, ok := day[symbol]
	if !ok {
		row = make(Row)
		day[symbol] = row
	}
	row[column] = value
	b.columns[column] = struct{}{}
}

func (b *Builder) Build() *Window {
	keys := make([]int64, 0, len(b.days))
	for key := range b.days {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	w := &Window{
		dates: make([]time.Time, len(keys)),
		index: make(map[int64]int, len(keys)),
		days:  make([]map[string]Row, len(keys)),
	}
	for i, key := range keys {
		w.dates[i] = b.dates[key]
		w.index[key] = i
		w.days[i] = b.days[key]
	}
	for col := range b.columns {
		w.columns = append(w.columns, col)
	}
	sort.Strings(w.columns)
	return w
}

func (w *Window) Empty() bool {
	return w == nil || len(w.dates) == 0
}

// MinDate is the earliest date with available features.
func (w *Window) MinDate() time.Time {
	if w.Empty() {
		return time.Time{}
	}
	return w.dates[0]
}

func (w *Window) Has(date time.Time) bool {
	if w.Empty() {
		return false
	}
	_, ok := w.index[date.Unix()]
	return ok
}

// At returns the cross-section for the given date.
func (w *Window) At(date time.Time) (Day, bool) {
	if w.Empty() {
		return Day{}, false
	}
	i, ok := w.index[date.Unix()]
	if !ok {
		return Day{}, false
	}
	return Day{Date: w.dates[i], Rows: w.days[i]}, true
}

// Trailing returns the window sliced to the given date plus up to lookback
// prior dates, inclusive of date.
func (w *Window) Trailing(date time.Time, lookback int) *Window {
	if w.Empty() {
		return w
	}
	end, ok := w.index[date.Unix()]
	if !ok {
		return &Window{}
	}
	start := end - lookback
	if start < 0 {
		start = 0
	}

	sliced := &Window{
		dates:   w.dates[start : end+1],
		days:    w.days[start : end+1],
		index:   make(map[int64]int, end-start+1),
		columns: w.columns,
	}
	for i, d := range sliced.dates {
		sliced.index[d.Unix()] = i
	}
	return sliced
}

func (w *Window) Dates() []time.Time {
	if w.Empty() {
		return nil
	}
	out := make([]time.Time, len(w.dates))
	copy(out, w.dates)
	return out
}

func (w *Window) Columns() []string {
	if w == nil {
		return nil
	}
	return w.columns
}

// HasColumns reports whether every named column exists in the window.
func (w *Window) HasColumns(cols ...string) bool {
	if w == nil {
		return false
	}
	for _, want := range cols {
		found := false
		for _, col := range w.columns {
			if col == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Latest returns the most recent row for each symbol at or before date.
func (w *Window) Latest(date time.Time) map[string]Row {
	if w.Empty() {
		return nil
	}
	i, ok := w.index[date.Unix()]
	if !ok {
		// Fall back to the last date not after the requested one.
		i = sort.Search(len(w.dates), func(j int) bool { return w.dates[j].After(date) }) - 1
		if i < 0 {
			return nil
		}
	}
	return w.days[i]
}
