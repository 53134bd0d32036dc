package features

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"blackbox/types"
)

var ErrUnknownIndicator = errors.New("unknown indicator")

// Spec names one indicator to compute. Period applies to single-window
// indicators; Short/Long to crossover-style ones.
type Spec struct {
	Name   string `yaml:"name"`
	Period int    `yaml:"period"`
	Short  int    `yaml:"short"`
	Long   int    `yaml:"long"`
}

// Pipeline computes a feature window from a snapshot sequence. Every
// indicator is a pure function over a per-symbol ordered close series.
type Pipeline struct {
	specs []Spec
}

func NewPipeline(specs []Spec) (*Pipeline, error) {
	for _, spec := range specs {
		if _, err := columnName(spec); err != nil {
			return nil, err
		}
	}
	return &Pipeline{specs: specs}, nil
}

// Build assembles the date-by-symbol feature table for all snapshots.
func (p *Pipeline) Build(snapshots []types.Snapshot) (*Window, error) {
	if len(snapshots) == 0 {
		return NewBuilder().Build(), nil
	}

	ordered := make([]types.Snapshot, len(snapshots))
	copy(ordered, snapshots)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Date.Before(ordered[j].Date) })

	// Per-symbol ordered close series, with the snapshot index of each bar.
	series := make(map[string][]float64)
	indices := make(map[string][]int)
	for i, snap := range ordered {
		for sym, price := range snap.Close {
			series[sym] = append(series[sym], price.InexactFloat64())
			indices[sym] = append(indices[sym], i)
		}
	}

	builder := NewBuilder()
	for sym, closes := range series {
		for _, spec := range p.specs {
			col, err := columnName(spec)
			if err != nil {
				return nil, err
			}
			values, err := compute(spec, closes)
			if err != nil {
				return nil, fmt.Errorf("compute %s for %s: %w", col, sym, err)
			}
			for i, v := range values {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					continue
				}
				builder.Set(ordered[indices[sym][i]].Date, sym, col, v)
			}
		}
	}
	return builder.Build(), nil
}

// Columns returns the column names the pipeline produces.
func (p *Pipeline) Columns() []string {
	cols := make([]string, 0, len(p.specs))
	for _, spec := range p.specs {
		col, err := columnName(spec)
		if err != nil {
			continue
		}
		cols = append(cols, col)
	}
	return cols
}

func compute(spec Spec, closes []float64) ([]float64, error) {
	switch spec.Name {
	case "momentum":
		return Momentum(closes, spec.Period), nil
	case "log_return":
		return LogReturn(closes), nil
	case "rolling_mean":
		return RollingMean(closes, spec.Period), nil
	case "rolling_std":
		return RollingStd(closes, spec.Period), nil
	case "zscore":
		return ZScore(closes, spec.Period), nil
	case "ema":
		return EMA(closes, spec.Period), nil
	case "ema_diff":
		return EMADiff(closes, spec.Short, spec.Long), nil
	case "rsi":
		return RSI(closes, spec.Period), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownIndicator, spec.Name)
	}
}

// Column-name helpers for code that reads the window without holding a Spec.

func MomentumColumn(period int) string   { return fmt.Sprintf("momentum_%d", period) }
func ZScoreColumn(period int) string     { return fmt.Sprintf("zscore_%d", period) }
func RollingStdColumn(period int) string { return fmt.Sprintf("rolling_std_%d", period) }
func RSIColumn(period int) string        { return fmt.Sprintf("rsi_%d", period) }

func columnName(spec Spec) (string, error) {
	switch spec.Name {
	case "log_return":
		return "log_return", nil
	case "ema_diff":
		if spec.Short <= 0 || spec.Long <= spec.Short {
			return "", fmt.Errorf("ema_diff requires 0 < short < long, got short=%d long=%d", spec.Short, spec.Long)
		}
		return fmt.Sprintf("ema_%d_%d_diff", spec.Short, spec.Long), nil
	case "momentum", "rolling_mean", "rolling_std", "zscore", "ema", "rsi":
		if spec.Period <= 0 {
			return "", fmt.Errorf("%s requires a positive period, got %d", spec.Name, spec.Period)
		}
		return fmt.Sprintf("%s_%d", spec.Name, spec.Period), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownIndicator, spec.Name)
	}
}
