package features

import (
	"math"
)

// Indicators are pure functions over a per-symbol ordered time series. Each
// returns a slice aligned with its input; positions inside the warm-up region
// hold NaN.

// Momentum returns the fractional price change over period bars.
func Momentum(closes []float64, period int) []float64 {
	out := nanSlice(len(closes))
	for i := period; i < len(closes); i++ {
		if closes[i-period] == 0 {
			continue
		}
		out[i] = closes[i]/closes[i-period] - 1
	}
	return out
}

// LogReturn returns one-bar log returns.
func LogReturn(closes []float64) []float64 {
	out := nanSlice(len(closes))
	for i := 1; i < len(closes); i++ {
		if closes[i-1] <= 0 || closes[i] <= 0 {
			continue
		}
		out[i] = math.Log(closes[i] / closes[i-1])
	}
	return out
}

func RollingMean(xs []float64, window int) []float64 {
	out := nanSlice(len(xs))
	if window <= 0 {
		return out
	}
	sum := 0.0
	for i, x := range xs {
		sum += x
		if i >= window {
			sum -= xs[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// RollingStd returns the rolling sample standard deviation.
func RollingStd(xs []float64, window int) []float64 {
	out := nanSlice(len(xs))
	if window <= 1 {
		return out
	}
	for i := window - 1; i < len(xs); i++ {
		seg := xs[i-window+1 : i+1]
		mean := 0.0
		for _, x := range seg {
			mean += x
		}
		mean /= float64(window)
		variance := 0.0
		for _, x := range seg {
			d := x - mean
			variance += d * d
		}
		out[i] = math.Sqrt(variance / float64(window-1))
	}
	return out
}

// ZScore returns (x - rolling mean) / rolling std over window bars.
func ZScore(xs []float64, window int) []float64 {
	out := nanSlice(len(xs))
	means := RollingMean(xs, window)
	stds := RollingStd(xs, window)
	for i := range xs {
		if math.IsNaN(means[i]) || math.IsNaN(stds[i]) || stds[i] == 0 {
			continue
		}
		out[i] = (xs[i] - means[i]) / stds[i]
	}
	return out
}

// EMA returns the exponential moving average with the given span,
// alpha = 2/(span+1). The first span-1 positions are NaN.
func EMA(xs []float64, span int) []float64 {
	out := nanSlice(len(xs))
	if span <= 0 || len(xs) < span {
		return out
	}
	// Seed with the simple mean of the first span bars.
	seed := 0.0
	for _, x := range xs[:span] {
		seed += x
	}
	seed /= float64(span)
	out[span-1] = seed

	alpha := 2.0 / (float64(span) + 1.0)
	prev := seed
	for i := span; i < len(xs); i++ {
		prev = alpha*xs[i] + (1-alpha)*prev
		out[i] = prev
	}
	return out
}

// EMADiff returns the normalized gap between a short and long EMA.
func EMADiff(closes []float64, short, long int) []float64 {
	out := nanSlice(len(closes))
	emaShort := EMA(closes, short)
	emaLong := EMA(closes, long)
	for i := range closes {
		if math.IsNaN(emaShort[i]) || math.IsNaN(emaLong[i]) || emaLong[i] == 0 {
			continue
		}
		out[i] = (emaShort[i] - emaLong[i]) / emaLong[i]
	}
	return out
}

// RSI returns Wilder's relative strength index over period bars, in [0, 100].
func RSI(closes []float64, period int) []float64 {
	out := nanSlice(len(closes))
	if period <= 0 || len(closes) <= period {
		return out
	}

	avgGain, avgLoss := 0.0, 0.0
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
