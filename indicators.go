// FILE: indicators.go
// Package main – Technical indicators for the trading bot.
//
// This file implements the TA primitives the feature builder consumes:
//   • SMA(x, n)          – Simple Moving Average
//   • EMA(x, n)          – Exponential Moving Average (SMA-seeded)
//   • RSI(c, n)          – Relative Strength Index (Wilder’s smoothing)
//   • ATR(c, n)          – Average True Range (Wilder’s smoothing)
//   • Bollinger(x, n, k) – mid/upper/lower bands (mean ± k·stddev)
//   • RollingMeanStd     – rolling mean and population stddev
//   • MACD(x, f, s, sig) – MACD line, signal, histogram
//
// Notes
//   - Outputs are aligned to input length; warmup indices emit NaN.
//   - Keep these fast and allocation-light; they’re called every bar in
//     the live loop.

package main

import (
	"math"
)

// SMA returns the n-period simple moving average of x, aligned to x.
// For indices < n-1, the function returns NaN.
func SMA(x []float64, n int) []float64 {
	out := make([]float64, len(x))
	if n <= 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	var sum float64
	for i := range x {
		sum += x[i]
		if i >= n {
			sum -= x[i-n]
		}
		if i >= n-1 {
			out[i] = sum / float64(n)
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// EMA returns the n-period exponential moving average of x, seeded with
// SMA(n) at index n-1 and NaN before that.
func EMA(x []float64, n int) []float64 {
	out := make([]float64, len(x))
	for i := range out {
		out[i] = math.NaN()
	}
	if n <= 0 || len(x) < n {
		return out
	}
	var seed float64
	for i := 0; i < n; i++ {
		seed += x[i]
	}
	out[n-1] = seed / float64(n)
	k := 2.0 / float64(n+1)
	for i := n; i < len(x); i++ {
		out[i] = (x[i]-out[i-1])*k + out[i-1]
	}
	return out
}

// RSI returns the n-period Relative Strength Index using Wilder’s smoothing.
// Indices before the first full window are NaN.
func RSI(c []Candle, n int) []float64 {
	out := make([]float64, len(c))
	for i := range out {
		out[i] = math.NaN()
	}
	if n <= 0 || len(c) == 0 {
		return out
	}
	var gain, loss float64
	for i := 1; i < len(c); i++ {
		d := c[i].Close - c[i-1].Close
		if i <= n {
			if d > 0 {
				gain += d
			} else {
				loss -= d
			}
			if i == n {
				out[i] = rsiFromAverages(gain/float64(n), loss/float64(n))
			}
		} else {
			// Wilder smoothing
			if d > 0 {
				gain = (gain*float64(n-1) + d) / float64(n)
				loss = (loss * float64(n-1)) / float64(n)
			} else {
				gain = (gain * float64(n-1)) / float64(n)
				loss = (loss*float64(n-1) - d) / float64(n)
			}
			out[i] = rsiFromAverages(gain, loss)
		}
	}
	return out
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50.0
		}
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}

// ATR returns the n-period Average True Range using Wilder’s smoothing.
// TR = max(high-low, |high-prevClose|, |low-prevClose|).
func ATR(c []Candle, n int) []float64 {
	out := make([]float64, len(c))
	for i := range out {
		out[i] = math.NaN()
	}
	if n <= 0 || len(c) == 0 {
		return out
	}
	var sum float64
	var atr float64
	for i := 1; i < len(c); i++ {
		tr := trueRange(c[i], c[i-1].Close)
		if i <= n {
			sum += tr
			if i == n {
				atr = sum / float64(n)
				out[i] = atr
			}
		} else {
			atr = (atr*float64(n-1) + tr) / float64(n)
			out[i] = atr
		}
	}
	return out
}

func trueRange(b Candle, prevClose float64) float64 {
	tr := b.High - b.Low
	if hc := math.Abs(b.High - prevClose); hc > tr {
		tr = hc
	}
	if lc := math.Abs(b.Low - prevClose); lc > tr {
		tr = lc
	}
	return tr
}

// Bollinger returns mid/upper/lower bands over window n with k stddevs.
// Warmup indices are NaN in all three slices.
func Bollinger(x []float64, n int, k float64) (mid, upper, lower []float64) {
	mean, std := RollingMeanStd(x, n)
	upper = make([]float64, len(x))
	lower = make([]float64, len(x))
	for i := range x {
		upper[i] = mean[i] + k*std[i]
		lower[i] = mean[i] - k*std[i]
	}
	return mean, upper, lower
}

// RollingMeanStd returns the rolling mean and population stddev of x over
// window n, NaN during warmup.
func RollingMeanStd(x []float64, n int) (mean, std []float64) {
	mean = make([]float64, len(x))
	std = make([]float64, len(x))
	for i := range x {
		mean[i] = math.NaN()
		std[i] = math.NaN()
	}
	if n <= 1 {
		return mean, std
	}
	var sum, sumSq float64
	for i := range x {
		sum += x[i]
		sumSq += x[i] * x[i]
		if i >= n {
			y := x[i-n]
			sum -= y
			sumSq -= y * y
		}
		if i >= n-1 {
			m := sum / float64(n)
			v := sumSq/float64(n) - m*m
			if v < 0 {
				v = 0
			}
			mean[i] = m
			std[i] = math.Sqrt(v)
		}
	}
	return mean, std
}

// RollingStd is the stddev half of RollingMeanStd.
func RollingStd(x []float64, n int) []float64 {
	_, std := RollingMeanStd(x, n)
	return std
}

// MACD returns the MACD line (EMA(fast)-EMA(slow)), its signal EMA, and
// the histogram (line - signal). Warmup indices are NaN.
func MACD(x []float64, fast, slow, signal int) (line, sig, hist []float64) {
	ef := EMA(x, fast)
	es := EMA(x, slow)
	line = make([]float64, len(x))
	for i := range x {
		line[i] = ef[i] - es[i]
	}
	// Signal EMA starts where the MACD line becomes defined.
	sig = make([]float64, len(x))
	hist = make([]float64, len(x))
	for i := range sig {
		sig[i] = math.NaN()
		hist[i] = math.NaN()
	}
	start := slow - 1
	if start < 0 || start >= len(x) {
		return line, sig, hist
	}
	tail := EMA(line[start:], signal)
	for i := range tail {
		sig[start+i] = tail[i]
		hist[start+i] = line[start+i] - tail[i]
	}
	return line, sig, hist
}

// Returns returns the simple per-bar fractional returns of x (index 0 is NaN).
func Returns(x []float64) []float64 {
	out := make([]float64, len(x))
	if len(x) > 0 {
		out[0] = math.NaN()
	}
	for i := 1; i < len(x); i++ {
		if x[i-1] != 0 {
			out[i] = (x[i] - x[i-1]) / x[i-1]
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}
