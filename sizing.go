// FILE: sizing.go
// Package main – Position sizing strategies.
//
// Two interchangeable sizers, selected per trading mode (SIZER_MODE):
//   • SizeFromProb – bounded linear probability->size map with inverse
//     volatility scaling. Deliberately NOT Kelly/convex: it under-sizes
//     high-conviction high-volatility regimes, trading capital
//     efficiency for risk containment.
//   • QtyByATR – risk-parity share count against a hypothetical
//     ATR-multiple stop distance, independent of any probability.

package main

import "math"

// SizeFromProb maps a probability and volatility into a signed size
// fraction in [-cap, +cap]. At p=0.5 the result is exactly 0 regardless
// of volatility; size is non-decreasing in p.
func SizeFromProb(prob, volPct, cap float64) float64 {
	p := math.Max(0.0, math.Min(1.0, prob))
	edge := p - 0.5 // in [-0.5, 0.5]
	size := (edge / 0.5) * cap
	if volPct > 0 {
		// Inverse volatility scaling: larger ATR-relative moves shrink size.
		size /= 1.0 + volPct
	}
	return math.Max(-cap, math.Min(cap, size))
}

// QtyByATR returns the whole-share quantity that risks riskPerTrade of
// equity against a stop placed stopATRMult ATRs away. Floors to an
// integer; a zero result means "too small to trade" and is not an error.
func QtyByATR(equity, riskPerTrade, atr, stopATRMult float64) int {
	stopDist := math.Max(1e-6, stopATRMult*atr)
	riskDollars := equity * riskPerTrade
	return int(riskDollars / stopDist)
}

// NotionalQty converts a target equity fraction into whole shares at the
// given price. Zero when equity is too low or price too high.
func NotionalQty(equity, fraction, price float64) int {
	return int((equity * fraction) / math.Max(price, 1e-6))
}
