// FILE: features.go
// Package main – Feature builder: indicator state -> named feature vector.
//
// BuildFeatures turns a candle history into the flat named-value map the
// experts, brain, and decision core consume. The hard contract here is
// readiness: while any indicator window is still warming up the builder
// returns nil, never a zero-filled map. Downstream logic depends on
// absence, not approximation, to suppress trading during warm-up.
//
// Also here:
//   • FeatureList   – the canonical, ordered feature-name list
//   • FeatureHash   – SHA-256 of the pipe-joined list (brain artifacts
//     store this; see brain.go for the load-time comparison)

package main

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"strings"
	"time"
)

// Candle is the normalized OHLCV row the bot uses everywhere.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Features is a flat named-value feature vector for one bar.
type Features map[string]float64

// Indicator windows (5-minute bars).
const (
	rsiPeriod  = 14
	atrPeriod  = 14
	bbPeriod   = 20
	bbStdDevs  = 2.0
	emaFastLen = 20
	emaMidLen  = 50
	emaSlowLen = 200
	macdFast   = 12
	macdSlow   = 26
	macdSig    = 9

	volWindow     = 20  // rolling return-stddev window
	volNormWindow = 100 // normalization window for vol_z
	volmWindow    = 20  // volume z-score window

	// warmupBars is the minimum history before features exist at all;
	// the 200-period EMA is the binding constraint.
	warmupBars = emaSlowLen + 1
)

// FeatureList is the canonical ordered feature-name list. Brain artifacts
// are trained against exactly this list; changing it (or its order)
// changes FeatureHash and invalidates stored brains by construction.
var FeatureList = []string{
	"rsi",
	"macd",
	"macd_signal",
	"macd_hist",
	"atr",
	"atr_pct",
	"ema20_rel",
	"ema50_rel",
	"ema200_rel",
	"bb_z",
	"vol_z",
	"volm_z",
	"time_of_day",
}

// FeatureHash returns the hex SHA-256 of the pipe-joined feature names.
// Order-sensitive by construction of the join.
func FeatureHash(names []string) string {
	sum := sha256.Sum256([]byte(strings.Join(names, "|")))
	return hex.EncodeToString(sum[:])
}

// exchangeLocation returns the exchange-local timezone used for the
// time_of_day feature. Falls back to UTC if tzdata is unavailable.
func exchangeLocation() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.UTC
	}
	return loc
}

// BuildFeatures computes the feature vector for the LAST bar of c, with
// time_of_day rendered in loc. Returns nil while indicators are warming
// up or any required value is undefined.
func BuildFeatures(c []Candle, loc *time.Location) Features {
	if len(c) < warmupBars {
		return nil
	}
	i := len(c) - 1
	price := c[i].Close
	if price <= 0 {
		return nil
	}

	closes := make([]float64, len(c))
	volumes := make([]float64, len(c))
	for k := range c {
		closes[k] = c[k].Close
		volumes[k] = c[k].Volume
	}

	rsis := RSI(c, rsiPeriod)
	atrs := ATR(c, atrPeriod)
	ema20 := EMA(closes, emaFastLen)
	ema50 := EMA(closes, emaMidLen)
	ema200 := EMA(closes, emaSlowLen)
	macdLine, macdSignal, macdHist := MACD(closes, macdFast, macdSlow, macdSig)
	bbMid, bbUpper, bbLower := Bollinger(closes, bbPeriod, bbStdDevs)

	volZ, volZOK := volZScore(closes)
	volmZ, volmZOK := lastZScore(volumes, volmWindow)

	vals := []float64{
		rsis[i], atrs[i], ema20[i], ema50[i], ema200[i],
		macdLine[i], macdSignal[i], macdHist[i], bbMid[i],
	}
	for _, v := range vals {
		if math.IsNaN(v) {
			return nil
		}
	}
	if !volZOK || !volmZOK {
		return nil
	}
	if ema20[i] <= 0 || ema50[i] <= 0 || ema200[i] <= 0 {
		return nil
	}

	bbWidth := bbUpper[i] - bbLower[i]
	bbZ := 0.0
	if bbWidth > 0 {
		bbZ = (price - bbMid[i]) / (0.5 * bbWidth)
	}

	local := c[i].Time.In(loc)
	tod := float64(local.Hour()) + float64(local.Minute())/60.0

	return Features{
		"rsi":         rsis[i],
		"macd":        macdLine[i],
		"macd_signal": macdSignal[i],
		"macd_hist":   macdHist[i],
		"atr":         atrs[i],
		"atr_pct":     atrs[i] / price,
		"ema20_rel":   price/ema20[i] - 1,
		"ema50_rel":   price/ema50[i] - 1,
		"ema200_rel":  price/ema200[i] - 1,
		"bb_z":        bbZ,
		"vol_z":       volZ,
		"volm_z":      volmZ,
		"time_of_day": tod,
	}
}

// volZScore computes the latest volatility regime z-score: the rolling
// volWindow stddev of returns, normalized against its own volNormWindow
// mean/stddev.
func volZScore(closes []float64) (float64, bool) {
	if len(closes) < 1+volWindow+volNormWindow {
		return 0, false
	}
	rets := Returns(closes)[1:] // drop the undefined first return
	vol := RollingStd(rets, volWindow)
	// First defined volatility reading is at index volWindow-1.
	volValid := vol[volWindow-1:]
	mean, std := RollingMeanStd(volValid, volNormWindow)
	j := len(volValid) - 1
	if math.IsNaN(mean[j]) || math.IsNaN(std[j]) {
		return 0, false
	}
	return (volValid[j] - mean[j]) / (std[j] + 1e-8), true
}

// lastZScore returns the z-score of the latest value of x against its
// n-period rolling mean/stddev.
func lastZScore(x []float64, n int) (float64, bool) {
	if len(x) < n {
		return 0, false
	}
	mean, std := RollingMeanStd(x, n)
	i := len(x) - 1
	if math.IsNaN(mean[i]) || math.IsNaN(std[i]) {
		return 0, false
	}
	return (x[i] - mean[i]) / (std[i] + 1e-8), true
}
