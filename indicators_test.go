// FILE: indicators_test.go

package main

import (
	"math"
	"testing"
	"time"
)

// helper: N candles at a constant price
func mkFlat(price float64, n int) []Candle {
	out := make([]Candle, n)
	t := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		out[i] = Candle{
			Time: t.Add(time.Duration(i) * 5 * time.Minute),
			Open: price, High: price, Low: price, Close: price,
			Volume: 1_000_000,
		}
	}
	return out
}

// helper: N candles trending by step per bar
func mkTrendBars(base, step float64, n int) []Candle {
	out := make([]Candle, n)
	t := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		p := base + float64(i)*step
		out[i] = Candle{
			Time: t.Add(time.Duration(i) * 5 * time.Minute),
			Open: p - step/2, High: p + 0.2, Low: p - 0.2, Close: p,
			Volume: 1_000_000,
		}
	}
	return out
}

func TestSMAWarmupAndValue(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	out := SMA(x, 3)
	if !math.IsNaN(out[0]) || !math.IsNaN(out[1]) {
		t.Fatalf("expected NaN warmup, got %v %v", out[0], out[1])
	}
	if out[2] != 2 || out[4] != 4 {
		t.Fatalf("unexpected SMA values: %v", out)
	}
}

func TestEMASeededBySMA(t *testing.T) {
	x := []float64{2, 4, 6, 8}
	out := EMA(x, 3)
	if !math.IsNaN(out[0]) || !math.IsNaN(out[1]) {
		t.Fatalf("expected NaN before seed")
	}
	if out[2] != 4 { // SMA(2,4,6)
		t.Fatalf("seed should be SMA: got %v", out[2])
	}
	// k = 2/(3+1) = 0.5 -> (8-4)*0.5 + 4 = 6
	if out[3] != 6 {
		t.Fatalf("expected 6, got %v", out[3])
	}
}

func TestRSIBounds(t *testing.T) {
	bars := mkTrendBars(100, 0.3, 60)
	// flip direction halfway for mixed gains/losses
	for i := 30; i < 60; i++ {
		bars[i].Close = bars[29].Close - float64(i-29)*0.2
	}
	out := RSI(bars, 14)
	for i, v := range out {
		if math.IsNaN(v) {
			continue
		}
		if v < 0 || v > 100 {
			t.Fatalf("RSI out of bounds at %d: %v", i, v)
		}
	}
}

func TestRSIFlatSeriesReads50(t *testing.T) {
	out := RSI(mkFlat(100, 40), 14)
	last := out[len(out)-1]
	if last != 50.0 {
		t.Fatalf("flat series should read RSI 50, got %v", last)
	}
}

func TestRSIAllGainsReads100(t *testing.T) {
	out := RSI(mkTrendBars(100, 0.5, 40), 14)
	last := out[len(out)-1]
	if last != 100.0 {
		t.Fatalf("monotone gains should read RSI 100, got %v", last)
	}
}

func TestRSIWarmupIsNaN(t *testing.T) {
	out := RSI(mkTrendBars(100, 0.5, 40), 14)
	for i := 0; i < 14; i++ {
		if !math.IsNaN(out[i]) {
			t.Fatalf("index %d should be NaN during warmup, got %v", i, out[i])
		}
	}
	if math.IsNaN(out[14]) {
		t.Fatalf("first defined RSI expected at index 14")
	}
}

func TestATRPositiveAfterWarmup(t *testing.T) {
	out := ATR(mkTrendBars(100, 0.5, 40), 14)
	last := out[len(out)-1]
	if math.IsNaN(last) || last <= 0 {
		t.Fatalf("expected positive ATR, got %v", last)
	}
	for i := 0; i < 14; i++ {
		if !math.IsNaN(out[i]) {
			t.Fatalf("ATR warmup index %d should be NaN", i)
		}
	}
}

func TestBollingerBandsOrdering(t *testing.T) {
	closes := make([]float64, 50)
	for i := range closes {
		closes[i] = 100 + math.Sin(float64(i)/3)*2
	}
	mid, up, lo := Bollinger(closes, 20, 2.0)
	i := len(closes) - 1
	if !(lo[i] < mid[i] && mid[i] < up[i]) {
		t.Fatalf("band ordering violated: lo=%v mid=%v up=%v", lo[i], mid[i], up[i])
	}
}

func TestRollingMeanStdFlat(t *testing.T) {
	x := make([]float64, 30)
	for i := range x {
		x[i] = 5
	}
	mean, std := RollingMeanStd(x, 10)
	i := len(x) - 1
	if mean[i] != 5 || std[i] != 0 {
		t.Fatalf("flat input: mean=%v std=%v", mean[i], std[i])
	}
}

func TestMACDHistogramIsLineMinusSignal(t *testing.T) {
	closes := make([]float64, 120)
	for i := range closes {
		closes[i] = 100 + float64(i)*0.3 + math.Sin(float64(i)/5)
	}
	line, sig, hist := MACD(closes, 12, 26, 9)
	i := len(closes) - 1
	if math.IsNaN(line[i]) || math.IsNaN(sig[i]) {
		t.Fatalf("MACD should be defined by index %d", i)
	}
	if math.Abs(hist[i]-(line[i]-sig[i])) > 1e-12 {
		t.Fatalf("hist != line-signal: %v vs %v", hist[i], line[i]-sig[i])
	}
}

func TestReturnsFirstIndexNaN(t *testing.T) {
	out := Returns([]float64{100, 101, 99})
	if !math.IsNaN(out[0]) {
		t.Fatalf("first return should be NaN")
	}
	if math.Abs(out[1]-0.01) > 1e-12 {
		t.Fatalf("expected 0.01, got %v", out[1])
	}
}
