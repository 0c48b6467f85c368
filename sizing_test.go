// FILE: sizing_test.go

package main

import (
	"math"
	"testing"
)

func TestSizeFromProbZeroAtCoinFlip(t *testing.T) {
	for _, vol := range []float64{0, 0.01, 0.5} {
		if got := SizeFromProb(0.5, vol, 0.002); got != 0 {
			t.Fatalf("p=0.5 vol=%v should size 0, got %v", vol, got)
		}
	}
}

func TestSizeFromProbBounds(t *testing.T) {
	cap := 0.002
	for _, p := range []float64{-1, 0, 0.25, 0.5, 0.75, 1, 2} {
		got := SizeFromProb(p, 0.0, cap)
		if got < -cap || got > cap {
			t.Fatalf("size %v outside [-%v,%v] at p=%v", got, cap, cap, p)
		}
	}
	if got := SizeFromProb(1.0, 0.0, cap); got != cap {
		t.Fatalf("p=1 no-vol should hit +cap, got %v", got)
	}
	if got := SizeFromProb(0.0, 0.0, cap); got != -cap {
		t.Fatalf("p=0 no-vol should hit -cap, got %v", got)
	}
}

func TestSizeFromProbMonotoneInProb(t *testing.T) {
	prev := math.Inf(-1)
	for p := 0.0; p <= 1.0; p += 0.05 {
		got := SizeFromProb(p, 0.01, 0.002)
		if got < prev {
			t.Fatalf("size not non-decreasing at p=%v: %v < %v", p, got, prev)
		}
		prev = got
	}
}

func TestSizeFromProbVolatilityDamping(t *testing.T) {
	calm := SizeFromProb(0.8, 0.005, 0.002)
	wild := SizeFromProb(0.8, 0.05, 0.002)
	if wild >= calm {
		t.Fatalf("higher volatility must shrink size: calm=%v wild=%v", calm, wild)
	}
	if wild <= 0 {
		t.Fatalf("damping must not flip the sign: %v", wild)
	}
}

func TestQtyByATR(t *testing.T) {
	// $100k * 0.25% = $250 risk against a $2 stop distance -> 125 shares.
	if got := QtyByATR(100_000, 0.0025, 2.0, 1.0); got != 125 {
		t.Fatalf("want 125 shares, got %d", got)
	}
	// Wider stop, fewer shares.
	if got := QtyByATR(100_000, 0.0025, 2.0, 2.0); got != 62 {
		t.Fatalf("want floor(250/4)=62 shares, got %d", got)
	}
	// Too small to trade floors to zero, not an error.
	if got := QtyByATR(100, 0.0025, 2.0, 1.0); got != 0 {
		t.Fatalf("want 0 shares, got %d", got)
	}
}

func TestNotionalQty(t *testing.T) {
	// floor(100000*0.0025/250) = floor(1.0) = 1
	if got := NotionalQty(100_000, 0.0025, 250); got != 1 {
		t.Fatalf("want 1 share, got %d", got)
	}
	if got := NotionalQty(100_000, 0.0025, 100); got != 2 {
		t.Fatalf("want 2 shares, got %d", got)
	}
	if got := NotionalQty(1_000, 0.0025, 400); got != 0 {
		t.Fatalf("want 0 shares, got %d", got)
	}
}
