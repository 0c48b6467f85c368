// FILE: gateway_paper_test.go

package main

import (
	"context"
	"testing"
	"time"
)

func paperBar(ts time.Time, o, h, l, c float64) Candle {
	return Candle{Time: ts, Open: o, High: h, Low: l, Close: c, Volume: 1_000_000}
}

func TestPaperMarketFillAndEquity(t *testing.T) {
	ctx := context.Background()
	p := NewPaperGateway("TSLA", 100_000)
	ts := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	p.MarkBar(paperBar(ts, 100, 101, 99, 100))

	if _, err := p.SubmitMarket(ctx, "TSLA", 10, "entry"); err != nil {
		t.Fatalf("market: %v", err)
	}
	qty, _ := p.PositionQty(ctx, "TSLA")
	if qty != 10 {
		t.Fatalf("position = %v, want 10", qty)
	}
	eq, _ := p.Equity(ctx)
	if eq != 100_000 { // cash down 1000, position worth 1000
		t.Fatalf("equity should be unchanged at the fill mark, got %v", eq)
	}

	// Mark moves up: equity follows the position.
	p.MarkBar(paperBar(ts.Add(5*time.Minute), 100, 103, 100, 102))
	eq, _ = p.Equity(ctx)
	if eq != 100_020 {
		t.Fatalf("equity = %v, want 100020", eq)
	}
}

func TestPaperMarketNeedsMark(t *testing.T) {
	p := NewPaperGateway("TSLA", 100_000)
	if _, err := p.SubmitMarket(context.Background(), "TSLA", 1, "entry"); err == nil {
		t.Fatalf("market order before any bar must fail")
	}
}

func TestPaperStopLegFillsOnLow(t *testing.T) {
	ctx := context.Background()
	p := NewPaperGateway("TSLA", 100_000)
	ts := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	p.MarkBar(paperBar(ts, 100, 101, 99, 100))
	_, _ = p.SubmitMarket(ctx, "TSLA", 10, "entry")

	stopID, err := p.SubmitStop(ctx, "TSLA", -10, 98, "stop")
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	// Bar stays above the stop: leg rests.
	p.MarkBar(paperBar(ts.Add(5*time.Minute), 100, 101, 98.5, 100))
	if st, _ := p.OrderStatus(ctx, stopID); st != StatusPending {
		t.Fatalf("stop should still rest, got %s", st)
	}
	// Bar trades through the stop: fills at the stop price.
	p.MarkBar(paperBar(ts.Add(10*time.Minute), 99, 99.5, 97.5, 98.2))
	if st, _ := p.OrderStatus(ctx, stopID); st != StatusFilled {
		t.Fatalf("stop should fill, got %s", st)
	}
	qty, _ := p.PositionQty(ctx, "TSLA")
	if qty != 0 {
		t.Fatalf("stop fill should flatten, position = %v", qty)
	}
}

func TestPaperLimitLegFillsOnHigh(t *testing.T) {
	ctx := context.Background()
	p := NewPaperGateway("TSLA", 100_000)
	ts := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	p.MarkBar(paperBar(ts, 100, 101, 99, 100))
	_, _ = p.SubmitMarket(ctx, "TSLA", 10, "entry")

	tpID, _ := p.SubmitLimit(ctx, "TSLA", -10, 104, "tp")
	p.MarkBar(paperBar(ts.Add(5*time.Minute), 100, 104.5, 100, 103))
	if st, _ := p.OrderStatus(ctx, tpID); st != StatusFilled {
		t.Fatalf("limit should fill on the high, got %s", st)
	}
	// Filled at the limit price: cash back = 10*104.
	eq, _ := p.Equity(ctx)
	if eq != 100_040 {
		t.Fatalf("equity = %v, want 100040", eq)
	}
}

func TestPaperBracketLegsAreOneCancelsOther(t *testing.T) {
	ctx := context.Background()
	p := NewPaperGateway("TSLA", 100_000)
	ts := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	p.MarkBar(paperBar(ts, 100, 101, 99, 100))
	_, _ = p.SubmitMarket(ctx, "TSLA", 10, "entry")

	stopID, _ := p.SubmitStop(ctx, "TSLA", -10, 98, "stop")
	tpID, _ := p.SubmitLimit(ctx, "TSLA", -10, 104, "tp")

	// One bar spans both triggers. Exactly one leg may fill, the stop
	// first, and the survivor is cancelled rather than left to flip
	// the book short.
	p.MarkBar(paperBar(ts.Add(5*time.Minute), 100, 105, 97, 99))

	if st, _ := p.OrderStatus(ctx, stopID); st != StatusFilled {
		t.Fatalf("stop should win the wide bar, got %s", st)
	}
	if st, _ := p.OrderStatus(ctx, tpID); st != StatusCancelled {
		t.Fatalf("tp should be cancelled by the stop fill, got %s", st)
	}
	qty, _ := p.PositionQty(ctx, "TSLA")
	if qty != 0 {
		t.Fatalf("position = %v, want flat (not short)", qty)
	}
	// Entry at 100, exit at the 98 stop: only the one fill books.
	eq, _ := p.Equity(ctx)
	if eq != 99_980 {
		t.Fatalf("equity = %v, want 99980", eq)
	}
}

func TestPaperCancelTerminalIsNoOp(t *testing.T) {
	ctx := context.Background()
	p := NewPaperGateway("TSLA", 100_000)
	ts := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	p.MarkBar(paperBar(ts, 100, 101, 99, 100))
	id, _ := p.SubmitMarket(ctx, "TSLA", 5, "entry")

	if err := p.CancelOrder(ctx, id); err != nil {
		t.Fatalf("cancel of a filled order must be a no-op, got %v", err)
	}
	if st, _ := p.OrderStatus(ctx, id); st != StatusFilled {
		t.Fatalf("cancel must not mutate a terminal order, got %s", st)
	}
}

func TestPaperCancelPending(t *testing.T) {
	ctx := context.Background()
	p := NewPaperGateway("TSLA", 100_000)
	ts := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	p.MarkBar(paperBar(ts, 100, 101, 99, 100))
	id, _ := p.SubmitStop(ctx, "TSLA", -10, 90, "stop")
	if err := p.CancelOrder(ctx, id); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if st, _ := p.OrderStatus(ctx, id); st != StatusCancelled {
		t.Fatalf("want cancelled, got %s", st)
	}
	// A cancelled leg must never fill, even through its trigger.
	p.MarkBar(paperBar(ts.Add(5*time.Minute), 89, 91, 88, 89))
	qty, _ := p.PositionQty(ctx, "TSLA")
	if qty != 0 {
		t.Fatalf("cancelled stop filled anyway: position %v", qty)
	}
}

func TestPaperLiquidate(t *testing.T) {
	ctx := context.Background()
	p := NewPaperGateway("TSLA", 100_000)
	ts := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	p.MarkBar(paperBar(ts, 100, 101, 99, 100))
	_, _ = p.SubmitMarket(ctx, "TSLA", 10, "entry")

	if err := p.Liquidate(ctx, "TSLA", "flatten"); err != nil {
		t.Fatalf("liquidate: %v", err)
	}
	qty, _ := p.PositionQty(ctx, "TSLA")
	if qty != 0 {
		t.Fatalf("position = %v after liquidate", qty)
	}
	// Liquidating a flat book is fine.
	if err := p.Liquidate(ctx, "TSLA", "again"); err != nil {
		t.Fatalf("flat liquidate: %v", err)
	}
}
