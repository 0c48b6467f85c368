// FILE: gateway_paper.go
// Package main – In-memory paper gateway (no external dependencies).
//
// Simulates execution against the latest seen bar. Used for dry runs and
// backtests; the live loop can also route orders here when DRY_RUN=true.
//
// Fill model (per bar, applied by MarkBar before the core evaluates):
//   • market orders fill immediately at the current mark
//   • a resting stop leg triggers when the bar range touches its stop
//     price and fills at that price
//   • a resting limit leg fills when the bar range touches its limit
//   • resting legs are one-cancels-other: the first fill (stops checked
//     before limits) cancels the survivors
//   • cancel of a terminal order is a no-op (bracket-cancel contract)
//
// Equity = cash + position*mark. One symbol per gateway instance.

package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// PaperGateway simulates fills and tracks a single-symbol portfolio.
type PaperGateway struct {
	mu     sync.Mutex
	symbol string
	cash   float64
	pos    float64 // signed shares
	mark   float64
	now    time.Time
	orders map[string]*Order
}

func NewPaperGateway(symbol string, startingCash float64) *PaperGateway {
	return &PaperGateway{
		symbol: symbol,
		cash:   startingCash,
		orders: map[string]*Order{},
	}
}

func (p *PaperGateway) Name() string { return "paper" }

// MarkBar advances the simulation clock: updates the mark price and
// fills at most one resting stop/limit leg whose trigger lies inside
// the bar's range. Call once per bar, before the decision core
// evaluates it. Resting legs behave as one-cancels-other: the first
// fill cancels the survivors, so a bar wide enough to span both
// bracket prices cannot flip the position through zero. Stops are
// checked before limits (the pessimistic fill assumption).
func (p *PaperGateway) MarkBar(bar Candle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.now = bar.Time
	p.mark = bar.Close

	resting := make([]*Order, 0, len(p.orders))
	for _, o := range p.orders {
		if !o.Status.Terminal() && o.Type != OrderMarket {
			resting = append(resting, o)
		}
	}
	sort.Slice(resting, func(i, j int) bool {
		if resting[i].Type != resting[j].Type {
			return resting[i].Type == OrderStop
		}
		return resting[i].ID < resting[j].ID
	})

	for _, o := range resting {
		var triggered bool
		var px float64
		switch o.Type {
		case OrderStop:
			// Sell stop triggers on the low; buy stop on the high.
			triggered = (o.Qty < 0 && bar.Low <= o.StopPrice) || (o.Qty > 0 && bar.High >= o.StopPrice)
			px = o.StopPrice
		case OrderLimit:
			// Sell limit fills on the high; buy limit on the low.
			triggered = (o.Qty < 0 && bar.High >= o.LimitPrice) || (o.Qty > 0 && bar.Low <= o.LimitPrice)
			px = o.LimitPrice
		}
		if !triggered {
			continue
		}
		p.fillLocked(o, px)
		for _, other := range resting {
			if other != o && !other.Status.Terminal() {
				other.Status = StatusCancelled
			}
		}
		break
	}
}

func (p *PaperGateway) fillLocked(o *Order, price float64) {
	o.Status = StatusFilled
	o.FillPrice = price
	p.pos += float64(o.Qty)
	p.cash -= float64(o.Qty) * price
}

func (p *PaperGateway) SubmitMarket(ctx context.Context, symbol string, qty int, tag string) (string, error) {
	if qty == 0 {
		return "", errors.New("qty must be non-zero")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mark <= 0 {
		return "", errors.New("paper gateway has no mark price yet")
	}
	o := p.newOrderLocked(symbol, OrderMarket, qty, tag)
	p.fillLocked(o, p.mark)
	return o.ID, nil
}

func (p *PaperGateway) SubmitStop(ctx context.Context, symbol string, qty int, stopPrice float64, tag string) (string, error) {
	if qty == 0 || stopPrice <= 0 {
		return "", fmt.Errorf("bad stop order: qty=%d stop=%.2f", qty, stopPrice)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	o := p.newOrderLocked(symbol, OrderStop, qty, tag)
	o.StopPrice = stopPrice
	return o.ID, nil
}

func (p *PaperGateway) SubmitLimit(ctx context.Context, symbol string, qty int, limitPrice float64, tag string) (string, error) {
	if qty == 0 || limitPrice <= 0 {
		return "", fmt.Errorf("bad limit order: qty=%d limit=%.2f", qty, limitPrice)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	o := p.newOrderLocked(symbol, OrderLimit, qty, tag)
	o.LimitPrice = limitPrice
	return o.ID, nil
}

func (p *PaperGateway) newOrderLocked(symbol string, typ OrderType, qty int, tag string) *Order {
	o := &Order{
		ID:         uuid.New().String(),
		Symbol:     symbol,
		Type:       typ,
		Qty:        qty,
		Tag:        tag,
		Status:     StatusPending,
		CreateTime: p.now,
	}
	p.orders[o.ID] = o
	return o
}

// CancelOrder cancels a pending order; terminal orders are left alone.
func (p *PaperGateway) CancelOrder(ctx context.Context, orderID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	o, ok := p.orders[orderID]
	if !ok {
		return fmt.Errorf("unknown order %s", orderID)
	}
	if o.Status.Terminal() {
		return nil
	}
	o.Status = StatusCancelled
	return nil
}

// Liquidate flattens the position with a market fill at the mark.
func (p *PaperGateway) Liquidate(ctx context.Context, symbol, tag string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pos == 0 {
		return nil
	}
	p.cash += p.pos * p.mark
	p.pos = 0
	return nil
}

func (p *PaperGateway) OrderStatus(ctx context.Context, orderID string) (OrderStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	o, ok := p.orders[orderID]
	if !ok {
		return "", fmt.Errorf("unknown order %s", orderID)
	}
	return o.Status, nil
}

// --- Portfolio ---

func (p *PaperGateway) Equity(ctx context.Context) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cash + p.pos*p.mark, nil
}

func (p *PaperGateway) PositionQty(ctx context.Context, symbol string) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pos, nil
}

// SetEquityForTest force-sets cash so tests can engineer drawdowns.
func (p *PaperGateway) SetEquityForTest(equity float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cash = equity - p.pos*p.mark
}
