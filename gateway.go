// FILE: gateway.go
// Package main – Order gateway and portfolio abstractions.
//
// This file defines the narrow surface the decision core needs to talk to
// an execution backend (paper or real):
//   • OrderGateway: market/stop/limit submission, cancel, liquidate, status
//   • Portfolio: fresh equity and position reads (re-read every bar; the
//     core never infers position state from its own submitted orders)
//   • Common types: OrderType, OrderStatus, Order
//
// Two concrete implementations live in separate files:
//   • gateway_paper.go  – in-memory paper gateway (no external calls)
//   • gateway_broker.go – HTTP client for the brokerage REST API

package main

import (
	"context"
	"time"
)

// OrderType is the execution style of an order.
type OrderType string

const (
	OrderMarket OrderType = "market"
	OrderStop   OrderType = "stop"
	OrderLimit  OrderType = "limit"
)

// OrderStatus is the lifecycle state reported by the gateway.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusFilled    OrderStatus = "filled"
	StatusCancelled OrderStatus = "cancelled"
	StatusPartial   OrderStatus = "partial"
)

// Terminal reports whether the order can no longer change.
func (s OrderStatus) Terminal() bool {
	return s == StatusFilled || s == StatusCancelled
}

// Order is a normalized view of a submitted order. Qty is signed:
// positive buys, negative sells.
type Order struct {
	ID         string
	Symbol     string
	Type       OrderType
	Qty        int
	StopPrice  float64
	LimitPrice float64
	FillPrice  float64
	Tag        string
	Status     OrderStatus
	CreateTime time.Time
}

// OrderGateway is the minimal execution surface the decision core uses.
// CancelOrder on an already-terminal order is a no-op, not an error.
type OrderGateway interface {
	Name() string
	SubmitMarket(ctx context.Context, symbol string, qty int, tag string) (string, error)
	SubmitStop(ctx context.Context, symbol string, qty int, stopPrice float64, tag string) (string, error)
	SubmitLimit(ctx context.Context, symbol string, qty int, limitPrice float64, tag string) (string, error)
	CancelOrder(ctx context.Context, orderID string) error
	Liquidate(ctx context.Context, symbol, tag string) error
	OrderStatus(ctx context.Context, orderID string) (OrderStatus, error)
}

// Portfolio exposes the account state the core re-reads each bar.
type Portfolio interface {
	Equity(ctx context.Context) (float64, error)
	PositionQty(ctx context.Context, symbol string) (float64, error)
}

// BarSource supplies OHLCV candles at the configured resample cadence.
type BarSource interface {
	RecentBars(ctx context.Context, symbol string, barMinutes, limit int) ([]Candle, error)
}
