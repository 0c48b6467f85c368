// FILE: gateway_broker.go
// Package main – HTTP client for the brokerage REST API.
//
// Implements OrderGateway, Portfolio, and BarSource against the paper
// trading API (key/secret headers, numeric fields as strings). The
// surface is deliberately narrow – the handful of endpoints the decision
// core needs, nothing SDK-shaped:
//   • GET    /v2/account                – equity
//   • GET    /v2/positions/{symbol}     – signed position qty (404 = flat)
//   • POST   /v2/orders                 – market/stop/limit, day TIF
//   • GET    /v2/orders/{id}            – status
//   • DELETE /v2/orders/{id}            – cancel (terminal -> no-op)
//   • DELETE /v2/positions/{symbol}     – liquidate
//   • GET    {data}/v2/stocks/{symbol}/bars – 5-minute candles

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// BrokerGateway talks to the brokerage trading and market-data APIs.
type BrokerGateway struct {
	base   string // trading API
	data   string // market-data API
	feed   string
	key    string
	secret string
	hc     *http.Client
}

func NewBrokerGateway(base, dataBase, feed, key, secret string) *BrokerGateway {
	return &BrokerGateway{
		base:   strings.TrimRight(strings.TrimSpace(base), "/"),
		data:   strings.TrimRight(strings.TrimSpace(dataBase), "/"),
		feed:   feed,
		key:    key,
		secret: secret,
		hc:     &http.Client{Timeout: 15 * time.Second},
	}
}

func (b *BrokerGateway) Name() string { return "broker" }

func (b *BrokerGateway) do(ctx context.Context, method, u string, body, out interface{}) (int, error) {
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		rdr = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return 0, err
	}
	req.Header.Set("APCA-API-KEY-ID", b.key)
	req.Header.Set("APCA-API-SECRET-KEY", b.secret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	res, err := b.hc.Do(req)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		raw, _ := io.ReadAll(res.Body)
		return res.StatusCode, fmt.Errorf("%s %s: %d: %s", method, u, res.StatusCode, string(raw))
	}
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil && err != io.EOF {
			return res.StatusCode, err
		}
	}
	return res.StatusCode, nil
}

// --- Portfolio ---

func (b *BrokerGateway) Equity(ctx context.Context) (float64, error) {
	var out struct {
		Equity string `json:"equity"`
	}
	if _, err := b.do(ctx, http.MethodGet, b.base+"/v2/account", nil, &out); err != nil {
		return 0, err
	}
	return strconv.ParseFloat(out.Equity, 64)
}

func (b *BrokerGateway) PositionQty(ctx context.Context, symbol string) (float64, error) {
	var out struct {
		Qty string `json:"qty"`
	}
	code, err := b.do(ctx, http.MethodGet, b.base+"/v2/positions/"+url.PathEscape(symbol), nil, &out)
	if code == http.StatusNotFound {
		return 0, nil // no open position
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(out.Qty, 64)
}

// --- OrderGateway ---

type orderRequest struct {
	Symbol      string `json:"symbol"`
	Qty         string `json:"qty"`
	Side        string `json:"side"`
	Type        string `json:"type"`
	TimeInForce string `json:"time_in_force"`
	StopPrice   string `json:"stop_price,omitempty"`
	LimitPrice  string `json:"limit_price,omitempty"`
	ClientID    string `json:"client_order_id,omitempty"`
}

func (b *BrokerGateway) submit(ctx context.Context, symbol string, qty int, typ OrderType, stopPrice, limitPrice float64, tag string) (string, error) {
	side := "buy"
	if qty < 0 {
		side = "sell"
		qty = -qty
	}
	req := orderRequest{
		Symbol:      symbol,
		Qty:         strconv.Itoa(qty),
		Side:        side,
		Type:        string(typ),
		TimeInForce: "day",
	}
	if stopPrice > 0 {
		req.StopPrice = strconv.FormatFloat(stopPrice, 'f', 2, 64)
	}
	if limitPrice > 0 {
		req.LimitPrice = strconv.FormatFloat(limitPrice, 'f', 2, 64)
	}
	var out struct {
		ID string `json:"id"`
	}
	if _, err := b.do(ctx, http.MethodPost, b.base+"/v2/orders", req, &out); err != nil {
		return "", fmt.Errorf("submit %s (%s): %w", typ, tag, err)
	}
	return out.ID, nil
}

func (b *BrokerGateway) SubmitMarket(ctx context.Context, symbol string, qty int, tag string) (string, error) {
	return b.submit(ctx, symbol, qty, OrderMarket, 0, 0, tag)
}

func (b *BrokerGateway) SubmitStop(ctx context.Context, symbol string, qty int, stopPrice float64, tag string) (string, error) {
	return b.submit(ctx, symbol, qty, OrderStop, stopPrice, 0, tag)
}

func (b *BrokerGateway) SubmitLimit(ctx context.Context, symbol string, qty int, limitPrice float64, tag string) (string, error) {
	return b.submit(ctx, symbol, qty, OrderLimit, 0, limitPrice, tag)
}

// CancelOrder cancels a working order. The API answers 422 for orders
// already in a terminal state; per the bracket-cancel contract that is a
// no-op here, not an error.
func (b *BrokerGateway) CancelOrder(ctx context.Context, orderID string) error {
	code, err := b.do(ctx, http.MethodDelete, b.base+"/v2/orders/"+url.PathEscape(orderID), nil, nil)
	if code == http.StatusUnprocessableEntity || code == http.StatusNotFound {
		return nil
	}
	return err
}

func (b *BrokerGateway) Liquidate(ctx context.Context, symbol, tag string) error {
	code, err := b.do(ctx, http.MethodDelete, b.base+"/v2/positions/"+url.PathEscape(symbol), nil, nil)
	if code == http.StatusNotFound {
		return nil // already flat
	}
	return err
}

func (b *BrokerGateway) OrderStatus(ctx context.Context, orderID string) (OrderStatus, error) {
	var out struct {
		Status string `json:"status"`
	}
	if _, err := b.do(ctx, http.MethodGet, b.base+"/v2/orders/"+url.PathEscape(orderID), nil, &out); err != nil {
		return "", err
	}
	switch out.Status {
	case "filled":
		return StatusFilled, nil
	case "canceled", "expired", "rejected":
		return StatusCancelled, nil
	case "partially_filled":
		return StatusPartial, nil
	default:
		return StatusPending, nil
	}
}

// --- BarSource ---

func (b *BrokerGateway) RecentBars(ctx context.Context, symbol string, barMinutes, limit int) ([]Candle, error) {
	q := url.Values{}
	q.Set("timeframe", fmt.Sprintf("%dMin", barMinutes))
	q.Set("limit", strconv.Itoa(limit))
	q.Set("adjustment", "raw")
	if b.feed != "" {
		q.Set("feed", b.feed)
	}
	u := fmt.Sprintf("%s/v2/stocks/%s/bars?%s", b.data, url.PathEscape(symbol), q.Encode())

	var out struct {
		Bars []struct {
			T time.Time `json:"t"`
			O float64   `json:"o"`
			H float64   `json:"h"`
			L float64   `json:"l"`
			C float64   `json:"c"`
			V float64   `json:"v"`
		} `json:"bars"`
	}
	if _, err := b.do(ctx, http.MethodGet, u, nil, &out); err != nil {
		return nil, err
	}
	candles := make([]Candle, 0, len(out.Bars))
	for _, bar := range out.Bars {
		candles = append(candles, Candle{
			Time: bar.T, Open: bar.O, High: bar.H, Low: bar.L, Close: bar.C, Volume: bar.V,
		})
	}
	sortCandles(candles)
	return candles, nil
}
