// FILE: tradelog.go
// Package main – Append-only CSV decision log.
//
// One row per decision event (enter/exit/skip-reason/error). This is the
// sole persisted record the analysis tooling consumes (tools/analyze_log.go):
//   timestamp,symbol,action,price,rsi,qty,note

package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"sync"
	"time"
)

var tradeLogHeader = []string{"timestamp", "symbol", "action", "price", "rsi", "qty", "note"}

// TradeLog appends decision events to a CSV file, writing the header on
// first creation. Safe for use from a single decision core; the mutex
// only guards against the metrics server scraping mid-write in tests.
type TradeLog struct {
	mu   sync.Mutex
	path string
}

func NewTradeLog(path string) *TradeLog { return &TradeLog{path: path} }

// Append writes one decision event row. Errors are returned, not fatal:
// a failed log write must never block order flow (the caller logs and
// moves on).
func (t *TradeLog) Append(ts time.Time, symbol, action string, price, rsi float64, qty int, note string) error {
	if t == nil || t.path == "" {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	_, statErr := os.Stat(t.path)
	isNew := os.IsNotExist(statErr)

	f, err := os.OpenFile(t.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("tradelog open: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if isNew {
		if err := w.Write(tradeLogHeader); err != nil {
			return fmt.Errorf("tradelog header: %w", err)
		}
	}
	row := []string{
		ts.UTC().Format(time.RFC3339),
		symbol,
		action,
		fmt.Sprintf("%.4f", price),
		fmt.Sprintf("%.2f", rsi),
		fmt.Sprintf("%d", qty),
		note,
	}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("tradelog write: %w", err)
	}
	w.Flush()
	return w.Error()
}
