// FILE: backtest.go
// Package main – CSV loader and historical backtest runner.
//
// What’s here:
//   • loadCSV(path) -> []Candle  : reads time,open,high,low,close,volume
//   • runBacktest(ctx, csvPath, cfg, core, paper)
//       - replays the candle history bar by bar through the decision core
//       - the paper gateway applies stop/limit fills from each bar’s range
//         BEFORE the core evaluates it, so fills land one bar after
//         submission (matching the live fill-confirmation lag)
//       - logs periodic progress and a win/loss summary
//
// Notes:
//   • Time column accepts RFC3339 or UNIX seconds.
//   • Unknown columns are ignored; headers are case-insensitive.

package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// loadCSV reads a generic candle CSV with headers:
// time|timestamp, open, high, low, close, volume
func loadCSV(path string) ([]Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var out []Candle
	var headers []string
	rowIdx := 0

	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if rowIdx == 0 {
			headers = rec
			rowIdx++
			continue
		}
		row := map[string]string{}
		for j, h := range headers {
			k := strings.ToLower(strings.TrimSpace(h))
			if j < len(rec) {
				row[k] = strings.TrimSpace(rec[j])
			}
		}
		ts := first(row, "time", "timestamp")
		op := first(row, "open")
		hp := first(row, "high")
		lp := first(row, "low")
		cp := first(row, "close")
		vp := first(row, "volume", "vol")
		if ts == "" || op == "" || cp == "" {
			continue
		}
		tt, err := parseTimeFlexible(ts)
		if err != nil {
			continue
		}
		o, _ := strconv.ParseFloat(op, 64)
		h, _ := strconv.ParseFloat(hp, 64)
		l, _ := strconv.ParseFloat(lp, 64)
		c, _ := strconv.ParseFloat(cp, 64)
		v, _ := strconv.ParseFloat(vp, 64)
		out = append(out, Candle{Time: tt, Open: o, High: h, Low: l, Close: c, Volume: v})
		rowIdx++
	}

	sortCandles(out)
	return out, nil
}

// parseTimeFlexible supports RFC3339 or UNIX seconds.
func parseTimeFlexible(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(sec, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("bad time: %s", s)
}

// sortCandles ensures ascending time.
func sortCandles(c []Candle) {
	sort.Slice(c, func(i, j int) bool { return c[i].Time.Before(c[j].Time) })
}

// first returns the first non-empty value for keys in m.
func first(m map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := m[k]; v != "" {
			return v
		}
	}
	return ""
}

// runBacktest replays a candle CSV through the decision core against the
// paper gateway and prints a summary.
func runBacktest(ctx context.Context, csvPath string, cfg Config, core *Core, paper *PaperGateway) {
	candles, err := loadCSV(csvPath)
	if err != nil {
		log.Fatalf("backtest load: %v", err)
	}
	if len(candles) < warmupBars {
		log.Fatalf("need >=%d candles for indicator warmup, have %d", warmupBars, len(candles))
	}

	loc := exchangeLocation()
	startEquity, _ := paper.Equity(ctx)
	wasInvested := false
	var entryEquity float64
	win, loss := 0, 0

	for i := range candles {
		select {
		case <-ctx.Done():
			log.Println("backtest canceled")
			return
		default:
		}

		bar := candles[i]
		paper.MarkBar(bar) // pending bracket legs fill before evaluation
		feat := BuildFeatures(candles[:i+1], loc)
		if err := core.Step(ctx, bar, feat); err != nil {
			IncBarErrors()
			log.Printf("[BT] step error at %s: %v", bar.Time.Format(time.RFC3339), err)
		}

		// Round-trip accounting off the paper portfolio state.
		eq, _ := paper.Equity(ctx)
		pos, _ := paper.PositionQty(ctx, cfg.Symbol)
		invested := pos != 0
		if invested && !wasInvested {
			entryEquity = eq
		}
		if !invested && wasInvested {
			if eq > entryEquity {
				win++
			} else if eq < entryEquity {
				loss++
			}
		}
		wasInvested = invested

		if i%500 == 0 {
			log.Printf("[BT] i=%d t=%s equity=%.2f pos=%.0f", i, bar.Time.Format("2006-01-02 15:04"), eq, pos)
		}
	}

	finalEquity, _ := paper.Equity(ctx)
	log.Printf("Backtest complete. Bars=%d Wins=%d Losses=%d Equity %.2f -> %.2f (%.2f%%)",
		len(candles), win, loss, startEquity, finalEquity, (finalEquity/startEquity-1)*100)
	mtxEquity.Set(finalEquity)
}
