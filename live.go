// FILE: live.go
// Package main – Live/paper polling loop.
//
// runLive drives the trading loop in real time:
//   • Warm up by fetching enough recent candles to make the feature
//     builder ready (the 200-period EMA is the binding window).
//   • Every poll interval, fetch the latest candles, merge new bars into
//     history, and step the decision core once per NEW bar – each bar is
//     consumed exactly once, and position/equity are re-read fresh
//     inside the core rather than inferred from past orders.
//   • A panic or error inside one bar's evaluation is caught, counted,
//     and logged; the loop resumes on the next scheduled poll. A single
//     bad bar must never terminate a long-running live process.
//   • -once mode runs a single evaluation and exits 0.

package main

import (
	"context"
	"log"
	"time"
)

// runLive executes the polling loop with the given cadence.
func runLive(ctx context.Context, cfg Config, core *Core, feed BarSource, interval time.Duration, once bool) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	log.Printf("Starting live loop: symbol=%s interval=%s dry_run=%v brain=%v",
		cfg.Symbol, interval, cfg.DryRun, cfg.UseBrain)
	log.Printf("[SAFETY] EDGE_SIZE=%.4f | MIN_HOLD_MIN=%d | DAILY_STOP_PCT=%.2f%% | STOP/TP ATR=%.1fx/%.1fx | SESSION=%.1f-%.1f",
		cfg.EdgeSize, cfg.MinHoldMin, cfg.DailyStopPct*100, cfg.StopATRMult, cfg.TPATRMult, cfg.SessionOpen, cfg.SessionClose)

	// Warmup history.
	target := cfg.MaxHistoryCandles
	if target < warmupBars+50 {
		target = warmupBars + 50
	}
	history, err := feed.RecentBars(ctx, cfg.Symbol, cfg.BarMinutes, target)
	if err != nil {
		log.Fatalf("warmup fetch: %v", err)
	}
	if len(history) == 0 {
		log.Fatalf("warmup failed: no candles returned")
	}
	log.Printf("[BOOT] history=%d (target %d)", len(history), target)

	loc := exchangeLocation()
	lastSeen := history[len(history)-1].Time

	// Evaluate the freshest warmup bar immediately (this is the whole
	// run in -once mode).
	stepBarSafe(ctx, core, history, loc)
	if once {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("shutdown")
			return
		case <-ticker.C:
		}

		latest, err := feed.RecentBars(ctx, cfg.Symbol, cfg.BarMinutes, 10)
		if err != nil {
			IncBarErrors()
			log.Printf("poll: %v", err)
			continue
		}
		for _, bar := range latest {
			if !bar.Time.After(lastSeen) {
				continue
			}
			history = append(history, bar)
			lastSeen = bar.Time
			if len(history) > cfg.MaxHistoryCandles && cfg.MaxHistoryCandles > 0 {
				history = history[len(history)-cfg.MaxHistoryCandles:]
			}
			stepBarSafe(ctx, core, history, loc)
		}
	}
}

// stepBarSafe evaluates the last bar of history with panic isolation.
func stepBarSafe(ctx context.Context, core *Core, history []Candle, loc *time.Location) {
	defer func() {
		if r := recover(); r != nil {
			IncBarErrors()
			log.Printf("bar evaluation panic at %s: %v", time.Now().UTC().Format(time.RFC3339), r)
		}
	}()
	bar := history[len(history)-1]
	// Dry-run live sessions route orders to the paper gateway, which
	// needs the current mark to simulate fills.
	if m, ok := core.gw.(interface{ MarkBar(Candle) }); ok {
		m.MarkBar(bar)
	}
	feat := BuildFeatures(history, loc)
	if err := core.Step(ctx, bar, feat); err != nil {
		IncBarErrors()
		log.Printf("step error at %s: %v", bar.Time.Format(time.RFC3339), err)
	}
}
