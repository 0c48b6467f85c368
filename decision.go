// FILE: decision.go
// Package main – The per-bar decision core (RSI cascade / brain mode).
//
// One Core instance owns all decision state for one symbol: the cooldown
// timer, the bracket order ids, the daily equity anchor, and the daily
// kill-switch latch. Step() runs once per incoming bar, in strict order:
//
//   0. feature readiness gate (no features -> no action, debug trace only)
//   1. daily-stop kill-switch (bypasses cooldown; latches for the rest of
//      the calendar day)
//   2. time-of-day filter      (entries blocked; RSI exits still allowed)
//   3. volatility-regime filter (same exit-only behavior)
//   4. dynamic RSI thresholds from vol_z (recomputed every bar)
//   5. exit evaluation (cooldown-gated)
//   6. entry evaluation (volume -> trend -> Bollinger confirmation, then
//      market entry + ATR bracket legs)
//   7. brain mode replaces 4–6 when enabled: blended probability ->
//      min-edge gate -> SizeFromProb -> enter/flatten
//
// Invariant maintained at the end of every Step: bracket legs exist iff
// the position is non-flat. Position and equity are re-read fresh from
// the Portfolio each bar – an order submitted last bar may not have
// filled yet, and the core never guesses.

package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"
)

// CoreConfig carries every knob the decision core reads. Built once from
// Config in main; tests construct it directly.
type CoreConfig struct {
	Symbol   string
	UseBrain bool
	LongOnly bool

	EdgeSize     float64
	MinHold      time.Duration
	DailyStopPct float64
	StopATRMult  float64
	TPATRMult    float64

	SessionOpen    float64
	SessionClose   float64
	VolZFloor      float64
	VolmZFloor     float64
	EMA200RelFloor float64
	BBZCeiling     float64

	BrainCap float64
	MinEdge  float64

	SizerMode       string // "notional" or "atr"
	RiskPerTradePct float64
}

// coreConfigFrom maps the flat runtime Config onto the core's knobs.
func coreConfigFrom(cfg Config) CoreConfig {
	return CoreConfig{
		Symbol:          cfg.Symbol,
		UseBrain:        cfg.UseBrain,
		LongOnly:        cfg.LongOnly,
		EdgeSize:        cfg.EdgeSize,
		MinHold:         time.Duration(cfg.MinHoldMin) * time.Minute,
		DailyStopPct:    cfg.DailyStopPct,
		StopATRMult:     cfg.StopATRMult,
		TPATRMult:       cfg.TPATRMult,
		SessionOpen:     cfg.SessionOpen,
		SessionClose:    cfg.SessionClose,
		VolZFloor:       cfg.VolZFloor,
		VolmZFloor:      cfg.VolmZFloor,
		EMA200RelFloor:  cfg.EMA200RelFloor,
		BBZCeiling:      cfg.BBZCeiling,
		BrainCap:        cfg.BrainCap,
		MinEdge:         cfg.MinEdge,
		SizerMode:       cfg.SizerMode,
		RiskPerTradePct: cfg.RiskPerTradePct,
	}
}

// Core is the per-symbol decision state machine.
type Core struct {
	cfg     CoreConfig
	gw      OrderGateway
	pf      Portfolio
	experts []*Expert
	brain   *Brain
	tlog    *TradeLog
	shadow  *ShadowLogger
	loc     *time.Location

	// Decision state. Owned exclusively by this core. Step runs from a
	// single goroutine (backtest loop or live ticker), so no locking.
	lastEntry    time.Time // zero = no entry yet
	stopOrderID  string
	tpOrderID    string
	anchorEquity float64
	anchorDay    time.Time // calendar date the anchor was captured
	stoppedDay   time.Time // date the daily stop latched; zero when clear
}

// NewCore wires a decision core. experts and brain may be nil/neutral in
// RSI-direct mode; tlog and shadow may be nil.
func NewCore(cfg CoreConfig, gw OrderGateway, pf Portfolio, experts []*Expert, brain *Brain, tlog *TradeLog, shadow *ShadowLogger) *Core {
	return &Core{
		cfg:     cfg,
		gw:      gw,
		pf:      pf,
		experts: experts,
		brain:   brain,
		tlog:    tlog,
		shadow:  shadow,
		loc:     exchangeLocation(),
	}
}

// Step evaluates one bar. feat is nil while the feature builder warms up.
// Returns an error only for portfolio read failures; order rejections are
// logged and absorbed ("no position change this bar").
func (c *Core) Step(ctx context.Context, bar Candle, feat Features) error {
	now := bar.Time

	equity, err := c.pf.Equity(ctx)
	if err != nil {
		return fmt.Errorf("equity read: %w", err)
	}
	mtxEquity.Set(equity)
	c.rollDailyAnchor(now, equity)

	// 0. Readiness: incomplete features mean no action at all.
	if feat == nil {
		logDebug("bar %s: features not ready", now.Format(time.RFC3339))
		return nil
	}

	posQty, err := c.pf.PositionQty(ctx, c.cfg.Symbol)
	if err != nil {
		return fmt.Errorf("position read: %w", err)
	}
	invested := posQty != 0
	price := bar.Close
	rsi := feat["rsi"]

	// A flat book with tracked bracket legs means one of them filled
	// since the last bar; record which before the sweep discards the IDs.
	if !invested && c.HasBrackets() {
		c.noteBracketExit(ctx, now, price, rsi)
	}

	// 1. Daily-stop kill-switch. The latch outlives the triggering bar:
	// no re-entry until the next calendar day resets the anchor.
	if !c.stoppedDay.IsZero() && sameLocalDay(c.stoppedDay, now, c.loc) {
		logDebug("daily stop latched; suppressing decisions for %s", localDate(now, c.loc).Format("2006-01-02"))
		if !invested {
			c.cancelBrackets(ctx)
		}
		return nil
	}
	if c.anchorEquity > 0 {
		dailyPnL := (equity - c.anchorEquity) / c.anchorEquity
		if dailyPnL <= c.cfg.DailyStopPct {
			// A rejected flatten leaves the legs and the latch alone so
			// the next bar retries with the stop still in place.
			if invested && !c.liquidate(ctx, now, price, rsi, posQty, "exit_daily_stop",
				fmt.Sprintf("Daily stop hit: pnl=%.2f%%", dailyPnL*100)) {
				return nil
			}
			c.cancelBrackets(ctx)
			c.stoppedDay = localDate(now, c.loc)
			IncDailyStops()
			return nil
		}
	}

	// 2. Time-of-day filter: entries blocked outside the session window.
	tod := feat["time_of_day"]
	if tod < c.cfg.SessionOpen || tod > c.cfg.SessionClose {
		c.exitOnlyBar(ctx, now, price, rsi, invested, "skip_time_of_day",
			fmt.Sprintf("outside trading hours (time_of_day=%.2f)", tod), "off-hours")
		return nil
	}

	// 3. Volatility-regime filter: below the floor, mean-reversion
	// signals are unreliable; same exit-only behavior.
	volZ := feat["vol_z"]
	if volZ < c.cfg.VolZFloor {
		c.exitOnlyBar(ctx, now, price, rsi, invested, "skip_volatility",
			fmt.Sprintf("low volatility regime (vol_z=%.2f)", volZ), "low-vol")
		return nil
	}

	if c.cfg.UseBrain {
		return c.stepBrain(ctx, bar, feat, equity, posQty)
	}

	// 4. Dynamic thresholds, recomputed every bar from the current vol_z.
	rsiBuy, rsiSell := dynamicRSIThresholds(volZ)

	// 5. Exit evaluation.
	if invested && rsi > rsiSell {
		if c.cooldownElapsed(now) {
			if c.liquidate(ctx, now, price, rsi, posQty, "exit_rsi",
				fmt.Sprintf("RSI %.2f > %.0f exit", rsi, rsiSell)) {
				c.cancelBrackets(ctx)
				invested = false
			}
		} else {
			logDebug("exit blocked by cooldown: rsi=%.2f", rsi)
		}
	} else if !invested && rsi < rsiBuy {
		// 6. Entry evaluation: layered confirmations, first failure wins.
		if volmZ := feat["volm_z"]; volmZ < c.cfg.VolmZFloor {
			c.event(now, "skip_volume", price, rsi, 0,
				fmt.Sprintf("RSI=%.1f<%.0f but volm_z=%.2f<%.1f", rsi, rsiBuy, volmZ, c.cfg.VolmZFloor))
		} else if ema200Rel := feat["ema200_rel"]; ema200Rel < c.cfg.EMA200RelFloor {
			c.event(now, "skip_trend", price, rsi, 0,
				fmt.Sprintf("RSI=%.1f<%.0f but strong downtrend (ema200_rel=%.2f%%)", rsi, rsiBuy, ema200Rel*100))
		} else if bbZ := feat["bb_z"]; bbZ > c.cfg.BBZCeiling {
			c.event(now, "skip_bb", price, rsi, 0,
				fmt.Sprintf("RSI=%.1f<%.0f but bb_z=%.2f>%.1f", rsi, rsiBuy, bbZ, c.cfg.BBZCeiling))
		} else {
			qty := c.entryQty(equity, price, feat["atr"])
			if qty > 0 {
				if c.enterWithBracket(ctx, now, 1, qty, price, feat) {
					invested = true
				}
			} else {
				logDebug("entry qty computed as 0 (equity=%.2f price=%.2f)", equity, price)
			}
		}
	}

	// Bracket sweep: flat after evaluation means no legs may remain.
	if !invested {
		c.cancelBrackets(ctx)
	}
	return nil
}

// stepBrain is the probability-driven alternative to the RSI cascade
// (steps 4–6). Filters 1–3 have already run.
func (c *Core) stepBrain(ctx context.Context, bar Candle, feat Features, equity, posQty float64) error {
	now := bar.Time
	price := bar.Close
	rsi := feat["rsi"]
	invested := posQty != 0

	expertProbs := map[string]float64{}
	for _, e := range c.experts {
		expertProbs[e.Name] = e.PredictProba(feat)
	}
	regime := map[string]float64{
		"volatility":  feat["atr_pct"],
		"time_of_day": feat["time_of_day"],
	}
	p := c.brain.PredictProba(expertProbs, regime)
	edge := math.Abs(p - 0.5)

	// Strict gate: no meaningful edge means flatten and stand aside.
	if edge < c.cfg.MinEdge {
		if invested && c.cooldownElapsed(now) {
			if c.liquidate(ctx, now, price, rsi, posQty, "exit_no_edge",
				fmt.Sprintf("no edge (p=%.4f); flatten", p)) {
				c.cancelBrackets(ctx)
				invested = false
			}
		}
		if !invested {
			c.cancelBrackets(ctx)
		}
		return nil
	}

	size := SizeFromProb(p, feat["atr_pct"], c.cfg.BrainCap)
	dir := 1
	if size < 0 {
		dir = -1
	}
	if dir < 0 && c.cfg.LongOnly {
		c.event(now, "skip_short", price, rsi, 0, fmt.Sprintf("short signal suppressed (p=%.4f)", p))
		if !invested {
			c.cancelBrackets(ctx)
		}
		return nil
	}

	qty := NotionalQty(equity, math.Abs(size), price)
	if qty <= 0 {
		return nil
	}
	if !invested {
		c.enterWithBracket(ctx, now, dir, qty, price, feat)
	}
	return nil
}

// exitOnlyBar implements the shared behavior of filters 2–3: no new
// entries this bar; an RSI exit past the baseline sell threshold is
// still honored (cooldown permitting); stray brackets are swept if flat.
func (c *Core) exitOnlyBar(ctx context.Context, now time.Time, price, rsi float64, invested bool, skipAction, skipNote, exitContext string) {
	const baselineSell = 75.0
	if invested {
		if rsi > baselineSell && c.cooldownElapsed(now) {
			posQty, err := c.pf.PositionQty(ctx, c.cfg.Symbol)
			if err == nil && posQty != 0 {
				if c.liquidate(ctx, now, price, rsi, posQty, "exit_rsi",
					fmt.Sprintf("RSI %.2f > %.0f exit (%s)", rsi, baselineSell, exitContext)) {
					c.cancelBrackets(ctx)
				}
			}
		}
		return
	}
	c.event(now, skipAction, price, rsi, 0, skipNote)
	c.cancelBrackets(ctx)
}

// dynamicRSIThresholds picks (buy, sell) from the volatility regime:
// high vol loosens entry (price moves faster), low vol demands extremes.
func dynamicRSIThresholds(volZ float64) (buy, sell float64) {
	switch {
	case volZ > 1.0:
		return 30, 70
	case volZ < -0.5:
		return 20, 80
	default:
		return 25, 75
	}
}

// entryQty sizes an RSI-direct entry via the configured strategy.
func (c *Core) entryQty(equity, price, atr float64) int {
	if c.cfg.SizerMode == "atr" {
		return QtyByATR(equity, c.cfg.RiskPerTradePct, atr, c.cfg.StopATRMult)
	}
	return NotionalQty(equity, c.cfg.EdgeSize, price)
}

// enterWithBracket submits a market entry plus ATR-scaled protective
// stop and take-profit legs (asymmetric 1x/2x by default: the
// risk/reward skew is what pays for a sub-50% hit rate). Returns true if
// the entry order was accepted.
func (c *Core) enterWithBracket(ctx context.Context, now time.Time, dir, qty int, price float64, feat Features) bool {
	atr := feat["atr"]
	rsi := feat["rsi"]
	signed := dir * qty
	tag := "Long entry"
	side := "buy"
	if dir < 0 {
		tag = "Short entry"
		side = "sell"
	}

	if _, err := c.gw.SubmitMarket(ctx, c.cfg.Symbol, signed, tag); err != nil {
		log.Printf("order rejected: %v", err)
		c.event(now, "error", price, rsi, 0, fmt.Sprintf("entry rejected: %v", err))
		return false
	}
	IncOrders(string(OrderMarket))

	var stopPrice, tpPrice float64
	legQty := -signed
	if dir > 0 {
		stopPrice = math.Max(0.01, price-c.cfg.StopATRMult*atr)
		tpPrice = price + c.cfg.TPATRMult*atr
	} else {
		stopPrice = price + c.cfg.StopATRMult*atr
		tpPrice = math.Max(0.01, price-c.cfg.TPATRMult*atr)
	}
	stopPrice = roundCents(stopPrice)
	tpPrice = roundCents(tpPrice)

	stopID, err := c.gw.SubmitStop(ctx, c.cfg.Symbol, legQty, stopPrice, "Protective Stop")
	if err != nil {
		log.Printf("stop leg rejected: %v", err)
	} else {
		c.stopOrderID = stopID
		IncOrders(string(OrderStop))
	}
	tpID, err := c.gw.SubmitLimit(ctx, c.cfg.Symbol, legQty, tpPrice, "Take Profit")
	if err != nil {
		log.Printf("take-profit leg rejected: %v", err)
	} else {
		c.tpOrderID = tpID
		IncOrders(string(OrderLimit))
	}

	c.lastEntry = now
	note := fmt.Sprintf("vol_z=%.2f volm_z=%.2f ema200_rel=%.2f%% bb_z=%.2f TP %.2f SL %.2f",
		feat["vol_z"], feat["volm_z"], feat["ema200_rel"]*100, feat["bb_z"], tpPrice, stopPrice)
	c.event(now, "enter", price, rsi, signed, note)
	c.shadow.LogEntrySignal(now, c.cfg.Symbol, side, price, qty, tpPrice, stopPrice, c.maxHoldBars(), feat)
	return true
}

// liquidate flattens the position and records the exit event. Reports
// whether the flatten was accepted; on rejection the caller must treat
// the book as unchanged (brackets stay, no latch, retry next bar).
func (c *Core) liquidate(ctx context.Context, now time.Time, price, rsi, posQty float64, action, note string) bool {
	if err := c.gw.Liquidate(ctx, c.cfg.Symbol, note); err != nil {
		log.Printf("liquidate rejected: %v", err)
		c.event(now, "error", price, rsi, 0, fmt.Sprintf("liquidate rejected: %v", err))
		return false
	}
	c.event(now, action, price, rsi, int(posQty), note)
	return true
}

// cancelBrackets attempts cancellation of both bracket legs exactly once
// each. The gateway treats cancellation of a terminal order as a no-op,
// so a leg that already filled is safe to cancel here.
func (c *Core) cancelBrackets(ctx context.Context) {
	for _, id := range []string{c.stopOrderID, c.tpOrderID} {
		if id == "" {
			continue
		}
		if err := c.gw.CancelOrder(ctx, id); err != nil {
			log.Printf("bracket cancel %s: %v", id, err)
		}
	}
	c.stopOrderID = ""
	c.tpOrderID = ""
}

// noteBracketExit figures out which bracket leg closed the position and
// logs the corresponding exit event, then sweeps the surviving leg.
func (c *Core) noteBracketExit(ctx context.Context, now time.Time, price, rsi float64) {
	action := "exit_bracket"
	if c.stopOrderID != "" {
		if st, err := c.gw.OrderStatus(ctx, c.stopOrderID); err == nil && st == StatusFilled {
			action = "exit_stop"
		}
	}
	if action == "exit_bracket" && c.tpOrderID != "" {
		if st, err := c.gw.OrderStatus(ctx, c.tpOrderID); err == nil && st == StatusFilled {
			action = "exit_tp"
		}
	}
	c.event(now, action, price, rsi, 0, "bracket leg filled; position closed")
	c.cancelBrackets(ctx)
}

// HasBrackets reports whether any bracket leg is being tracked.
func (c *Core) HasBrackets() bool { return c.stopOrderID != "" || c.tpOrderID != "" }

// cooldownElapsed gates exits as well as entries: a position must be
// held at least MinHold before an RSI exit fires. The daily stop
// bypasses this entirely.
func (c *Core) cooldownElapsed(now time.Time) bool {
	return c.lastEntry.IsZero() || now.Sub(c.lastEntry) >= c.cfg.MinHold
}

// rollDailyAnchor captures start-of-day equity on the first bar of each
// calendar day and clears the daily-stop latch.
func (c *Core) rollDailyAnchor(now time.Time, equity float64) {
	if c.anchorDay.IsZero() || !sameLocalDay(c.anchorDay, now, c.loc) {
		c.anchorEquity = equity
		c.anchorDay = localDate(now, c.loc)
		c.stoppedDay = time.Time{}
	}
}

// maxHoldBars expresses the cooldown in 5-minute bars for shadow rows.
func (c *Core) maxHoldBars() int {
	return int(c.cfg.MinHold / (5 * time.Minute))
}

// event records a decision event to the CSV log, metrics, and (for
// skips/errors) the process log.
func (c *Core) event(now time.Time, action string, price, rsi float64, qty int, note string) {
	IncDecisions(action)
	if err := c.tlog.Append(now, c.cfg.Symbol, action, price, rsi, qty, note); err != nil {
		log.Printf("tradelog: %v", err)
	}
	switch {
	case action == "enter":
		log.Printf("ENTER %s qty=%d @ %.2f | %s", c.cfg.Symbol, qty, price, note)
	case strings.HasPrefix(action, "exit"):
		log.Printf("EXIT %s qty=%d @ %.2f | %s", c.cfg.Symbol, qty, price, note)
	default:
		logDebug("%s: %s", action, note)
	}
}

// --- small time helpers ---

func localDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func sameLocalDay(a, b time.Time, loc *time.Location) bool {
	return localDate(a, loc).Equal(localDate(b, loc))
}

// logDebug keeps per-bar noise out of steady-state logs unless DEBUG=1.
// Set once in main after the env is hydrated.
var debugEnabled bool

func logDebug(format string, args ...interface{}) {
	if debugEnabled {
		log.Printf("[DEBUG] "+format, args...)
	}
}

// roundCents rounds a price to whole cents for order submission.
func roundCents(p float64) float64 {
	return math.Round(p*100) / 100
}
