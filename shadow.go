// FILE: shadow.go
// Package main – Shadow-mode ML dataset logging (JSONL).
//
// Every accepted entry signal is mirrored to a JSONL side-file so a
// training dataset accumulates while the bot trades: signal id, planned
// brackets, max hold bars, and the feature snapshot at decision time.
//
// Isolation contract: a failure to write a shadow row must NEVER
// propagate to, or delay, order submission. Write errors are counted in
// metrics and otherwise swallowed. The enable flag and path are fixed at
// construction from Config – nothing here reads the environment at call
// time.

package main

import (
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ShadowLogger appends one JSON line per logged signal.
type ShadowLogger struct {
	enabled bool
	logger  zerolog.Logger
	file    *os.File
}

// NewShadowLogger opens (or creates) the JSONL file at path. When
// enabled is false, or the file cannot be opened, the returned logger is
// a no-op.
func NewShadowLogger(enabled bool, path string) *ShadowLogger {
	if !enabled || path == "" {
		return &ShadowLogger{}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		IncShadowErrors()
		return &ShadowLogger{}
	}
	return &ShadowLogger{
		enabled: true,
		logger:  zerolog.New(shadowWriter{f: f}),
		file:    f,
	}
}

// shadowWriter absorbs write failures: they increment a metric and are
// reported to zerolog as success so nothing upstream ever sees them.
type shadowWriter struct {
	f *os.File
}

func (w shadowWriter) Write(p []byte) (int, error) {
	if _, err := w.f.Write(p); err != nil {
		IncShadowErrors()
	}
	return len(p), nil
}

// LogEntrySignal mirrors an accepted entry to the shadow dataset and
// returns the generated signal id ("" when disabled).
func (s *ShadowLogger) LogEntrySignal(ts time.Time, symbol, side string, refPrice float64, qty int, plannedTP, plannedSL float64, maxHoldBars int, feat Features) string {
	if s == nil || !s.enabled {
		return ""
	}
	id := "trade_" + ts.UTC().Format("20060102_150405") + "_" + uuid.New().String()[:8]
	ev := s.logger.Log().
		Str("signal_id", id).
		Str("timestamp", ts.UTC().Format(time.RFC3339)).
		Str("symbol", symbol).
		Str("side", side).
		Float64("entry_ref_price", refPrice).
		Int("qty", qty).
		Float64("planned_tp", plannedTP).
		Float64("planned_sl", plannedSL).
		Int("max_hold_bars", maxHoldBars)
	fields := map[string]interface{}{}
	for k, v := range feat {
		fields[k] = v
	}
	ev.Dict("features", zerolog.Dict().Fields(fields)).Send()
	return id
}

// Close releases the underlying file, if any.
func (s *ShadowLogger) Close() {
	if s != nil && s.file != nil {
		_ = s.file.Close()
	}
}
