// FILE: shadow_test.go

package main

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestShadowLoggerDisabledIsNoOp(t *testing.T) {
	s := NewShadowLogger(false, filepath.Join(t.TempDir(), "shadow.jsonl"))
	defer s.Close()
	id := s.LogEntrySignal(time.Now(), "TSLA", "buy", 250, 2, 260, 245, 6, Features{"rsi": 24})
	if id != "" {
		t.Fatalf("disabled logger must return empty id, got %q", id)
	}
	var nilLogger *ShadowLogger
	if id := nilLogger.LogEntrySignal(time.Now(), "TSLA", "buy", 250, 2, 260, 245, 6, nil); id != "" {
		t.Fatalf("nil logger must be safe and silent")
	}
	nilLogger.Close()
}

func TestShadowLoggerWritesJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shadow.jsonl")
	s := NewShadowLogger(true, path)
	ts := time.Date(2026, 3, 2, 17, 5, 0, 0, time.UTC)
	feat := Features{"rsi": 24.5, "vol_z": 0.8}

	id1 := s.LogEntrySignal(ts, "TSLA", "buy", 250.5, 2, 260.5, 245.5, 6, feat)
	id2 := s.LogEntrySignal(ts.Add(time.Hour), "TSLA", "buy", 251, 2, 261, 246, 6, feat)
	s.Close()

	if id1 == "" || id1 == id2 {
		t.Fatalf("signal ids must be non-empty and unique: %q %q", id1, id2)
	}
	if !strings.HasPrefix(id1, "trade_20260302_170500_") {
		t.Fatalf("unexpected id shape: %q", id1)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	var lines []map[string]interface{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]interface{}
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("line is not JSON: %v", err)
		}
		lines = append(lines, m)
	}
	if len(lines) != 2 {
		t.Fatalf("want 2 JSONL rows, got %d", len(lines))
	}
	row := lines[0]
	if row["signal_id"] != id1 || row["symbol"] != "TSLA" || row["side"] != "buy" {
		t.Fatalf("row fields wrong: %v", row)
	}
	if row["planned_tp"].(float64) != 260.5 || row["planned_sl"].(float64) != 245.5 {
		t.Fatalf("planned brackets wrong: %v", row)
	}
	featMap, ok := row["features"].(map[string]interface{})
	if !ok || featMap["rsi"].(float64) != 24.5 {
		t.Fatalf("feature snapshot missing: %v", row["features"])
	}
}
