// FILE: experts_test.go

package main

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writeArtifact(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return p
}

func TestNeutralExpertPredictsHalf(t *testing.T) {
	e := newNeutralExpert("rsi_expert")
	if p := e.PredictProba(Features{"rsi": 88}); p != 0.5 {
		t.Fatalf("neutral expert should predict 0.5, got %v", p)
	}
	if e.Configured() {
		t.Fatalf("neutral expert must report unconfigured")
	}
}

func TestLoadExpertMissingFile(t *testing.T) {
	_, err := LoadExpert("rsi_expert", filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("want ErrModelUnavailable, got %v", err)
	}
}

func TestLoadExpertRejectsNonLogistic(t *testing.T) {
	p := writeArtifact(t, t.TempDir(), "bad.json", `{"type":"tree","weights":{"rsi":1}}`)
	if _, err := LoadExpert("rsi_expert", p); !errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("want ErrModelUnavailable for non-logistic artifact, got %v", err)
	}
}

func TestLoadExpertRejectsBadJSON(t *testing.T) {
	p := writeArtifact(t, t.TempDir(), "bad.json", `{"type":`)
	if _, err := LoadExpert("rsi_expert", p); !errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("want ErrModelUnavailable for malformed JSON, got %v", err)
	}
}

func TestExpertPredictProba(t *testing.T) {
	p := writeArtifact(t, t.TempDir(), "rsi.json",
		`{"type":"logistic","bias":0.0,"weights":{"rsi":0.1}}`)
	e, err := LoadExpert("rsi_expert", p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	// z = 0.1*0 = 0 -> 0.5
	if got := e.PredictProba(Features{"rsi": 0}); math.Abs(got-0.5) > 1e-12 {
		t.Fatalf("z=0 should give 0.5, got %v", got)
	}
	lo := e.PredictProba(Features{"rsi": -10})
	hi := e.PredictProba(Features{"rsi": 10})
	if !(lo < 0.5 && 0.5 < hi) {
		t.Fatalf("monotonicity broken: lo=%v hi=%v", lo, hi)
	}
	// Absent feature names contribute zero.
	if got := e.PredictProba(Features{}); got != 0.5 {
		t.Fatalf("absent feature should read as 0, got %v", got)
	}
}

func TestSigmoidClamps(t *testing.T) {
	if sigmoid(1000) != 1.0 || sigmoid(-1000) != 0.0 {
		t.Fatalf("sigmoid must clamp at extreme z")
	}
	for _, z := range []float64{-5, -1, 0, 1, 5} {
		p := sigmoid(z)
		if p < 0 || p > 1 {
			t.Fatalf("sigmoid(%v)=%v out of [0,1]", z, p)
		}
	}
}
