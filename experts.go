// FILE: experts.go
// Package main – Logistic “expert” probability models.
//
// Each expert maps the named feature vector to P(up) in [0,1] via a
// linear score over named weights pushed through a sigmoid. The three
// instances (rsi/macd/trend) differ only in name and artifact path.
//
// Loading semantics (deliberate, see DESIGN.md):
//   • LoadExpert returns ErrModelUnavailable (wrapped) for a missing or
//     malformed artifact instead of swallowing the error – the caller
//     decides. Experts soft-fail: newNeutralExpert + a log line.
//   • An unconfigured expert predicts the constant 0.5 (no information).
//   • sigmoid clamps for large |z| instead of overflowing.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
)

// ErrModelUnavailable marks a model artifact that is absent or unusable.
// Callers choose between neutral fallback (experts) and hard failure (brain).
var ErrModelUnavailable = errors.New("model unavailable")

// modelArtifact is the persisted JSON schema shared by experts and the
// brain’s model block: {"type":"logistic","bias":...,"weights":{...}}.
type modelArtifact struct {
	Type    string             `json:"type"`
	Bias    float64            `json:"bias"`
	Weights map[string]float64 `json:"weights"`
}

// Expert is a tiny logistic model over named features.
type Expert struct {
	Name    string
	bias    float64
	weights map[string]float64
}

// newNeutralExpert returns an unconfigured expert that always predicts 0.5.
func newNeutralExpert(name string) *Expert {
	return &Expert{Name: name}
}

// LoadExpert reads a logistic artifact from path. A missing file, bad
// JSON, or a non-logistic type all return ErrModelUnavailable wrapped
// with context; the returned expert is nil in that case.
func LoadExpert(name, path string) (*Expert, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("expert %s: %s: %w", name, path, ErrModelUnavailable)
	}
	var art modelArtifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, fmt.Errorf("expert %s: parse %s: %w", name, path, ErrModelUnavailable)
	}
	if art.Type != "logistic" || len(art.Weights) == 0 {
		return nil, fmt.Errorf("expert %s: %s is not a logistic artifact: %w", name, path, ErrModelUnavailable)
	}
	return &Expert{Name: name, bias: art.Bias, weights: art.Weights}, nil
}

// Configured reports whether trained weights are present.
func (e *Expert) Configured() bool { return len(e.weights) > 0 }

// PredictProba returns P(up) for the feature vector. Unconfigured
// experts return the neutral 0.5; unknown weight names contribute 0.
func (e *Expert) PredictProba(f Features) float64 {
	if !e.Configured() {
		return 0.5
	}
	z := e.bias
	for name, w := range e.weights {
		z += w * f[name] // absent feature reads as 0
	}
	return sigmoid(z)
}

// sigmoid returns 1/(1+e^-z) with clamping for numerical stability.
func sigmoid(z float64) float64 {
	if z > 20 {
		return 1.0
	}
	if z < -20 {
		return 0.0
	}
	return 1.0 / (1.0 + math.Exp(-z))
}
