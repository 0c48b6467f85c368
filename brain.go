// FILE: brain.go
// Package main – Ensemble “brain”: expert probabilities + regime -> one probability.
//
// The brain artifact is a JSON file carrying the logistic model plus the
// metadata needed to refuse a stale model:
//   • trained_at          – training timestamp
//   • feature_hash        – SHA-256 of the pipe-joined canonical feature list
//   • risk_profile        – max_risk_per_trade / cooldown_minutes / max_positions
//   • signal_definition   – label horizon and thresholds
//
// The feature hash is recomputed at load time from the runtime’s own
// FeatureList and compared byte-for-byte; a mismatch aborts the load so a
// trained model is never fed features it has not seen. An unconfigured
// brain blends by unweighted average of the expert probabilities.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrFeatureHashMismatch is returned when a brain artifact was trained
// against a different feature list than this runtime computes.
var ErrFeatureHashMismatch = errors.New("brain feature hash mismatch")

// RiskProfile is the risk block persisted inside a brain artifact.
type RiskProfile struct {
	MaxRiskPerTrade float64 `json:"max_risk_per_trade"`
	CooldownMinutes int     `json:"cooldown_minutes"`
	MaxPositions    int     `json:"max_positions"`
}

// SignalDefinition documents how training labels were constructed.
type SignalDefinition struct {
	HorizonBars   int     `json:"horizon_bars"`
	UpThreshold   float64 `json:"up_threshold"`
	DownThreshold float64 `json:"down_threshold"`
}

type brainArtifact struct {
	TrainedAt        string            `json:"trained_at"`
	FeatureHash      string            `json:"feature_hash"`
	Model            *modelArtifact    `json:"model"`
	RiskProfile      *RiskProfile      `json:"risk_profile"`
	SignalDefinition *SignalDefinition `json:"signal_definition"`
}

// Brain blends expert probabilities with regime features.
type Brain struct {
	TrainedAt        string
	Risk             *RiskProfile
	Signal           *SignalDefinition
	bias             float64
	weights          map[string]float64
	configured       bool
}

// NewNeutralBrain returns an unconfigured brain that averages experts.
func NewNeutralBrain() *Brain { return &Brain{} }

// LoadBrain reads a brain artifact and verifies its feature hash against
// runtimeFeatures. A missing/malformed file returns ErrModelUnavailable;
// a hash mismatch returns ErrFeatureHashMismatch. Both are treated as
// fatal at startup when brain mode is enabled (see main.go).
func LoadBrain(path string, runtimeFeatures []string) (*Brain, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("brain: %s: %w", path, ErrModelUnavailable)
	}
	var art brainArtifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, fmt.Errorf("brain: parse %s: %w", path, ErrModelUnavailable)
	}
	if art.Model == nil || art.Model.Type != "logistic" || len(art.Model.Weights) == 0 {
		return nil, fmt.Errorf("brain: %s has no logistic model block: %w", path, ErrModelUnavailable)
	}
	if got := FeatureHash(runtimeFeatures); art.FeatureHash != got {
		return nil, fmt.Errorf("brain: stored=%s runtime=%s: %w", art.FeatureHash, got, ErrFeatureHashMismatch)
	}
	return &Brain{
		TrainedAt:  art.TrainedAt,
		Risk:       art.RiskProfile,
		Signal:     art.SignalDefinition,
		bias:       art.Model.Bias,
		weights:    art.Model.Weights,
		configured: true,
	}, nil
}

// Configured reports whether a trained blend is loaded.
func (b *Brain) Configured() bool { return b.configured }

// PredictProba blends expert probabilities and regime features into one
// probability. With a trained blend: sigmoid over the union of inputs by
// name (unknown weight names contribute 0). Unconfigured: unweighted
// mean of expert probabilities; zero experts -> 0.5.
func (b *Brain) PredictProba(expertProbs, regime map[string]float64) float64 {
	if !b.configured {
		if len(expertProbs) == 0 {
			return 0.5
		}
		sum := 0.0
		for _, p := range expertProbs {
			sum += p
		}
		return sum / float64(len(expertProbs))
	}
	z := b.bias
	for name, w := range b.weights {
		if v, ok := expertProbs[name]; ok {
			z += w * v
			continue
		}
		if v, ok := regime[name]; ok {
			z += w * v
		}
		// missing input contributes 0
	}
	return sigmoid(z)
}
