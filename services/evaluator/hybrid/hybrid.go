// Copyright (C) 2025 Attestix Labs (eng@attestix.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package hybrid blends the deterministic rule score with an optional
// semantic judge score.
//
// Semantic scoring is strictly best-effort: any judge failure falls
// back to the rule score alone, tagged on the returned Outcome, and
// never surfaces as an error to the caller.
package hybrid

import (
	"context"
	"fmt"
	"log/slog"
	"math"
)

// Default blend weights. The rule score dominates so that a
// misbehaving judge cannot flip a classification on its own.
const (
	DefaultAlpha = 0.7
	DefaultBeta  = 0.3
)

// weightSumTolerance absorbs float rounding when validating that the
// weights sum to one.
const weightSumTolerance = 1e-9

// Blend sources reported on Outcome.
const (
	SourceHybrid   = "hybrid"
	SourceRuleOnly = "rule_only"
)

// Judge produces a semantic quality score in [0.0, 1.0] for a
// narrative, where higher is better.
type Judge interface {
	Score(ctx context.Context, narrative string) (float64, error)
}

// Weights configures the blend formula
// final = Alpha*rule + Beta*llm.
type Weights struct {
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
}

// DefaultWeights returns the standard 0.7/0.3 blend.
func DefaultWeights() Weights {
	return Weights{Alpha: DefaultAlpha, Beta: DefaultBeta}
}

// Validate checks that each weight lies in [0, 1] and that the pair
// sums to one within tolerance.
func (w Weights) Validate() error {
	if w.Alpha < 0 || w.Alpha > 1 {
		return fmt.Errorf("alpha %v out of range [0,1]", w.Alpha)
	}
	if w.Beta < 0 || w.Beta > 1 {
		return fmt.Errorf("beta %v out of range [0,1]", w.Beta)
	}
	if math.Abs(w.Alpha+w.Beta-1) > weightSumTolerance {
		return fmt.Errorf("weights sum to %v, want 1", w.Alpha+w.Beta)
	}
	return nil
}

// Outcome is the tagged result of one blend attempt.
type Outcome struct {
	// FinalScore is the blended score in [0.0, 1.0], higher is better.
	FinalScore float64 `json:"final_score"`

	// Source is SourceHybrid when the judge contributed, otherwise
	// SourceRuleOnly.
	Source string `json:"source"`

	// FallbackUsed is true when a judge was configured but failed.
	FallbackUsed bool `json:"fallback_used"`

	// LLMScore is the judge's raw score, present only on the hybrid
	// path.
	LLMScore *float64 `json:"llm_score,omitempty"`
}

// Blender combines rule scores with judge scores under fixed weights.
// Safe for concurrent use.
type Blender struct {
	judge   Judge
	weights Weights
	logger  *slog.Logger
}

// NewBlender validates the weights and builds a blender. A nil judge
// is allowed; every blend then takes the rule-only path without being
// counted as a fallback.
func NewBlender(judge Judge, weights Weights, logger *slog.Logger) (*Blender, error) {
	if err := weights.Validate(); err != nil {
		return nil, fmt.Errorf("invalid blend weights: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Blender{judge: judge, weights: weights, logger: logger}, nil
}

// WithWeights returns a copy of the blender using different weights
// over the same judge. Used for per-request weight overrides.
func (b *Blender) WithWeights(weights Weights) (*Blender, error) {
	if err := weights.Validate(); err != nil {
		return nil, fmt.Errorf("invalid blend weights: %w", err)
	}
	return &Blender{judge: b.judge, weights: weights, logger: b.logger}, nil
}

// Blend combines the normalized rule score with the judge's score for
// the narrative. On any judge error the rule score is returned alone
// with FallbackUsed set; this method never fails.
func (b *Blender) Blend(ctx context.Context, narrative string, ruleScore float64) Outcome {
	if b.judge == nil {
		return Outcome{FinalScore: ruleScore, Source: SourceRuleOnly}
	}

	llmScore, err := b.judge.Score(ctx, narrative)
	if err != nil {
		b.logger.Warn("semantic judge unavailable, using rule score only",
			"error", err)
		return Outcome{
			FinalScore:   ruleScore,
			Source:       SourceRuleOnly,
			FallbackUsed: true,
		}
	}
	llmScore = clamp01(llmScore)

	return Outcome{
		FinalScore: b.weights.Alpha*ruleScore + b.weights.Beta*llmScore,
		Source:     SourceHybrid,
		LLMScore:   &llmScore,
	}
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
