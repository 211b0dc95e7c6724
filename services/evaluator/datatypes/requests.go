// Copyright (C) 2025 Attestix Labs (eng@attestix.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"github.com/attestix/redline/services/evaluator/engine"
	"github.com/attestix/redline/services/evaluator/hybrid"
)

// EvaluateRequest carries a narrative for synchronous evaluation.
// The narrative may be empty; an empty narrative is a valid input
// that scores maximum risk rather than a bad request.
type EvaluateRequest struct {
	Narrative string `json:"narrative"`
}

// HybridEvaluateRequest optionally overrides the blend weights for a
// single request. Absent weights fall back to the server defaults.
type HybridEvaluateRequest struct {
	Narrative string   `json:"narrative"`
	Alpha     *float64 `json:"alpha,omitempty"`
	Beta      *float64 `json:"beta,omitempty"`
}

// HybridEvaluateResponse pairs the deterministic evaluation with the
// blend outcome.
type HybridEvaluateResponse struct {
	Evaluation *engine.EvaluationResult `json:"evaluation"`
	Blend      hybrid.Outcome           `json:"blend"`
}

// ArenaRequest starts a refinement run. Context is the project
// description handed to the generator; the loop bounds default to the
// server configuration when absent.
type ArenaRequest struct {
	Context         string `json:"context" binding:"required"`
	MaxIterations   *int   `json:"max_iterations,omitempty"`
	TargetRiskScore *int   `json:"target_risk_score,omitempty"`

	// RunID optionally pins the run identifier so the caller can
	// correlate iteration frames and logs with its own tracking.
	// Must be a UUID; the server generates one when absent.
	RunID string `json:"run_id,omitempty"`
}

// ErrorResponse is the uniform error body for all endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}
