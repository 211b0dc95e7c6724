// Copyright (C) 2025 Attestix Labs (eng@attestix.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers provides HTTP request handlers for the evaluator
// service.
//
// This file implements the synchronous evaluation endpoints.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/attestix/redline/pkg/validation"
	"github.com/attestix/redline/services/evaluator/datatypes"
	"github.com/attestix/redline/services/evaluator/engine"
	"github.com/attestix/redline/services/evaluator/hybrid"
	"github.com/attestix/redline/services/evaluator/observability"
)

var tracer = otel.Tracer("redline.evaluator.handlers")

// HandleEvaluate scores a narrative synchronously.
//
// An empty narrative is valid input and yields the maximum-risk
// result; only oversized or malformed payloads are rejected.
func HandleEvaluate(provider *engine.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "HandleEvaluate")
		defer span.End()
		c.Request = c.Request.WithContext(ctx)

		var req datatypes.EvaluateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			observability.RecordError("evaluate", "bad_request")
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: err.Error()})
			return
		}
		if err := validation.ValidateNarrative(req.Narrative); err != nil {
			observability.RecordError("evaluate", "bad_request")
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: err.Error()})
			return
		}

		result := provider.Current().Evaluate(req.Narrative)
		span.SetAttributes(
			attribute.Int("evaluation.risk_score", result.RiskScore),
			attribute.String("evaluation.classification", string(result.Classification)),
		)
		observability.RecordEvaluation(string(result.Classification), result.RiskScore)
		c.JSON(http.StatusOK, result)
	}
}

// HandleHybridEvaluate scores a narrative and blends in the semantic
// judge. The judge path is best-effort: its failure degrades to the
// rule score, never to an error response.
func HandleHybridEvaluate(provider *engine.Provider, blender *hybrid.Blender) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "HandleHybridEvaluate")
		defer span.End()

		var req datatypes.HybridEvaluateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			observability.RecordError("evaluate_hybrid", "bad_request")
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: err.Error()})
			return
		}
		if err := validation.ValidateNarrative(req.Narrative); err != nil {
			observability.RecordError("evaluate_hybrid", "bad_request")
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: err.Error()})
			return
		}

		b := blender
		if req.Alpha != nil || req.Beta != nil {
			weights := hybrid.DefaultWeights()
			if req.Alpha != nil {
				weights.Alpha = *req.Alpha
			}
			if req.Beta != nil {
				weights.Beta = *req.Beta
			}
			var err error
			b, err = blender.WithWeights(weights)
			if err != nil {
				observability.RecordError("evaluate_hybrid", "bad_request")
				c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: err.Error()})
				return
			}
		}

		result := provider.Current().Evaluate(req.Narrative)
		outcome := b.Blend(ctx, req.Narrative, engine.NormalizedRuleScore(result.RiskScore))
		if outcome.FallbackUsed {
			observability.RecordHybridFallback()
		}
		result.HybridUsed = outcome.Source == hybrid.SourceHybrid
		result.LLMScore = outcome.LLMScore

		span.SetAttributes(
			attribute.Int("evaluation.risk_score", result.RiskScore),
			attribute.String("blend.source", outcome.Source),
			attribute.Bool("blend.fallback_used", outcome.FallbackUsed),
		)
		observability.RecordEvaluation(string(result.Classification), result.RiskScore)
		c.JSON(http.StatusOK, datatypes.HybridEvaluateResponse{
			Evaluation: result,
			Blend:      outcome,
		})
	}
}

// HealthCheck reports service liveness.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":            "ok",
		"algorithm_version": engine.AlgorithmVersion,
	})
}
