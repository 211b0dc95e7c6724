// Copyright (C) 2025 Attestix Labs (eng@attestix.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// This file implements the synchronous arena (refinement loop)
// endpoint.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/attestix/redline/pkg/validation"
	"github.com/attestix/redline/services/evaluator/arena"
	"github.com/attestix/redline/services/evaluator/datatypes"
	"github.com/attestix/redline/services/evaluator/engine"
	"github.com/attestix/redline/services/evaluator/observability"
)

// resolveRunID validates a caller-supplied run identifier, minting a
// fresh one when the request carries none.
func resolveRunID(requested string) (string, error) {
	if requested == "" {
		return uuid.NewString(), nil
	}
	if err := validation.ValidateRunID(requested); err != nil {
		return "", err
	}
	return requested, nil
}

// arenaConfigFromRequest merges request overrides onto the server
// defaults.
func arenaConfigFromRequest(req datatypes.ArenaRequest, defaults arena.Config) arena.Config {
	cfg := defaults
	if req.MaxIterations != nil {
		cfg.MaxIterations = *req.MaxIterations
	}
	if req.TargetRiskScore != nil {
		cfg.TargetRiskScore = *req.TargetRiskScore
	}
	return cfg
}

// HandleArena runs a full refinement loop and returns the final
// result. Generator failure maps to 502: the fault lies with the
// upstream narrative backend, not this service.
func HandleArena(provider *engine.Provider, generator arena.Generator, defaults arena.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "HandleArena")
		defer span.End()

		var req datatypes.ArenaRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			observability.RecordError("arena", "bad_request")
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: err.Error()})
			return
		}
		runID, err := resolveRunID(req.RunID)
		if err != nil {
			observability.RecordError("arena", "bad_request")
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: err.Error()})
			return
		}

		orchestrator, err := arena.NewOrchestrator(generator, provider.Current(),
			arenaConfigFromRequest(req, defaults), slog.Default())
		if err != nil {
			observability.RecordError("arena", "bad_request")
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: err.Error()})
			return
		}

		result, err := orchestrator.RunWithID(ctx, runID, req.Context)
		if err != nil {
			if errors.Is(err, arena.ErrGeneratorFailed) {
				observability.RecordError("arena", "generator_failed")
				observability.RecordArenaRun("generator_failed", 0)
				c.JSON(http.StatusBadGateway, datatypes.ErrorResponse{Error: err.Error()})
				return
			}
			observability.RecordError("arena", "internal")
			c.JSON(http.StatusInternalServerError, datatypes.ErrorResponse{Error: err.Error()})
			return
		}

		span.SetAttributes(
			attribute.Bool("arena.success", result.Success),
			attribute.Int("arena.total_iterations", result.TotalIterations),
		)
		observability.RecordArenaRun(result.TerminationReason, result.TotalIterations)
		c.JSON(http.StatusOK, result)
	}
}
