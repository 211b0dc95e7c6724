// Copyright (C) 2025 Attestix Labs (eng@attestix.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package arena drives the iterative refinement loop: generate a
// narrative, evaluate it, feed the critique back, repeat until the
// risk score clears the target or the iteration budget runs out.
//
// # Architecture
//
//	context ──> Generator ──> narrative ──> Evaluator ──> result
//	   ^                                                    │
//	   └──────────────── critique <─────────────────────────┘
//
// Iterations are strictly sequential; each depends on the critique of
// the previous one, so a run has no internal parallelism. The only
// suspension point per iteration is the generator call, which honors
// the caller's context.
//
// # Thread Safety
//
// An Orchestrator is safe for concurrent Run calls: all per-run state
// lives on the Run stack. The configured generator and evaluator must
// themselves be safe for concurrent use.
package arena

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/attestix/redline/services/evaluator/critique"
	"github.com/attestix/redline/services/evaluator/engine"
)

var tracer = otel.Tracer("github.com/attestix/redline/services/evaluator/arena")

// ErrGeneratorFailed marks a run aborted because the narrative
// generator returned an error. The underlying cause is wrapped.
var ErrGeneratorFailed = errors.New("narrative generator failed")

// Loop states. ITERATING tags every non-final iteration; the final
// iteration carries the terminal state it triggered.
type State string

const (
	StateIterating            State = "ITERATING"
	StateTargetReached        State = "TARGET_REACHED"
	StateMaxIterationsReached State = "MAX_ITERATIONS_REACHED"
)

// Termination reasons reported on Result.
const (
	TerminationTargetReached        = "target_reached"
	TerminationMaxIterationsReached = "max_iterations_reached"
)

// Config defaults.
const (
	DefaultMaxIterations   = 5
	DefaultTargetRiskScore = engine.QualifyingThreshold
)

// Generator produces a narrative for a project context. The critique
// argument is empty on the first iteration and carries the prior
// iteration's feedback afterwards. Implementations must be stateless
// across calls.
type Generator interface {
	Generate(ctx context.Context, context, critique string) (string, error)
}

// Evaluator scores a narrative. Satisfied by *engine.Evaluator.
type Evaluator interface {
	Evaluate(text string) *engine.EvaluationResult
}

// Config bounds a refinement run.
type Config struct {
	MaxIterations   int `json:"max_iterations" validate:"gt=0"`
	TargetRiskScore int `json:"target_risk_score" validate:"gte=0,lte=100"`
}

// DefaultConfig returns the standard 5-iteration run targeting the
// qualifying threshold.
func DefaultConfig() Config {
	return Config{
		MaxIterations:   DefaultMaxIterations,
		TargetRiskScore: DefaultTargetRiskScore,
	}
}

// IterationRecord captures one pass of the loop.
type IterationRecord struct {
	IterationNumber int    `json:"iteration_number"`
	Narrative       string `json:"narrative"`
	RiskScore       int    `json:"risk_score"`
	State           State  `json:"state"`

	// Critique is the feedback supplied as input to this iteration.
	// Absent on iteration 1.
	Critique string `json:"critique,omitempty"`

	Evaluation *engine.EvaluationResult `json:"evaluation"`
}

// Result is the immutable outcome of a completed run.
type Result struct {
	RunID             string            `json:"run_id"`
	Success           bool              `json:"success"`
	Iterations        []IterationRecord `json:"iterations"`
	TotalIterations   int               `json:"total_iterations"`
	FinalRiskScore    int               `json:"final_risk_score"`
	FinalNarrative    string            `json:"final_narrative"`
	TerminationReason string            `json:"termination_reason"`
}

// Observer receives each iteration record as it is produced. Used by
// the websocket progress stream; may be nil.
type Observer func(runID string, record IterationRecord)

var validate = validator.New()

// Orchestrator runs refinement loops against a generator and an
// evaluator.
type Orchestrator struct {
	generator Generator
	evaluator Evaluator
	config    Config
	logger    *slog.Logger
	observer  Observer
}

// NewOrchestrator validates the config and builds an orchestrator.
//
// # Inputs
//   - generator: the narrative source; must be non-nil.
//   - evaluator: the scoring engine; must be non-nil.
//   - config: loop bounds, validated here so Run cannot start an
//     unbounded loop.
//   - logger: structured logger; nil falls back to slog.Default.
//
// # Outputs
//   - *Orchestrator ready for concurrent Run calls.
//   - error if the config fails validation or a collaborator is nil.
func NewOrchestrator(generator Generator, evaluator Evaluator, config Config, logger *slog.Logger) (*Orchestrator, error) {
	if generator == nil {
		return nil, errors.New("generator is required")
	}
	if evaluator == nil {
		return nil, errors.New("evaluator is required")
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("invalid arena config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		generator: generator,
		evaluator: evaluator,
		config:    config,
		logger:    logger,
	}, nil
}

// SetObserver registers a per-iteration callback. Call before Run;
// not synchronized against in-flight runs.
func (o *Orchestrator) SetObserver(fn Observer) { o.observer = fn }

// Run executes the refinement loop for one project context.
//
// Each iteration asks the generator for a narrative (with the prior
// critique appended from iteration 2 on), evaluates it, records the
// result, then checks termination: target reached ends the run
// successfully, exhausting the budget ends it unsuccessfully. A
// generator error or context cancellation aborts the run with no
// partial Result.
func (o *Orchestrator) Run(ctx context.Context, initialContext string) (*Result, error) {
	return o.RunWithID(ctx, uuid.NewString(), initialContext)
}

// RunWithID is Run with a caller-supplied run identifier, letting API
// clients correlate streamed iteration frames and logs with their own
// request tracking. The caller is responsible for ID validity.
func (o *Orchestrator) RunWithID(ctx context.Context, runID, initialContext string) (*Result, error) {
	ctx, span := tracer.Start(ctx, "arena.Run")
	defer span.End()

	span.SetAttributes(
		attribute.String("arena.run_id", runID),
		attribute.Int("arena.max_iterations", o.config.MaxIterations),
		attribute.Int("arena.target_risk_score", o.config.TargetRiskScore),
	)
	o.logger.Info("arena run started",
		"run_id", runID,
		"max_iterations", o.config.MaxIterations,
		"target_risk_score", o.config.TargetRiskScore)

	records := make([]IterationRecord, 0, o.config.MaxIterations)
	critiqueText := ""

	for i := 1; i <= o.config.MaxIterations; i++ {
		if err := ctx.Err(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "run cancelled")
			return nil, err
		}

		narrative, err := o.generator.Generate(ctx, initialContext, critiqueText)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "generator failed")
			o.logger.Error("generator failed, aborting run",
				"run_id", runID, "iteration", i, "error", err)
			return nil, fmt.Errorf("%w: iteration %d: %w", ErrGeneratorFailed, i, err)
		}

		evaluation := o.evaluator.Evaluate(narrative)
		record := IterationRecord{
			IterationNumber: i,
			Narrative:       narrative,
			RiskScore:       evaluation.RiskScore,
			State:           StateIterating,
			Critique:        critiqueText,
			Evaluation:      evaluation,
		}

		// Termination is decided strictly after the record exists, so
		// the final iteration always appears in the result.
		switch {
		case evaluation.RiskScore < o.config.TargetRiskScore:
			record.State = StateTargetReached
			records = append(records, record)
			o.notify(runID, record)
			return o.finish(span, runID, records, true, TerminationTargetReached), nil
		case i == o.config.MaxIterations:
			record.State = StateMaxIterationsReached
			records = append(records, record)
			o.notify(runID, record)
			return o.finish(span, runID, records, false, TerminationMaxIterationsReached), nil
		default:
			records = append(records, record)
			o.notify(runID, record)
			critiqueText = critique.Build(evaluation)
			o.logger.Info("iteration complete, continuing",
				"run_id", runID, "iteration", i, "risk_score", evaluation.RiskScore)
		}
	}

	// Unreachable: the budget branch above always terminates the loop.
	return nil, errors.New("refinement loop exited without terminating")
}

func (o *Orchestrator) notify(runID string, record IterationRecord) {
	o.logger.Debug("iteration recorded",
		"run_id", runID,
		"iteration", record.IterationNumber,
		"risk_score", record.RiskScore,
		"state", record.State)
	if o.observer != nil {
		o.observer(runID, record)
	}
}

func (o *Orchestrator) finish(span trace.Span, runID string, records []IterationRecord, success bool, reason string) *Result {
	final := records[len(records)-1]
	span.SetAttributes(
		attribute.Bool("arena.success", success),
		attribute.Int("arena.total_iterations", len(records)),
		attribute.Int("arena.final_risk_score", final.RiskScore),
		attribute.String("arena.termination_reason", reason),
	)
	o.logger.Info("arena run finished",
		"run_id", runID,
		"success", success,
		"total_iterations", len(records),
		"final_risk_score", final.RiskScore,
		"termination_reason", reason)
	return &Result{
		RunID:             runID,
		Success:           success,
		Iterations:        records,
		TotalIterations:   len(records),
		FinalRiskScore:    final.RiskScore,
		FinalNarrative:    final.Narrative,
		TerminationReason: reason,
	}
}
