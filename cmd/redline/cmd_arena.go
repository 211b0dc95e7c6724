// Copyright (C) 2025 Attestix Labs (eng@attestix.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/attestix/redline/pkg/ux"
	"github.com/attestix/redline/services/evaluator/arena"
	"github.com/attestix/redline/services/evaluator/engine"
	"github.com/attestix/redline/services/llm"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	arenaContextFile   string
	arenaContext       string
	arenaMaxIterations int
	arenaTarget        int
	arenaBackend       string
	arenaJSON          bool
	arenaTimeout       int
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

var arenaCmd = &cobra.Command{
	Use:   "arena",
	Short: "Iteratively generate and refine a narrative until it qualifies",
	Long: `Run the generate-evaluate-critique loop against an LLM backend.

Each iteration generates a narrative draft from the project context
(and the previous iteration's critique), scores it, and either stops
at the target risk score or feeds the critique back to the generator.

Backends:
  openai  Requires OPENAI_API_KEY (or /run/secrets/openai_api_key)
  ollama  Requires OLLAMA_BASE_URL; OLLAMA_MODEL defaults to llama3.1

Examples:
  redline arena --context "caching latency project" --generator ollama
  redline arena --context-file project.txt --max-iterations 8 --target 10
  redline arena --context-file project.txt --json > run.json

Exit Codes:
  0 = Final narrative qualifies
  1 = Iteration budget exhausted without qualifying
  2 = Error (generator failure, bad configuration)`,
	Run: runArenaCommand,
}

func init() {
	arenaCmd.Flags().StringVar(&arenaContextFile, "context-file", "",
		"File containing the project context")
	arenaCmd.Flags().StringVar(&arenaContext, "context", "",
		"Project context as a literal string")
	arenaCmd.Flags().IntVar(&arenaMaxIterations, "max-iterations", arena.DefaultMaxIterations,
		"Iteration budget")
	arenaCmd.Flags().IntVar(&arenaTarget, "target", arena.DefaultTargetRiskScore,
		"Target risk score (loop stops below this)")
	arenaCmd.Flags().StringVar(&arenaBackend, "generator", "ollama",
		"LLM backend: openai or ollama")
	arenaCmd.Flags().BoolVar(&arenaJSON, "json", false,
		"Output the full run result as JSON")
	arenaCmd.Flags().IntVar(&arenaTimeout, "timeout", 600,
		"Total timeout in seconds")

	rootCmd.AddCommand(arenaCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

func runArenaCommand(cmd *cobra.Command, args []string) {
	projectContext, err := readProjectContext()
	if err != nil {
		ux.Error(fmt.Sprintf("Failed to read context: %v", err))
		os.Exit(ExitError)
	}

	client, err := buildGeneratorClient(arenaBackend)
	if err != nil {
		ux.Error(fmt.Sprintf("Failed to initialize %s backend: %v", arenaBackend, err))
		os.Exit(ExitError)
	}
	generator := llm.NewNarrativeGenerator(client, llm.GenerationParams{})

	evaluator, err := engine.NewEvaluator()
	if err != nil {
		ux.Error(fmt.Sprintf("Failed to initialize evaluator: %v", err))
		os.Exit(ExitError)
	}

	// Keep the loop's slog output out of the terminal view.
	quiet := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	orchestrator, err := arena.NewOrchestrator(generator, evaluator, arena.Config{
		MaxIterations:   arenaMaxIterations,
		TargetRiskScore: arenaTarget,
	}, quiet)
	if err != nil {
		ux.Error(fmt.Sprintf("Invalid configuration: %v", err))
		os.Exit(ExitError)
	}

	if !arenaJSON {
		orchestrator.SetObserver(func(runID string, record arena.IterationRecord) {
			printIterationProgress(record)
		})
		ux.Title("Arena Mode")
		fmt.Printf("Backend: %s, budget: %d iterations, target: risk < %d\n\n",
			arenaBackend, arenaMaxIterations, arenaTarget)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(arenaTimeout)*time.Second)
	defer cancel()

	result, err := orchestrator.Run(ctx, projectContext)
	if err != nil {
		ux.Error(fmt.Sprintf("Arena run failed: %v", err))
		os.Exit(ExitError)
	}

	if arenaJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(result); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			os.Exit(ExitError)
		}
	} else {
		printArenaSummary(result)
	}

	if result.Success {
		os.Exit(ExitQualifying)
	}
	os.Exit(ExitNonQualifying)
}

// readProjectContext resolves --context / --context-file, which are
// mutually exclusive.
func readProjectContext() (string, error) {
	switch {
	case arenaContext != "" && arenaContextFile != "":
		return "", fmt.Errorf("use --context or --context-file, not both")
	case arenaContext != "":
		return arenaContext, nil
	case arenaContextFile != "":
		data, err := os.ReadFile(arenaContextFile)
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("--context or --context-file is required")
	}
}

// buildGeneratorClient constructs the requested LLM backend.
func buildGeneratorClient(backend string) (llm.LLMClient, error) {
	switch backend {
	case "openai":
		return llm.NewOpenAIClient()
	case "ollama":
		return llm.NewOllamaClient()
	default:
		return nil, fmt.Errorf("unknown backend %q (want openai or ollama)", backend)
	}
}

// =============================================================================
// OUTPUT FUNCTIONS
// =============================================================================

func printIterationProgress(record arena.IterationRecord) {
	verdict := string(record.Evaluation.Classification)
	if ux.IsInteractive() {
		verdict = ux.ClassificationStyle(record.Evaluation.Classification).Render(verdict)
	}
	fmt.Printf("Iteration %d: risk %d (%s), %d issues\n",
		record.IterationNumber, record.RiskScore, verdict,
		record.Evaluation.Redline.TotalIssues)
}

func printArenaSummary(result *arena.Result) {
	fmt.Println()
	if result.Success {
		ux.Success(fmt.Sprintf("Qualified after %d iteration(s), final risk %d",
			result.TotalIterations, result.FinalRiskScore))
	} else {
		ux.Warning(fmt.Sprintf("Budget exhausted after %d iteration(s), final risk %d",
			result.TotalIterations, result.FinalRiskScore))
	}
	fmt.Println()
	ux.Title("Final Narrative")
	fmt.Println(result.FinalNarrative)
}
