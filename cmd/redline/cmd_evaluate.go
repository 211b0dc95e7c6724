// Copyright (C) 2025 Attestix Labs (eng@attestix.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/attestix/redline/pkg/ux"
	"github.com/attestix/redline/pkg/validation"
	"github.com/attestix/redline/services/evaluator/critique"
	"github.com/attestix/redline/services/evaluator/engine"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	evaluateJSON     bool
	evaluateQuiet    bool
	evaluateRulesDir string
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

var evaluateCmd = &cobra.Command{
	Use:   "evaluate [file]",
	Short: "Score a narrative and print its redline of issues",
	Long: `Score an R&D narrative with the deterministic detector pipeline.

The narrative is read from the given file, or from stdin when no file
is provided. Text output includes the risk score, the qualification
verdict, and the redline of issues with suggested revisions.

Examples:
  redline evaluate narrative.txt       # Score a file
  cat narrative.txt | redline evaluate # Score stdin
  redline evaluate --json draft.txt    # JSON output for automation
  redline evaluate --rules ./rules d.txt # Use an override rule directory

Exit Codes:
  0 = Narrative qualifies
  1 = Narrative does not qualify
  2 = Error (unreadable input, invalid rules)`,
	Args: cobra.MaximumNArgs(1),
	Run:  runEvaluateCommand,
}

func init() {
	evaluateCmd.Flags().BoolVar(&evaluateJSON, "json", false,
		"Output as JSON")
	evaluateCmd.Flags().BoolVar(&evaluateQuiet, "quiet", false,
		"Only exit code, no output")
	evaluateCmd.Flags().StringVar(&evaluateRulesDir, "rules", "",
		"Override rule directory (defaults to embedded rules)")

	rootCmd.AddCommand(evaluateCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

func runEvaluateCommand(cmd *cobra.Command, args []string) {
	narrative, err := readNarrative(args)
	if err != nil {
		ux.Error(fmt.Sprintf("Failed to read narrative: %v", err))
		os.Exit(ExitError)
	}
	if err := validation.ValidateNarrative(narrative); err != nil {
		ux.Error(fmt.Sprintf("Invalid narrative: %v", err))
		os.Exit(ExitError)
	}

	evaluator, err := buildEvaluator(evaluateRulesDir)
	if err != nil {
		ux.Error(fmt.Sprintf("Failed to load rules: %v", err))
		os.Exit(ExitError)
	}

	result := evaluator.Evaluate(narrative)

	if !evaluateQuiet {
		if evaluateJSON {
			outputEvaluationJSON(result)
		} else {
			outputEvaluationText(result)
		}
	}

	if result.Classification == engine.Qualifying {
		os.Exit(ExitQualifying)
	}
	os.Exit(ExitNonQualifying)
}

// readNarrative reads from the file argument, or stdin when absent.
func readNarrative(args []string) (string, error) {
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// buildEvaluator loads the override rule directory when given,
// falling back to the embedded default rules.
func buildEvaluator(rulesDir string) (*engine.Evaluator, error) {
	if rulesDir == "" {
		return engine.NewEvaluator()
	}
	set, err := engine.LoadRuleSet(rulesDir)
	if err != nil {
		return nil, err
	}
	return engine.NewEvaluatorWithRules(set), nil
}

// =============================================================================
// OUTPUT FUNCTIONS
// =============================================================================

func outputEvaluationJSON(result *engine.EvaluationResult) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
		os.Exit(ExitError)
	}
}

func outputEvaluationText(result *engine.EvaluationResult) {
	ux.Title("Redline Evaluation")
	fmt.Println()

	verdict := string(result.Classification)
	if ux.IsInteractive() {
		verdict = ux.ClassificationStyle(result.Classification).Render(verdict)
	}
	fmt.Printf("Verdict:    %s\n", verdict)
	fmt.Printf("Risk score: %d/100 (%s)\n", result.RiskScore, result.RiskCategory)
	fmt.Printf("Confidence: %.2f\n", result.Confidence)
	fmt.Println()

	fmt.Println("Component scores:")
	for _, name := range []string{
		engine.CategoryRoutine,
		engine.CategoryBusinessRisk,
		engine.CategoryVagueness,
		engine.CategoryExperiment,
		engine.CategorySpecificity,
	} {
		fmt.Printf("  %-22s %d\n", name, result.ComponentScores[name])
	}
	fmt.Println()

	if result.Redline.TotalIssues == 0 {
		ux.Success("No issues found")
	} else {
		fmt.Printf("Redline (%d issues):\n", result.Redline.TotalIssues)
		for _, issue := range result.Redline.Issues {
			severity := string(issue.Severity)
			if ux.IsInteractive() {
				severity = ux.SeverityStyle(issue.Severity).Render(severity)
			}
			fmt.Printf("  %s [%s/%s] %q\n", ux.IconBullet, severity, issue.Category, issue.Text)
			if issue.Suggestion != "" {
				fmt.Printf("    %s %s\n", ux.IconArrow, issue.Suggestion)
			}
		}
	}
	fmt.Println()
	fmt.Println(critique.Build(result))
}
