// Copyright (C) 2025 Attestix Labs (eng@attestix.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

// Evaluator runs the fixed detector list over a narrative and
// aggregates the findings into an EvaluationResult.
//
// # Thread Safety
//
// Evaluator is safe for concurrent use. The detector list is fixed at
// construction and detectors are stateless, so concurrent Evaluate
// calls share nothing mutable.
type Evaluator struct {
	detectors []Detector
}

// NewEvaluator creates an Evaluator over the embedded default rules.
//
// # Outputs
//
//   - *Evaluator: The new evaluator.
//   - error: Non-nil if the embedded rule files fail to parse, which
//     indicates a corrupted build.
func NewEvaluator() (*Evaluator, error) {
	set, err := DefaultRuleSet()
	if err != nil {
		return nil, err
	}
	return NewEvaluatorWithRules(set), nil
}

// NewEvaluatorWithRules creates an Evaluator over a compiled rule
// set. The detector order is fixed and determines issue ordering in
// every result.
func NewEvaluatorWithRules(set *RuleSet) *Evaluator {
	return &Evaluator{
		detectors: []Detector{
			newPhraseDetector(CategoryRoutine, set.Routine, PenaltyPerRoutineMatch, CapRoutine),
			newPhraseDetector(CategoryBusinessRisk, set.BusinessRisk, PenaltyPerBusinessMatch, CapBusinessRisk),
			newPhraseDetector(CategoryVagueness, set.Vagueness, PenaltyPerVagueMatch, CapVagueness),
			newExperimentDetector(set.Experiment),
			newSpecificityDetector(),
		},
	}
}

// Evaluate scores a narrative.
//
// Evaluate is deterministic and total: identical input yields an
// identical result (same score, same issues, same ordering), and any
// input — including empty text — produces a well-formed result
// rather than an error.
//
// # Inputs
//
//   - text: The narrative to score. May be empty.
//
// # Outputs
//
//   - *EvaluationResult: The aggregate result. Never nil.
func (e *Evaluator) Evaluate(text string) *EvaluationResult {
	result := &EvaluationResult{
		APIVersion:       APIVersion,
		AlgorithmVersion: AlgorithmVersion,
		ComponentScores:  make(ComponentScores, len(e.detectors)),
		MatchCounts:      make(map[string]int, len(e.detectors)),
	}

	var issues []Issue
	total := 0
	for _, d := range e.detectors {
		finding := d.Detect(text)
		result.ComponentScores[d.Name()] = finding.Penalty
		result.MatchCounts[d.Name()] = finding.MatchCount
		total += finding.Penalty
		issues = append(issues, finding.Issues...)

		switch d.Name() {
		case CategoryExperiment:
			result.ExperimentationScore = finding.Diagnostic
		case CategorySpecificity:
			result.SpecificityScore = finding.Diagnostic
		}
	}

	if total > 100 {
		total = 100
	}
	result.RiskScore = total
	result.Classification = Classify(total)
	result.RiskCategory = BandRiskScore(total)
	result.Redline = NewRedline(issues)
	result.Confidence = confidenceFor(result.Redline.TotalIssues)
	return result
}

// confidenceFor derives a coarse confidence proxy from the number of
// independent signals that informed the score. It is not a
// statistical confidence interval.
func confidenceFor(issueCount int) float64 {
	c := 0.5 + 0.05*float64(issueCount)
	if c > MaxConfidence {
		return MaxConfidence
	}
	return c
}

// NormalizedRuleScore converts a 0-100 risk score into the 0.0-1.0
// quality scale consumed by the hybrid blender (lower risk means a
// higher score).
func NormalizedRuleScore(riskScore int) float64 {
	return float64(100-riskScore) / 100.0
}
