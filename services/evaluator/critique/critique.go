// Copyright (C) 2025 Attestix Labs (eng@attestix.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package critique turns an evaluation result into a natural-language
// improvement directive for the narrative generator.
//
// The transformation is pure: the same result always yields the same
// directive, and nothing is mutated or recorded.
package critique

import (
	"fmt"
	"strings"

	"github.com/attestix/redline/services/evaluator/engine"
)

// genericDirective is issued when the score is non-qualifying but no
// detector produced an itemized issue to act on.
const genericDirective = "Strengthen the narrative by describing the technical uncertainty faced, " +
	"documenting failed approaches and what was learned from them, and including " +
	"quantitative measurements with units for each experiment."

// severityRank orders issues from most to least urgent.
var severityRank = map[engine.Severity]int{
	engine.SeverityCritical: 0,
	engine.SeverityHigh:     1,
	engine.SeverityMedium:   2,
	engine.SeverityLow:      3,
}

// categoryRank fixes a stable category order within a severity tier,
// matching the evaluation pipeline order.
var categoryRank = map[string]int{
	engine.CategoryRoutine:      0,
	engine.CategoryBusinessRisk: 1,
	engine.CategoryVagueness:    2,
	engine.CategoryExperiment:   3,
	engine.CategorySpecificity:  4,
}

// Build converts an evaluation result into a single directive string:
// the current classification and risk score, followed by one
// actionable suggestion per issue, deduplicated within each category
// and ordered by severity then category.
func Build(result *engine.EvaluationResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Current classification: %s (risk score %d, %s).",
		result.Classification, result.RiskScore, result.RiskCategory)

	suggestions := collectSuggestions(result.Redline.Issues)
	if len(suggestions) == 0 {
		// A qualifying score may still carry open issues; only a
		// clean result gets the all-clear. The refinement loop can
		// target scores below the qualification threshold, so the
		// suggestion list is driven by issues, not the verdict.
		if result.Classification == engine.Qualifying {
			b.WriteString(" The narrative meets the qualification threshold; no revisions required.")
			return b.String()
		}
		b.WriteString(" " + genericDirective)
		return b.String()
	}

	b.WriteString(" Revise the narrative to address the following:")
	for i, s := range suggestions {
		fmt.Fprintf(&b, "\n%d. [%s] %s", i+1, s.category, s.text)
	}
	return b.String()
}

type suggestion struct {
	category string
	severity engine.Severity
	text     string
}

// collectSuggestions flattens issues into a deduplicated, stably
// ordered suggestion list. Duplicate suggestion text within the same
// category keeps only the first, highest-severity occurrence.
func collectSuggestions(issues []engine.Issue) []suggestion {
	sorted := make([]engine.Issue, len(issues))
	copy(sorted, issues)

	// Insertion sort keeps the detector's in-category issue ordering
	// stable for ties; issue lists are small.
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && less(sorted[j], sorted[j-1]); j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}

	seen := make(map[string]bool)
	out := make([]suggestion, 0, len(sorted))
	for _, issue := range sorted {
		if issue.Suggestion == "" {
			continue
		}
		key := issue.Category + "\x00" + issue.Suggestion
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, suggestion{
			category: issue.Category,
			severity: issue.Severity,
			text:     issue.Suggestion,
		})
	}
	return out
}

func less(a, b engine.Issue) bool {
	if severityRank[a.Severity] != severityRank[b.Severity] {
		return severityRank[a.Severity] < severityRank[b.Severity]
	}
	return categoryRank[a.Category] < categoryRank[b.Category]
}
