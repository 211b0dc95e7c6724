// Copyright (C) 2025 Attestix Labs (eng@attestix.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

// Experimentation penalty tiers by distinct indicator count.
const (
	// ExpectedEvidenceCount normalizes the diagnostic score: a
	// narrative matching this many distinct indicators scores 1.0.
	ExpectedEvidenceCount = 4

	// StrongEvidenceMin is the indicator count at which the penalty
	// drops to zero.
	StrongEvidenceMin = 4

	// PartialEvidenceMin is the indicator count for the reduced
	// penalty tier.
	PartialEvidenceMin = 2

	// PartialEvidencePenalty applies when some but not enough
	// indicators are present.
	PartialEvidencePenalty = 5
)

// experimentDetector rewards documented evidence of a process of
// experimentation: hypotheses, failures, iterations, alternatives,
// and uncertainty language. More distinct indicators mean a lower
// penalty; the penalty is monotonically non-increasing in the
// indicator set.
type experimentDetector struct {
	rules []Rule
}

func newExperimentDetector(file RuleFile) *experimentDetector {
	return &experimentDetector{rules: file.Rules}
}

func (d *experimentDetector) Name() string { return CategoryExperiment }

func (d *experimentDetector) Detect(text string) Finding {
	if isBlank(text) {
		return Finding{
			Penalty: CapExperiment,
			Issues: []Issue{{
				Category:   CategoryExperiment,
				Severity:   SeverityCritical,
				Text:       "Narrative is empty or whitespace-only",
				Suggestion: "Document the hypotheses tested, the failures encountered, and the iterations performed",
			}},
		}
	}

	indicators := 0
	for _, rule := range d.rules {
		if rule.compiled.MatchString(text) {
			indicators++
		}
	}

	score := float64(indicators) / float64(ExpectedEvidenceCount)
	if score > 1.0 {
		score = 1.0
	}

	finding := Finding{
		Diagnostic: score,
		MatchCount: indicators,
	}

	switch {
	case indicators >= StrongEvidenceMin:
		finding.Penalty = 0
	case indicators >= PartialEvidenceMin:
		finding.Penalty = PartialEvidencePenalty
		finding.Issues = append(finding.Issues, Issue{
			Category:   CategoryExperiment,
			Severity:   SeverityMedium,
			Text:       "Limited experimentation evidence",
			Suggestion: "Add explicit hypotheses, documented failures, and the alternatives evaluated before the final approach",
		})
	default:
		finding.Penalty = CapExperiment
		finding.Issues = append(finding.Issues, Issue{
			Category:   CategoryExperiment,
			Severity:   SeverityHigh,
			Text:       "No evidence of a process of experimentation",
			Suggestion: "Describe what was hypothesized, what failed, how many iterations were needed, and what alternatives were rejected",
		})
	}
	return finding
}
