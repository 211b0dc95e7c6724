// Copyright (C) 2025 Attestix Labs (eng@attestix.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import (
	"reflect"
	"strings"
	"testing"
)

const qualifyingNarrative = "We hypothesized that a new caching strategy could cut latency below 50ms; " +
	"testing on 2024-01-15 showed 120ms latency; after 5 iterations we discovered cache coherency " +
	"defects and achieved 42ms (16% improvement)"

const routineNarrative = "We fixed bugs and performed routine maintenance to improve market share " +
	"and user experience"

func newTestEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	e, err := NewEvaluator()
	if err != nil {
		t.Fatalf("NewEvaluator() failed: %v", err)
	}
	return e
}

// TestEvaluate_Deterministic verifies that identical input always
// yields an identical result, including issue ordering.
func TestEvaluate_Deterministic(t *testing.T) {
	e := newTestEvaluator(t)

	inputs := []string{
		"",
		"   \n\t  ",
		routineNarrative,
		qualifyingNarrative,
		"We leveraged existing cutting-edge technology for various improvements",
	}
	for _, input := range inputs {
		first := e.Evaluate(input)
		second := e.Evaluate(input)
		if first.RiskScore != second.RiskScore {
			t.Errorf("risk score not deterministic for %q: %d vs %d",
				input, first.RiskScore, second.RiskScore)
		}
		if first.Classification != second.Classification {
			t.Errorf("classification not deterministic for %q", input)
		}
		if !reflect.DeepEqual(first.Redline, second.Redline) {
			t.Errorf("redline not deterministic for %q", input)
		}
		if !reflect.DeepEqual(first.ComponentScores, second.ComponentScores) {
			t.Errorf("component scores not deterministic for %q", input)
		}
	}
}

// TestEvaluate_ScoreBounds verifies the global and per-detector caps.
func TestEvaluate_ScoreBounds(t *testing.T) {
	e := newTestEvaluator(t)

	caps := map[string]int{
		CategoryRoutine:      CapRoutine,
		CategoryBusinessRisk: CapBusinessRisk,
		CategoryVagueness:    CapVagueness,
		CategoryExperiment:   CapExperiment,
		CategorySpecificity:  CapSpecificity,
	}

	inputs := []string{
		"",
		routineNarrative,
		qualifyingNarrative,
		// Saturate the phrase detectors.
		"We fixed bugs, refactored, migrated, debugged, upgraded to v2, reskinned the UI, " +
			"did routine maintenance, used off-the-shelf parts, changed the settings, followed " +
			"standard industry practice, and made minor tweaks for market share, revenue, " +
			"customer satisfaction, competitive advantage, cost reduction, brand awareness, " +
			"and time-to-market with significant innovative world-class robust solution wins",
		strings.Repeat("95% ", 50),
	}
	for _, input := range inputs {
		result := e.Evaluate(input)
		if result.RiskScore < 0 || result.RiskScore > 100 {
			t.Errorf("risk score out of range for %q: %d", input, result.RiskScore)
		}
		sum := 0
		for name, penalty := range result.ComponentScores {
			limit, ok := caps[name]
			if !ok {
				t.Fatalf("unexpected component %q", name)
			}
			if penalty < 0 || penalty > limit {
				t.Errorf("component %s penalty %d exceeds cap %d", name, penalty, limit)
			}
			sum += penalty
		}
		want := sum
		if want > 100 {
			want = 100
		}
		if result.RiskScore != want {
			t.Errorf("risk score %d != capped component sum %d", result.RiskScore, want)
		}
	}
}

// TestEvaluate_ClassificationConsistency verifies the threshold rule.
func TestEvaluate_ClassificationConsistency(t *testing.T) {
	e := newTestEvaluator(t)

	inputs := []string{"", routineNarrative, qualifyingNarrative, "plain text with nothing special"}
	for _, input := range inputs {
		result := e.Evaluate(input)
		qualifies := result.RiskScore < QualifyingThreshold
		if qualifies != (result.Classification == Qualifying) {
			t.Errorf("classification %s inconsistent with score %d",
				result.Classification, result.RiskScore)
		}
	}
}

// TestEvaluate_RedlineConsistency verifies the derived counts always
// tally over the contained issues.
func TestEvaluate_RedlineConsistency(t *testing.T) {
	e := newTestEvaluator(t)

	inputs := []string{"", routineNarrative, qualifyingNarrative, strings.Repeat("99% ", 20)}
	for _, input := range inputs {
		r := e.Evaluate(input).Redline
		if r.TotalIssues != len(r.Issues) {
			t.Errorf("total_issues %d != len(issues) %d", r.TotalIssues, len(r.Issues))
		}
		counts := map[Severity]int{}
		for _, issue := range r.Issues {
			counts[issue.Severity]++
		}
		if r.CriticalCount != counts[SeverityCritical] ||
			r.HighCount != counts[SeverityHigh] ||
			r.MediumCount != counts[SeverityMedium] ||
			r.LowCount != counts[SeverityLow] {
			t.Errorf("severity counts do not tally for %q: %+v vs %v", input, r, counts)
		}
	}
}

// TestEvaluate_RoutineNarrativeScenario is the canonical
// non-qualifying scenario: routine work framed around business
// goals.
func TestEvaluate_RoutineNarrativeScenario(t *testing.T) {
	e := newTestEvaluator(t)
	result := e.Evaluate(routineNarrative)

	if result.Classification != NonQualifying {
		t.Errorf("classification = %s, want NON_QUALIFYING", result.Classification)
	}
	if result.RiskScore < 40 {
		t.Errorf("risk score = %d, want >= 40", result.RiskScore)
	}
	for _, category := range []string{CategoryRoutine, CategoryBusinessRisk, CategoryVagueness} {
		found := false
		for _, issue := range result.Redline.Issues {
			if issue.Category == category {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected at least one %s issue", category)
		}
	}
}

// TestEvaluate_QualifyingNarrativeScenario is the canonical
// qualifying scenario: hypotheses, failures, iterations, and
// distinct contextualized metrics.
func TestEvaluate_QualifyingNarrativeScenario(t *testing.T) {
	e := newTestEvaluator(t)
	result := e.Evaluate(qualifyingNarrative)

	if result.Classification != Qualifying {
		t.Errorf("classification = %s, want QUALIFYING (score %d, redline %+v)",
			result.Classification, result.RiskScore, result.Redline.Issues)
	}
	if result.RiskScore >= QualifyingThreshold {
		t.Errorf("risk score = %d, want < %d", result.RiskScore, QualifyingThreshold)
	}
	if penalty := result.ComponentScores[CategorySpecificity]; penalty > 3 {
		t.Errorf("specificity penalty = %d, want <= 3", penalty)
	}
	if result.ExperimentationScore < 1.0 {
		t.Errorf("experimentation score = %f, want 1.0", result.ExperimentationScore)
	}
}

// TestEvaluate_EmptyNarrative verifies the maximum-risk result for
// empty input.
func TestEvaluate_EmptyNarrative(t *testing.T) {
	e := newTestEvaluator(t)

	for _, input := range []string{"", "   ", "\n\t"} {
		result := e.Evaluate(input)
		if result.RiskScore != 100 {
			t.Errorf("empty narrative risk score = %d, want 100", result.RiskScore)
		}
		if result.Classification != NonQualifying {
			t.Errorf("empty narrative classification = %s, want NON_QUALIFYING", result.Classification)
		}
		if result.RiskCategory != RiskCritical {
			t.Errorf("empty narrative category = %s, want CRITICAL", result.RiskCategory)
		}
		if result.Redline.TotalIssues == 0 {
			t.Error("empty narrative should carry issues")
		}
	}
}

// TestEvaluate_Confidence verifies the issue-count confidence proxy
// and its cap.
func TestEvaluate_Confidence(t *testing.T) {
	e := newTestEvaluator(t)

	clean := e.Evaluate(qualifyingNarrative)
	want := 0.5 + 0.05*float64(clean.Redline.TotalIssues)
	if want > MaxConfidence {
		want = MaxConfidence
	}
	if clean.Confidence != want {
		t.Errorf("confidence = %f, want %f", clean.Confidence, want)
	}

	dirty := e.Evaluate("")
	if dirty.Confidence > MaxConfidence {
		t.Errorf("confidence %f exceeds cap %f", dirty.Confidence, MaxConfidence)
	}
}

// TestBandRiskScore covers the category band edges.
func TestBandRiskScore(t *testing.T) {
	tests := []struct {
		score int
		want  RiskCategory
	}{
		{0, RiskLow},
		{20, RiskLow},
		{21, RiskModerate},
		{40, RiskModerate},
		{41, RiskHigh},
		{60, RiskHigh},
		{61, RiskVeryHigh},
		{80, RiskVeryHigh},
		{81, RiskCritical},
		{100, RiskCritical},
	}
	for _, tt := range tests {
		if got := BandRiskScore(tt.score); got != tt.want {
			t.Errorf("BandRiskScore(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

// TestNormalizedRuleScore checks the risk-to-quality conversion used
// by the hybrid blender.
func TestNormalizedRuleScore(t *testing.T) {
	tests := []struct {
		risk int
		want float64
	}{
		{0, 1.0},
		{50, 0.5},
		{100, 0.0},
	}
	for _, tt := range tests {
		if got := NormalizedRuleScore(tt.risk); got != tt.want {
			t.Errorf("NormalizedRuleScore(%d) = %f, want %f", tt.risk, got, tt.want)
		}
	}
}
