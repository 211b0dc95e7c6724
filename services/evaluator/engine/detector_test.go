// Copyright (C) 2025 Attestix Labs (eng@attestix.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import (
	"strings"
	"testing"
)

func newTestRuleSet(t *testing.T) *RuleSet {
	t.Helper()
	set, err := DefaultRuleSet()
	if err != nil {
		t.Fatalf("DefaultRuleSet() failed: %v", err)
	}
	return set
}

// TestPhraseDetector_PerMatchPenalty verifies the accumulation and
// cap behavior of the per-match penalty model.
func TestPhraseDetector_PerMatchPenalty(t *testing.T) {
	set := newTestRuleSet(t)
	d := newPhraseDetector(CategoryRoutine, set.Routine, PenaltyPerRoutineMatch, CapRoutine)

	tests := []struct {
		name        string
		input       string
		wantPenalty int
		wantMatches int
	}{
		{
			name:        "no matches",
			input:       "We designed a new consensus protocol under significant technical uncertainty",
			wantPenalty: 0,
			wantMatches: 0,
		},
		{
			name:        "two matches",
			input:       "We fixed bugs and performed routine maintenance all quarter",
			wantPenalty: 10,
			wantMatches: 2,
		},
		{
			name: "capped at detector maximum",
			input: "We fixed bugs, refactored the code, migrated to the new stack, debugged the " +
				"service, upgraded to v3, made minor tweaks, used off-the-shelf components, changed " +
				"the settings, followed standard industry practice, and did routine maintenance",
			wantPenalty: CapRoutine,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			finding := d.Detect(tt.input)
			if finding.Penalty != tt.wantPenalty {
				t.Errorf("penalty = %d, want %d", finding.Penalty, tt.wantPenalty)
			}
			if tt.wantMatches > 0 && finding.MatchCount != tt.wantMatches {
				t.Errorf("match count = %d, want %d", finding.MatchCount, tt.wantMatches)
			}
		})
	}
}

// TestPhraseDetector_UniqueRuleMatching verifies each rule counts at
// most once regardless of repetition in the text.
func TestPhraseDetector_UniqueRuleMatching(t *testing.T) {
	set := newTestRuleSet(t)
	d := newPhraseDetector(CategoryRoutine, set.Routine, PenaltyPerRoutineMatch, CapRoutine)

	once := d.Detect("We fixed bugs in the parser")
	repeated := d.Detect(strings.Repeat("We fixed bugs in the parser. ", 10))

	if once.Penalty != repeated.Penalty {
		t.Errorf("repeated phrase changed penalty: %d vs %d", once.Penalty, repeated.Penalty)
	}
	if once.MatchCount != repeated.MatchCount {
		t.Errorf("repeated phrase changed match count: %d vs %d", once.MatchCount, repeated.MatchCount)
	}
}

// TestPhraseDetector_SeverityEscalation verifies medium-to-high
// escalation past half the cap.
func TestPhraseDetector_SeverityEscalation(t *testing.T) {
	set := newTestRuleSet(t)
	d := newPhraseDetector(CategoryVagueness, set.Vagueness, PenaltyPerVagueMatch, CapVagueness)

	finding := d.Detect("We leveraged existing tools for significant improvements using various " +
		"techniques on an innovative world-class robust platform to improve everything")

	if len(finding.Issues) < 4 {
		t.Fatalf("expected at least 4 issues, got %d", len(finding.Issues))
	}
	// Half of the vagueness cap is 12, so the third match (18 points
	// accumulated) and beyond must be high severity.
	for i, issue := range finding.Issues {
		accumulated := (i + 1) * PenaltyPerVagueMatch
		if accumulated > CapVagueness {
			accumulated = CapVagueness
		}
		wantHigh := accumulated > CapVagueness/2
		isHigh := issue.Severity == SeverityHigh
		if wantHigh != isHigh {
			t.Errorf("issue %d severity = %s, accumulated %d", i, issue.Severity, accumulated)
		}
	}
}

// TestPhraseDetector_CaseInsensitive verifies pattern matching
// ignores case.
func TestPhraseDetector_CaseInsensitive(t *testing.T) {
	set := newTestRuleSet(t)
	d := newPhraseDetector(CategoryBusinessRisk, set.BusinessRisk, PenaltyPerBusinessMatch, CapBusinessRisk)

	lower := d.Detect("we focused on market share this year")
	upper := d.Detect("WE FOCUSED ON MARKET SHARE THIS YEAR")

	if lower.Penalty == 0 {
		t.Fatal("expected a business-risk match")
	}
	if lower.Penalty != upper.Penalty {
		t.Errorf("case changed penalty: %d vs %d", lower.Penalty, upper.Penalty)
	}
}

// TestPhraseDetector_EmptyInput verifies the maximum-risk finding.
func TestPhraseDetector_EmptyInput(t *testing.T) {
	set := newTestRuleSet(t)

	detectors := []*phraseDetector{
		newPhraseDetector(CategoryRoutine, set.Routine, PenaltyPerRoutineMatch, CapRoutine),
		newPhraseDetector(CategoryBusinessRisk, set.BusinessRisk, PenaltyPerBusinessMatch, CapBusinessRisk),
		newPhraseDetector(CategoryVagueness, set.Vagueness, PenaltyPerVagueMatch, CapVagueness),
	}
	for _, d := range detectors {
		finding := d.Detect("")
		if finding.Penalty != d.max {
			t.Errorf("%s empty-input penalty = %d, want %d", d.Name(), finding.Penalty, d.max)
		}
		if finding.Diagnostic != 0 {
			t.Errorf("%s empty-input diagnostic = %f, want 0", d.Name(), finding.Diagnostic)
		}
	}
}

// TestNewRedline verifies count derivation.
func TestNewRedline(t *testing.T) {
	issues := []Issue{
		{Category: CategoryRoutine, Severity: SeverityHigh},
		{Category: CategoryVagueness, Severity: SeverityMedium},
		{Category: CategoryVagueness, Severity: SeverityMedium},
		{Category: CategorySpecificity, Severity: SeverityCritical},
	}
	r := NewRedline(issues)

	if r.TotalIssues != 4 {
		t.Errorf("total = %d, want 4", r.TotalIssues)
	}
	if r.CriticalCount != 1 || r.HighCount != 1 || r.MediumCount != 2 || r.LowCount != 0 {
		t.Errorf("counts = %d/%d/%d/%d, want 1/1/2/0",
			r.CriticalCount, r.HighCount, r.MediumCount, r.LowCount)
	}

	empty := NewRedline(nil)
	if empty.TotalIssues != 0 || empty.Issues == nil {
		t.Error("empty redline should have zero total and a non-nil issue slice")
	}
}
