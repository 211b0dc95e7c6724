// Copyright (C) 2025 Attestix Labs (eng@attestix.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import "strings"

// Detector scans narrative text for one category of qualifying or
// disqualifying signal.
//
// # Thread Safety
//
// Implementations must be stateless: Detect must be a pure function
// of its input so detectors can be shared across concurrent
// evaluations.
//
// # Totality
//
// Detect must be defined for any input, including empty and
// whitespace-only text, and must never panic. Empty input yields the
// detector's maximum-risk finding (full penalty, zero diagnostic).
type Detector interface {
	// Name returns the stable category identifier.
	Name() string

	// Detect scores the narrative text.
	Detect(text string) Finding
}

// isBlank reports whether the narrative carries no content at all.
func isBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}

// phraseDetector implements the three per-match penalty detectors
// (routine engineering, business risk, vagueness). Each unique rule
// that matches contributes perMatch points, summed and capped.
type phraseDetector struct {
	name     string
	rules    []Rule
	perMatch int
	max      int
}

// newPhraseDetector builds a phrase detector over a compiled rule
// file.
func newPhraseDetector(name string, file RuleFile, perMatch, max int) *phraseDetector {
	return &phraseDetector{
		name:     name,
		rules:    file.Rules,
		perMatch: perMatch,
		max:      max,
	}
}

func (d *phraseDetector) Name() string { return d.name }

// Detect matches each rule at most once, in rule-file order, so the
// issue list is deterministic for a given input. Severity escalates
// from medium to high once the accumulated penalty crosses half the
// detector cap.
func (d *phraseDetector) Detect(text string) Finding {
	if isBlank(text) {
		return Finding{
			Penalty: d.max,
			Issues: []Issue{{
				Category:   d.name,
				Severity:   SeverityCritical,
				Text:       "Narrative is empty or whitespace-only",
				Suggestion: "Provide a project narrative describing the technical work performed",
			}},
		}
	}

	finding := Finding{}
	for _, rule := range d.rules {
		match := rule.compiled.FindString(text)
		if match == "" {
			continue
		}
		finding.MatchCount++
		penalty := d.perMatch
		if finding.Penalty+penalty > d.max {
			penalty = d.max - finding.Penalty
		}
		finding.Penalty += penalty

		severity := SeverityMedium
		if finding.Penalty > d.max/2 {
			severity = SeverityHigh
		}
		finding.Issues = append(finding.Issues, Issue{
			Category:   d.name,
			Severity:   severity,
			Text:       rule.Description + ": " + strings.TrimSpace(match),
			Suggestion: rule.Suggestion,
		})
	}
	finding.Diagnostic = float64(finding.MatchCount)
	return finding
}
