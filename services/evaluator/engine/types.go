// Copyright (C) 2025 Attestix Labs (eng@attestix.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

// AlgorithmVersion is the version of the scoring algorithm.
// Increment when making changes that affect risk calculations.
const AlgorithmVersion = "1.2"

// APIVersion is the JSON output API version.
const APIVersion = "1.0"

// Detector category names. These are stable wire identifiers: they
// appear as component_scores keys and as issue categories.
const (
	CategoryRoutine      = "routine_engineering"
	CategoryBusinessRisk = "business_risk"
	CategoryVagueness    = "vagueness"
	CategoryExperiment   = "experimentation"
	CategorySpecificity  = "specificity"
)

// Per-detector penalty caps. The sum of caps is exactly 100, so the
// overall risk score needs no rescaling.
const (
	CapRoutine      = 30
	CapBusinessRisk = 20
	CapVagueness    = 25
	CapExperiment   = 15
	CapSpecificity  = 10
)

// Per-match penalties for the phrase detectors.
const (
	PenaltyPerRoutineMatch  = 5
	PenaltyPerBusinessMatch = 5
	PenaltyPerVagueMatch    = 6
)

// QualifyingThreshold is the policy constant separating QUALIFYING
// from NON_QUALIFYING narratives. Scores strictly below it qualify.
const QualifyingThreshold = 20

// MaxConfidence caps the derived confidence value.
const MaxConfidence = 0.95

// Severity represents how strongly a finding counts against the
// narrative.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Classification is the binary qualification verdict.
type Classification string

const (
	Qualifying    Classification = "QUALIFYING"
	NonQualifying Classification = "NON_QUALIFYING"
)

// RiskCategory is the descriptive banding of the risk score.
type RiskCategory string

const (
	RiskLow      RiskCategory = "LOW"
	RiskModerate RiskCategory = "MODERATE"
	RiskHigh     RiskCategory = "HIGH"
	RiskVeryHigh RiskCategory = "VERY_HIGH"
	RiskCritical RiskCategory = "CRITICAL"
)

// BandRiskScore maps a 0-100 risk score to its category band.
func BandRiskScore(score int) RiskCategory {
	switch {
	case score <= 20:
		return RiskLow
	case score <= 40:
		return RiskModerate
	case score <= 60:
		return RiskHigh
	case score <= 80:
		return RiskVeryHigh
	default:
		return RiskCritical
	}
}

// Classify applies the qualification threshold to a risk score.
func Classify(score int) Classification {
	if score < QualifyingThreshold {
		return Qualifying
	}
	return NonQualifying
}

// Issue is a single redline finding produced by one detector during
// one evaluation pass. Issues are immutable once created.
type Issue struct {
	Category   string   `json:"category"`
	Severity   Severity `json:"severity"`
	Text       string   `json:"text"`
	Suggestion string   `json:"suggestion"`
}

// Redline is the ordered collection of issues for one evaluation,
// with severity counts derived from the contained issues.
//
// The counts are never set independently; use NewRedline so they
// always equal a tally over Issues.
type Redline struct {
	TotalIssues   int     `json:"total_issues"`
	CriticalCount int     `json:"critical_count"`
	HighCount     int     `json:"high_count"`
	MediumCount   int     `json:"medium_count"`
	LowCount      int     `json:"low_count"`
	Issues        []Issue `json:"issues"`
}

// NewRedline builds a Redline from an ordered issue list, deriving
// the per-severity counts.
func NewRedline(issues []Issue) Redline {
	r := Redline{
		TotalIssues: len(issues),
		Issues:      issues,
	}
	if r.Issues == nil {
		r.Issues = make([]Issue, 0)
	}
	for _, issue := range issues {
		switch issue.Severity {
		case SeverityCritical:
			r.CriticalCount++
		case SeverityHigh:
			r.HighCount++
		case SeverityMedium:
			r.MediumCount++
		case SeverityLow:
			r.LowCount++
		}
	}
	return r
}

// ComponentScores maps detector names to their bounded penalties.
type ComponentScores map[string]int

// Finding is the output of a single detector run.
type Finding struct {
	// Penalty is the bounded point contribution toward the risk score.
	Penalty int

	// Diagnostic is the detector's secondary signal: a raw match
	// count for the phrase detectors, or a 0.0-1.0 evidence score for
	// the experimentation and specificity detectors.
	Diagnostic float64

	// MatchCount is the number of raw pattern matches.
	MatchCount int

	// Issues are the redline findings, in detection order.
	Issues []Issue
}

// EvaluationResult is the aggregate output of one evaluation pass.
// It is created fresh per call and never mutated after construction.
type EvaluationResult struct {
	APIVersion       string `json:"api_version"`
	AlgorithmVersion string `json:"algorithm_version"`

	RiskScore      int            `json:"risk_score"`
	Classification Classification `json:"classification"`
	RiskCategory   RiskCategory   `json:"risk_category"`
	Confidence     float64        `json:"confidence"`

	ComponentScores ComponentScores `json:"component_scores"`
	Redline         Redline         `json:"redline"`

	// Diagnostic counters.
	MatchCounts          map[string]int `json:"match_counts"`
	ExperimentationScore float64        `json:"experimentation_score"`
	SpecificityScore     float64        `json:"specificity_score"`

	// Hybrid fields, populated only on the blended path.
	LLMScore   *float64 `json:"llm_score,omitempty"`
	HybridUsed bool     `json:"hybrid_used"`
}
