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

// TestSpecificity_IndicatorTiers covers the penalty tiers for honest
// narratives.
func TestSpecificity_IndicatorTiers(t *testing.T) {
	d := newSpecificityDetector()

	tests := []struct {
		name        string
		input       string
		wantPenalty int
	}{
		{
			name: "three contextualized metrics",
			input: "Benchmarked the allocator: baseline throughput was 1200qps, the prototype " +
				"reached 1850qps, and p99 latency dropped to 14ms during testing",
			wantPenalty: 0,
		},
		{
			name:        "one metric",
			input:       "We tested the new allocator and observed a throughput of 1850qps under load",
			wantPenalty: WeakSpecificityPenalty,
		},
		{
			name:        "no metrics",
			input:       "We worked hard on the allocator and it became much faster over time",
			wantPenalty: NoMetricsPenalty,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			finding := d.Detect(tt.input)
			if finding.Penalty != tt.wantPenalty {
				t.Errorf("penalty = %d, want %d (diagnostic %f)",
					finding.Penalty, tt.wantPenalty, finding.Diagnostic)
			}
		})
	}
}

// TestSpecificity_AntiGaming is the critical adversarial property:
// repeating one metric token must score a HIGHER penalty than having
// no metrics at all, and must slash the specificity score.
func TestSpecificity_AntiGaming(t *testing.T) {
	d := newSpecificityDetector()

	stuffed := d.Detect("95% 95% 95% improvement improvement improvement faster better stronger always")
	honest := d.Detect("We worked on the caching layer and made it faster without measuring anything concrete here")

	if stuffed.Penalty <= honest.Penalty {
		t.Errorf("stuffed penalty %d should exceed zero-metric penalty %d",
			stuffed.Penalty, honest.Penalty)
	}
	if stuffed.Penalty != GamedPenalty {
		t.Errorf("stuffed penalty = %d, want %d", stuffed.Penalty, GamedPenalty)
	}

	// The score reduction must be at least 60% of the naive score.
	naive := 1.0 // three indicator mentions would naively saturate the score
	if stuffed.Diagnostic > naive*GamedScoreFactor {
		t.Errorf("gamed diagnostic %f not reduced by at least 60%%", stuffed.Diagnostic)
	}

	foundStuffingIssue := false
	for _, issue := range stuffed.Issues {
		if issue.Severity == SeverityCritical && strings.Contains(issue.Text, "stuffing") {
			foundStuffingIssue = true
		}
	}
	if !foundStuffingIssue {
		t.Error("expected a critical metric-stuffing issue")
	}
}

// TestSpecificity_GamingBeatsDistinctMetrics verifies the full
// pipeline ordering: a stuffed narrative must score substantially
// higher risk than a comparable narrative citing distinct,
// contextualized metrics.
func TestSpecificity_GamingBeatsDistinctMetrics(t *testing.T) {
	e := newTestEvaluator(t)

	stuffed := e.Evaluate("95% 95% 95% 95% 95% improvement improvement improvement improvement improvement")
	contextual := e.Evaluate("We tested three designs: the first measured 80ms, the second 55ms, " +
		"and the final iteration reached 31ms on 2024-03-02")

	if stuffed.RiskScore <= contextual.RiskScore {
		t.Errorf("stuffed risk %d should exceed contextualized risk %d",
			stuffed.RiskScore, contextual.RiskScore)
	}
	if stuffed.ComponentScores[CategorySpecificity] <= contextual.ComponentScores[CategorySpecificity] {
		t.Errorf("stuffed specificity penalty %d should exceed contextualized penalty %d",
			stuffed.ComponentScores[CategorySpecificity],
			contextual.ComponentScores[CategorySpecificity])
	}
}

// TestSpecificity_DensityRules covers the density-based stuffing
// conditions.
func TestSpecificity_DensityRules(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantGamed bool
	}{
		{
			name:      "hard density ceiling",
			input:     "10ms 20ms 30ms 40ms 50ms 60ms 70ms and so",
			wantGamed: true,
		},
		{
			name: "dense but contextualized",
			input: "Measured and tested repeatedly: 10ms 20ms 30ms 40ms 50ms across five benchmark " +
				"iterations we evaluated carefully and compared against the measured baseline results",
			wantGamed: false,
		},
		{
			name:      "moderate density without context",
			input:     "Got 10ms then 20ms then 30ms then 40ms then 50ms which was good",
			wantGamed: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gamed, _ := detectStuffing(tt.input, mentionPattern.FindAllString(tt.input, -1))
			if gamed != tt.wantGamed {
				t.Errorf("detectStuffing = %v, want %v", gamed, tt.wantGamed)
			}
		})
	}
}

// TestSpecificity_BareNumberBonus verifies the small unitless-number
// bonus when indicators are scarce.
func TestSpecificity_BareNumberBonus(t *testing.T) {
	d := newSpecificityDetector()

	withBare := d.Detect("We ran the test suite across 3 clusters and observed a 40ms median latency")
	without := d.Detect("We ran the test suite across some clusters and observed a 40ms median latency")

	if withBare.Diagnostic <= without.Diagnostic {
		t.Errorf("bare-number bonus missing: %f <= %f", withBare.Diagnostic, without.Diagnostic)
	}
}

// TestSpecificity_ErrorCodesAndDates verifies the structural
// indicator classes beyond unit numbers.
func TestSpecificity_ErrorCodesAndDates(t *testing.T) {
	d := newSpecificityDetector()

	finding := d.Detect("On 2024-06-01 the service began returning ERR-1042 and HTTP 503 under load")
	if finding.MatchCount < 3 {
		t.Errorf("match count = %d, want >= 3 (date + two codes)", finding.MatchCount)
	}
	if finding.Penalty != 0 {
		t.Errorf("penalty = %d, want 0", finding.Penalty)
	}
}
