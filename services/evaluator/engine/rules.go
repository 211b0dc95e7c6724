// Copyright (C) 2025 Attestix Labs (eng@attestix.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/attestix/redline/services/evaluator/engine/rules"
)

// Rule is one phrase pattern within a detector's rule file.
type Rule struct {
	ID          string `yaml:"id"`
	Description string `yaml:"description"`
	Regex       string `yaml:"regex"`
	Suggestion  string `yaml:"suggestion"`

	compiled *regexp.Regexp `yaml:"-"`
}

// RuleFile is the parsed form of one detector rule file.
type RuleFile struct {
	Detector string `yaml:"detector"`
	Rules    []Rule `yaml:"rules"`
}

// Compile compiles every rule pattern case-insensitively.
// Returns an error naming the first rule that fails to compile.
func (f *RuleFile) Compile() error {
	for i := range f.Rules {
		rule := &f.Rules[i]
		re, err := regexp.Compile("(?i)" + rule.Regex)
		if err != nil {
			return fmt.Errorf("compile rule %s: %w", rule.ID, err)
		}
		rule.compiled = re
	}
	return nil
}

// RuleSet holds the compiled rule files for all pattern-driven
// detectors. A RuleSet is immutable after construction; the service
// swaps whole RuleSets atomically when an override directory changes.
type RuleSet struct {
	Routine      RuleFile
	BusinessRisk RuleFile
	Vagueness    RuleFile
	Experiment   RuleFile
}

// ruleSources names the file each detector's rules come from.
var ruleSources = map[string]string{
	CategoryRoutine:      "routine_engineering.yaml",
	CategoryBusinessRisk: "business_risk.yaml",
	CategoryVagueness:    "vagueness.yaml",
	CategoryExperiment:   "experimentation.yaml",
}

// embeddedRules maps detector categories to their compiled-in rule
// file contents.
func embeddedRules() map[string][]byte {
	return map[string][]byte{
		CategoryRoutine:      rules.RoutineEngineering,
		CategoryBusinessRisk: rules.BusinessRisk,
		CategoryVagueness:    rules.Vagueness,
		CategoryExperiment:   rules.Experimentation,
	}
}

// DefaultRuleSet parses and compiles the embedded rule files.
//
// The embedded files are validated by tests, so failure here means a
// corrupted build; callers typically treat the error as fatal.
func DefaultRuleSet() (*RuleSet, error) {
	set := &RuleSet{}
	for category, raw := range embeddedRules() {
		if err := set.load(category, raw); err != nil {
			return nil, fmt.Errorf("embedded rules for %s: %w", category, err)
		}
	}
	return set, nil
}

// LoadRuleSet parses and compiles rule files from an override
// directory. Every detector file must be present; a partial override
// is rejected so the rubric cannot silently lose a detector.
func LoadRuleSet(dir string) (*RuleSet, error) {
	set := &RuleSet{}
	for category, filename := range ruleSources {
		raw, err := os.ReadFile(filepath.Join(dir, filename))
		if err != nil {
			return nil, fmt.Errorf("read rules for %s: %w", category, err)
		}
		if err := set.load(category, raw); err != nil {
			return nil, fmt.Errorf("rules for %s: %w", category, err)
		}
	}
	return set, nil
}

// load parses one rule file into the matching RuleSet slot.
func (s *RuleSet) load(category string, raw []byte) error {
	var file RuleFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if file.Detector != category {
		return fmt.Errorf("rule file declares detector %q, want %q", file.Detector, category)
	}
	if len(file.Rules) == 0 {
		return fmt.Errorf("rule file for %s contains no rules", category)
	}
	if err := file.Compile(); err != nil {
		return err
	}
	switch category {
	case CategoryRoutine:
		s.Routine = file
	case CategoryBusinessRisk:
		s.BusinessRisk = file
	case CategoryVagueness:
		s.Vagueness = file
	case CategoryExperiment:
		s.Experiment = file
	default:
		return fmt.Errorf("unknown detector category %q", category)
	}
	return nil
}
