// Copyright (C) 2025 Attestix Labs (eng@attestix.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

/*
Package rules bakes the default detector rule files into the compiled
binary via the Go embed package. Embedding keeps the scoring rubric
immutable at runtime and lets the evaluator binary travel without a
config directory; an operator can still supply an override directory,
which is parsed with the same schema.
*/
package rules

import (
	_ "embed"
)

// RoutineEngineering holds the raw bytes of routine_engineering.yaml.
//
//go:embed routine_engineering.yaml
var RoutineEngineering []byte

// BusinessRisk holds the raw bytes of business_risk.yaml.
//
//go:embed business_risk.yaml
var BusinessRisk []byte

// Vagueness holds the raw bytes of vagueness.yaml.
//
//go:embed vagueness.yaml
var Vagueness []byte

// Experimentation holds the raw bytes of experimentation.yaml.
//
//go:embed experimentation.yaml
var Experimentation []byte
