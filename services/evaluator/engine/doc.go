// Copyright (C) 2025 Attestix Labs (eng@attestix.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package engine provides deterministic compliance scoring for R&D
// narratives against the Section 41 qualification rubric.
//
// The engine runs five independent pattern detectors over a narrative
// and aggregates their penalties into a 0-100 risk score, a binary
// qualification classification, and an itemized redline of findings.
//
// # Architecture
//
// The evaluation follows a five-detector model:
//
//	┌─────────────────────────────────────────────────────────────────┐
//	│                     Evaluation Pipeline                         │
//	├─────────────────────────────────────────────────────────────────┤
//	│                                                                  │
//	│  Narrative text                                                  │
//	│         │                                                        │
//	│         ▼                                                        │
//	│  ┌──────────┬──────────┬──────────┬──────────────┬───────────┐  │
//	│  │ Routine  │ Business │ Vagueness│ Experiment-  │Specificity│  │
//	│  │ Engineer.│  Risk    │          │ ation        │           │  │
//	│  │ (cap 30) │ (cap 20) │ (cap 25) │ (cap 15)     │ (cap 10)  │  │
//	│  └──────────┴──────────┴──────────┴──────────────┴───────────┘  │
//	│         │          │         │          │              │         │
//	│         └──────────┴────┬────┴──────────┴──────────────┘         │
//	│                         ▼                                        │
//	│                  ┌──────────────┐                                │
//	│                  │  Evaluator   │                                │
//	│                  └──────────────┘                                │
//	│                         │                                        │
//	│                         ▼                                        │
//	│     Risk score (0-100) + classification + redline                │
//	│                                                                  │
//	└─────────────────────────────────────────────────────────────────┘
//
// # Detectors
//
// Routine-Engineering, Business-Risk, Vagueness:
//   - Phrase-pattern detectors driven by embedded YAML rule files.
//   - Each unique matched rule adds a fixed per-match penalty.
//
// Experimentation-Evidence:
//   - Counts positive indicators (hypothesis, failure, iteration,
//     alternatives). Strong evidence removes the penalty entirely.
//
// Specificity:
//   - Counts quantitative indicators (numbers with units, dates,
//     error codes) and applies an anti-gaming rule that penalizes
//     metric stuffing instead of rewarding raw metric counts.
//
// # Determinism
//
// Evaluate is referentially transparent: identical input text always
// yields an identical result, including issue ordering. There is no
// randomness, no clock dependence, and no I/O on the scoring path.
// Detector logic is total; empty or whitespace-only input yields the
// maximum-risk result rather than an error.
//
// # Thread Safety
//
// All exported types in this package are safe for concurrent use.
// Detectors and the Evaluator hold no mutable state across calls.
//
// # Algorithm Versioning
//
// The scoring algorithm is versioned to ensure reproducibility.
// When making changes that affect score calculations, increment the
// AlgorithmVersion constant.
package engine
