// Copyright (C) 2025 Attestix Labs (eng@attestix.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package validation provides input validation utilities for
// request-facing surfaces.
//
// Narratives are free text and deliberately unauthenticated in
// content; validation here bounds resource usage, it does not judge
// quality. An empty narrative is valid input.
package validation

import (
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxNarrativeBytes bounds narrative payloads. 1 MiB is far beyond
// any plausible project narrative and keeps regexp scans cheap.
const MaxNarrativeBytes = 1 << 20

// ValidateNarrative bounds and sanity-checks a narrative payload.
// Empty text is valid; the engine scores it as maximum risk.
func ValidateNarrative(text string) error {
	if len(text) > MaxNarrativeBytes {
		return fmt.Errorf("narrative exceeds %d bytes (got %d)", MaxNarrativeBytes, len(text))
	}
	if !utf8.ValidString(text) {
		return fmt.Errorf("narrative is not valid UTF-8")
	}
	return nil
}

// ValidateRunID checks that a caller-supplied run identifier is a
// well-formed UUID before it is used in log queries or file names.
func ValidateRunID(id string) error {
	if id == "" {
		return fmt.Errorf("run id cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid run id %q: %w", id, err)
	}
	return nil
}
