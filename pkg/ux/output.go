// Copyright (C) 2025 Attestix Labs (eng@attestix.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux provides terminal output styling for the redline CLI.
package ux

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/attestix/redline/services/evaluator/engine"
)

// Redline color palette - editorial reds and paper grays
var (
	ColorRedBright  = lipgloss.Color("#E84855") // Bright red - redline marks, failures
	ColorRedPrimary = lipgloss.Color("#C33149") // Primary red - main brand color
	ColorInk        = lipgloss.Color("#2B2D42") // Ink - titles, emphasis
	ColorGraphite   = lipgloss.Color("#5C6370") // Graphite - muted text, borders
	ColorPaper      = lipgloss.Color("#EDF2F4") // Paper - light backgrounds

	// Semantic colors
	ColorSuccess = lipgloss.Color("#3CB371") // Green for qualifying verdicts
	ColorWarning = lipgloss.Color("#F4D03F") // Gold for moderate risk
	ColorError   = lipgloss.Color("#E84855") // Red for failures
	ColorMuted   = lipgloss.Color("#5C6370") // Graphite for muted text
)

// Styles provides pre-configured lipgloss styles
var Styles = struct {
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Bold      lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Highlight lipgloss.Style

	Box     lipgloss.Style
	InfoBox lipgloss.Style
}{
	Title:     lipgloss.NewStyle().Bold(true).Foreground(ColorRedPrimary),
	Subtitle:  lipgloss.NewStyle().Foreground(ColorGraphite),
	Bold:      lipgloss.NewStyle().Bold(true),
	Muted:     lipgloss.NewStyle().Foreground(ColorMuted),
	Success:   lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning:   lipgloss.NewStyle().Foreground(ColorWarning),
	Error:     lipgloss.NewStyle().Foreground(ColorError),
	Highlight: lipgloss.NewStyle().Foreground(ColorRedBright).Bold(true),

	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorGraphite).
		Padding(0, 1),
	InfoBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorRedPrimary).
		Padding(0, 1),
}

// Icon provides themed status icons
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconArrow   Icon = "→"
	IconBullet  Icon = "•"
)

// Render returns the icon with appropriate styling
func (i Icon) Render() string {
	switch i {
	case IconSuccess:
		return Styles.Success.Render(string(i))
	case IconWarning:
		return Styles.Warning.Render(string(i))
	case IconError:
		return Styles.Error.Render(string(i))
	default:
		return string(i)
	}
}

// IsInteractive reports whether stdout is a terminal. Plain output is
// used when piping to files or other programs.
func IsInteractive() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// ClassificationStyle returns the style for a qualification verdict.
func ClassificationStyle(c engine.Classification) lipgloss.Style {
	if c == engine.Qualifying {
		return Styles.Success
	}
	return Styles.Error
}

// SeverityStyle returns the style for an issue severity.
func SeverityStyle(s engine.Severity) lipgloss.Style {
	switch s {
	case engine.SeverityCritical, engine.SeverityHigh:
		return Styles.Error
	case engine.SeverityMedium:
		return Styles.Warning
	default:
		return Styles.Muted
	}
}

// Title prints a styled title when interactive, plain text otherwise.
func Title(text string) {
	if IsInteractive() {
		fmt.Println(Styles.Title.Render(text))
		return
	}
	fmt.Println(text)
}

// Success prints a success message with checkmark.
func Success(text string) {
	if IsInteractive() {
		fmt.Printf("%s %s\n", IconSuccess.Render(), Styles.Success.Render(text))
		return
	}
	fmt.Printf("OK: %s\n", text)
}

// Warning prints a warning message.
func Warning(text string) {
	if IsInteractive() {
		fmt.Printf("%s %s\n", IconWarning.Render(), Styles.Warning.Render(text))
		return
	}
	fmt.Fprintf(os.Stderr, "WARN: %s\n", text)
}

// Error prints an error message.
func Error(text string) {
	if IsInteractive() {
		fmt.Printf("%s %s\n", IconError.Render(), Styles.Error.Render(text))
		return
	}
	fmt.Fprintf(os.Stderr, "ERROR: %s\n", text)
}
