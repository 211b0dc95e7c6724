// Copyright (C) 2025 Attestix Labs (eng@attestix.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/attestix/redline/services/evaluator/engine"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// Exit codes shared by all subcommands.
const (
	ExitQualifying    = 0
	ExitNonQualifying = 1
	ExitError         = 2
)

var (
	rootCmd = &cobra.Command{
		Use:   "redline",
		Short: "A cli to score R&D narratives against the qualification rubric",
		Long: `Redline evaluates research and development narratives with a
deterministic detector pipeline, produces a redline of issues with
suggested revisions, and can iteratively refine a narrative against
an LLM generator until it qualifies.`,
		SilenceUsage: true,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version and scoring algorithm information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("redline %s (algorithm %s, api %s)\n",
				Version, engine.AlgorithmVersion, engine.APIVersion)
		},
	}
)

func init() {
	rootCmd.AddCommand(versionCmd)
}
