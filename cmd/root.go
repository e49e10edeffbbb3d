// Package cmd implements the planr command-line interface: solving a
// resolved candidate table into an installation plan and rendering
// the plan or its failure report.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var exitFunc = os.Exit

const (
	exitOK = iota
	exitSolveFailed
	exitUsage
)

var rootCmd = &cobra.Command{
	Use:           "planr",
	Short:         "Dependency solver for R package installation plans",
	Long:          `planr selects a minimal, consistent set of package candidates satisfying all requested packages and their dependencies, or explains why none exists.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// Execute runs the root command and exits: 0 on success, 1 when the
// solve produced a failure report, 2 on usage or load errors.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if err == errSolveFailed {
			exitFunc(exitSolveFailed)
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitFunc(exitUsage)
	}
}
