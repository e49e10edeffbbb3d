package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/perdasilva/planr/pkg/planner"
	"github.com/perdasilva/planr/pkg/resolution"
	"github.com/perdasilva/planr/pkg/solver"
)

// errSolveFailed marks a run where the solver produced a failure
// report; the report is already printed when it surfaces.
var errSolveFailed = errors.New("solve failed")

var (
	inputFlag   string
	configFlag  string
	policyFlag  string
	libraryFlag string
	verboseFlag bool
	problemFlag bool
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve a resolved candidate table into an installation plan",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSolve(cmd.OutOrStdout())
	},
}

func init() {
	solveCmd.Flags().StringVarP(&inputFlag, "input", "i", "", "resolution table JSON (required)")
	solveCmd.Flags().StringVarP(&configFlag, "config", "c", "", "planner config YAML")
	solveCmd.Flags().StringVarP(&policyFlag, "policy", "p", "", "solve policy: lazy or upgrade")
	solveCmd.Flags().StringVarP(&libraryFlag, "library", "l", "", "target package library")
	solveCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "log solver progress")
	solveCmd.Flags().BoolVar(&problemFlag, "show-problem", false, "print the ILP problem before solving")
	_ = solveCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(solveCmd)
}

func runSolve(out io.Writer) error {
	cfg := planner.Config{}
	if configFlag != "" {
		loaded, err := planner.LoadConfig(configFlag)
		if err != nil {
			return err
		}
		cfg = *loaded
	}
	if policyFlag != "" {
		cfg.Policy = policyFlag
	}
	if libraryFlag != "" {
		cfg.Library = libraryFlag
	}

	res, err := resolution.LoadTable(inputFlag)
	if err != nil {
		return err
	}

	opts := []planner.Option{}
	if verboseFlag {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return errors.Wrap(err, "could not build logger")
		}
		defer func() { _ = logger.Sync() }()
		opts = append(opts, planner.WithLogger(logger))
	}

	result, err := planner.New(cfg, opts...).Solve(context.Background(), res)
	if err != nil {
		return err
	}
	if problemFlag {
		fmt.Fprint(out, result.Problem.String())
	}
	return renderResult(out, result)
}

func renderResult(out io.Writer, result *solver.Result) error {
	if result.Status == solver.StatusFailed {
		color.New(color.FgRed, color.Bold).Fprintln(out, "Cannot install all requested packages:")
		color.New(color.FgRed).Fprint(out, result.Failures.String())
		return errSolveFailed
	}

	color.New(color.FgGreen, color.Bold).Fprintln(out, "Installation plan:")
	for _, i := range result.Selected {
		c := result.Problem.Candidates[i]
		marker := " "
		if c.Direct {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %s %s\n", marker, c.Ref, c.Version)
	}
	return nil
}
