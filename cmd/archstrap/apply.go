package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/archstrap/internal/domain/config"
	"github.com/felixgeelhaar/archstrap/internal/domain/execution"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Bring the system to the state the manifest declares",
	Long: `Apply builds the plan and executes it.

Steps run in dependency order. A step whose precondition already holds is
skipped; otherwise its action runs and its postcondition is verified.
Transient failures of retryable steps are retried with exponential backoff.

Exit codes:
  0 - Every step succeeded or was already satisfied
  1 - At least one step failed
  2 - The manifest could not be compiled
  3 - The system state could not be probed (target user, missing tools)`,
	RunE: runApply,
}

var (
	applyParallel int
	applyFailFast bool
	applyRetries  int
	applyBackoff  time.Duration
	applyOutput   string
)

func init() {
	rootCmd.AddCommand(applyCmd)

	applyCmd.Flags().IntVar(&applyParallel, "parallel", config.DefaultParallel, "maximum parallel-safe steps run at once")
	applyCmd.Flags().BoolVar(&applyFailFast, "fail-fast", false, "stop scheduling new steps after the first failure")
	applyCmd.Flags().IntVar(&applyRetries, "retries", config.DefaultRetries, "attempts for retryable steps (1-10)")
	applyCmd.Flags().DurationVar(&applyBackoff, "backoff", config.DefaultBackoff, "wait before the first retry; doubles on every retry up to 1m")
	applyCmd.Flags().StringVarP(&applyOutput, "output", "o", string(config.OutputText), "output format (text, json)")
}

func runApply(cmd *cobra.Command, _ []string) error {
	opts, err := baseOptions(cmd)
	if err != nil {
		return err
	}
	opts.Parallel = applyParallel
	opts.FailFast = applyFailFast
	opts.Retries = applyRetries
	opts.Backoff = applyBackoff
	opts.Output = config.OutputFormat(applyOutput)

	archstrap, err := newApp(cmd)
	if err != nil {
		return err
	}

	run, err := archstrap.Apply(cmd.Context(), opts)
	if err != nil {
		return err
	}

	if opts.Output == config.OutputJSON {
		if err := archstrap.WriteRunJSON(run); err != nil {
			return err
		}
	} else {
		archstrap.PrintRun(run)
	}

	if run.Report.ExitCode != execution.ExitSuccess {
		return &exitError{code: run.Report.ExitCode}
	}
	return nil
}
