package main

import (
	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show what apply would change",
	Long: `Plan builds the step graph, probes each step and prints the ordered
steps with their status and, for files, a content diff. Nothing is changed.

Use --no-probe to print the bare step order without touching the system.`,
	RunE: runPlan,
}

var planNoProbe bool

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().BoolVar(&planNoProbe, "no-probe", false, "print the step order without probing the system")
}

func runPlan(cmd *cobra.Command, _ []string) error {
	opts, err := baseOptions(cmd)
	if err != nil {
		return err
	}
	opts.NoProbe = planNoProbe

	archstrap, err := newApp(cmd)
	if err != nil {
		return err
	}

	plan, build, err := archstrap.Plan(cmd.Context(), opts)
	if err != nil {
		return err
	}

	if planNoProbe {
		archstrap.PrintOrder(plan)
		return nil
	}
	archstrap.PrintPlan(plan, build)
	return nil
}
