package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the manifest without probing or changing the system",
	Long: `Validate loads the manifest, resolves feature flags and the target user,
and compiles the step graph.

Exit codes:
  0 - The manifest compiles
  2 - The manifest is invalid (parse error, unknown dependency, cycle)
  3 - The target user could not be resolved`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	opts, err := baseOptions(cmd)
	if err != nil {
		return err
	}

	archstrap, err := newApp(cmd)
	if err != nil {
		return err
	}

	build, err := archstrap.Validate(cmd.Context(), opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "✓ %s is valid\n", build.Source)
	_, _ = fmt.Fprintf(out, "  user:     %s\n", build.User.Name)
	_, _ = fmt.Fprintf(out, "  features: %s\n", strings.Join(build.Flags.EnabledNames(), ", "))
	_, _ = fmt.Fprintf(out, "  steps:    %d\n", build.Graph.Len())
	return nil
}
