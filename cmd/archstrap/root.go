package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/archstrap/internal/adapters/filesystem"
	"github.com/felixgeelhaar/archstrap/internal/adapters/logging"
	"github.com/felixgeelhaar/archstrap/internal/app"
	"github.com/felixgeelhaar/archstrap/internal/domain/compiler"
	"github.com/felixgeelhaar/archstrap/internal/domain/config"
	"github.com/felixgeelhaar/archstrap/internal/ports"
)

var (
	// Global flags
	manifestPath string
	envFile      string
	targetUser   string
	verbose      bool
	logFormat    string
)

// Process state is read only through these, so tests can replace them.
var (
	newArchstrap = func(out io.Writer) *app.Archstrap { return app.New(out) }
	environ      = os.Environ
	envFS        ports.FileSystem = filesystem.NewOSFileSystem()
	logOutput    io.Writer        = os.Stderr
)

var rootCmd = &cobra.Command{
	Use:   "archstrap",
	Short: "Declarative, idempotent Arch Linux desktop bootstrap",
	Long: `archstrap compiles a manifest into a dependency-ordered plan of steps
and brings an Arch Linux desktop to the declared state.

Each step is skipped when its precondition already holds, applied otherwise
and verified afterwards:
  Manifest → Plan → Probe → Apply → Verify

Features are toggled with ENABLE_<FEATURE>=1|0 in the environment or in an
env file.`,
	SilenceErrors: true, // We handle error formatting ourselves
	SilenceUsage:  true, // Don't show usage on error
}

// exitError carries a non-zero exit code for a run whose output has already
// been written.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context) int {
	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}

	printErrorTo(rootCmd.ErrOrStderr(), err)
	return app.ExitCode(err)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&manifestPath, "manifest", "m", "", "manifest file (default: ./archstrap.yaml, then $XDG_CONFIG_HOME/archstrap/manifest.yaml, then the built-in manifest)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", config.DefaultEnvFile, "env file with ENABLE_* flags")
	rootCmd.PersistentFlags().StringVar(&targetUser, "user", "", "target user (default: $SUDO_USER, then the current user)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", string(logging.FormatAuto), "log format (auto, console, json)")

	registerFlagCompletions()

	rootCmd.AddCommand(versionCmd)
}

// baseOptions assembles the run options from the global flags and the
// process environment.
func baseOptions(cmd *cobra.Command) (config.Options, error) {
	opts := config.DefaultOptions()

	required := cmd.Flags().Changed("env-file")
	env, err := config.LoadEnv(envFS, environ(), envFile, required)
	if err != nil {
		return opts, err
	}

	opts.ManifestPath = manifestPath
	opts.EnvFile = envFile
	opts.Env = env
	opts.User = targetUser
	opts.SudoUser = config.EnvFromEnviron(environ())["SUDO_USER"]
	opts.Verbose = verbose
	return opts, nil
}

// newLogger builds the run logger from the global flags.
func newLogger() (ports.Logger, error) {
	format := logging.Format(logFormat)
	switch format {
	case logging.FormatAuto, logging.FormatConsole, logging.FormatJSON:
	default:
		return nil, config.NewInvalidFlagError("--log-format", logFormat)
	}

	level := ports.LevelInfo
	if verbose {
		level = ports.LevelDebug
	}
	return logging.NewZerologLogger(
		logging.WithOutput(logOutput),
		logging.WithFormat(format),
		logging.WithLevel(level),
	), nil
}

// newApp creates the application writing to the command's output.
func newApp(cmd *cobra.Command) (*app.Archstrap, error) {
	logger, err := newLogger()
	if err != nil {
		return nil, err
	}
	return newArchstrap(cmd.OutOrStdout()).WithLogger(logger), nil
}

// formatError returns a user-friendly error message.
// With verbose=false: shows only the user message and suggestion.
// With verbose=true: also shows the underlying technical error.
func formatError(err error) string {
	var list *config.ErrorList
	if errors.As(err, &list) {
		return strings.TrimRight(list.Format(), "\n")
	}

	var userErr *config.UserError
	if errors.As(err, &userErr) {
		msg := userErr.Message
		if userErr.Context != "" {
			msg += fmt.Sprintf(" (at %s)", userErr.Context)
		}
		if userErr.Suggestion != "" {
			msg += fmt.Sprintf("\n\nSuggestion: %s", userErr.Suggestion)
		}
		if verbose && userErr.Underlying != nil {
			msg += fmt.Sprintf("\n\nTechnical details: %v", userErr.Underlying)
		}
		return msg
	}

	var buildErr *compiler.BuildError
	if errors.As(err, &buildErr) {
		msg := buildErr.Error()
		if len(buildErr.Cycle) > 0 {
			msg += fmt.Sprintf("\n\nCycle: %s", strings.Join(buildErr.Cycle, " → "))
		}
		if buildErr.Suggestion != "" {
			msg += fmt.Sprintf("\n\nSuggestion: %s", buildErr.Suggestion)
		}
		if verbose && buildErr.Underlying != nil {
			msg += fmt.Sprintf("\n\nTechnical details: %v", buildErr.Underlying)
		}
		return msg
	}

	var probeErr *app.ProbeError
	if errors.As(err, &probeErr) {
		msg := probeErr.Message
		if probeErr.Suggestion != "" {
			msg += fmt.Sprintf("\n\nSuggestion: %s", probeErr.Suggestion)
		}
		if verbose && probeErr.Err != nil {
			msg += fmt.Sprintf("\n\nTechnical details: %v", probeErr.Err)
		}
		return msg
	}

	return err.Error()
}

// printErrorTo prints an error message to the given writer.
func printErrorTo(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "Error: %s\n", formatError(err))
}

// registerFlagCompletions sets up custom completions for global flags.
func registerFlagCompletions() {
	// Complete --manifest with manifest files
	_ = rootCmd.RegisterFlagCompletionFunc("manifest", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"yaml", "yml", "toml"}, cobra.ShellCompDirectiveFilterFileExt
	})

	// Complete --log-format with known formats
	_ = rootCmd.RegisterFlagCompletionFunc("log-format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{
			"auto\tConsole on a terminal, JSON otherwise",
			"console\tHuman-readable lines",
			"json\tOne JSON object per line",
		}, cobra.ShellCompDirectiveNoFileComp
	})
}
