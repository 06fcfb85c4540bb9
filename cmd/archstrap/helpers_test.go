package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/archstrap/internal/adapters/filesystem"
	"github.com/felixgeelhaar/archstrap/internal/app"
	"github.com/felixgeelhaar/archstrap/internal/domain/config"
	"github.com/felixgeelhaar/archstrap/internal/manifests"
	"github.com/felixgeelhaar/archstrap/internal/ports"
	"github.com/felixgeelhaar/archstrap/internal/testutil/mocks"
)

const testManifest = `
features:
  - name: base
    default: true
    critical: true
    packages: [git]
  - name: docker
    default: false
    packages: [docker]
    services:
      - name: docker.service
    groups: [docker]
`

// cliEnv replaces the process collaborators of the CLI for one test.
type cliEnv struct {
	fs      *filesystem.AferoFileSystem
	runner  *mocks.CommandRunner
	users   *mocks.UserLookup
	environ []string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()

	fs := filesystem.NewMemFileSystem()
	require.NoError(t, fs.WriteFile("/work/archstrap.yaml", []byte(testManifest), 0o644))

	runner := mocks.NewCommandRunner()
	runner.SetDefault(ports.CommandResult{})

	return &cliEnv{
		fs:     fs,
		runner: runner,
		users:  mocks.NewUserLookup(ports.UserInfo{Name: "alice", UID: "1000", GID: "1000", Home: "/home/alice"}),
	}
}

// install swaps the package-level collaborators and restores them when the
// test ends.
func (e *cliEnv) install(t *testing.T) {
	t.Helper()

	prevNew, prevEnviron, prevFS, prevLog := newArchstrap, environ, envFS, logOutput
	t.Cleanup(func() {
		newArchstrap, environ, envFS, logOutput = prevNew, prevEnviron, prevFS, prevLog
	})

	newArchstrap = func(out io.Writer) *app.Archstrap {
		return app.NewWithDeps(out, app.Deps{
			Runner:   e.runner,
			FS:       e.fs,
			Users:    e.users,
			Tools:    mocks.NewToolLocator(),
			Hostname: func() (string, error) { return "arch", nil },
			Euid:     1000,
			LoaderOptions: []config.LoaderOption{
				config.WithWorkDir("/work"),
				config.WithEmbedded(manifests.Default),
				config.WithXDGSearch(func(string) (string, error) { return "", errors.New("not found") }),
			},
			Sleeper: func(context.Context, time.Duration) error { return nil },
		})
	}
	environ = func() []string { return e.environ }
	envFS = e.fs
	logOutput = io.Discard
}

// resetFlags restores every flag to its default between executions.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// executeCommand runs the root command and returns stdout, stderr and the exit code.
func executeCommand(t *testing.T, args ...string) (string, string, int) {
	t.Helper()

	resetFlags(rootCmd)
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	code := Execute(context.Background())
	return stdout.String(), stderr.String(), code
}
