// Package command provides command execution adapters.
package command

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/felixgeelhaar/archstrap/internal/ports"
)

// DefaultTimeout bounds a single command when no other deadline applies.
const DefaultTimeout = 10 * time.Minute

// ErrTimeout is returned when a command exceeds its timeout.
var ErrTimeout = ports.ErrCommandTimeout

// RealRunner executes actual commands without a shell.
type RealRunner struct {
	timeout time.Duration
}

// NewRealRunner creates a new RealRunner with the default timeout.
func NewRealRunner() *RealRunner {
	return &RealRunner{timeout: DefaultTimeout}
}

// WithTimeout returns a RealRunner that bounds every command by d.
func (r *RealRunner) WithTimeout(d time.Duration) *RealRunner {
	return &RealRunner{timeout: d}
}

// Timeout returns the per-command timeout.
func (r *RealRunner) Timeout() time.Duration {
	return r.timeout
}

// Run executes a command and returns the result.
// A non-zero exit code is not an error; a timeout or a missing executable is.
func (r *RealRunner) Run(ctx context.Context, command string, args ...string) (ports.CommandResult, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, command, args...)
	// Force untranslated tool output so probes can parse it.
	cmd.Env = append(os.Environ(), "LC_ALL=C")
	cmd.WaitDelay = 5 * time.Second

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := ports.CommandResult{
		ExitCode: 0,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}

	if ctx.Err() != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		result.ExitCode = -1
		return result, fmt.Errorf("%w after %s: %s", ErrTimeout, r.timeout, ports.CommandCall{Command: command, Args: args})
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, err
	}

	return result, nil
}

// LookPath resolves an executable on the PATH.
func (r *RealRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// Ensure RealRunner implements the command ports.
var (
	_ ports.CommandRunner = (*RealRunner)(nil)
	_ ports.ToolLocator   = (*RealRunner)(nil)
)
