// Package ports defines interfaces for external dependencies.
package ports

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrCommandTimeout is returned by runners when a command exceeds its deadline.
var ErrCommandTimeout = errors.New("command timed out")

// CommandResult represents the result of executing an external command.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success returns true if the command exited with code 0.
func (r CommandResult) Success() bool {
	return r.ExitCode == 0
}

// CommandCall records a command invocation.
type CommandCall struct {
	Command string
	Args    []string
}

// String renders the call as it would be typed in a terminal.
func (c CommandCall) String() string {
	if len(c.Args) == 0 {
		return c.Command
	}
	return c.Command + " " + strings.Join(c.Args, " ")
}

// CommandRunner executes external commands with an argument vector.
// A non-zero exit code is reported through CommandResult, not as an error;
// errors are reserved for commands that could not be started or timed out.
type CommandRunner interface {
	Run(ctx context.Context, command string, args ...string) (CommandResult, error)
}

// ToolLocator resolves executables on the PATH.
type ToolLocator interface {
	LookPath(name string) (string, error)
}

// CommandError describes an external command that exited unsuccessfully.
type CommandError struct {
	Call     CommandCall
	ExitCode int
	Stderr   string
}

// NewCommandError builds a CommandError from a call and its result.
func NewCommandError(command string, args []string, result CommandResult) *CommandError {
	return &CommandError{
		Call:     CommandCall{Command: command, Args: args},
		ExitCode: result.ExitCode,
		Stderr:   result.Stderr,
	}
}

// Error returns the formatted error message.
func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", e.Call.String(), e.ExitCode)
	if frag := e.StderrFragment(); frag != "" {
		msg += ": " + frag
	}
	return msg
}

// StderrFragment returns the last non-empty stderr line, truncated to 200 bytes.
func (e *CommandError) StderrFragment() string {
	return LastLine(e.Stderr, 200)
}

// LastLine returns the last non-empty line of s, truncated to max bytes.
func LastLine(s string, max int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if max > 0 && len(line) > max {
			return line[:max]
		}
		return line
	}
	return ""
}
