// Package commandutil holds the command-running conventions shared by providers.
package commandutil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/felixgeelhaar/archstrap/internal/domain/compiler"
	"github.com/felixgeelhaar/archstrap/internal/domain/config"
	"github.com/felixgeelhaar/archstrap/internal/ports"
)

// IsCommandNotFound reports whether an error indicates a missing executable.
func IsCommandNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}
	var execErr *exec.Error
	if errors.As(err, &execErr) && errors.Is(execErr.Err, exec.ErrNotFound) {
		return true
	}
	var pathErr *os.PathError
	if errors.As(err, &pathErr) && errors.Is(pathErr.Err, os.ErrNotExist) {
		return true
	}
	return false
}

// Run executes a command and turns a non-zero exit into a *ports.CommandError.
// A missing executable is a permanent failure; timeouts keep their
// ports.ErrCommandTimeout identity so they classify as transient.
func Run(ctx context.Context, runner ports.CommandRunner, command string, args ...string) (ports.CommandResult, error) {
	result, err := runner.Run(ctx, command, args...)
	if err != nil {
		if IsCommandNotFound(err) {
			return result, compiler.Permanent(fmt.Errorf("%s: %w", command, err))
		}
		return result, fmt.Errorf("%s: %w", ports.CommandCall{Command: command, Args: args}, err)
	}
	if !result.Success() {
		return result, ports.NewCommandError(command, args, result)
	}
	return result, nil
}

// ClassifyStderr marks a command failure transient when its stderr contains
// one of the markers, and permanent otherwise. Errors that are not command
// failures are returned unchanged.
func ClassifyStderr(err error, markers ...string) error {
	var cmdErr *ports.CommandError
	if !errors.As(err, &cmdErr) {
		return err
	}
	stderr := strings.ToLower(cmdErr.Stderr)
	for _, marker := range markers {
		if strings.Contains(stderr, strings.ToLower(marker)) {
			return compiler.Transient(err)
		}
	}
	return compiler.Permanent(err)
}

// AsUser wraps a command so it runs as the given account through runuser.
// HOME and USER are reset so per-user tools write into the account's home.
// An empty user name leaves the command unchanged.
func AsUser(user config.TargetUser, command string, args ...string) (string, []string) {
	if user.Name == "" {
		return command, args
	}
	wrapped := make([]string, 0, len(args)+7)
	wrapped = append(wrapped, "-u", user.Name, "--", "env", "HOME="+user.Home, "USER="+user.Name, command)
	wrapped = append(wrapped, args...)
	return "runuser", wrapped
}
