package app

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/archstrap/internal/domain/compiler"
	"github.com/felixgeelhaar/archstrap/internal/domain/config"
	"github.com/felixgeelhaar/archstrap/internal/domain/execution"
)

// Process exit codes beyond those of a completed run.
const (
	ExitBuildError = 2
	ExitProbeError = 3
)

// ProbeError marks a failure that prevents determining the state of the
// system, such as an unresolvable target user or a missing tool.
type ProbeError struct {
	Message    string
	Suggestion string
	Err        error
}

// Error returns the error message.
func (e *ProbeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *ProbeError) Unwrap() error {
	return e.Err
}

// NewProbeError creates a ProbeError.
func NewProbeError(message string, err error) *ProbeError {
	return &ProbeError{Message: message, Err: err}
}

// WithSuggestion adds a suggestion to the error.
func (e *ProbeError) WithSuggestion(suggestion string) *ProbeError {
	e.Suggestion = suggestion
	return e
}

// ExitCode maps an error returned by a command to the process exit code.
// A nil error maps to success; step failures are reported through the run
// report, not through an error.
func ExitCode(err error) int {
	if err == nil {
		return execution.ExitSuccess
	}

	var probeErr *ProbeError
	if errors.As(err, &probeErr) {
		return ExitProbeError
	}

	var buildErr *compiler.BuildError
	if errors.As(err, &buildErr) {
		return ExitBuildError
	}
	var userErr *config.UserError
	if errors.As(err, &userErr) {
		return ExitBuildError
	}
	var list *config.ErrorList
	if errors.As(err, &list) {
		return ExitBuildError
	}

	return execution.ExitStepFailure
}
