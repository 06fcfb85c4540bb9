package compiler

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for plan construction. Every BuildError aborts the run before
// any action executes.
const (
	ErrCodeUnknownDependency = "UNKNOWN_DEPENDENCY"
	ErrCodeCyclicDependency  = "CYCLIC_DEPENDENCY"
	ErrCodeDuplicateStep     = "DUPLICATE_STEP"
	ErrCodeTemplateInvalid   = "TEMPLATE_INVALID"
	ErrCodeManifestInvalid   = "MANIFEST_INVALID"
)

// Sentinel errors matched with errors.Is.
var (
	ErrDuplicateStep     = errors.New("step with this ID already exists")
	ErrCyclicDependency  = errors.New("cyclic dependency detected")
	ErrUnknownDependency = errors.New("step depends on nonexistent step")
)

// BuildError is a user-friendly plan construction error with an actionable suggestion.
type BuildError struct {
	Code       string   // Error code for categorization
	Message    string   // User-friendly error message
	Provider   string   // Provider that produced the offending step
	StepID     string   // Step ID if applicable
	Cycle      []string // Cycle path for CYCLIC_DEPENDENCY, first element repeated at the end
	Suggestion string   // Actionable suggestion to fix the error
	Underlying error    // Wrapped error for error chain
}

// Error returns the formatted error message.
func (e *BuildError) Error() string {
	var parts []string

	if e.Provider != "" {
		parts = append(parts, fmt.Sprintf("provider %q", e.Provider))
	}
	if e.StepID != "" {
		parts = append(parts, fmt.Sprintf("step %q", e.StepID))
	}

	if len(parts) > 0 {
		return fmt.Sprintf("%s: %s", strings.Join(parts, ", "), e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error for error chain support.
func (e *BuildError) Unwrap() error {
	return e.Underlying
}

// Format returns a fully formatted error with all details.
func (e *BuildError) Format() string {
	var b strings.Builder

	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	if e.Provider != "" {
		fmt.Fprintf(&b, "\n  Provider: %s", e.Provider)
	}
	if e.StepID != "" {
		fmt.Fprintf(&b, "\n  Step: %s", e.StepID)
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "\n  Suggestion: %s", e.Suggestion)
	}
	if e.Underlying != nil {
		fmt.Fprintf(&b, "\n  Cause: %s", e.Underlying.Error())
	}

	return b.String()
}

// WithProvider returns a copy with the provider set.
func (e *BuildError) WithProvider(provider string) *BuildError {
	c := *e
	c.Provider = provider
	return &c
}

// WithStepID returns a copy with the step ID set.
func (e *BuildError) WithStepID(stepID string) *BuildError {
	c := *e
	c.StepID = stepID
	return &c
}

// WithSuggestion returns a copy with the suggestion set.
func (e *BuildError) WithSuggestion(suggestion string) *BuildError {
	c := *e
	c.Suggestion = suggestion
	return &c
}

// NewBuildError creates a BuildError with the given code and message.
func NewBuildError(code, message string) *BuildError {
	return &BuildError{
		Code:    code,
		Message: message,
	}
}

// NewDuplicateStepError creates an error for a step ID declared twice.
func NewDuplicateStepError(stepID string) *BuildError {
	return &BuildError{
		Code:       ErrCodeDuplicateStep,
		Message:    "step with this ID already exists in the plan",
		StepID:     stepID,
		Suggestion: "Each step must have a unique ID. Check for repeated file, repo or command ids in the manifest.",
		Underlying: ErrDuplicateStep,
	}
}

// NewUnknownDependencyError creates an error for a dependency that names no step.
func NewUnknownDependencyError(stepID, dependsOn string) *BuildError {
	return &BuildError{
		Code:       ErrCodeUnknownDependency,
		Message:    fmt.Sprintf("step depends on '%s' which does not exist", dependsOn),
		StepID:     stepID,
		Suggestion: "Check depends_on entries; a dependency on a disabled feature's step is also unknown.",
		Underlying: ErrUnknownDependency,
	}
}

// NewCyclicDependencyError creates an error naming the steps on a cycle.
func NewCyclicDependencyError(cycle []string) *BuildError {
	return &BuildError{
		Code:       ErrCodeCyclicDependency,
		Message:    fmt.Sprintf("cyclic dependency detected: %s", strings.Join(cycle, " → ")),
		Cycle:      cycle,
		Suggestion: "Review your step dependencies to break the circular chain.",
		Underlying: ErrCyclicDependency,
	}
}

// NewTemplateInvalidError creates an error for a template that fails to parse or render.
func NewTemplateInvalidError(stepID string, err error) *BuildError {
	return &BuildError{
		Code:       ErrCodeTemplateInvalid,
		Message:    "template failed to render",
		StepID:     stepID,
		Suggestion: "Check the template syntax and that every referenced variable exists: {{ .Vars.name }}",
		Underlying: err,
	}
}

// NewManifestInvalidError creates an error for a manifest entry that cannot become a step.
func NewManifestInvalidError(message string, err error) *BuildError {
	return &BuildError{
		Code:       ErrCodeManifestInvalid,
		Message:    message,
		Underlying: err,
	}
}

// IsBuildError reports whether err carries a BuildError with the given code.
func IsBuildError(err error, code string) bool {
	var be *BuildError
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}
