// Package execution handles step orchestration and runtime execution.
package execution

import (
	"errors"
	"time"

	"github.com/felixgeelhaar/archstrap/internal/domain/compiler"
	"github.com/felixgeelhaar/archstrap/internal/ports"
)

// Outcome is the terminal state of a step in a run.
type Outcome string

const (
	// OutcomeApplied means the action ran and the postcondition holds.
	OutcomeApplied Outcome = "applied"
	// OutcomeSkipped means the precondition already held.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeFailed means the step did not reach its desired state.
	OutcomeFailed Outcome = "failed"
)

// Reason explains a failed outcome.
type Reason string

const (
	// ReasonNone is used for successful outcomes.
	ReasonNone Reason = ""
	// ReasonTransientFailure means the action kept failing with a transient
	// error until the retry bound was reached.
	ReasonTransientFailure Reason = "TransientFailure"
	// ReasonPermanentFailure means the action failed with an error retrying
	// cannot fix.
	ReasonPermanentFailure Reason = "PermanentFailure"
	// ReasonPostconditionNotMet means the action succeeded but the state did not change.
	ReasonPostconditionNotMet Reason = "PostconditionNotMet"
	// ReasonDependencyFailed means a dependency failed, so the action never ran.
	ReasonDependencyFailed Reason = "DependencyFailed"
	// ReasonAborted means a fatal failure elsewhere stopped scheduling.
	ReasonAborted Reason = "Aborted"
	// ReasonCancelled means the run was interrupted before the action started.
	ReasonCancelled Reason = "Cancelled"
)

// ActionFailed reports whether the action itself returned the error.
func (r Reason) ActionFailed() bool {
	return r == ReasonTransientFailure || r == ReasonPermanentFailure
}

// failureReason maps an action error to its failure reason.
func failureReason(err error) Reason {
	if compiler.Classify(err) == compiler.FailureTransient {
		return ReasonTransientFailure
	}
	return ReasonPermanentFailure
}

// Sentinel errors recorded on results whose step never produced an error.
var (
	ErrPostconditionNotMet = errors.New("postcondition not met after apply")
	ErrDependencyFailed    = errors.New("dependency failed")
	ErrAborted             = errors.New("run aborted after a fatal failure")
)

// StepResult captures the outcome of executing a single step.
type StepResult struct {
	stepID   compiler.StepID
	outcome  Outcome
	reason   Reason
	err      error
	attempts int
	delays   []time.Duration
	duration time.Duration
}

// NewStepResult creates a new StepResult.
func NewStepResult(stepID compiler.StepID, outcome Outcome, err error) StepResult {
	return StepResult{
		stepID:  stepID,
		outcome: outcome,
		err:     err,
	}
}

// StepID returns the ID of the step that was executed.
func (r StepResult) StepID() compiler.StepID {
	return r.stepID
}

// Outcome returns the terminal state of the step.
func (r StepResult) Outcome() Outcome {
	return r.outcome
}

// Reason returns why the step failed.
func (r StepResult) Reason() Reason {
	return r.reason
}

// Error returns any error that occurred during execution.
func (r StepResult) Error() error {
	return r.err
}

// Attempts returns how many times the action was invoked.
func (r StepResult) Attempts() int {
	return r.attempts
}

// Delays returns the backoff waits between attempts.
func (r StepResult) Delays() []time.Duration {
	return r.delays
}

// Duration returns how long the step took to execute.
func (r StepResult) Duration() time.Duration {
	return r.duration
}

// Stderr returns the last stderr line of the failing command, if any.
func (r StepResult) Stderr() string {
	var cmdErr *ports.CommandError
	if errors.As(r.err, &cmdErr) {
		return cmdErr.StderrFragment()
	}
	return ""
}

// Success returns true if the step reached its desired state.
func (r StepResult) Success() bool {
	return r.outcome == OutcomeApplied || r.outcome == OutcomeSkipped
}

// Failed returns true if the step failed.
func (r StepResult) Failed() bool {
	return r.outcome == OutcomeFailed
}

// Skipped returns true if the step was skipped.
func (r StepResult) Skipped() bool {
	return r.outcome == OutcomeSkipped
}

// WithReason returns a new StepResult with the failure reason set.
func (r StepResult) WithReason(reason Reason) StepResult {
	r.reason = reason
	return r
}

// WithAttempts returns a new StepResult with the attempt count and backoff delays set.
func (r StepResult) WithAttempts(attempts int, delays []time.Duration) StepResult {
	r.attempts = attempts
	r.delays = delays
	return r
}

// WithDuration returns a new StepResult with duration set.
func (r StepResult) WithDuration(d time.Duration) StepResult {
	r.duration = d
	return r
}
