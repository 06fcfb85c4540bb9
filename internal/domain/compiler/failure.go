package compiler

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/archstrap/internal/ports"
)

// FailureClass classifies an action error for the retry policy.
type FailureClass string

const (
	// FailureTransient may succeed on a later attempt.
	FailureTransient FailureClass = "transient"
	// FailurePermanent will not succeed without a change to the system or manifest.
	FailurePermanent FailureClass = "permanent"
)

type classifiedError struct {
	class FailureClass
	err   error
}

func (e *classifiedError) Error() string { return e.err.Error() }
func (e *classifiedError) Unwrap() error { return e.err }

// Transient marks err as worth retrying.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &classifiedError{class: FailureTransient, err: err}
}

// Permanent marks err as not worth retrying, overriding any inner classification.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &classifiedError{class: FailurePermanent, err: err}
}

// Classify returns the failure class of err.
// The outermost explicit marking wins; otherwise command timeouts and
// context deadlines are transient and everything else is permanent.
func Classify(err error) FailureClass {
	var ce *classifiedError
	if errors.As(err, &ce) {
		return ce.class
	}
	if errors.Is(err, ports.ErrCommandTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return FailureTransient
	}
	return FailurePermanent
}

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool {
	return err != nil && Classify(err) == FailureTransient
}
