package compiler

// Step is a declarative unit of desired state.
// The executor skips a step whose precondition already holds, applies it
// otherwise, and verifies the result with the postcondition.
type Step interface {
	// ID returns the unique, run-stable identifier for this step.
	ID() StepID

	// Description returns a human-readable summary for logs.
	Description() string

	// DependsOn returns the IDs of steps that must succeed before this one.
	DependsOn() []StepID

	// Retryable reports whether transient failures of Apply are retried.
	Retryable() bool

	// Precondition reports whether the desired state already holds.
	// An error means the state is unknown; callers treat that as "not met".
	Precondition(ctx RunContext) (bool, error)

	// Apply performs the side-effecting action.
	Apply(ctx RunContext) error

	// Postcondition reports whether the desired state holds after Apply.
	Postcondition(ctx RunContext) (bool, error)

	// Plan returns the diff describing what Apply would change.
	Plan(ctx RunContext) (Diff, error)
}

// ParallelStep is implemented by steps whose action is independent of every
// other parallel-safe action and may run in a worker pool.
type ParallelStep interface {
	Step
	ParallelSafe() bool
}

// ToolStep is implemented by steps that invoke external executables.
type ToolStep interface {
	Step
	Tools() []string
}

// CriticalStep is implemented by steps whose failure must stop scheduling of
// every remaining step, not only of its dependents.
type CriticalStep interface {
	Step
	Critical() bool
}

// IsParallelSafe reports whether a step may run concurrently with other
// parallel-safe steps.
func IsParallelSafe(step Step) bool {
	p, ok := step.(ParallelStep)
	return ok && p.ParallelSafe()
}

// IsCritical reports whether a step's failure halts the run.
func IsCritical(step Step) bool {
	c, ok := step.(CriticalStep)
	return ok && c.Critical()
}

// RequiredTools returns the external executables a step needs.
func RequiredTools(step Step) []string {
	if t, ok := step.(ToolStep); ok {
		return t.Tools()
	}
	return nil
}
