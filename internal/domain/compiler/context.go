package compiler

import "context"

// RunContext is handed to every Precondition, Apply, Postcondition and Plan call.
type RunContext struct {
	ctx     context.Context
	attempt int
}

// NewRunContext creates a new RunContext with the given context.
func NewRunContext(ctx context.Context) RunContext {
	return RunContext{
		ctx:     ctx,
		attempt: 1,
	}
}

// Context returns the underlying context.Context.
func (r RunContext) Context() context.Context {
	return r.ctx
}

// Attempt returns the 1-based attempt number of the current action.
func (r RunContext) Attempt() int {
	return r.attempt
}

// WithAttempt returns a new RunContext for the given attempt.
func (r RunContext) WithAttempt(attempt int) RunContext {
	return RunContext{
		ctx:     r.ctx,
		attempt: attempt,
	}
}

// WithContext returns a new RunContext using ctx.
func (r RunContext) WithContext(ctx context.Context) RunContext {
	return RunContext{
		ctx:     ctx,
		attempt: r.attempt,
	}
}
