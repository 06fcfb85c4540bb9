package mocks

import (
	"sync"

	"github.com/felixgeelhaar/archstrap/internal/domain/compiler"
)

// Step is a spy implementation of compiler.Step.
// By default the precondition is unmet, Apply succeeds and the postcondition holds.
type Step struct {
	mu sync.Mutex

	id       compiler.StepID
	deps     []compiler.StepID
	retry    bool
	parallel bool
	critical bool
	tools    []string

	PreFn   func(compiler.RunContext) (bool, error)
	ApplyFn func(compiler.RunContext) error
	PostFn  func(compiler.RunContext) (bool, error)

	preCalls   int
	applyCalls int
	postCalls  int
}

// NewStep creates a spy step with the given dependencies.
func NewStep(id string, deps ...string) *Step {
	depIDs := make([]compiler.StepID, len(deps))
	for i, d := range deps {
		depIDs[i] = compiler.MustNewStepID(d)
	}
	return &Step{
		id:   compiler.MustNewStepID(id),
		deps: depIDs,
	}
}

// Satisfied makes the precondition hold.
func (s *Step) Satisfied() *Step {
	s.PreFn = func(compiler.RunContext) (bool, error) { return true, nil }
	return s
}

// Retrying marks the step retryable.
func (s *Step) Retrying() *Step {
	s.retry = true
	return s
}

// Parallel marks the step parallel-safe.
func (s *Step) Parallel() *Step {
	s.parallel = true
	return s
}

// MarkCritical marks the step critical.
func (s *Step) MarkCritical() *Step {
	s.critical = true
	return s
}

// NeedsTools sets the executables the step requires.
func (s *Step) NeedsTools(tools ...string) *Step {
	s.tools = tools
	return s
}

// FailApply makes every Apply call return err.
func (s *Step) FailApply(err error) *Step {
	s.ApplyFn = func(compiler.RunContext) error { return err }
	return s
}

// ID returns the step identifier.
func (s *Step) ID() compiler.StepID { return s.id }

// Description returns a summary for logs.
func (s *Step) Description() string { return "spy " + s.id.String() }

// DependsOn returns the step dependencies.
func (s *Step) DependsOn() []compiler.StepID { return s.deps }

// Retryable reports whether the step is retryable.
func (s *Step) Retryable() bool { return s.retry }

// ParallelSafe reports whether the step may run in the worker pool.
func (s *Step) ParallelSafe() bool { return s.parallel }

// Critical reports whether a failure halts the run.
func (s *Step) Critical() bool { return s.critical }

// Tools returns the required executables.
func (s *Step) Tools() []string { return s.tools }

// Precondition records the call and delegates to PreFn.
func (s *Step) Precondition(ctx compiler.RunContext) (bool, error) {
	s.mu.Lock()
	s.preCalls++
	fn := s.PreFn
	s.mu.Unlock()
	if fn == nil {
		return false, nil
	}
	return fn(ctx)
}

// Apply records the call and delegates to ApplyFn.
func (s *Step) Apply(ctx compiler.RunContext) error {
	s.mu.Lock()
	s.applyCalls++
	fn := s.ApplyFn
	s.mu.Unlock()
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// Postcondition records the call and delegates to PostFn.
func (s *Step) Postcondition(ctx compiler.RunContext) (bool, error) {
	s.mu.Lock()
	s.postCalls++
	fn := s.PostFn
	s.mu.Unlock()
	if fn == nil {
		return true, nil
	}
	return fn(ctx)
}

// Plan returns an add diff for the step.
func (s *Step) Plan(compiler.RunContext) (compiler.Diff, error) {
	return compiler.NewDiff(compiler.DiffTypeAdd, s.id.Kind(), s.id.String(), "", ""), nil
}

// ApplyCalls returns how often Apply ran.
func (s *Step) ApplyCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyCalls
}

// PreconditionCalls returns how often Precondition ran.
func (s *Step) PreconditionCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preCalls
}

// PostconditionCalls returns how often Postcondition ran.
func (s *Step) PostconditionCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.postCalls
}

var (
	_ compiler.ParallelStep = (*Step)(nil)
	_ compiler.CriticalStep = (*Step)(nil)
	_ compiler.ToolStep     = (*Step)(nil)
)
