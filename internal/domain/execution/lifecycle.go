package execution

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// StepState is a state of the per-step lifecycle machine.
type StepState string

// Machine state names, kept untyped so they convert to statekit's identifiers.
const (
	statePending   = "pending"
	stateSkipped   = "skipped"
	stateRunning   = "running"
	stateRetryWait = "retry_wait"
	stateApplied   = "applied"
	stateFailed    = "failed"
)

const (
	// StatePending is the initial state.
	StatePending StepState = statePending
	// StateSkipped is reached when the precondition already held.
	StateSkipped StepState = stateSkipped
	// StateRunning is entered once per attempt.
	StateRunning StepState = stateRunning
	// StateRetryWait is the backoff pause between attempts.
	StateRetryWait StepState = stateRetryWait
	// StateApplied is reached when the postcondition holds after the action.
	StateApplied StepState = stateApplied
	// StateFailed is the terminal failure state.
	StateFailed StepState = stateFailed
)

// Events of the per-step lifecycle machine.
const (
	EventSkip    = "SKIP"
	EventStart   = "START"
	EventSucceed = "SUCCEED"
	EventRetry   = "RETRY"
	EventResume  = "RESUME"
	EventFail    = "FAIL"
)

// lifecycleContext is the statekit context type; attempt counting happens
// through the lifecycle pointer captured by the action closure.
type lifecycleContext struct {
	StepID string
}

// lifecycle tracks one step through
// pending → skipped | running → (retry_wait → running)* → applied | failed.
// Any transition outside that graph is a programming error and is reported.
type lifecycle struct {
	interp   *statekit.Interpreter[lifecycleContext]
	attempts int
	history  []StepState
}

func newLifecycle(stepID string) (*lifecycle, error) {
	lc := &lifecycle{}

	machine, err := statekit.NewMachine[lifecycleContext]("step-lifecycle").
		WithInitial(statePending).
		WithContext(lifecycleContext{StepID: stepID}).
		WithAction("countAttempt", func(_ *lifecycleContext, _ statekit.Event) {
			lc.attempts++
		}).
		State(statePending).
		On(EventSkip).Target(stateSkipped).
		On(EventStart).Target(stateRunning).
		On(EventFail).Target(stateFailed).Done().
		State(stateRunning).
		OnEntry("countAttempt").
		On(EventSucceed).Target(stateApplied).
		On(EventRetry).Target(stateRetryWait).
		On(EventFail).Target(stateFailed).Done().
		State(stateRetryWait).
		On(EventResume).Target(stateRunning).
		On(EventFail).Target(stateFailed).Done().
		State(stateSkipped).Final().Done().
		State(stateApplied).Final().Done().
		State(stateFailed).Final().Done().
		Build()
	if err != nil {
		return nil, fmt.Errorf("build lifecycle for %s: %w", stepID, err)
	}

	lc.interp = statekit.NewInterpreter(machine)
	lc.interp.Start()
	lc.history = append(lc.history, lc.State())
	return lc, nil
}

// State returns the current state.
func (lc *lifecycle) State() StepState {
	return StepState(lc.interp.State().Value)
}

// send applies event and fails when the machine did not move.
func (lc *lifecycle) send(event statekit.Event) error {
	from := lc.State()
	lc.interp.Send(event)
	to := lc.State()
	if from == to {
		return fmt.Errorf("invalid lifecycle transition %v from %s", event.Type, from)
	}
	lc.history = append(lc.history, to)
	return nil
}

// Attempts returns how often the running state was entered.
func (lc *lifecycle) Attempts() int {
	return lc.attempts
}

// History returns every state visited, starting with pending.
func (lc *lifecycle) History() []StepState {
	return append([]StepState(nil), lc.history...)
}

func (lc *lifecycle) stop() {
	lc.interp.Stop()
}
