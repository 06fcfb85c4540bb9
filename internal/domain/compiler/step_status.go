package compiler

// StepStatus is the probed state of a step, reported by the plan command.
type StepStatus string

const (
	// StatusSatisfied indicates the step's desired state is already met.
	StatusSatisfied StepStatus = "satisfied"
	// StatusNeedsApply indicates the step needs to be applied.
	StatusNeedsApply StepStatus = "needs-apply"
	// StatusUnknown indicates the probe could not determine the state.
	// The executor treats unknown as "not satisfied" and runs the action.
	StatusUnknown StepStatus = "unknown"
)

// String returns the string representation of the status.
func (s StepStatus) String() string {
	return string(s)
}

// NeedsAction returns true if apply would run the step's action.
func (s StepStatus) NeedsAction() bool {
	switch s {
	case StatusNeedsApply, StatusUnknown:
		return true
	case StatusSatisfied:
		return false
	}
	return false
}

// StatusFromProbe maps a precondition result to a status.
func StatusFromProbe(satisfied bool, err error) StepStatus {
	switch {
	case err != nil:
		return StatusUnknown
	case satisfied:
		return StatusSatisfied
	default:
		return StatusNeedsApply
	}
}
