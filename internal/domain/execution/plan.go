package execution

import (
	"github.com/felixgeelhaar/archstrap/internal/domain/compiler"
)

// PlanEntry represents a single step's planned execution.
type PlanEntry struct {
	step   compiler.Step
	status compiler.StepStatus
	diff   compiler.Diff
	err    error
}

// NewPlanEntry creates a new PlanEntry.
func NewPlanEntry(step compiler.Step, status compiler.StepStatus, diff compiler.Diff) PlanEntry {
	return PlanEntry{
		step:   step,
		status: status,
		diff:   diff,
	}
}

// WithError returns a copy of the entry carrying the probe error that made
// its status unknown.
func (e PlanEntry) WithError(err error) PlanEntry {
	e.err = err
	return e
}

// Step returns the step to be executed.
func (e PlanEntry) Step() compiler.Step {
	return e.step
}

// Status returns the probed status of the step.
func (e PlanEntry) Status() compiler.StepStatus {
	return e.status
}

// Diff returns the planned changes.
func (e PlanEntry) Diff() compiler.Diff {
	return e.diff
}

// Error returns the probe error, if any.
func (e PlanEntry) Error() error {
	return e.err
}

// PlanSummary provides aggregate statistics about the execution plan.
type PlanSummary struct {
	Total      int
	NeedsApply int
	Satisfied  int
	Unknown    int
}

// Plan is the ordered list of steps a run will walk.
type Plan struct {
	entries []PlanEntry
}

// NewExecutionPlan creates an empty Plan.
func NewExecutionPlan() *Plan {
	return &Plan{
		entries: make([]PlanEntry, 0),
	}
}

// Add appends a plan entry.
func (p *Plan) Add(entry PlanEntry) {
	p.entries = append(p.entries, entry)
}

// Len returns the number of entries.
func (p *Plan) Len() int {
	return len(p.entries)
}

// IsEmpty returns true if there are no entries.
func (p *Plan) IsEmpty() bool {
	return len(p.entries) == 0
}

// Entries returns all plan entries.
func (p *Plan) Entries() []PlanEntry {
	return p.entries
}

// Steps returns the steps in plan order.
func (p *Plan) Steps() []compiler.Step {
	steps := make([]compiler.Step, len(p.entries))
	for i, e := range p.entries {
		steps[i] = e.step
	}
	return steps
}

// NeedsApply returns entries whose action would run.
func (p *Plan) NeedsApply() []PlanEntry {
	result := make([]PlanEntry, 0)
	for _, e := range p.entries {
		if e.status.NeedsAction() {
			result = append(result, e)
		}
	}
	return result
}

// HasChanges returns true if any step's action would run.
func (p *Plan) HasChanges() bool {
	for _, e := range p.entries {
		if e.status.NeedsAction() {
			return true
		}
	}
	return false
}

// RequiredTools returns the executables the plan's steps need, deduplicated
// in first-use order.
func (p *Plan) RequiredTools() []string {
	seen := make(map[string]bool)
	tools := make([]string, 0)
	for _, e := range p.entries {
		for _, tool := range compiler.RequiredTools(e.step) {
			if !seen[tool] {
				seen[tool] = true
				tools = append(tools, tool)
			}
		}
	}
	return tools
}

// Summary returns aggregate statistics.
func (p *Plan) Summary() PlanSummary {
	summary := PlanSummary{Total: len(p.entries)}
	for _, e := range p.entries {
		switch e.status {
		case compiler.StatusNeedsApply:
			summary.NeedsApply++
		case compiler.StatusSatisfied:
			summary.Satisfied++
		case compiler.StatusUnknown:
			summary.Unknown++
		}
	}
	return summary
}
