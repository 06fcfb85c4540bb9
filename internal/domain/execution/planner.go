package execution

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/archstrap/internal/domain/compiler"
)

// Planner generates an execution Plan from a StepGraph.
type Planner struct {
	probe bool
}

// NewPlanner creates a Planner that probes every step.
func NewPlanner() *Planner {
	return &Planner{probe: true}
}

// WithProbe returns a Planner that probes (or does not probe) the system.
// Without probing every entry is reported as needing apply.
func (p *Planner) WithProbe(probe bool) *Planner {
	return &Planner{probe: probe}
}

// Plan orders the graph and, when probing, records each step's status and diff.
// A probe that cannot determine the state marks the entry unknown; only a
// graph that cannot be ordered is an error.
func (p *Planner) Plan(ctx context.Context, graph *compiler.StepGraph) (*Plan, error) {
	steps, err := graph.TopologicalSort()
	if err != nil {
		return nil, fmt.Errorf("failed to sort steps: %w", err)
	}

	plan := NewExecutionPlan()
	runCtx := compiler.NewRunContext(ctx)

	for _, step := range steps {
		plan.Add(p.planStep(step, runCtx))
	}

	return plan, nil
}

// planStep probes a single step and generates a PlanEntry.
func (p *Planner) planStep(step compiler.Step, ctx compiler.RunContext) PlanEntry {
	if !p.probe {
		return NewPlanEntry(step, compiler.StatusNeedsApply, compiler.Diff{})
	}

	satisfied, err := step.Precondition(ctx)
	status := compiler.StatusFromProbe(satisfied, err)
	if err != nil {
		return NewPlanEntry(step, status, compiler.Diff{}).WithError(err)
	}
	if !status.NeedsAction() {
		return NewPlanEntry(step, status, compiler.Diff{})
	}

	diff, err := step.Plan(ctx)
	if err != nil {
		return NewPlanEntry(step, compiler.StatusUnknown, compiler.Diff{}).WithError(fmt.Errorf("plan failed: %w", err))
	}
	return NewPlanEntry(step, status, diff)
}
