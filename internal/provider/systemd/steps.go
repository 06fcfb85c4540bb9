package systemd

import (
	"fmt"

	"github.com/felixgeelhaar/archstrap/internal/domain/compiler"
	"github.com/felixgeelhaar/archstrap/internal/domain/config"
	"github.com/felixgeelhaar/archstrap/internal/probe"
	"github.com/felixgeelhaar/archstrap/internal/provider/commandutil"
)

// ServiceStep enables and starts a unit.
type ServiceStep struct {
	id     compiler.StepID
	unit   string
	scope  config.ServiceScope
	user   string
	deps   []compiler.StepID
	prober *probe.Prober
}

// NewServiceStep creates a new ServiceStep. user addresses the service
// manager of user-scoped units and is ignored for system units.
func NewServiceStep(unit string, scope config.ServiceScope, user string, deps []compiler.StepID, prober *probe.Prober) *ServiceStep {
	return &ServiceStep{
		id:     ServiceStepID(unit),
		unit:   unit,
		scope:  scope,
		user:   user,
		deps:   deps,
		prober: prober,
	}
}

// ID returns the step identifier.
func (s *ServiceStep) ID() compiler.StepID {
	return s.id
}

// Description returns a human-readable summary.
func (s *ServiceStep) Description() string {
	if s.scope == config.ScopeUser {
		return fmt.Sprintf("enable and start user unit %s for %s", s.unit, s.user)
	}
	return fmt.Sprintf("enable and start %s", s.unit)
}

// DependsOn returns the step dependencies.
func (s *ServiceStep) DependsOn() []compiler.StepID {
	return s.deps
}

// Retryable is false; a unit that fails to start will fail again.
func (s *ServiceStep) Retryable() bool {
	return false
}

// ParallelSafe is true; systemd serializes its own jobs.
func (s *ServiceStep) ParallelSafe() bool {
	return true
}

// Tools returns the executables the step needs.
func (s *ServiceStep) Tools() []string {
	return []string{"systemctl"}
}

// Precondition reports whether the unit is enabled and active.
func (s *ServiceStep) Precondition(ctx compiler.RunContext) (bool, error) {
	return s.prober.IsServiceActiveEnabled(ctx.Context(), s.unit, s.scope, s.user)
}

// Apply runs systemctl enable --now.
func (s *ServiceStep) Apply(ctx compiler.RunContext) error {
	args := probe.SystemctlArgs(s.scope, s.user, "enable", "--now", s.unit)
	_, err := commandutil.Run(ctx.Context(), s.prober.Runner(), "systemctl", args...)
	return commandutil.ClassifyStderr(err)
}

// Postcondition re-checks that the unit is enabled and active.
func (s *ServiceStep) Postcondition(ctx compiler.RunContext) (bool, error) {
	return s.prober.IsServiceActiveEnabled(ctx.Context(), s.unit, s.scope, s.user)
}

// Plan returns the diff for this step.
func (s *ServiceStep) Plan(_ compiler.RunContext) (compiler.Diff, error) {
	return compiler.NewDiff(compiler.DiffTypeModify, "service", s.unit, "", "enabled, active"), nil
}

// Ensure ServiceStep implements the step interfaces.
var (
	_ compiler.Step         = (*ServiceStep)(nil)
	_ compiler.ParallelStep = (*ServiceStep)(nil)
	_ compiler.ToolStep     = (*ServiceStep)(nil)
)
