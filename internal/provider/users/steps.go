package users

import (
	"fmt"

	"github.com/felixgeelhaar/archstrap/internal/domain/compiler"
	"github.com/felixgeelhaar/archstrap/internal/probe"
	"github.com/felixgeelhaar/archstrap/internal/provider/commandutil"
)

// GroupStep appends a supplementary group to a user.
type GroupStep struct {
	id     compiler.StepID
	group  string
	user   string
	deps   []compiler.StepID
	prober *probe.Prober
}

// NewGroupStep creates a new GroupStep.
func NewGroupStep(group, user string, deps []compiler.StepID, prober *probe.Prober) *GroupStep {
	return &GroupStep{
		id:     GroupStepID(group, user),
		group:  group,
		user:   user,
		deps:   deps,
		prober: prober,
	}
}

// ID returns the step identifier.
func (s *GroupStep) ID() compiler.StepID {
	return s.id
}

// Description returns a human-readable summary.
func (s *GroupStep) Description() string {
	return fmt.Sprintf("add %s to group %s", s.user, s.group)
}

// DependsOn returns the step dependencies.
func (s *GroupStep) DependsOn() []compiler.StepID {
	return s.deps
}

// Retryable is false.
func (s *GroupStep) Retryable() bool {
	return false
}

// Tools returns the executables the step needs.
func (s *GroupStep) Tools() []string {
	return []string{"usermod"}
}

// Precondition reports whether the user is already a member.
func (s *GroupStep) Precondition(_ compiler.RunContext) (bool, error) {
	return s.prober.GroupContainsUser(s.group, s.user)
}

// Apply runs usermod -aG; -a keeps existing memberships.
func (s *GroupStep) Apply(ctx compiler.RunContext) error {
	_, err := commandutil.Run(ctx.Context(), s.prober.Runner(), "usermod", "-aG", s.group, s.user)
	return commandutil.ClassifyStderr(err)
}

// Postcondition re-reads the group database.
func (s *GroupStep) Postcondition(_ compiler.RunContext) (bool, error) {
	return s.prober.GroupContainsUser(s.group, s.user)
}

// Plan returns the diff for this step.
func (s *GroupStep) Plan(_ compiler.RunContext) (compiler.Diff, error) {
	return compiler.NewDiff(compiler.DiffTypeAdd, "group", s.group, "", s.user), nil
}

// Ensure GroupStep implements the step interfaces.
var (
	_ compiler.Step     = (*GroupStep)(nil)
	_ compiler.ToolStep = (*GroupStep)(nil)
)
