package command

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/archstrap/internal/domain/compiler"
	"github.com/felixgeelhaar/archstrap/internal/domain/config"
	"github.com/felixgeelhaar/archstrap/internal/ports"
	"github.com/felixgeelhaar/archstrap/internal/probe"
	"github.com/felixgeelhaar/archstrap/internal/provider/commandutil"
)

// Spec describes a command step.
type Spec struct {
	ID        compiler.StepID
	Argv      []string
	Creates   string
	Retryable bool
	Owner     config.TargetUser
	Deps      []compiler.StepID
}

// Step runs an argument vector unless its creates path exists.
type Step struct {
	spec   Spec
	prober *probe.Prober
}

// NewStep creates a new command Step.
func NewStep(spec Spec, prober *probe.Prober) *Step {
	return &Step{spec: spec, prober: prober}
}

// ID returns the step identifier.
func (s *Step) ID() compiler.StepID {
	return s.spec.ID
}

// Description returns a human-readable summary.
func (s *Step) Description() string {
	return "run " + strings.Join(s.spec.Argv, " ")
}

// DependsOn returns the step dependencies.
func (s *Step) DependsOn() []compiler.StepID {
	return s.spec.Deps
}

// Retryable follows the manifest entry.
func (s *Step) Retryable() bool {
	return s.spec.Retryable
}

// Tools returns the executables the step needs. Absolute paths are not
// looked up on the PATH.
func (s *Step) Tools() []string {
	tools := make([]string, 0, 2)
	if !filepath.IsAbs(s.spec.Argv[0]) {
		tools = append(tools, s.spec.Argv[0])
	}
	if s.spec.Owner.Name != "" {
		tools = append(tools, "runuser")
	}
	return tools
}

// Precondition reports whether the creates path exists.
func (s *Step) Precondition(_ compiler.RunContext) (bool, error) {
	return s.prober.PathExists(s.spec.Creates), nil
}

// Apply runs the command. A non-zero exit of a retryable command is transient.
func (s *Step) Apply(ctx compiler.RunContext) error {
	command, args := commandutil.AsUser(s.spec.Owner, s.spec.Argv[0], s.spec.Argv[1:]...)
	_, err := commandutil.Run(ctx.Context(), s.prober.Runner(), command, args...)

	var cmdErr *ports.CommandError
	if s.spec.Retryable && errors.As(err, &cmdErr) {
		return compiler.Transient(err)
	}
	return err
}

// Postcondition reports whether the command produced its creates path.
func (s *Step) Postcondition(_ compiler.RunContext) (bool, error) {
	return s.prober.PathExists(s.spec.Creates), nil
}

// Plan returns the diff for this step.
func (s *Step) Plan(_ compiler.RunContext) (compiler.Diff, error) {
	return compiler.NewDiff(compiler.DiffTypeAdd, "command", s.spec.Creates, "", strings.Join(s.spec.Argv, " ")), nil
}

// Ensure Step implements the step interfaces.
var (
	_ compiler.Step     = (*Step)(nil)
	_ compiler.ToolStep = (*Step)(nil)
)
