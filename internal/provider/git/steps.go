package git

import (
	"fmt"
	"path/filepath"

	"github.com/felixgeelhaar/archstrap/internal/domain/compiler"
	"github.com/felixgeelhaar/archstrap/internal/domain/config"
	"github.com/felixgeelhaar/archstrap/internal/probe"
	"github.com/felixgeelhaar/archstrap/internal/provider/commandutil"
	"github.com/felixgeelhaar/archstrap/internal/provider/pathutil"
)

// transientMarkers are git stderr fragments of network trouble.
var transientMarkers = []string{
	"could not resolve host",
	"connection timed out",
	"connection reset",
	"unable to access",
	"early eof",
	"the remote end hung up unexpectedly",
	"operation timed out",
}

// CloneStep clones a repository to a destination directory.
type CloneStep struct {
	id     compiler.StepID
	url    string
	dest   string
	owner  config.TargetUser
	deps   []compiler.StepID
	prober *probe.Prober
}

// NewCloneStep creates a new CloneStep. A non-zero owner makes the clone run
// as that account.
func NewCloneStep(id compiler.StepID, url, dest string, owner config.TargetUser, deps []compiler.StepID, prober *probe.Prober) *CloneStep {
	return &CloneStep{
		id:     id,
		url:    url,
		dest:   dest,
		owner:  owner,
		deps:   deps,
		prober: prober,
	}
}

// ID returns the step identifier.
func (s *CloneStep) ID() compiler.StepID {
	return s.id
}

// Description returns a human-readable summary.
func (s *CloneStep) Description() string {
	return fmt.Sprintf("clone %s into %s", s.url, s.dest)
}

// DependsOn returns the step dependencies.
func (s *CloneStep) DependsOn() []compiler.StepID {
	return s.deps
}

// Retryable is true; clones fail on flaky networks.
func (s *CloneStep) Retryable() bool {
	return true
}

// ParallelSafe is true; each clone owns its destination.
func (s *CloneStep) ParallelSafe() bool {
	return true
}

// Tools returns the executables the step needs.
func (s *CloneStep) Tools() []string {
	if s.owner.Name != "" {
		return []string{"git", "runuser"}
	}
	return []string{"git"}
}

// Precondition reports whether dest is already a checkout of url.
func (s *CloneStep) Precondition(ctx compiler.RunContext) (bool, error) {
	return s.prober.IsGitCheckout(ctx.Context(), s.dest, s.url)
}

// Apply clones the repository. A destination that exists but is not a
// checkout of url is left alone.
func (s *CloneStep) Apply(ctx compiler.RunContext) error {
	fs := s.prober.FileSystem()
	if fs.Exists(s.dest) {
		ok, err := s.prober.IsGitCheckout(ctx.Context(), s.dest, s.url)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		return compiler.Permanent(fmt.Errorf("%s exists and is not a clone of %s", s.dest, s.url))
	}

	if err := pathutil.EnsureDir(fs, filepath.Dir(s.dest), s.owner); err != nil {
		return compiler.Permanent(err)
	}

	command, args := commandutil.AsUser(s.owner, "git", "clone", "--", s.url, s.dest)
	_, err := commandutil.Run(ctx.Context(), s.prober.Runner(), command, args...)
	return commandutil.ClassifyStderr(err, transientMarkers...)
}

// Postcondition re-checks the checkout.
func (s *CloneStep) Postcondition(ctx compiler.RunContext) (bool, error) {
	return s.prober.IsGitCheckout(ctx.Context(), s.dest, s.url)
}

// Plan returns the diff for this step.
func (s *CloneStep) Plan(_ compiler.RunContext) (compiler.Diff, error) {
	return compiler.NewDiff(compiler.DiffTypeAdd, "repo", s.dest, "", s.url), nil
}

// Ensure CloneStep implements the step interfaces.
var (
	_ compiler.Step         = (*CloneStep)(nil)
	_ compiler.ParallelStep = (*CloneStep)(nil)
	_ compiler.ToolStep     = (*CloneStep)(nil)
)
