// Package git clones repositories into the target user's home.
package git

import (
	"fmt"

	"github.com/felixgeelhaar/archstrap/internal/domain/compiler"
	"github.com/felixgeelhaar/archstrap/internal/domain/config"
	"github.com/felixgeelhaar/archstrap/internal/probe"
	"github.com/felixgeelhaar/archstrap/internal/provider/network"
	"github.com/felixgeelhaar/archstrap/internal/provider/pacman"
	"github.com/felixgeelhaar/archstrap/internal/provider/pathutil"
	"github.com/felixgeelhaar/archstrap/internal/validation"
)

// CloneStepID returns the ID of the step cloning repo entry id.
func CloneStepID(id string) compiler.StepID {
	return compiler.MustNewStepID("git:" + id)
}

// Provider compiles repo entries into clone steps.
type Provider struct {
	prober *probe.Prober
	runAs  bool
}

// NewProvider creates a new git provider.
func NewProvider(prober *probe.Prober) *Provider {
	return &Provider{prober: prober}
}

// WithRunAsTarget makes clones run as the target user through runuser.
// Set it when the process runs as root on behalf of another account.
func (p *Provider) WithRunAsTarget(enabled bool) *Provider {
	p.runAs = enabled
	return p
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "git"
}

// Compile emits one git:<id> step per repo of an enabled feature. Clones wait
// for the network and for whichever feature installs git.
func (p *Provider) Compile(ctx compiler.CompileContext) ([]compiler.Step, error) {
	m := ctx.Manifest()
	steps := make([]compiler.Step, 0, len(m.Repos))

	for _, repo := range m.Repos {
		if repo.Feature != "" && !ctx.FeatureEnabled(repo.Feature) {
			continue
		}
		step, err := p.compileRepo(ctx, repo)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}

	return steps, nil
}

func (p *Provider) compileRepo(ctx compiler.CompileContext, repo config.RepoEntry) (*CloneStep, error) {
	id := CloneStepID(repo.ID)
	invalid := func(what string, err error) error {
		return compiler.NewManifestInvalidError(fmt.Sprintf("repo %s has an invalid %s", repo.ID, what), err).
			WithStepID(id.String())
	}

	if err := validation.ValidateGitRemoteURL(repo.URL); err != nil {
		return nil, invalid("url", err)
	}
	if err := validation.ValidateGitPath(repo.Dest); err != nil {
		return nil, invalid("dest", err)
	}
	dest, err := pathutil.Resolve(repo.Dest, ctx.User())
	if err != nil {
		return nil, invalid("dest", err)
	}

	deps := make([]compiler.StepID, 0, 3+len(repo.DependsOn))
	if ctx.Manifest().Network.WaitFor != "" {
		deps = append(deps, network.WaitStepID)
	}
	if f, ok := ctx.Manifest().FeatureInstalling("git"); ok {
		deps = appendUnique(deps, pacman.FeatureDependency(ctx, f.Name)...)
	}
	deps = appendUnique(deps, pacman.FeatureDependency(ctx, repo.Feature)...)
	for _, raw := range repo.DependsOn {
		dep, err := compiler.NewStepID(raw)
		if err != nil {
			return nil, invalid("dependency", fmt.Errorf("%q: %w", raw, err))
		}
		deps = appendUnique(deps, dep)
	}

	var owner config.TargetUser
	if p.runAs {
		owner = ctx.User()
	}
	return NewCloneStep(id, repo.URL, dest, owner, deps, p.prober), nil
}

func appendUnique(deps []compiler.StepID, more ...compiler.StepID) []compiler.StepID {
	for _, dep := range more {
		found := false
		for _, d := range deps {
			if d.Equals(dep) {
				found = true
				break
			}
		}
		if !found {
			deps = append(deps, dep)
		}
	}
	return deps
}

// Ensure Provider implements compiler.Provider.
var _ compiler.Provider = (*Provider)(nil)
