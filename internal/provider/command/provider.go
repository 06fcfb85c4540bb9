// Package command runs one-off commands guarded by a path they create.
package command

import (
	"fmt"

	"github.com/felixgeelhaar/archstrap/internal/domain/compiler"
	"github.com/felixgeelhaar/archstrap/internal/domain/config"
	"github.com/felixgeelhaar/archstrap/internal/probe"
	"github.com/felixgeelhaar/archstrap/internal/provider/pacman"
	"github.com/felixgeelhaar/archstrap/internal/provider/pathutil"
	"github.com/felixgeelhaar/archstrap/internal/validation"
)

// StepID returns the ID of the step running command entry id.
func StepID(id string) compiler.StepID {
	return compiler.MustNewStepID("cmd:" + id)
}

// Provider compiles command entries into steps.
type Provider struct {
	prober *probe.Prober
	runAs  bool
}

// NewProvider creates a new command provider.
func NewProvider(prober *probe.Prober) *Provider {
	return &Provider{prober: prober}
}

// WithRunAsTarget makes as_user commands run through runuser. Without it
// they run as the invoking account, which already is the target user.
func (p *Provider) WithRunAsTarget(enabled bool) *Provider {
	p.runAs = enabled
	return p
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "command"
}

// Compile emits one cmd:<id> step per command entry of an enabled feature.
func (p *Provider) Compile(ctx compiler.CompileContext) ([]compiler.Step, error) {
	entries := ctx.Manifest().Commands
	steps := make([]compiler.Step, 0, len(entries))

	for _, entry := range entries {
		if entry.Feature != "" && !ctx.FeatureEnabled(entry.Feature) {
			continue
		}
		step, err := p.compileEntry(ctx, entry)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}

	return steps, nil
}

func (p *Provider) compileEntry(ctx compiler.CompileContext, entry config.CommandEntry) (*Step, error) {
	id := StepID(entry.ID)
	invalid := func(what string, err error) error {
		return compiler.NewManifestInvalidError(fmt.Sprintf("command %s has an invalid %s", entry.ID, what), err).
			WithStepID(id.String())
	}

	if len(entry.Argv) == 0 || entry.Argv[0] == "" {
		return nil, invalid("argv", validation.ErrEmptyInput)
	}
	if err := validation.ValidatePath(entry.Creates); err != nil {
		return nil, invalid("creates path", err)
	}
	creates, err := pathutil.Resolve(entry.Creates, ctx.User())
	if err != nil {
		return nil, invalid("creates path", err)
	}

	var owner config.TargetUser
	if entry.AsUser {
		if ctx.User().Name == "" {
			return nil, invalid("as_user", fmt.Errorf("no target user is known"))
		}
		if p.runAs {
			owner = ctx.User()
		}
	}

	deps := pacman.FeatureDependency(ctx, entry.Feature)
	for _, raw := range entry.DependsOn {
		dep, err := compiler.NewStepID(raw)
		if err != nil {
			return nil, invalid("dependency", fmt.Errorf("%q: %w", raw, err))
		}
		deps = append(deps, dep)
	}

	return NewStep(Spec{
		ID:        id,
		Argv:      append([]string(nil), entry.Argv...),
		Creates:   creates,
		Retryable: entry.Retryable,
		Owner:     owner,
		Deps:      deps,
	}, p.prober), nil
}

// Ensure Provider implements compiler.Provider.
var _ compiler.Provider = (*Provider)(nil)
