// Package systemd enables and starts the units features ask for.
package systemd

import (
	"fmt"

	"github.com/felixgeelhaar/archstrap/internal/domain/compiler"
	"github.com/felixgeelhaar/archstrap/internal/domain/config"
	"github.com/felixgeelhaar/archstrap/internal/probe"
	"github.com/felixgeelhaar/archstrap/internal/provider/pacman"
	"github.com/felixgeelhaar/archstrap/internal/validation"
)

// ServiceStepID returns the ID of the step managing unit.
func ServiceStepID(unit string) compiler.StepID {
	return compiler.MustNewStepID("service:" + unit)
}

// Provider compiles feature services into steps.
type Provider struct {
	prober *probe.Prober
}

// NewProvider creates a new systemd provider.
func NewProvider(prober *probe.Prober) *Provider {
	return &Provider{prober: prober}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "systemd"
}

// Compile emits one service:<unit> step per service of every enabled
// feature. Each depends on the package step of its feature.
func (p *Provider) Compile(ctx compiler.CompileContext) ([]compiler.Step, error) {
	steps := make([]compiler.Step, 0)
	user := ctx.User()

	for _, feature := range ctx.EnabledFeatures() {
		for _, svc := range feature.Services {
			if err := validation.ValidateUnitName(svc.Name); err != nil {
				return nil, compiler.NewManifestInvalidError(
					fmt.Sprintf("feature %s lists an invalid unit", feature.Name), err).
					WithStepID(ServiceStepID(svc.Name).String())
			}
			scope := svc.EffectiveScope()
			if scope == config.ScopeUser && user.Name == "" {
				return nil, compiler.NewManifestInvalidError(
					fmt.Sprintf("user unit %s needs a target user", svc.Name), nil).
					WithStepID(ServiceStepID(svc.Name).String()).
					WithSuggestion("Pass --user or run through sudo so SUDO_USER is set.")
			}
			deps := pacman.FeatureDependency(ctx, feature.Name)
			steps = append(steps, NewServiceStep(svc.Name, scope, user.Name, deps, p.prober))
		}
	}

	return steps, nil
}

// Ensure Provider implements compiler.Provider.
var _ compiler.Provider = (*Provider)(nil)
