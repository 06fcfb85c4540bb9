// Package users adds the target user to groups that packages create.
package users

import (
	"fmt"

	"github.com/felixgeelhaar/archstrap/internal/domain/compiler"
	"github.com/felixgeelhaar/archstrap/internal/probe"
	"github.com/felixgeelhaar/archstrap/internal/provider/pacman"
	"github.com/felixgeelhaar/archstrap/internal/validation"
)

// GroupStepID returns the ID of the step adding user to group.
func GroupStepID(group, user string) compiler.StepID {
	return compiler.MustNewStepID("group:" + group + ":" + user)
}

// Provider compiles feature groups into membership steps.
type Provider struct {
	prober *probe.Prober
}

// NewProvider creates a new users provider.
func NewProvider(prober *probe.Prober) *Provider {
	return &Provider{prober: prober}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "users"
}

// Compile emits one group:<group>:<user> step per group of every enabled feature.
func (p *Provider) Compile(ctx compiler.CompileContext) ([]compiler.Step, error) {
	steps := make([]compiler.Step, 0)
	user := ctx.User().Name

	for _, feature := range ctx.EnabledFeatures() {
		if len(feature.Groups) == 0 {
			continue
		}
		if user == "" {
			return nil, compiler.NewManifestInvalidError(
				fmt.Sprintf("feature %s adds group memberships but no target user is known", feature.Name), nil).
				WithSuggestion("Pass --user or run through sudo so SUDO_USER is set.")
		}
		if err := validation.ValidateUserName(user); err != nil {
			return nil, compiler.NewManifestInvalidError("invalid target user", err)
		}
		for _, group := range feature.Groups {
			if err := validation.ValidateGroupName(group); err != nil {
				return nil, compiler.NewManifestInvalidError(
					fmt.Sprintf("feature %s lists an invalid group", feature.Name), err)
			}
			deps := pacman.FeatureDependency(ctx, feature.Name)
			steps = append(steps, NewGroupStep(group, user, deps, p.prober))
		}
	}

	return steps, nil
}

// Ensure Provider implements compiler.Provider.
var _ compiler.Provider = (*Provider)(nil)
