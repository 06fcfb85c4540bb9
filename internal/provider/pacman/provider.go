// Package pacman provides package installation through pacman.
package pacman

import (
	"fmt"

	"github.com/felixgeelhaar/archstrap/internal/domain/compiler"
	"github.com/felixgeelhaar/archstrap/internal/domain/config"
	"github.com/felixgeelhaar/archstrap/internal/probe"
	"github.com/felixgeelhaar/archstrap/internal/provider/network"
	"github.com/felixgeelhaar/archstrap/internal/validation"
)

// DefaultConfPath is the pacman configuration file.
const DefaultConfPath = "/etc/pacman.conf"

// MultilibStepID identifies the step enabling the multilib repository.
var MultilibStepID = compiler.MustNewStepID("pacman:multilib")

// PackageStepID returns the ID of the step installing a feature's packages.
func PackageStepID(feature string) compiler.StepID {
	return compiler.MustNewStepID("pkg:" + feature)
}

// FeatureDependency returns the package step a feature-scoped entry waits
// for. Features without packages yield no dependency.
func FeatureDependency(ctx compiler.CompileContext, feature string) []compiler.StepID {
	if feature == "" {
		return nil
	}
	f, ok := ctx.Manifest().Feature(feature)
	if !ok || len(f.Packages) == 0 || !ctx.FeatureEnabled(feature) {
		return nil
	}
	return []compiler.StepID{PackageStepID(feature)}
}

// Provider compiles the pacman section and feature package lists.
type Provider struct {
	prober   *probe.Prober
	confPath string
}

// NewProvider creates a new pacman provider.
func NewProvider(prober *probe.Prober) *Provider {
	return &Provider{
		prober:   prober,
		confPath: DefaultConfPath,
	}
}

// WithConfPath overrides the pacman.conf location.
func (p *Provider) WithConfPath(path string) *Provider {
	if path != "" {
		p.confPath = path
	}
	return p
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "pacman"
}

// Compile emits pacman:multilib when requested and one pkg:<feature> step per
// enabled feature with packages, in manifest order.
func (p *Provider) Compile(ctx compiler.CompileContext) ([]compiler.Step, error) {
	m := ctx.Manifest()
	steps := make([]compiler.Step, 0, len(m.Features)+1)

	common := make([]compiler.StepID, 0, 2)
	if m.Network.WaitFor != "" {
		common = append(common, network.WaitStepID)
	}

	if m.Pacman.Multilib {
		steps = append(steps, NewMultilibStep(p.confPath, common, p.prober))
		common = append(common, MultilibStepID)
	}

	for _, feature := range ctx.EnabledFeatures() {
		if len(feature.Packages) == 0 {
			continue
		}
		if err := validatePackages(feature); err != nil {
			return nil, err
		}
		deps := append([]compiler.StepID(nil), common...)
		steps = append(steps, NewPackageStep(feature, deps, p.prober))
	}

	return steps, nil
}

func validatePackages(feature config.Feature) error {
	for _, pkg := range feature.Packages {
		if err := validation.ValidatePackageName(pkg); err != nil {
			return compiler.NewManifestInvalidError(fmt.Sprintf("feature %s lists an invalid package", feature.Name), err).
				WithStepID(PackageStepID(feature.Name).String())
		}
	}
	return nil
}

// Ensure Provider implements compiler.Provider.
var _ compiler.Provider = (*Provider)(nil)
