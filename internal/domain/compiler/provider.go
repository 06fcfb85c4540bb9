package compiler

import "github.com/felixgeelhaar/archstrap/internal/domain/config"

// Provider compiles a section of the manifest into executable steps.
// Each provider handles one kind of resource (packages, services, files, etc.).
type Provider interface {
	// Name returns the provider's identifier (e.g., "pacman", "systemd", "files").
	Name() string

	// Compile transforms its manifest section into steps, in manifest order.
	// Cross-provider dependencies are expressed through Step.DependsOn().
	Compile(ctx CompileContext) ([]Step, error)
}

// CompileContext provides the manifest and run facts to providers during compilation.
type CompileContext struct {
	manifest *config.Manifest
	flags    config.Flags
	user     config.TargetUser
	hostname string
}

// NewCompileContext creates a new CompileContext for the given manifest.
func NewCompileContext(manifest *config.Manifest) CompileContext {
	if manifest == nil {
		manifest = &config.Manifest{}
	}
	return CompileContext{
		manifest: manifest,
		flags:    config.Flags{},
	}
}

// Manifest returns the manifest being compiled.
func (c CompileContext) Manifest() *config.Manifest {
	return c.manifest
}

// Flags returns the resolved feature flags.
func (c CompileContext) Flags() config.Flags {
	return c.flags
}

// FeatureEnabled reports whether the named feature is enabled for this run.
func (c CompileContext) FeatureEnabled(name string) bool {
	return c.flags.Enabled(name)
}

// EnabledFeatures returns enabled features in manifest order.
func (c CompileContext) EnabledFeatures() []config.Feature {
	features := make([]config.Feature, 0, len(c.manifest.Features))
	for _, f := range c.manifest.Features {
		if c.flags.Enabled(f.Name) {
			features = append(features, f)
		}
	}
	return features
}

// WithFlags returns a new CompileContext with the feature flags set.
func (c CompileContext) WithFlags(flags config.Flags) CompileContext {
	c.flags = flags
	return c
}

// User returns the resolved target user.
func (c CompileContext) User() config.TargetUser {
	return c.user
}

// WithUser returns a new CompileContext with the target user set.
func (c CompileContext) WithUser(user config.TargetUser) CompileContext {
	c.user = user
	return c
}

// Hostname returns the machine hostname exposed to templates.
func (c CompileContext) Hostname() string {
	return c.hostname
}

// WithHostname returns a new CompileContext with the hostname set.
func (c CompileContext) WithHostname(hostname string) CompileContext {
	c.hostname = hostname
	return c
}
