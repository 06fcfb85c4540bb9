package testutil

import (
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/archstrap/internal/domain/config"
)

// ManifestBuilder builds test manifests.
type ManifestBuilder struct {
	manifest config.Manifest
}

// NewManifestBuilder creates a new manifest builder.
func NewManifestBuilder() *ManifestBuilder {
	return &ManifestBuilder{}
}

// WithFeature adds a feature with the given default and packages.
func (b *ManifestBuilder) WithFeature(name string, enabled bool, packages ...string) *ManifestBuilder {
	b.manifest.Features = append(b.manifest.Features, config.Feature{
		Name:     name,
		Default:  enabled,
		Packages: packages,
	})
	return b
}

// WithCritical marks an existing feature as critical.
func (b *ManifestBuilder) WithCritical(feature string) *ManifestBuilder {
	b.updateFeature(feature, func(f *config.Feature) { f.Critical = true })
	return b
}

// WithService adds a service to an existing feature.
func (b *ManifestBuilder) WithService(feature, unit string, scope config.ServiceScope) *ManifestBuilder {
	b.updateFeature(feature, func(f *config.Feature) {
		f.Services = append(f.Services, config.Service{Name: unit, Scope: scope})
	})
	return b
}

// WithGroup adds a supplementary group to an existing feature.
func (b *ManifestBuilder) WithGroup(feature, group string) *ManifestBuilder {
	b.updateFeature(feature, func(f *config.Feature) { f.Groups = append(f.Groups, group) })
	return b
}

// WithMultilib enables the multilib repository.
func (b *ManifestBuilder) WithMultilib() *ManifestBuilder {
	b.manifest.Pacman.Multilib = true
	return b
}

// WithNetwork sets the network section.
func (b *ManifestBuilder) WithNetwork(network config.NetworkConfig) *ManifestBuilder {
	b.manifest.Network = network
	return b
}

// WithFile adds a file entry.
func (b *ManifestBuilder) WithFile(entry config.FileEntry) *ManifestBuilder {
	b.manifest.Files = append(b.manifest.Files, entry)
	return b
}

// WithRepo adds a git checkout entry.
func (b *ManifestBuilder) WithRepo(entry config.RepoEntry) *ManifestBuilder {
	b.manifest.Repos = append(b.manifest.Repos, entry)
	return b
}

// WithCommand adds a command entry.
func (b *ManifestBuilder) WithCommand(entry config.CommandEntry) *ManifestBuilder {
	b.manifest.Commands = append(b.manifest.Commands, entry)
	return b
}

func (b *ManifestBuilder) updateFeature(name string, fn func(*config.Feature)) {
	for i := range b.manifest.Features {
		if b.manifest.Features[i].Name == name {
			fn(&b.manifest.Features[i])
			return
		}
	}
}

// Build returns the constructed manifest.
func (b *ManifestBuilder) Build() *config.Manifest {
	m := b.manifest
	return &m
}

// ToYAML renders the manifest in the format the loader reads.
func (b *ManifestBuilder) ToYAML() (string, error) {
	data, err := yaml.Marshal(b.manifest)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
