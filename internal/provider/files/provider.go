package files

import (
	"fmt"

	"github.com/felixgeelhaar/archstrap/internal/domain/compiler"
	"github.com/felixgeelhaar/archstrap/internal/domain/config"
	"github.com/felixgeelhaar/archstrap/internal/ports"
	"github.com/felixgeelhaar/archstrap/internal/provider/pacman"
	"github.com/felixgeelhaar/archstrap/internal/provider/pathutil"
	"github.com/felixgeelhaar/archstrap/internal/validation"
)

// FileStepID returns the ID of the step writing the file entry id.
func FileStepID(id string) compiler.StepID {
	return compiler.MustNewStepID("file:" + id)
}

// Provider implements the compiler.Provider interface for rendered files.
type Provider struct {
	fs ports.FileSystem
}

// NewProvider creates a new files provider.
func NewProvider(fs ports.FileSystem) *Provider {
	return &Provider{fs: fs}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "files"
}

// Compile renders every file entry of an enabled feature. Rendering happens
// here so a broken template aborts the run before anything is applied.
// Two enabled entries may not resolve to the same path.
func (p *Provider) Compile(ctx compiler.CompileContext) ([]compiler.Step, error) {
	entries := ctx.Manifest().Files
	steps := make([]compiler.Step, 0, len(entries))
	owners := make(map[string]string, len(entries))

	for _, entry := range entries {
		if entry.Feature != "" && !ctx.FeatureEnabled(entry.Feature) {
			continue
		}
		step, err := p.compileEntry(ctx, entry)
		if err != nil {
			return nil, err
		}
		if other, ok := owners[step.Path()]; ok {
			return nil, compiler.NewManifestInvalidError(
				fmt.Sprintf("files %s and %s both write %s", other, entry.ID, step.Path()), nil).
				WithStepID(step.ID().String())
		}
		owners[step.Path()] = entry.ID
		steps = append(steps, step)
	}

	return steps, nil
}

func (p *Provider) compileEntry(ctx compiler.CompileContext, entry config.FileEntry) (*FileStep, error) {
	id := FileStepID(entry.ID)

	if err := validation.ValidatePath(entry.Path); err != nil {
		return nil, compiler.NewManifestInvalidError(fmt.Sprintf("file %s has an invalid path", entry.ID), err).
			WithStepID(id.String())
	}
	path, err := pathutil.Resolve(entry.Path, ctx.User())
	if err != nil {
		return nil, compiler.NewManifestInvalidError(fmt.Sprintf("file %s has an invalid path", entry.ID), err).
			WithStepID(id.String())
	}
	mode, err := entry.FileMode()
	if err != nil {
		return nil, compiler.NewManifestInvalidError(fmt.Sprintf("file %s has an invalid mode", entry.ID), err).
			WithStepID(id.String())
	}

	content, err := Render(entry.ID, entry.Template, NewTemplateData(ctx, entry.Vars))
	if err != nil {
		return nil, compiler.NewTemplateInvalidError(id.String(), err)
	}

	deps, err := dependencies(ctx, entry.Feature, entry.DependsOn)
	if err != nil {
		return nil, compiler.NewManifestInvalidError(fmt.Sprintf("file %s has an invalid dependency", entry.ID), err).
			WithStepID(id.String())
	}

	return NewFileStep(FileSpec{
		ID:      id,
		Path:    path,
		Content: content,
		Mode:    mode,
		Owner:   ctx.User(),
		Deps:    deps,
	}, p.fs), nil
}

// dependencies joins the feature's package step with explicit depends_on IDs.
func dependencies(ctx compiler.CompileContext, feature string, explicit []string) ([]compiler.StepID, error) {
	deps := pacman.FeatureDependency(ctx, feature)
	for _, raw := range explicit {
		dep, err := compiler.NewStepID(raw)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", raw, err)
		}
		deps = append(deps, dep)
	}
	return deps, nil
}

// Ensure Provider implements compiler.Provider.
var _ compiler.Provider = (*Provider)(nil)
