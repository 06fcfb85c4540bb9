package files

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/archstrap/internal/adapters/filesystem"
	"github.com/felixgeelhaar/archstrap/internal/domain/compiler"
	"github.com/felixgeelhaar/archstrap/internal/domain/config"
	"github.com/felixgeelhaar/archstrap/internal/provider/pacman"
)

var alice = config.TargetUser{Name: "alice", UID: 1000, GID: 1000, Home: "/home/alice"}

func manifest() *config.Manifest {
	return &config.Manifest{
		Features: []config.Feature{
			{Name: "hyprland", Packages: []string{"hyprland"}},
			{Name: "theming"},
		},
		Files: []config.FileEntry{
			{ID: "hyprland-conf", Path: "~/.config/hypr/hyprland.conf", Template: "monitor={{ .Vars.monitor }}\n", Vars: map[string]string{"monitor": "DP-1"}, Feature: "hyprland"},
			{ID: "gtk-settings", Path: "~/.config/gtk-3.0/settings.ini", Template: "[Settings]\n", Feature: "theming", DependsOn: []string{"git:catppuccin-gtk"}},
			{ID: "motd", Path: "/etc/motd", Template: "welcome to {{ .Hostname }}\n", Mode: "0600"},
		},
	}
}

func compileCtx() compiler.CompileContext {
	return compiler.NewCompileContext(manifest()).
		WithFlags(config.Flags{"hyprland": true, "theming": true}).
		WithUser(alice).
		WithHostname("arch")
}

func TestProvider_Compile(t *testing.T) {
	t.Parallel()
	p := NewProvider(filesystem.NewMemFileSystem())

	steps, err := p.Compile(compileCtx())
	require.NoError(t, err)
	require.Len(t, steps, 3)

	hypr := steps[0].(*FileStep)
	assert.Equal(t, "file:hyprland-conf", hypr.ID().String())
	assert.Equal(t, "/home/alice/.config/hypr/hyprland.conf", hypr.Path())
	assert.Equal(t, "monitor=DP-1\n", string(hypr.Content()))
	assert.Equal(t, []compiler.StepID{pacman.PackageStepID("hyprland")}, hypr.DependsOn())
	assert.True(t, compiler.IsParallelSafe(hypr))

	gtk := steps[1].(*FileStep)
	assert.Equal(t, []compiler.StepID{compiler.MustNewStepID("git:catppuccin-gtk")}, gtk.DependsOn())

	motd := steps[2].(*FileStep)
	assert.Equal(t, "welcome to arch\n", string(motd.Content()))
	assert.Empty(t, motd.DependsOn())
}

func TestProvider_Compile_DisabledFeature(t *testing.T) {
	t.Parallel()
	p := NewProvider(filesystem.NewMemFileSystem())

	steps, err := p.Compile(compileCtx().WithFlags(config.Flags{"hyprland": false, "theming": true}))
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, "file:gtk-settings", steps[0].ID().String())
}

func TestProvider_Compile_TemplateInvalid(t *testing.T) {
	t.Parallel()
	m := &config.Manifest{Files: []config.FileEntry{
		{ID: "broken", Path: "/etc/broken", Template: "{{ .Vars.undefined }}"},
	}}
	p := NewProvider(filesystem.NewMemFileSystem())

	_, err := p.Compile(compiler.NewCompileContext(m).WithUser(alice))
	require.Error(t, err)
	assert.True(t, compiler.IsBuildError(err, compiler.ErrCodeTemplateInvalid))
	assert.Contains(t, err.Error(), "file:broken")
}

func TestProvider_Compile_InvalidPath(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		path string
	}{
		{name: "relative", path: "etc/foo"},
		{name: "traversal", path: "~/../bob/.bashrc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := &config.Manifest{Files: []config.FileEntry{{ID: "x", Path: tt.path, Template: "x"}}}
			_, err := NewProvider(filesystem.NewMemFileSystem()).Compile(compiler.NewCompileContext(m).WithUser(alice))
			assert.True(t, compiler.IsBuildError(err, compiler.ErrCodeManifestInvalid))
		})
	}
}

func TestProvider_Compile_DuplicatePath(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		first string
		other string
	}{
		{name: "home and absolute", first: "~/.bashrc", other: "/home/alice/.bashrc"},
		{name: "unclean", first: "/etc/motd", other: "/etc//./motd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := &config.Manifest{Files: []config.FileEntry{
				{ID: "bashrc", Path: tt.first, Template: "a"},
				{ID: "bashrc-again", Path: tt.other, Template: "b"},
			}}
			_, err := NewProvider(filesystem.NewMemFileSystem()).Compile(compiler.NewCompileContext(m).WithUser(alice))
			require.Error(t, err)
			assert.True(t, compiler.IsBuildError(err, compiler.ErrCodeManifestInvalid))
			assert.Contains(t, err.Error(), "bashrc and bashrc-again")
		})
	}
}

func TestProvider_Compile_DuplicatePathInDisabledFeature(t *testing.T) {
	t.Parallel()
	m := &config.Manifest{
		Features: []config.Feature{{Name: "zsh"}},
		Files: []config.FileEntry{
			{ID: "bashrc", Path: "~/.bashrc", Template: "a"},
			{ID: "bashrc-zsh", Path: "/home/alice/.bashrc", Template: "b", Feature: "zsh"},
		},
	}
	ctx := compiler.NewCompileContext(m).WithUser(alice).WithFlags(config.Flags{"zsh": false})

	steps, err := NewProvider(filesystem.NewMemFileSystem()).Compile(ctx)
	require.NoError(t, err)
	assert.Len(t, steps, 1)
}

func TestFileStep_ApplyIsIdempotent(t *testing.T) {
	t.Parallel()
	mem := afero.NewMemMapFs()
	require.NoError(t, mem.MkdirAll("/home/alice", 0o700))
	fs := filesystem.New(mem)

	step := NewFileStep(FileSpec{
		ID:      FileStepID("kitty-conf"),
		Path:    "/home/alice/.config/kitty/kitty.conf",
		Content: []byte("font_size 11\n"),
		Mode:    0o644,
		Owner:   alice,
	}, fs)
	rc := compiler.NewRunContext(context.Background())

	ok, err := step.Precondition(rc)
	require.NoError(t, err)
	assert.False(t, ok)

	diff, err := step.Plan(rc)
	require.NoError(t, err)
	assert.Equal(t, compiler.DiffTypeAdd, diff.Type())
	assert.Equal(t, "+ font_size 11\n", diff.Detail())

	require.NoError(t, step.Apply(rc))

	ok, err = step.Postcondition(rc)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = step.Precondition(rc)
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := afero.ReadFile(mem, "/home/alice/.config/kitty/kitty.conf")
	require.NoError(t, err)
	assert.Equal(t, "font_size 11\n", string(data))
}

func TestFileStep_PlanModify(t *testing.T) {
	t.Parallel()
	fs := filesystem.NewMemFileSystem()
	require.NoError(t, fs.WriteFile("/etc/motd", []byte("hello\n"), 0o644))

	step := NewFileStep(FileSpec{ID: FileStepID("motd"), Path: "/etc/motd", Content: []byte("welcome\n"), Mode: 0o644}, fs)
	diff, err := step.Plan(compiler.NewRunContext(context.Background()))
	require.NoError(t, err)
	assert.Equal(t, compiler.DiffTypeModify, diff.Type())
	assert.Contains(t, diff.Detail(), "- hello")
	assert.Contains(t, diff.Detail(), "+ welcome")

	require.NoError(t, step.Apply(compiler.NewRunContext(context.Background())))
	diff, err = step.Plan(compiler.NewRunContext(context.Background()))
	require.NoError(t, err)
	assert.Equal(t, compiler.DiffTypeNone, diff.Type())
}
