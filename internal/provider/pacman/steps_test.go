package pacman

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/archstrap/internal/adapters/filesystem"
	"github.com/felixgeelhaar/archstrap/internal/domain/compiler"
	"github.com/felixgeelhaar/archstrap/internal/domain/config"
	"github.com/felixgeelhaar/archstrap/internal/ports"
	"github.com/felixgeelhaar/archstrap/internal/probe"
	"github.com/felixgeelhaar/archstrap/internal/testutil/mocks"
)

func TestPackageStep_Lifecycle(t *testing.T) {
	t.Parallel()
	runner := mocks.NewCommandRunner()
	runner.AddResult("pacman", []string{"-Q", "docker"}, ports.CommandResult{ExitCode: 1})
	runner.AddResult("pacman", []string{"-Q", "docker"}, ports.CommandResult{ExitCode: 0})
	runner.AddResult("pacman", []string{"-S", "--needed", "--noconfirm", "docker"}, ports.CommandResult{})
	p := probe.New(runner, filesystem.NewMemFileSystem())

	step := NewPackageStep(config.Feature{Name: "docker", Packages: []string{"docker"}}, nil, p)
	rc := compiler.NewRunContext(context.Background())

	ok, err := step.Precondition(rc)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, step.Apply(rc))

	ok, err = step.Postcondition(rc)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, "pkg:docker", step.ID().String())
	assert.Equal(t, []string{"pacman"}, step.Tools())
	assert.True(t, step.Retryable())
}

func TestPackageStep_ApplyClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		stderr    string
		transient bool
	}{
		{name: "database locked", stderr: "error: failed to init transaction (unable to lock database)\n", transient: true},
		{name: "mirror unreachable", stderr: "error: failed retrieving file 'docker.pkg.tar.zst' from mirror\n", transient: true},
		{name: "unknown target", stderr: "error: target not found: dockerr\n", transient: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			runner := mocks.NewCommandRunner()
			runner.AddResult("pacman", []string{"-S", "--needed", "--noconfirm", "docker"}, ports.CommandResult{ExitCode: 1, Stderr: tt.stderr})
			p := probe.New(runner, filesystem.NewMemFileSystem())

			err := NewPackageStep(config.Feature{Name: "docker", Packages: []string{"docker"}}, nil, p).
				Apply(compiler.NewRunContext(context.Background()))
			require.Error(t, err)
			assert.Equal(t, tt.transient, compiler.IsTransient(err))

			var cmdErr *ports.CommandError
			require.ErrorAs(t, err, &cmdErr)
			assert.Equal(t, 1, cmdErr.ExitCode)
		})
	}
}

func TestPackageStep_Plan(t *testing.T) {
	t.Parallel()
	runner := mocks.NewCommandRunner()
	runner.AddResult("pacman", []string{"-Q", "git"}, ports.CommandResult{ExitCode: 0})
	runner.AddResult("pacman", []string{"-Q", "neovim"}, ports.CommandResult{ExitCode: 1})
	p := probe.New(runner, filesystem.NewMemFileSystem())

	step := NewPackageStep(config.Feature{Name: "dev", Packages: []string{"git", "neovim"}}, nil, p)
	diff, err := step.Plan(compiler.NewRunContext(context.Background()))
	require.NoError(t, err)
	assert.Equal(t, compiler.DiffTypeAdd, diff.Type())
	assert.Equal(t, "neovim", diff.NewValue())
}

const stockConf = `[options]
HoldPkg     = pacman glibc
Architecture = auto
Color
CheckSpace

[core]
Include = /etc/pacman.d/mirrorlist

[extra]
Include = /etc/pacman.d/mirrorlist

#[multilib]
#Include = /etc/pacman.d/mirrorlist
`

func TestEnableMultilib(t *testing.T) {
	t.Parallel()

	out := string(EnableMultilib([]byte(stockConf)))
	assert.Contains(t, out, "\n[multilib]\nInclude = /etc/pacman.d/mirrorlist\n")
	assert.NotContains(t, out, "#[multilib]")

	appended := string(EnableMultilib([]byte("[core]\nInclude = /etc/pacman.d/mirrorlist\n")))
	assert.Contains(t, appended, "[multilib]\nInclude = /etc/pacman.d/mirrorlist\n")

	headerOnly := string(EnableMultilib([]byte("#[multilib]\n")))
	assert.Contains(t, headerOnly, "[multilib]\nInclude = /etc/pacman.d/mirrorlist")
}

func TestMultilibStep_Apply(t *testing.T) {
	t.Parallel()
	fs := filesystem.NewMemFileSystem()
	require.NoError(t, fs.WriteFile("/etc/pacman.conf", []byte(stockConf), 0o644))
	runner := mocks.NewCommandRunner()
	runner.AddResult("pacman", []string{"-Sy", "--noconfirm"}, ports.CommandResult{})
	p := probe.New(runner, fs)

	step := NewMultilibStep("/etc/pacman.conf", nil, p)
	rc := compiler.NewRunContext(context.Background())

	ok, err := step.Precondition(rc)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, step.Apply(rc))
	assert.Equal(t, 1, runner.CallCount("pacman", "-Sy", "--noconfirm"))

	ok, err = step.Postcondition(rc)
	require.NoError(t, err)
	assert.True(t, ok)

	// A second apply does not append another section.
	require.NoError(t, step.Apply(rc))
	data, err := fs.ReadFile("/etc/pacman.conf")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "[multilib]"))
}
