//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/archstrap/internal/adapters/filesystem"
	"github.com/felixgeelhaar/archstrap/internal/app"
	"github.com/felixgeelhaar/archstrap/internal/domain/config"
	"github.com/felixgeelhaar/archstrap/internal/ports"
	"github.com/felixgeelhaar/archstrap/internal/testutil"
	"github.com/felixgeelhaar/archstrap/internal/testutil/mocks"
)

// host simulates the package database, git checkouts and touch on top of an
// in-memory filesystem.
type host struct {
	mu        sync.Mutex
	fs        ports.FileSystem
	installed map[string]bool
	remotes   map[string]string
	calls     []string
}

func newHost(fs ports.FileSystem) *host {
	return &host{
		fs:        fs,
		installed: make(map[string]bool),
		remotes:   make(map[string]string),
	}
}

func (h *host) Run(_ context.Context, command string, args ...string) (ports.CommandResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, strings.TrimSpace(command+" "+strings.Join(args, " ")))

	switch command {
	case "pacman":
		return h.pacman(args), nil
	case "git":
		return h.git(args), nil
	case "touch":
		path := args[len(args)-1]
		_ = h.fs.MkdirAll(filepath.Dir(path), 0o755)
		_ = h.fs.WriteFile(path, nil, 0o644)
	}
	return ports.CommandResult{}, nil
}

func (h *host) pacman(args []string) ports.CommandResult {
	switch args[0] {
	case "-Q":
		for _, pkg := range args[1:] {
			if !h.installed[pkg] {
				return ports.CommandResult{ExitCode: 1, Stderr: "error: package '" + pkg + "' was not found"}
			}
		}
	case "-S":
		for _, pkg := range args[3:] {
			h.installed[pkg] = true
		}
	}
	return ports.CommandResult{}
}

func (h *host) git(args []string) ports.CommandResult {
	if len(args) == 4 && args[0] == "clone" {
		url, dest := args[2], args[3]
		_ = h.fs.MkdirAll(filepath.Join(dest, ".git"), 0o755)
		h.remotes[dest] = url
		return ports.CommandResult{}
	}
	if n := len(args); n >= 3 && args[n-2] == "get-url" {
		dir := args[3]
		url, ok := h.remotes[dir]
		if !ok {
			return ports.CommandResult{ExitCode: 2, Stderr: "error: No such remote 'origin'"}
		}
		return ports.CommandResult{Stdout: url + "\n"}
	}
	return ports.CommandResult{}
}

func (h *host) count(line string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, c := range h.calls {
		if c == line {
			n++
		}
	}
	return n
}

type system struct {
	app  *app.Archstrap
	fs   *filesystem.AferoFileSystem
	host *host
	out  *bytes.Buffer
}

func newSystem(t *testing.T, b *testutil.ManifestBuilder) *system {
	t.Helper()

	fs := testutil.MemFS(t, nil)
	testutil.WriteManifest(t, fs, "/work/archstrap.yaml", b)
	h := newHost(fs)
	out := &bytes.Buffer{}

	a := app.NewWithDeps(out, app.Deps{
		Runner:   h,
		FS:       fs,
		Resolver: mocks.NewHostResolver(),
		Users:    mocks.NewUserLookup(ports.UserInfo{Name: "alice", UID: "1000", GID: "1000", Home: "/home/alice"}),
		Tools:    mocks.NewToolLocator(),
		Hostname: func() (string, error) { return "arch", nil },
		Euid:     1000,
		LoaderOptions: []config.LoaderOption{
			config.WithWorkDir("/work"),
			config.WithXDGSearch(func(string) (string, error) { return "", errors.New("not found") }),
		},
		Sleeper: func(context.Context, time.Duration) error { return nil },
	})

	return &system{app: a, fs: fs, host: h, out: out}
}

func workstation() *testutil.ManifestBuilder {
	return testutil.NewManifestBuilder().
		WithFeature("base", true, "git", "zsh").
		WithCritical("base").
		WithFile(config.FileEntry{
			ID:       "zshrc",
			Feature:  "base",
			Path:     "~/.zshrc",
			Template: "# {{ .User }}@{{ .Hostname }}\n",
		}).
		WithRepo(config.RepoEntry{
			ID:      "dotfiles",
			Feature: "base",
			URL:     "https://github.com/alice/dotfiles.git",
			Dest:    "~/dotfiles",
		}).
		WithCommand(config.CommandEntry{
			ID:        "bootstrapped",
			Argv:      []string{"touch", "/home/alice/.local/state/bootstrapped"},
			Creates:   "~/.local/state/bootstrapped",
			DependsOn: []string{"git:dotfiles"},
		})
}

func TestFullPipeline_ApplyThenRerun(t *testing.T) {
	t.Parallel()

	s := newSystem(t, workstation())
	opts := config.DefaultOptions()

	first, err := s.app.Apply(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 4, first.Report.Applied)
	assert.Equal(t, 0, first.Report.ExitCode)
	assert.NotEmpty(t, first.ID)

	testutil.AssertFileEquals(t, s.fs, "/home/alice/.zshrc", "# alice@arch\n")
	testutil.AssertFileExists(t, s.fs, "/home/alice/dotfiles/.git")
	testutil.AssertFileExists(t, s.fs, "/home/alice/.local/state/bootstrapped")

	second, err := s.app.Apply(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Report.Applied)
	assert.Equal(t, 4, second.Report.Skipped)

	assert.Equal(t, 1, s.host.count("pacman -S --needed --noconfirm git zsh"))
	assert.Equal(t, 1, s.host.count("git clone -- https://github.com/alice/dotfiles.git /home/alice/dotfiles"))
}

func TestFullPipeline_PlanShowsPendingWork(t *testing.T) {
	t.Parallel()

	s := newSystem(t, workstation())

	plan, build, err := s.app.Plan(context.Background(), config.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 4, plan.Len())
	assert.True(t, plan.HasChanges())

	s.app.PrintPlan(plan, build)
	output := s.out.String()
	assert.Contains(t, output, "pkg:base")
	assert.Contains(t, output, "git:dotfiles")
	assert.Contains(t, output, "Steps: 4 total")
	assert.Zero(t, s.host.count("pacman -S --needed --noconfirm git zsh"), "plan must not change the system")
}

func TestFullPipeline_JSONReport(t *testing.T) {
	t.Parallel()

	s := newSystem(t, workstation())

	run, err := s.app.Apply(context.Background(), config.DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, s.app.WriteRunJSON(run))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(s.out.Bytes(), &decoded))
	assert.Equal(t, run.ID, decoded["run_id"])
	assert.EqualValues(t, 4, decoded["applied"])
	assert.EqualValues(t, 0, decoded["exit_code"])
}

func TestFullPipeline_CycleIsBuildError(t *testing.T) {
	t.Parallel()

	b := testutil.NewManifestBuilder().
		WithFeature("base", true, "git").
		WithCommand(config.CommandEntry{ID: "a", Argv: []string{"touch", "/a"}, Creates: "/a", DependsOn: []string{"cmd:b"}}).
		WithCommand(config.CommandEntry{ID: "b", Argv: []string{"touch", "/b"}, Creates: "/b", DependsOn: []string{"cmd:a"}})
	s := newSystem(t, b)

	_, err := s.app.Apply(context.Background(), config.DefaultOptions())
	require.Error(t, err)
	assert.Equal(t, app.ExitBuildError, app.ExitCode(err))
	assert.Zero(t, s.host.count("touch /a"))
}
