// Package app wires the manifest, the providers, the planner and the
// executor into the archstrap commands.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/archstrap/internal/adapters/command"
	"github.com/felixgeelhaar/archstrap/internal/adapters/filesystem"
	"github.com/felixgeelhaar/archstrap/internal/adapters/logging"
	"github.com/felixgeelhaar/archstrap/internal/adapters/network"
	"github.com/felixgeelhaar/archstrap/internal/adapters/users"
	"github.com/felixgeelhaar/archstrap/internal/domain/compiler"
	"github.com/felixgeelhaar/archstrap/internal/domain/config"
	"github.com/felixgeelhaar/archstrap/internal/domain/execution"
	"github.com/felixgeelhaar/archstrap/internal/manifests"
	"github.com/felixgeelhaar/archstrap/internal/ports"
	"github.com/felixgeelhaar/archstrap/internal/probe"
	cmdprovider "github.com/felixgeelhaar/archstrap/internal/provider/command"
	"github.com/felixgeelhaar/archstrap/internal/provider/files"
	"github.com/felixgeelhaar/archstrap/internal/provider/git"
	netprovider "github.com/felixgeelhaar/archstrap/internal/provider/network"
	"github.com/felixgeelhaar/archstrap/internal/provider/pacman"
	"github.com/felixgeelhaar/archstrap/internal/provider/systemd"
	userprovider "github.com/felixgeelhaar/archstrap/internal/provider/users"
)

// Deps are the collaborators of a run. New fills them with the real
// implementations; tests supply doubles through NewWithDeps.
type Deps struct {
	Runner   ports.CommandRunner
	FS       ports.FileSystem
	Resolver ports.HostResolver
	Users    ports.UserLookup
	Tools    ports.ToolLocator
	Logger   ports.Logger
	Hostname func() (string, error)
	// Euid is the effective user id of the process.
	Euid int
	// LoaderOptions configure manifest lookup.
	LoaderOptions []config.LoaderOption
	// Sleeper replaces the retry backoff wait.
	Sleeper execution.Sleeper
	// PacmanConf overrides the path of pacman.conf.
	PacmanConf string
	// GroupFile overrides the path of the group database.
	GroupFile string
}

// Archstrap is the main application orchestrator.
type Archstrap struct {
	deps   Deps
	prober *probe.Prober
	out    io.Writer
}

// New creates an Archstrap that talks to the real system.
func New(out io.Writer) *Archstrap {
	runner := command.NewRealRunner()
	return NewWithDeps(out, Deps{
		Runner:   runner,
		FS:       filesystem.NewOSFileSystem(),
		Resolver: network.NewResolver(),
		Users:    users.NewOSLookup(),
		Tools:    runner,
		Hostname: os.Hostname,
		Euid:     os.Geteuid(),
	})
}

// NewWithDeps creates an Archstrap from explicit collaborators.
func NewWithDeps(out io.Writer, deps Deps) *Archstrap {
	if deps.Logger == nil {
		deps.Logger = logging.NewNopLogger()
	}
	if deps.Hostname == nil {
		deps.Hostname = os.Hostname
	}
	if deps.LoaderOptions == nil {
		deps.LoaderOptions = []config.LoaderOption{config.WithEmbedded(manifests.Default)}
	}

	opts := []probe.Option{
		probe.WithResolver(deps.Resolver),
		probe.WithUserLookup(deps.Users),
		probe.WithToolLocator(deps.Tools),
	}
	if deps.GroupFile != "" {
		opts = append(opts, probe.WithGroupFile(deps.GroupFile))
	}

	return &Archstrap{
		deps:   deps,
		prober: probe.New(deps.Runner, deps.FS, opts...),
		out:    out,
	}
}

// WithLogger replaces the logger.
func (a *Archstrap) WithLogger(logger ports.Logger) *Archstrap {
	a.deps.Logger = logger
	return a
}

// Build is a compiled manifest ready to be planned.
type Build struct {
	Manifest *config.Manifest
	Source   string
	Flags    config.Flags
	User     config.TargetUser
	Graph    *compiler.StepGraph
}

// Build loads the manifest, resolves feature flags and the target user, and
// compiles the step graph.
func (a *Archstrap) Build(_ context.Context, opts config.Options) (*Build, error) {
	loader := config.NewLoader(a.deps.FS, a.deps.LoaderOptions...)
	manifest, source, err := loader.Load(opts.ManifestPath)
	if err != nil {
		return nil, err
	}

	flags, err := manifest.ResolveFlags(opts.Env)
	if err != nil {
		return nil, err
	}

	user, err := a.prober.ResolveTargetUser(opts.User, opts.SudoUser)
	if err != nil {
		return nil, NewProbeError("cannot resolve the target user", err).
			WithSuggestion("Run through sudo or pass --user <name>.")
	}

	hostname, err := a.deps.Hostname()
	if err != nil {
		return nil, NewProbeError("cannot determine the hostname", err)
	}

	ctx := compiler.NewCompileContext(manifest).
		WithFlags(flags).
		WithUser(user).
		WithHostname(hostname)

	graph, err := a.compiler(opts, user).Compile(ctx)
	if err != nil {
		return nil, err
	}

	return &Build{
		Manifest: manifest,
		Source:   source,
		Flags:    flags,
		User:     user,
		Graph:    graph,
	}, nil
}

// compiler registers the providers. Registration order is the first
// tie-break of the step order.
func (a *Archstrap) compiler(opts config.Options, user config.TargetUser) *compiler.Compiler {
	runAsTarget := a.deps.Euid == 0 && user.Name != "root"

	pacmanProvider := pacman.NewProvider(a.prober)
	if a.deps.PacmanConf != "" {
		pacmanProvider = pacmanProvider.WithConfPath(a.deps.PacmanConf)
	}

	comp := compiler.NewCompiler()
	comp.RegisterProvider(netprovider.NewProvider(a.prober).WithEnv(opts.Env))
	comp.RegisterProvider(pacmanProvider)
	comp.RegisterProvider(systemd.NewProvider(a.prober))
	comp.RegisterProvider(userprovider.NewProvider(a.prober))
	comp.RegisterProvider(files.NewProvider(a.deps.FS))
	comp.RegisterProvider(git.NewProvider(a.prober).WithRunAsTarget(runAsTarget))
	comp.RegisterProvider(cmdprovider.NewProvider(a.prober).WithRunAsTarget(runAsTarget))
	return comp
}

// Validate compiles the manifest without probing or changing the system.
func (a *Archstrap) Validate(ctx context.Context, opts config.Options) (*Build, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return a.Build(ctx, opts)
}

// Plan builds the step graph and orders it, probing each step unless
// opts.NoProbe is set.
func (a *Archstrap) Plan(ctx context.Context, opts config.Options) (*execution.Plan, *Build, error) {
	build, err := a.Validate(ctx, opts)
	if err != nil {
		return nil, nil, err
	}

	plan, err := execution.NewPlanner().WithProbe(!opts.NoProbe).Plan(ctx, build.Graph)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to plan: %w", err)
	}
	return plan, build, nil
}

// Run is the outcome of an apply.
type Run struct {
	ID      string
	Results []execution.StepResult
	Report  execution.Report
}

// Apply builds the plan, checks that every required tool is present and
// executes it. Step failures are reported in the Run, not as an error.
func (a *Archstrap) Apply(ctx context.Context, opts config.Options) (*Run, error) {
	// The executor probes every precondition itself.
	planOpts := opts
	planOpts.NoProbe = true
	plan, build, err := a.Plan(ctx, planOpts)
	if err != nil {
		return nil, err
	}

	if missing := a.prober.MissingTools(plan.RequiredTools()); len(missing) > 0 {
		return nil, NewProbeError(fmt.Sprintf("required tools not found: %s", strings.Join(missing, ", ")), nil).
			WithSuggestion("Install the listed tools or disable the features that need them.")
	}

	runID := uuid.NewString()
	logger := a.deps.Logger.With(ports.F("run_id", runID))
	ctx = ports.ContextWithLogger(ctx, logger)
	logger.Info(ctx, "starting run",
		ports.F("manifest", build.Source),
		ports.F("user", build.User.Name),
		ports.F("features", strings.Join(build.Flags.EnabledNames(), ",")),
		ports.F("steps", plan.Len()))

	executor := execution.NewExecutor().
		WithRetries(opts.Retries).
		WithBackoff(opts.Backoff).
		WithParallel(opts.Parallel).
		WithFailFast(opts.FailFast).
		WithLogger(logger)
	if a.deps.Sleeper != nil {
		executor = executor.WithSleeper(a.deps.Sleeper)
	}

	results, err := executor.Execute(ctx, plan)
	if err != nil {
		return nil, fmt.Errorf("execution failed: %w", err)
	}

	report := execution.Summarize(results)
	logger.Info(ctx, "run finished",
		ports.F("applied", report.Applied),
		ports.F("skipped", report.Skipped),
		ports.F("failed", report.Failed))

	return &Run{ID: runID, Results: results, Report: report}, nil
}
