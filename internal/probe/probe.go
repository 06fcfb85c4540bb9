// Package probe answers read-only questions about the live system.
// Every probe returns true, false, or an error wrapping ErrUnknown when the
// state cannot be determined. Probes never mutate state.
package probe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/archstrap/internal/ports"
)

// ErrUnknown marks a probe whose answer could not be determined.
var ErrUnknown = errors.New("state unknown")

// DefaultTimeout bounds a single probe command.
const DefaultTimeout = 30 * time.Second

// DefaultGroupFile is the group database read by GroupContainsUser.
const DefaultGroupFile = "/etc/group"

// Prober runs probes through the command runner, filesystem, resolver and
// account lookup ports.
type Prober struct {
	runner    ports.CommandRunner
	fs        ports.FileSystem
	resolver  ports.HostResolver
	users     ports.UserLookup
	tools     ports.ToolLocator
	timeout   time.Duration
	groupFile string
}

// Option configures a Prober.
type Option func(*Prober)

// WithTimeout sets the per-probe command timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Prober) {
		p.timeout = d
	}
}

// WithGroupFile sets the group database path.
func WithGroupFile(path string) Option {
	return func(p *Prober) {
		p.groupFile = path
	}
}

// WithResolver sets the host resolver.
func WithResolver(r ports.HostResolver) Option {
	return func(p *Prober) {
		p.resolver = r
	}
}

// WithUserLookup sets the account lookup.
func WithUserLookup(u ports.UserLookup) Option {
	return func(p *Prober) {
		p.users = u
	}
}

// WithToolLocator sets the executable locator.
func WithToolLocator(l ports.ToolLocator) Option {
	return func(p *Prober) {
		p.tools = l
	}
}

// New creates a Prober.
func New(runner ports.CommandRunner, fs ports.FileSystem, opts ...Option) *Prober {
	p := &Prober{
		runner:    runner,
		fs:        fs,
		timeout:   DefaultTimeout,
		groupFile: DefaultGroupFile,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Runner returns the command runner probes use.
func (p *Prober) Runner() ports.CommandRunner {
	return p.runner
}

// FileSystem returns the filesystem probes use.
func (p *Prober) FileSystem() ports.FileSystem {
	return p.fs
}

func (p *Prober) run(ctx context.Context, command string, args ...string) (ports.CommandResult, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	result, err := p.runner.Run(ctx, command, args...)
	if err != nil {
		return result, unknownf("%s: %v", ports.CommandCall{Command: command, Args: args}, err)
	}
	return result, nil
}

func unknownf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnknown, fmt.Sprintf(format, args...))
}

// IsUnknown reports whether err marks an undetermined probe.
func IsUnknown(err error) bool {
	return errors.Is(err, ErrUnknown)
}
