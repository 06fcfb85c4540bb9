//go:build integration

package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/archstrap/internal/domain/config"
	"github.com/felixgeelhaar/archstrap/internal/domain/execution"
	"github.com/felixgeelhaar/archstrap/internal/ports"
	"github.com/felixgeelhaar/archstrap/internal/testutil"
	"github.com/felixgeelhaar/archstrap/internal/testutil/mocks"
)

// touchRunner creates the file a touch command names, so command steps see
// their creates path after apply.
type touchRunner struct {
	*mocks.CommandRunner
	fs ports.FileSystem
}

func (r *touchRunner) Run(ctx context.Context, command string, args ...string) (ports.CommandResult, error) {
	if command == "touch" && len(args) > 0 {
		_ = r.fs.WriteFile(args[len(args)-1], nil, 0o644)
	}
	return r.CommandRunner.Run(ctx, command, args...)
}

type sleepLog struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepLog) sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	return nil
}

func (p *pipeline) execute(t *testing.T, ctx context.Context, sleeper execution.Sleeper) []execution.StepResult {
	t.Helper()

	graph, err := p.compile(t, nil)
	require.NoError(t, err)

	plan, err := execution.NewPlanner().WithProbe(false).Plan(ctx, graph)
	require.NoError(t, err)

	results, err := execution.NewExecutor().WithSleeper(sleeper).Execute(ctx, plan)
	require.NoError(t, err)
	return results
}

func outcomes(results []execution.StepResult) map[string]string {
	out := make(map[string]string, len(results))
	for _, r := range results {
		value := string(r.Outcome())
		if r.Reason() != execution.ReasonNone {
			value += ":" + string(r.Reason())
		}
		out[r.StepID().String()] = value
	}
	return out
}

func markerBuilder() *testutil.ManifestBuilder {
	return testutil.NewManifestBuilder().
		WithFeature("base", true, "git").
		WithCritical("base").
		WithCommand(config.CommandEntry{
			ID:      "marker",
			Feature: "base",
			Argv:    []string{"touch", "/opt/marker"},
			Creates: "/opt/marker",
		}).
		WithCommand(config.CommandEntry{
			ID:      "standalone",
			Argv:    []string{"touch", "/opt/standalone"},
			Creates: "/opt/standalone",
		})
}

func TestCompilerToExecution_FreshThenIdempotent(t *testing.T) {
	t.Parallel()

	p := newPipeline(t, markerBuilder())
	p.withRunner(&touchRunner{CommandRunner: p.mock, fs: p.fs})
	p.mock.AddResult("pacman", []string{"-Q", "git"}, ports.CommandResult{ExitCode: 1})
	p.mock.AddResult("pacman", []string{"-Q", "git"}, ports.CommandResult{ExitCode: 0})

	first := p.execute(t, context.Background(), (&sleepLog{}).sleep)
	assert.Equal(t, map[string]string{
		"pkg:base":       "applied",
		"cmd:marker":     "applied",
		"cmd:standalone": "applied",
	}, outcomes(first))
	testutil.AssertFileExists(t, p.fs, "/opt/marker")

	second := p.execute(t, context.Background(), (&sleepLog{}).sleep)
	assert.Equal(t, map[string]string{
		"pkg:base":       "skipped",
		"cmd:marker":     "skipped",
		"cmd:standalone": "skipped",
	}, outcomes(second))

	assert.Equal(t, 1, p.mock.CallCount("pacman", "-S", "--needed", "--noconfirm", "git"))
	assert.Equal(t, 1, p.mock.CallCount("touch", "/opt/marker"))
}

func TestCompilerToExecution_TransientPackageFailureRetries(t *testing.T) {
	t.Parallel()

	p := newPipeline(t, testutil.NewManifestBuilder().WithFeature("base", true, "git"))
	p.mock.AddResult("pacman", []string{"-Q", "git"}, ports.CommandResult{ExitCode: 1})
	p.mock.AddResult("pacman", []string{"-Q", "git"}, ports.CommandResult{ExitCode: 0})
	install := []string{"-S", "--needed", "--noconfirm", "git"}
	p.mock.AddResult("pacman", install, ports.CommandResult{ExitCode: 1, Stderr: "error: failed retrieving file 'git.pkg.tar.zst'"})
	p.mock.AddResult("pacman", install, ports.CommandResult{ExitCode: 0})

	sleeps := &sleepLog{}
	results := p.execute(t, context.Background(), sleeps.sleep)

	require.Len(t, results, 1)
	assert.Equal(t, execution.OutcomeApplied, results[0].Outcome())
	assert.Equal(t, 2, results[0].Attempts())
	assert.Equal(t, []time.Duration{2 * time.Second}, sleeps.delays)
}

func TestCompilerToExecution_CriticalFailureAborts(t *testing.T) {
	t.Parallel()

	p := newPipeline(t, markerBuilder())
	p.withRunner(&touchRunner{CommandRunner: p.mock, fs: p.fs})
	p.mock.AddResult("pacman", []string{"-Q", "git"}, ports.CommandResult{ExitCode: 1})
	p.mock.AddResult("pacman", []string{"-S", "--needed", "--noconfirm", "git"},
		ports.CommandResult{ExitCode: 1, Stderr: "error: target not found: git"})

	results := p.execute(t, context.Background(), (&sleepLog{}).sleep)

	assert.Equal(t, map[string]string{
		"pkg:base":       "failed:PermanentFailure",
		"cmd:marker":     "failed:DependencyFailed",
		"cmd:standalone": "failed:Aborted",
	}, outcomes(results))
	assert.Equal(t, 1, results[0].Attempts(), "permanent failures are not retried")
	assert.Contains(t, results[0].Stderr(), "target not found")
	testutil.AssertFileNotExists(t, p.fs, "/opt/standalone")
}

func TestCompilerToExecution_CancelledBeforeStart(t *testing.T) {
	t.Parallel()

	p := newPipeline(t, markerBuilder())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := p.execute(t, ctx, (&sleepLog{}).sleep)

	assert.Equal(t, map[string]string{
		"pkg:base":       "failed:Cancelled",
		"cmd:marker":     "failed:DependencyFailed",
		"cmd:standalone": "failed:Cancelled",
	}, outcomes(results))
	assert.Empty(t, p.mock.Calls())
}
