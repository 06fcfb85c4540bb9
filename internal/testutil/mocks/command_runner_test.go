package mocks

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/archstrap/internal/ports"
)

func TestCommandRunner_AddResult(t *testing.T) {
	runner := NewCommandRunner()
	runner.AddResult("pacman", []string{"-Q", "git"}, ports.CommandResult{Stdout: "git 2.45.0-1"})

	result, err := runner.Run(context.Background(), "pacman", "-Q", "git")
	require.NoError(t, err)
	assert.Equal(t, "git 2.45.0-1", result.Stdout)
}

func TestCommandRunner_QueuedResponses(t *testing.T) {
	runner := NewCommandRunner()
	args := []string{"clone", "https://example.com/r.git", "/tmp/r"}
	runner.AddError("git", args, errors.New("network down"))
	runner.AddResult("git", args, ports.CommandResult{ExitCode: 128})
	runner.AddResult("git", args, ports.CommandResult{})

	_, err := runner.Run(context.Background(), "git", args...)
	require.Error(t, err)

	res, err := runner.Run(context.Background(), "git", args...)
	require.NoError(t, err)
	assert.Equal(t, 128, res.ExitCode)

	for i := 0; i < 3; i++ {
		res, err = runner.Run(context.Background(), "git", args...)
		require.NoError(t, err)
		assert.Equal(t, 0, res.ExitCode, "last response repeats")
	}
	assert.Equal(t, 5, runner.CallCount("git", args...))
}

func TestCommandRunner_Default(t *testing.T) {
	runner := NewCommandRunner()

	_, err := runner.Run(context.Background(), "unknown", "command")
	require.Error(t, err)

	runner.SetDefault(ports.CommandResult{ExitCode: 1})
	res, err := runner.Run(context.Background(), "unknown", "command")
	require.NoError(t, err)
	assert.Equal(t, 1, res.ExitCode)
}

func TestCommandRunner_ArgumentsAreNotSplit(t *testing.T) {
	runner := NewCommandRunner()
	runner.AddResult("echo", []string{"a b"}, ports.CommandResult{Stdout: "a b"})

	_, err := runner.Run(context.Background(), "echo", "a", "b")
	require.Error(t, err, "two arguments must not match one argument containing a space")
}

func TestCommandRunner_Concurrent(t *testing.T) {
	runner := NewCommandRunner()
	runner.SetDefault(ports.CommandResult{})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = runner.Run(context.Background(), "true")
		}()
	}
	wg.Wait()

	assert.Len(t, runner.Calls(), 50)
	runner.Reset()
	assert.Empty(t, runner.Calls())
}
