package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRealRunner(t *testing.T) {
	t.Parallel()

	runner := NewRealRunner()
	require.NotNil(t, runner)
	assert.Equal(t, DefaultTimeout, runner.Timeout())
	assert.Equal(t, time.Second, runner.WithTimeout(time.Second).Timeout())
}

func TestRealRunner_Run_Success(t *testing.T) {
	t.Parallel()

	result, err := NewRealRunner().Run(context.Background(), "echo", "hello")
	require.NoError(t, err)
	assert.True(t, result.Success())
	assert.Equal(t, "hello\n", result.Stdout)
}

func TestRealRunner_Run_ArgumentsAreNotInterpreted(t *testing.T) {
	t.Parallel()

	result, err := NewRealRunner().Run(context.Background(), "echo", "$HOME; rm -rf /")
	require.NoError(t, err)
	assert.Equal(t, "$HOME; rm -rf /\n", result.Stdout)
}

func TestRealRunner_Run_NonZeroExitIsNotAnError(t *testing.T) {
	t.Parallel()

	result, err := NewRealRunner().Run(context.Background(), "false")
	require.NoError(t, err)
	assert.False(t, result.Success())
	assert.NotEqual(t, 0, result.ExitCode)
}

func TestRealRunner_Run_NotFound(t *testing.T) {
	t.Parallel()

	_, err := NewRealRunner().Run(context.Background(), "nonexistent-command-12345")
	assert.Error(t, err)
}

func TestRealRunner_Run_CapturesStderr(t *testing.T) {
	t.Parallel()

	result, err := NewRealRunner().Run(context.Background(), "sh", "-c", "echo error >&2; exit 3")
	require.NoError(t, err)
	assert.Equal(t, 3, result.ExitCode)
	assert.Equal(t, "error\n", result.Stderr)
}

func TestRealRunner_Run_Timeout(t *testing.T) {
	t.Parallel()

	runner := NewRealRunner().WithTimeout(50 * time.Millisecond)
	start := time.Now()
	_, err := runner.Run(context.Background(), "sleep", "5")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestRealRunner_LookPath(t *testing.T) {
	t.Parallel()

	runner := NewRealRunner()
	path, err := runner.LookPath("sh")
	require.NoError(t, err)
	assert.NotEmpty(t, path)

	_, err = runner.LookPath("nonexistent-command-12345")
	assert.Error(t, err)
}
