package commandutil

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/archstrap/internal/domain/compiler"
	"github.com/felixgeelhaar/archstrap/internal/domain/config"
	"github.com/felixgeelhaar/archstrap/internal/ports"
	"github.com/felixgeelhaar/archstrap/internal/testutil/mocks"
)

func TestIsCommandNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"exec ErrNotFound", exec.ErrNotFound, true},
		{"exec error wrapper", &exec.Error{Err: exec.ErrNotFound}, true},
		{"path error", &os.PathError{Err: os.ErrNotExist}, true},
		{"other error", errors.New("nope"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, IsCommandNotFound(tt.err))
		})
	}
}

func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		runner := mocks.NewCommandRunner()
		runner.AddResult("usermod", []string{"-aG", "docker", "alice"}, ports.CommandResult{})

		_, err := Run(context.Background(), runner, "usermod", "-aG", "docker", "alice")
		require.NoError(t, err)
	})

	t.Run("non-zero exit", func(t *testing.T) {
		t.Parallel()
		runner := mocks.NewCommandRunner()
		runner.AddResult("usermod", []string{"-aG", "docker", "alice"}, ports.CommandResult{ExitCode: 6, Stderr: "usermod: group 'docker' does not exist\n"})

		_, err := Run(context.Background(), runner, "usermod", "-aG", "docker", "alice")
		var cmdErr *ports.CommandError
		require.ErrorAs(t, err, &cmdErr)
		assert.Equal(t, 6, cmdErr.ExitCode)
		assert.Contains(t, err.Error(), "group 'docker' does not exist")
	})

	t.Run("missing executable is permanent", func(t *testing.T) {
		t.Parallel()
		runner := mocks.NewCommandRunner()
		runner.AddError("nmcli", nil, &exec.Error{Name: "nmcli", Err: exec.ErrNotFound})

		_, err := Run(context.Background(), runner, "nmcli")
		require.Error(t, err)
		assert.Equal(t, compiler.FailurePermanent, compiler.Classify(err))
	})

	t.Run("timeout is transient", func(t *testing.T) {
		t.Parallel()
		runner := mocks.NewCommandRunner()
		runner.AddError("git", []string{"clone", "x", "y"}, ports.ErrCommandTimeout)

		_, err := Run(context.Background(), runner, "git", "clone", "x", "y")
		assert.True(t, compiler.IsTransient(err))
	})
}

func TestClassifyStderr(t *testing.T) {
	t.Parallel()

	lock := ports.NewCommandError("pacman", nil, ports.CommandResult{ExitCode: 1, Stderr: "error: failed to init transaction (unable to lock database)"})
	assert.True(t, compiler.IsTransient(ClassifyStderr(lock, "unable to lock database")))

	missing := ports.NewCommandError("pacman", nil, ports.CommandResult{ExitCode: 1, Stderr: "error: target not found: nosuchpkg"})
	assert.Equal(t, compiler.FailurePermanent, compiler.Classify(ClassifyStderr(missing, "unable to lock database")))

	plain := errors.New("boom")
	assert.Same(t, plain, ClassifyStderr(plain, "boom"))
}

func TestAsUser(t *testing.T) {
	t.Parallel()

	cmd, args := AsUser(config.TargetUser{}, "git", "clone", "u", "d")
	assert.Equal(t, "git", cmd)
	assert.Equal(t, []string{"clone", "u", "d"}, args)

	cmd, args = AsUser(config.TargetUser{Name: "alice", Home: "/home/alice"}, "git", "clone", "u", "d")
	assert.Equal(t, "runuser", cmd)
	assert.Equal(t, []string{"-u", "alice", "--", "env", "HOME=/home/alice", "USER=alice", "git", "clone", "u", "d"}, args)
}
