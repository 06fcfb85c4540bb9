package ports

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandResult_Success(t *testing.T) {
	t.Parallel()

	assert.True(t, CommandResult{ExitCode: 0, Stdout: "output"}.Success())
	assert.False(t, CommandResult{ExitCode: 1, Stderr: "error"}.Success())
}

func TestCommandCall_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "pacman -Q git", CommandCall{Command: "pacman", Args: []string{"-Q", "git"}}.String())
	assert.Equal(t, "true", CommandCall{Command: "true"}.String())
}

func TestCommandError_Error(t *testing.T) {
	t.Parallel()

	err := NewCommandError("pacman", []string{"-S", "nope"}, CommandResult{
		ExitCode: 1,
		Stderr:   "resolving dependencies...\nerror: target not found: nope\n",
	})

	assert.Equal(t, "pacman -S nope exited with code 1: error: target not found: nope", err.Error())
	assert.Equal(t, "error: target not found: nope", err.StderrFragment())
}

func TestLastLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		max      int
		expected string
	}{
		{"empty", "", 10, ""},
		{"single line", "boom", 10, "boom"},
		{"trailing blank lines", "first\nsecond\n\n  \n", 10, "second"},
		{"truncated", strings.Repeat("x", 20), 5, "xxxxx"},
		{"no limit", "abc", 0, "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, LastLine(tt.input, tt.max))
		})
	}
}
