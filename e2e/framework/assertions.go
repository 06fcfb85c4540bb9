//go:build e2e

package framework

import (
	"strings"
	"testing"
)

// Assertions provides common assertion helpers for E2E tests.

// AssertSuccess asserts that the command succeeded.
func AssertSuccess(t *testing.T, r *Result) {
	t.Helper()
	if !r.Success() {
		t.Errorf("Expected command to succeed, got exit code %d\nStdout: %s\nStderr: %s",
			r.ExitCode, r.Stdout, r.Stderr)
	}
}

// AssertFailed asserts that the command failed.
func AssertFailed(t *testing.T, r *Result) {
	t.Helper()
	if r.Success() {
		t.Errorf("Expected command to fail, but it succeeded\nStdout: %s", r.Stdout)
	}
}

// AssertExitCode asserts the expected exit code.
func AssertExitCode(t *testing.T, r *Result, expected int) {
	t.Helper()
	if r.ExitCode != expected {
		t.Errorf("Expected exit code %d, got %d\nStdout: %s\nStderr: %s",
			expected, r.ExitCode, r.Stdout, r.Stderr)
	}
}

// AssertStdoutContains asserts that stdout contains the expected substring.
func AssertStdoutContains(t *testing.T, r *Result, expected string) {
	t.Helper()
	if !strings.Contains(r.Stdout, expected) {
		t.Errorf("Expected stdout to contain %q, but got:\n%s", expected, r.Stdout)
	}
}

// AssertStdoutNotContains asserts that stdout does not contain the unexpected substring.
func AssertStdoutNotContains(t *testing.T, r *Result, unexpected string) {
	t.Helper()
	if strings.Contains(r.Stdout, unexpected) {
		t.Errorf("Expected stdout to NOT contain %q, but got:\n%s", unexpected, r.Stdout)
	}
}

// AssertStderrContains asserts that stderr contains the expected substring.
func AssertStderrContains(t *testing.T, r *Result, expected string) {
	t.Helper()
	if !strings.Contains(r.Stderr, expected) {
		t.Errorf("Expected stderr to contain %q, but got:\n%s", expected, r.Stderr)
	}
}

// AssertStderrEmpty asserts that stderr is empty.
func AssertStderrEmpty(t *testing.T, r *Result) {
	t.Helper()
	if r.Stderr != "" {
		t.Errorf("Expected stderr to be empty, but got:\n%s", r.Stderr)
	}
}

// AssertStdoutOrder asserts that the substrings appear in stdout in the given order.
func AssertStdoutOrder(t *testing.T, r *Result, ordered ...string) {
	t.Helper()
	rest := r.Stdout
	for _, want := range ordered {
		idx := strings.Index(rest, want)
		if idx < 0 {
			t.Errorf("Expected %q to follow the previous entries in stdout:\n%s", want, r.Stdout)
			return
		}
		rest = rest[idx+len(want):]
	}
}
