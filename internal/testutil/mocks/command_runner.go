// Package mocks provides test doubles for testing.
package mocks

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/felixgeelhaar/archstrap/internal/ports"
)

type response struct {
	result ports.CommandResult
	err    error
}

// CommandRunner is a thread-safe test double for ports.CommandRunner.
// Responses registered for the same command are returned in order; the last
// one repeats once the queue is drained.
type CommandRunner struct {
	mu        sync.Mutex
	responses map[string][]response
	fallback  *response
	calls     []ports.CommandCall
}

// NewCommandRunner creates a new CommandRunner mock.
func NewCommandRunner() *CommandRunner {
	return &CommandRunner{
		responses: make(map[string][]response),
		calls:     make([]ports.CommandCall, 0),
	}
}

// AddResult queues a result for a command.
func (m *CommandRunner) AddResult(command string, args []string, result ports.CommandResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := buildKey(command, args)
	m.responses[key] = append(m.responses[key], response{result: result})
}

// AddError queues an error for a command.
func (m *CommandRunner) AddError(command string, args []string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := buildKey(command, args)
	m.responses[key] = append(m.responses[key], response{err: err})
}

// SetDefault sets the result returned for commands without a registered response.
func (m *CommandRunner) SetDefault(result ports.CommandResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = &response{result: result}
}

// Run executes a mock command.
func (m *CommandRunner) Run(_ context.Context, command string, args ...string) (ports.CommandResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, ports.CommandCall{
		Command: command,
		Args:    append([]string(nil), args...),
	})

	key := buildKey(command, args)
	if queue := m.responses[key]; len(queue) > 0 {
		r := queue[0]
		if len(queue) > 1 {
			m.responses[key] = queue[1:]
		}
		return r.result, r.err
	}

	if m.fallback != nil {
		return m.fallback.result, m.fallback.err
	}

	return ports.CommandResult{}, fmt.Errorf("no mock result for command: %s %v", command, args)
}

// Calls returns all recorded command invocations.
func (m *CommandRunner) Calls() []ports.CommandCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]ports.CommandCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// CallCount returns how many times the exact command line was run.
func (m *CommandRunner) CallCount(command string, args ...string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := buildKey(command, args)
	n := 0
	for _, c := range m.calls {
		if buildKey(c.Command, c.Args) == key {
			n++
		}
	}
	return n
}

// Reset clears all registered responses and recorded calls.
func (m *CommandRunner) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = make(map[string][]response)
	m.fallback = nil
	m.calls = make([]ports.CommandCall, 0)
}

// buildKey creates a unique key for a command and its arguments.
func buildKey(command string, args []string) string {
	return command + "\x00" + strings.Join(args, "\x00")
}

// Ensure CommandRunner implements ports.CommandRunner.
var _ ports.CommandRunner = (*CommandRunner)(nil)
