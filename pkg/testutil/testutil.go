// Package testutil provides testing utilities for the webscout application
package testutil

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"webscout/pkg/polling"
	"webscout/pkg/runner"
)

// MockCommandRunner implements runner.CommandRunner for testing
type MockCommandRunner struct {
	mu        sync.RWMutex
	commands  []ExecutedCommand
	responses map[string]CommandResponse
}

type ExecutedCommand struct {
	Command string
	Args    []string
	Context context.Context
}

// CommandResponse is the canned outcome for one command line. A nil
// Result with a nil Error simulates a tool that ran silently.
type CommandResponse struct {
	Result *runner.ExecResult
	Error  error
	Delay  time.Duration

	// WriteFile, when set, drops canned report content at that path
	// before returning, simulating a tool that writes its own report.
	WriteFile    string
	WriteContent string
	WriteFn      func() error
}

func NewMockCommandRunner() *MockCommandRunner {
	return &MockCommandRunner{
		responses: make(map[string]CommandResponse),
	}
}

func (m *MockCommandRunner) Run(ctx context.Context, command string, args []string) (*runner.ExecResult, error) {
	m.mu.Lock()
	m.commands = append(m.commands, ExecutedCommand{
		Command: command,
		Args:    args,
		Context: ctx,
	})
	m.mu.Unlock()

	m.mu.RLock()
	response, exists := m.responses[commandKey(command, args)]
	if !exists {
		// Fall back to a command-only response so callers do not have
		// to reproduce full argument lists.
		response, exists = m.responses[command]
	}
	m.mu.RUnlock()

	if !exists {
		return &runner.ExecResult{}, nil
	}

	if response.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(response.Delay):
		}
	}
	if response.WriteFile != "" {
		if err := os.WriteFile(response.WriteFile, []byte(response.WriteContent), 0644); err != nil {
			return nil, err
		}
	}
	if response.WriteFn != nil {
		if err := response.WriteFn(); err != nil {
			return nil, err
		}
	}
	if response.Error != nil {
		return response.Result, response.Error
	}
	if response.Result == nil {
		return &runner.ExecResult{}, nil
	}
	return response.Result, nil
}

// SetResponse registers a canned response for an exact command line.
func (m *MockCommandRunner) SetResponse(command string, args []string, response CommandResponse) {
	m.mu.Lock()
	m.responses[commandKey(command, args)] = response
	m.mu.Unlock()
}

// SetCommandResponse registers a canned response matched on the command
// name alone, regardless of arguments.
func (m *MockCommandRunner) SetCommandResponse(command string, response CommandResponse) {
	m.mu.Lock()
	m.responses[command] = response
	m.mu.Unlock()
}

func (m *MockCommandRunner) GetExecutedCommands() []ExecutedCommand {
	m.mu.RLock()
	defer m.mu.RUnlock()

	commands := make([]ExecutedCommand, len(m.commands))
	copy(commands, m.commands)
	return commands
}

func (m *MockCommandRunner) Reset() {
	m.mu.Lock()
	m.commands = nil
	m.responses = make(map[string]CommandResponse)
	m.mu.Unlock()
}

func commandKey(command string, args []string) string {
	return command + " " + strings.Join(args, " ")
}

// FakeClock implements polling.Clock with manually advanced time, so
// budget expiry can be tested without real waits.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// After advances the clock by d immediately and fires. Polling loops
// under test therefore burn through their budget without sleeping.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	c.mu.Unlock()

	ch := make(chan time.Time, 1)
	ch <- now
	return ch
}

var _ polling.Clock = (*FakeClock)(nil)
