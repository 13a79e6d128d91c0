// Package runner executes external scanner processes with bounded time
// budgets and captured output streams.
package runner

import "context"

// ExecResult carries everything an adapter needs to recover a
// best-effort result from a finished (or crashed) process.
type ExecResult struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// CommandRunner runs one external command. The returned error is
// non-nil only when the process could not be started or was killed by
// context cancellation; a non-zero exit is reported through ExitCode
// because many tools write partial results before failing.
type CommandRunner interface {
	Run(ctx context.Context, command string, args []string) (*ExecResult, error)
}
