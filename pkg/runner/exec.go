package runner

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"webscout/pkg/logger"

	"github.com/sirupsen/logrus"
)

// allowedCommands is the fixed set of scanner binaries the adapters
// wrap. The invocation contract of each is external and documented per
// tool; anything else is rejected before it reaches the shell.
var allowedCommands = map[string]bool{
	"dnsenum":      true,
	"whatweb":      true,
	"theHarvester": true,
	"sslscan":      true,
	"wafw00f":      true,
	"nikto":        true,
}

// ExecRunner is the production CommandRunner backed by os/exec.
type ExecRunner struct {
	logger *logger.Logger
}

func NewExecRunner() *ExecRunner {
	return &ExecRunner{logger: logger.NewLogger(logrus.InfoLevel)}
}

func (r *ExecRunner) Run(ctx context.Context, command string, args []string) (*ExecResult, error) {
	if err := r.validateCommand(command); err != nil {
		return nil, fmt.Errorf("invalid command: %w", err)
	}
	for i, arg := range args {
		if err := validateArgument(arg); err != nil {
			return nil, fmt.Errorf("invalid argument at index %d (%s): %w", i, arg, err)
		}
	}

	r.logger.WithFields(logger.Fields{
		"command": command,
		"args":    args,
	}).Info("Executing command")

	cmd := exec.CommandContext(ctx, command, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := &ExecResult{
		Stdout: stdout.Bytes(),
		Stderr: stderr.Bytes(),
	}

	if err != nil {
		if ctx.Err() != nil {
			// Killed by timeout or cancellation; keep whatever the
			// process managed to write.
			return result, ctx.Err()
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
			r.logger.WithFields(logger.Fields{
				"command":   command,
				"exit_code": result.ExitCode,
			}).Warn("Command exited non-zero")
			return result, nil
		}
		r.logger.WithError(err).Error("Command could not be started")
		return nil, err
	}

	return result, nil
}

func (r *ExecRunner) validateCommand(command string) error {
	if command == "" {
		return fmt.Errorf("command is empty")
	}
	if !allowedCommands[command] {
		return fmt.Errorf("command not in whitelist: %s (add to allowedCommands if this is a valid tool)", command)
	}
	return nil
}

// validateArgument rejects shell metacharacters that could enable
// command injection when an argument is derived from the target.
func validateArgument(arg string) error {
	if arg == "" {
		return nil
	}

	dangerous := []string{";", "&", "|", "`", "$", "(", ")", "\n", "\r", "<", ">"}
	for _, char := range dangerous {
		if strings.Contains(arg, char) {
			return fmt.Errorf("argument contains dangerous character: %s", char)
		}
	}

	if strings.Contains(arg, "..") && !strings.Contains(arg, "://") {
		return fmt.Errorf("path traversal detected in argument")
	}

	return nil
}
