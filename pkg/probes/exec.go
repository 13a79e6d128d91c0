// Package probes contains the adapters that wrap each external scanner
// tool and web analysis API behind the uniform probe interface.
package probes

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	scouterrors "webscout/pkg/errors"
	"webscout/pkg/logger"
	"webscout/pkg/normalize"
	"webscout/pkg/probe"
	"webscout/pkg/runner"
)

// execSpec describes one command-line tool invocation: what to run,
// where the tool writes its report (if it writes one at all), and how
// to normalize whatever comes back.
type execSpec struct {
	command string
	args    []string

	// outputFile is the report file the tool is asked to write,
	// relative to the scan output directory. Empty when the tool only
	// writes to stdout.
	outputFile string

	format normalize.Format
	rules  []normalize.Rule
}

// runExec executes a spec and folds every failure mode into the result.
// Output retrieval prefers the declared report file and falls back to
// stdout, then stderr: crashed tools often leave a usable report on
// disk, and some write findings to stderr only.
func runExec(ctx context.Context, cr runner.CommandRunner, log *logger.Logger, probeID string, spec execSpec, outputDir string, opts *probe.Options) probe.Result {
	result := probe.NewResult(probeID)

	commandLine := spec.command + " " + strings.Join(spec.args, " ")
	if opts.DryRun {
		result.Status = probe.StatusDryRun
		result.Structured["command"] = commandLine
		if spec.outputFile != "" {
			result.Structured["output_file"] = spec.outputFile
		}
		return result
	}

	start := time.Now()
	defer func() { result.DurationSeconds = time.Since(start).Seconds() }()

	runCtx := ctx
	if opts.Settings.ProbeTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, opts.Settings.ProbeTimeout)
		defer cancel()
	}

	exec, runErr := cr.Run(runCtx, spec.command, spec.args)

	var execErr error
	switch {
	case runErr == nil:
	case runCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil:
		execErr = &scouterrors.ProbeTimeout{ProbeID: probeID, Budget: opts.Settings.ProbeTimeout}
	case ctx.Err() != nil:
		execErr = fmt.Errorf("%w: %v", scouterrors.ErrScanInterrupted, ctx.Err())
	default:
		execErr = scouterrors.NewProbeExecutionError(probeID, runErr)
	}

	raw, rawPath := retrieveOutput(spec, outputDir, exec)
	result.RawText = raw

	if raw == "" {
		result.Status = probe.StatusFailed
		if execErr != nil {
			result.Error = execErr.Error()
		} else {
			result.Error = scouterrors.NewProbeExecutionError(probeID, scouterrors.ErrNoOutput).Error()
		}
		return result
	}

	structured, status := normalize.Normalize(raw, spec.format, spec.rules)
	result.Structured = structured
	result.Status = status

	// A tool that died but still produced parseable output yields a
	// partial result, never a silent success.
	if execErr != nil {
		result.Error = execErr.Error()
		if result.Status == probe.StatusSuccess {
			result.Status = probe.StatusPartialSuccess
		}
	} else if exec != nil && exec.ExitCode != 0 {
		result.Error = fmt.Sprintf("%s exited with code %d", spec.command, exec.ExitCode)
		if result.Status == probe.StatusSuccess {
			result.Status = probe.StatusPartialSuccess
		}
	} else if result.Status != probe.StatusSuccess {
		// The tool itself ran clean; the degradation came from
		// normalization, so that is what the error field reports.
		reason := fmt.Errorf("output only partially recovered")
		if result.Status == probe.StatusFailed {
			reason = fmt.Errorf("no parseable content in output")
		}
		result.Error = scouterrors.NewOutputParseError(probeID, string(spec.format), reason).Error()
	}

	result.ArtifactPaths = writeArtifacts(log, probeID, outputDir, rawPath, raw, structured)
	return result
}

// retrieveOutput returns the best available raw output and, when it
// came from the declared report file, that file's absolute path.
func retrieveOutput(spec execSpec, outputDir string, exec *runner.ExecResult) (string, string) {
	if spec.outputFile != "" {
		path := filepath.Join(outputDir, spec.outputFile)
		if data, err := os.ReadFile(path); err == nil && len(strings.TrimSpace(string(data))) > 0 {
			return string(data), path
		}
	}
	if exec != nil {
		if out := strings.TrimSpace(string(exec.Stdout)); out != "" {
			return string(exec.Stdout), ""
		}
		if out := strings.TrimSpace(string(exec.Stderr)); out != "" {
			return string(exec.Stderr), ""
		}
	}
	return "", ""
}

// writeArtifacts persists the raw text and structured mapping beside
// the tool's own report file. Artifact names are fixed per probe so
// repeated scans of the same target produce comparable directories.
func writeArtifacts(log *logger.Logger, probeID, outputDir, rawPath, raw string, structured map[string]any) []string {
	var paths []string
	if rawPath != "" {
		paths = append(paths, rawPath)
	}

	txtPath := filepath.Join(outputDir, probeID+".txt")
	if err := os.WriteFile(txtPath, []byte(raw), 0644); err != nil {
		log.WithError(err).Error("Failed to write raw artifact")
	} else {
		paths = append(paths, txtPath)
	}

	jsonPath := filepath.Join(outputDir, probeID+".json")
	if err := writeJSONFile(jsonPath, structured); err != nil {
		log.WithError(err).Error("Failed to write structured artifact")
	} else {
		paths = append(paths, jsonPath)
	}
	return paths
}
