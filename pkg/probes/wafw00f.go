package probes

import (
	"context"
	"path/filepath"
	"strings"

	"webscout/pkg/logger"
	"webscout/pkg/normalize"
	"webscout/pkg/probe"
	"webscout/pkg/runner"
)

// Wafw00f detects web application firewalls in front of the target.
// The tool writes a JSON report, but several failure modes leave only
// the human-readable verdict on stdout; the adapter falls back to
// scanning for it.
type Wafw00f struct {
	runner runner.CommandRunner
	logger *logger.Logger
}

func NewWafw00f(cr runner.CommandRunner, log *logger.Logger) *Wafw00f {
	return &Wafw00f{runner: cr, logger: log}
}

func (p *Wafw00f) ID() string       { return "wafw00f" }
func (p *Wafw00f) Kind() probe.Kind { return probe.KindRecon }

func (p *Wafw00f) Run(ctx context.Context, target probe.Target, outputDir string, opts *probe.Options) probe.Result {
	const reportFile = "wafw00f_report.json"
	spec := execSpec{
		command: "wafw00f",
		args: []string{
			"-o", filepath.Join(outputDir, reportFile),
			"-f", "json",
			target.URL,
		},
		outputFile: reportFile,
		format:     normalize.FormatJSON,
	}
	result := runExec(ctx, p.runner, p.logger, p.ID(), spec, outputDir, opts)

	if result.Status == probe.StatusFailed && result.RawText != "" {
		if verdict := extractWAFVerdict(result.RawText); verdict != "" {
			result.Structured["detected"] = true
			result.Structured["verdict"] = verdict
			result.Status = probe.StatusPartialSuccess
		}
	}
	return result
}

// extractWAFVerdict finds the "is behind" line wafw00f prints even when
// its report writer fails.
func extractWAFVerdict(raw string) string {
	for _, line := range strings.Split(raw, "\n") {
		if strings.Contains(line, "is behind") {
			return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "[+]"))
		}
	}
	return ""
}
