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

// TheHarvester gathers emails, subdomains and host names from public
// sources. Its report is markup that frequently arrives without a
// declaration or a single root element, which the markup normalizer
// repairs.
type TheHarvester struct {
	runner runner.CommandRunner
	logger *logger.Logger
}

func NewTheHarvester(cr runner.CommandRunner, log *logger.Logger) *TheHarvester {
	return &TheHarvester{runner: cr, logger: log}
}

func (p *TheHarvester) ID() string       { return "theharvester" }
func (p *TheHarvester) Kind() probe.Kind { return probe.KindRecon }

func (p *TheHarvester) Run(ctx context.Context, target probe.Target, outputDir string, opts *probe.Options) probe.Result {
	const reportFile = "theharvester.xml"
	spec := execSpec{
		command: "theHarvester",
		args: []string{
			"-d", target.Domain,
			"-b", "all",
			"-f", strings.TrimSuffix(filepath.Join(outputDir, reportFile), ".xml"),
		},
		outputFile: reportFile,
		format:     normalize.FormatMarkup,
	}
	return runExec(ctx, p.runner, p.logger, p.ID(), spec, outputDir, opts)
}
