package probes

import (
	"context"
	"path/filepath"

	"webscout/pkg/logger"
	"webscout/pkg/normalize"
	"webscout/pkg/probe"
	"webscout/pkg/runner"
)

// WhatWeb fingerprints the web stack behind a target: server software,
// frameworks, analytics tags, version strings.
type WhatWeb struct {
	runner runner.CommandRunner
	logger *logger.Logger
}

func NewWhatWeb(cr runner.CommandRunner, log *logger.Logger) *WhatWeb {
	return &WhatWeb{runner: cr, logger: log}
}

func (p *WhatWeb) ID() string       { return "whatweb" }
func (p *WhatWeb) Kind() probe.Kind { return probe.KindRecon }

func (p *WhatWeb) Run(ctx context.Context, target probe.Target, outputDir string, opts *probe.Options) probe.Result {
	const reportFile = "whatweb_log.json"
	spec := execSpec{
		command: "whatweb",
		args: []string{
			"--log-json=" + filepath.Join(outputDir, reportFile),
			"-a", "3",
			target.URL,
		},
		outputFile: reportFile,
		format:     normalize.FormatJSON,
	}
	return runExec(ctx, p.runner, p.logger, p.ID(), spec, outputDir, opts)
}
