package probes

import (
	"context"
	"fmt"
	"path/filepath"

	"webscout/pkg/logger"
	"webscout/pkg/normalize"
	"webscout/pkg/probe"
	"webscout/pkg/runner"
)

// Nikto runs the web server vulnerability scanner under one of the
// fixed invocation profiles. After normalization the findings are fed
// through the severity classifier and a per-severity summary is written
// as an extra artifact.
type Nikto struct {
	runner     runner.CommandRunner
	logger     *logger.Logger
	classifier normalize.Classifier
}

func NewNikto(cr runner.CommandRunner, log *logger.Logger, classifier normalize.Classifier) *Nikto {
	if classifier == nil {
		classifier = normalize.NewKeywordClassifier()
	}
	return &Nikto{runner: cr, logger: log, classifier: classifier}
}

func (p *Nikto) ID() string       { return "nikto" }
func (p *Nikto) Kind() probe.Kind { return probe.KindVuln }

func (p *Nikto) Run(ctx context.Context, target probe.Target, outputDir string, opts *probe.Options) probe.Result {
	profile := opts.NiktoProfile
	if profile == "" {
		profile = probe.NiktoBasic
	}
	reportFile := fmt.Sprintf("nikto_%s.json", profile)

	args := []string{
		"-h", target.URL,
		"-o", filepath.Join(outputDir, reportFile),
		"-Format", "json",
	}
	switch profile {
	case probe.NiktoQuick:
		args = append(args, "-Tuning", "123b", "-maxtime", "300")
	case probe.NiktoThorough:
		args = append(args, "-Tuning", "x", "-maxtime", "3600")
	case probe.NiktoCustom:
		args = append(args, opts.NiktoCustomArgs...)
	}

	spec := execSpec{
		command:    "nikto",
		args:       args,
		outputFile: reportFile,
		format:     normalize.FormatJSON,
	}
	result := runExec(ctx, p.runner, p.logger, p.ID(), spec, outputDir, opts)
	result.Structured["profile"] = string(profile)

	if result.Status == probe.StatusSuccess || result.Status == probe.StatusPartialSuccess {
		summary := p.summarize(result.Structured)
		result.Structured["severity_summary"] = summary

		summaryPath := filepath.Join(outputDir, "nikto_summary.json")
		if err := writeJSONFile(summaryPath, summary); err != nil {
			p.logger.WithError(err).Error("Failed to write nikto summary")
		} else {
			result.ArtifactPaths = append(result.ArtifactPaths, summaryPath)
		}
	}
	return result
}

// summarize counts findings per severity. Nikto nests findings under
// "vulnerabilities" in its report; the recovered line-by-line form puts
// them under "items".
func (p *Nikto) summarize(structured map[string]any) map[string]int {
	summary := map[string]int{
		normalize.SeverityHigh:   0,
		normalize.SeverityMedium: 0,
		normalize.SeverityLow:    0,
		normalize.SeverityInfo:   0,
	}

	for _, finding := range niktoFindings(structured) {
		msg, _ := finding["msg"].(string)
		if msg == "" {
			msg, _ = finding["message"].(string)
		}
		summary[p.classifier.Classify(msg)]++
	}
	return summary
}

func niktoFindings(structured map[string]any) []map[string]any {
	var raw []any
	if v, ok := structured["vulnerabilities"].([]any); ok {
		raw = v
	} else if v, ok := structured["items"].([]any); ok {
		raw = v
	}

	findings := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			findings = append(findings, m)
		}
	}
	return findings
}
