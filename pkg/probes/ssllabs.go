package probes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"time"

	"webscout/pkg/logger"
	"webscout/pkg/polling"
	"webscout/pkg/probe"
)

const ssllabsAnalyzeURL = "https://api.ssllabs.com/api/v3/analyze"

// SSLLabs submits the target to the Qualys SSL Labs assessment service
// and polls until the grade report is ready. Assessments routinely take
// minutes, so the poll budget bounds the wait.
type SSLLabs struct {
	client *http.Client
	clock  polling.Clock
	logger *logger.Logger
}

func NewSSLLabs(client *http.Client, log *logger.Logger) *SSLLabs {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &SSLLabs{client: client, logger: log}
}

// WithClock injects a clock for tests.
func (p *SSLLabs) WithClock(clock polling.Clock) *SSLLabs {
	p.clock = clock
	return p
}

func (p *SSLLabs) ID() string       { return "ssllabs" }
func (p *SSLLabs) Kind() probe.Kind { return probe.KindRecon }

func (p *SSLLabs) Run(ctx context.Context, target probe.Target, outputDir string, opts *probe.Options) probe.Result {
	result := probe.NewResult(p.ID())

	if opts.DryRun {
		result.Status = probe.StatusDryRun
		result.Structured["api"] = ssllabsAnalyzeURL
		result.Structured["host"] = target.Domain
		return result
	}

	start := time.Now()
	defer func() { result.DurationSeconds = time.Since(start).Seconds() }()

	cfg := polling.Config{Interval: opts.Settings.PollInterval, Budget: opts.Settings.PollBudget}
	var client *polling.Client
	if p.clock != nil {
		client = polling.NewClientWithClock(p.ID(), cfg, p.logger, p.clock)
	} else {
		client = polling.NewClient(p.ID(), cfg, p.logger)
	}

	report, err := client.Run(ctx, &ssllabsJob{client: p.client, host: target.Domain})
	if err != nil {
		result.Status = probe.StatusFailed
		result.Error = err.Error()
		return result
	}

	result.Status = probe.StatusSuccess
	result.Structured = report

	jsonPath := filepath.Join(outputDir, "ssllabs.json")
	if werr := writeJSONFile(jsonPath, report); werr != nil {
		p.logger.WithError(werr).Error("Failed to write ssllabs artifact")
	} else {
		result.ArtifactPaths = append(result.ArtifactPaths, jsonPath)
	}
	return result
}

// ssllabsJob speaks the analyze endpoint protocol: startNew=on kicks
// off the assessment, subsequent plain requests report status READY or
// ERROR, and all=done returns the full report.
type ssllabsJob struct {
	client *http.Client
	host   string
}

func (j *ssllabsJob) Submit(ctx context.Context) error {
	_, err := j.analyze(ctx, url.Values{"host": {j.host}, "startNew": {"on"}, "ignoreMismatch": {"on"}})
	return err
}

func (j *ssllabsJob) Poll(ctx context.Context) (bool, error) {
	report, err := j.analyze(ctx, url.Values{"host": {j.host}})
	if err != nil {
		return false, err
	}
	switch report["status"] {
	case "READY":
		return true, nil
	case "ERROR":
		msg, _ := report["statusMessage"].(string)
		return true, fmt.Errorf("assessment error: %s", msg)
	}
	return false, nil
}

func (j *ssllabsJob) Fetch(ctx context.Context) (map[string]any, error) {
	return j.analyze(ctx, url.Values{"host": {j.host}, "all": {"done"}})
}

func (j *ssllabsJob) analyze(ctx context.Context, params url.Values) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ssllabsAnalyzeURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := j.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var report map[string]any
	if err := json.Unmarshal(body, &report); err != nil {
		return nil, fmt.Errorf("malformed analyze response: %w", err)
	}
	return report, nil
}
