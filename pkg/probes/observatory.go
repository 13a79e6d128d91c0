package probes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"webscout/pkg/logger"
	"webscout/pkg/polling"
	"webscout/pkg/probe"
)

const observatoryBaseURL = "https://http-observatory.security.mozilla.org/api/v1"

// Observatory submits the target to the Mozilla HTTP Observatory and
// polls the scan until it reaches a terminal state, then fetches the
// per-test results.
type Observatory struct {
	client *http.Client
	clock  polling.Clock
	logger *logger.Logger
}

func NewObservatory(client *http.Client, log *logger.Logger) *Observatory {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Observatory{client: client, logger: log}
}

// WithClock injects a clock for tests.
func (p *Observatory) WithClock(clock polling.Clock) *Observatory {
	p.clock = clock
	return p
}

func (p *Observatory) ID() string       { return "observatory" }
func (p *Observatory) Kind() probe.Kind { return probe.KindRecon }

func (p *Observatory) Run(ctx context.Context, target probe.Target, outputDir string, opts *probe.Options) probe.Result {
	result := probe.NewResult(p.ID())

	if opts.DryRun {
		result.Status = probe.StatusDryRun
		result.Structured["api"] = observatoryBaseURL
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

	report, err := client.Run(ctx, &observatoryJob{client: p.client, host: target.Domain})
	if err != nil {
		result.Status = probe.StatusFailed
		result.Error = err.Error()
		return result
	}

	result.Status = probe.StatusSuccess
	result.Structured = report

	jsonPath := filepath.Join(outputDir, "observatory.json")
	if werr := writeJSONFile(jsonPath, report); werr != nil {
		p.logger.WithError(werr).Error("Failed to write observatory artifact")
	} else {
		result.ArtifactPaths = append(result.ArtifactPaths, jsonPath)
	}
	return result
}

// observatoryJob drives the analyze/getScanResults endpoint pair. The
// scan identifier from the analyze response keys the results fetch;
// terminal states are FINISHED, FAILED and ABORTED.
type observatoryJob struct {
	client  *http.Client
	host    string
	scanID  int64
	summary map[string]any
}

func (j *observatoryJob) Submit(ctx context.Context) error {
	form := url.Values{"hidden": {"true"}, "rescan": {"true"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		observatoryBaseURL+"/analyze?host="+url.QueryEscape(j.host),
		strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	scan, err := j.decode(req)
	if err != nil {
		return err
	}
	if errMsg, ok := scan["error"].(string); ok && errMsg != "" {
		return fmt.Errorf("submission rejected: %s", errMsg)
	}
	if id, ok := scan["scan_id"].(float64); ok {
		j.scanID = int64(id)
	}
	return nil
}

func (j *observatoryJob) Poll(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		observatoryBaseURL+"/analyze?host="+url.QueryEscape(j.host), nil)
	if err != nil {
		return false, err
	}
	scan, err := j.decode(req)
	if err != nil {
		return false, err
	}

	state, _ := scan["state"].(string)
	switch state {
	case "FINISHED":
		j.summary = scan
		if id, ok := scan["scan_id"].(float64); ok {
			j.scanID = int64(id)
		}
		return true, nil
	case "FAILED", "ABORTED":
		return true, fmt.Errorf("scan state %s", state)
	}
	return false, nil
}

func (j *observatoryJob) Fetch(ctx context.Context) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/getScanResults?scan=%d", observatoryBaseURL, j.scanID), nil)
	if err != nil {
		return nil, err
	}
	tests, err := j.decode(req)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"scan":  j.summary,
		"tests": tests,
	}, nil
}

func (j *observatoryJob) decode(req *http.Request) (map[string]any, error) {
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
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("malformed response: %w", err)
	}
	return payload, nil
}
