package probes

import (
	"context"
	"net/http"
	"path/filepath"
	"time"

	scouterrors "webscout/pkg/errors"
	"webscout/pkg/logger"
	"webscout/pkg/probe"
)

// securityHeaders are the response headers the probe grades on.
var securityHeaders = []string{
	"Strict-Transport-Security",
	"Content-Security-Policy",
	"X-Frame-Options",
	"X-Content-Type-Options",
	"Referrer-Policy",
	"Permissions-Policy",
	"Cross-Origin-Opener-Policy",
	"Cross-Origin-Resource-Policy",
}

// SecurityHeaders fetches the target once and reports which standard
// security response headers are present and which are missing. Unlike
// the polled assessments this is a single round trip.
type SecurityHeaders struct {
	client *http.Client
	logger *logger.Logger
}

func NewSecurityHeaders(client *http.Client, log *logger.Logger) *SecurityHeaders {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &SecurityHeaders{client: client, logger: log}
}

func (p *SecurityHeaders) ID() string       { return "securityheaders" }
func (p *SecurityHeaders) Kind() probe.Kind { return probe.KindRecon }

func (p *SecurityHeaders) Run(ctx context.Context, target probe.Target, outputDir string, opts *probe.Options) probe.Result {
	result := probe.NewResult(p.ID())

	if opts.DryRun {
		result.Status = probe.StatusDryRun
		result.Structured["url"] = target.URL
		result.Structured["checked_headers"] = securityHeaders
		return result
	}

	start := time.Now()
	defer func() { result.DurationSeconds = time.Since(start).Seconds() }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.URL, nil)
	if err != nil {
		result.Status = probe.StatusFailed
		result.Error = scouterrors.NewProbeExecutionError(p.ID(), err).Error()
		return result
	}
	req.Header.Set("User-Agent", opts.Settings.UserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		result.Status = probe.StatusFailed
		result.Error = scouterrors.NewProbeExecutionError(p.ID(), err).Error()
		return result
	}
	defer resp.Body.Close()

	present := map[string]string{}
	missing := []string{}
	for _, name := range securityHeaders {
		if value := resp.Header.Get(name); value != "" {
			present[name] = value
		} else {
			missing = append(missing, name)
		}
	}

	result.Status = probe.StatusSuccess
	result.Structured["status_code"] = resp.StatusCode
	result.Structured["present"] = present
	result.Structured["missing"] = missing
	result.Structured["grade_hint"] = gradeHint(len(present), len(securityHeaders))

	jsonPath := filepath.Join(outputDir, "securityheaders.json")
	if werr := writeJSONFile(jsonPath, result.Structured); werr != nil {
		p.logger.WithError(werr).Error("Failed to write securityheaders artifact")
	} else {
		result.ArtifactPaths = append(result.ArtifactPaths, jsonPath)
	}
	return result
}

// gradeHint maps the present/total ratio onto a coarse letter grade.
func gradeHint(present, total int) string {
	switch {
	case present >= total-1:
		return "A"
	case present >= total/2+1:
		return "B"
	case present >= 2:
		return "C"
	case present >= 1:
		return "D"
	}
	return "F"
}
