package probes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"webscout/pkg/probe"
	"webscout/pkg/runner"
	"webscout/pkg/testutil"
)

func TestWafw00fVerdictFallback(t *testing.T) {
	stdout := "[*] Checking https://example.com\n" +
		"[+] The site https://example.com is behind Cloudflare (Cloudflare Inc.) WAF.\n" +
		"[~] Number of requests: 5\n"

	mock := testutil.NewMockCommandRunner()
	mock.SetCommandResponse("wafw00f", testutil.CommandResponse{
		Result: &runner.ExecResult{Stdout: []byte(stdout)},
	})

	result := NewWafw00f(mock, quietLogger()).Run(context.Background(), mustTarget(t, "https://example.com"), t.TempDir(), execOptions())

	assert.Equal(t, probe.StatusPartialSuccess, result.Status)
	assert.Equal(t, true, result.Structured["detected"])
	assert.Contains(t, result.Structured["verdict"], "is behind Cloudflare")
}

func TestWafw00fNoVerdictStaysFailed(t *testing.T) {
	mock := testutil.NewMockCommandRunner()
	mock.SetCommandResponse("wafw00f", testutil.CommandResponse{
		Result: &runner.ExecResult{Stdout: []byte("[*] Checking https://example.com\n[~] Number of requests: 2\n")},
	})

	result := NewWafw00f(mock, quietLogger()).Run(context.Background(), mustTarget(t, "https://example.com"), t.TempDir(), execOptions())

	assert.Equal(t, probe.StatusFailed, result.Status)
	assert.NotContains(t, result.Structured, "verdict")
}

func TestExtractWAFVerdict(t *testing.T) {
	assert.Equal(t,
		"The site is behind Shieldon.",
		extractWAFVerdict("noise\n  [+] The site is behind Shieldon.\nmore noise"))
	assert.Empty(t, extractWAFVerdict("no detection lines"))
}
