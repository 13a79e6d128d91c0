package probes

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webscout/pkg/normalize"
	"webscout/pkg/probe"
)

func TestBrowserDryRunLaunchesNothing(t *testing.T) {
	dir := t.TempDir()
	opts := execOptions()
	opts.DryRun = true

	result := NewBrowser(quietLogger()).Run(context.Background(), mustTarget(t, "https://example.com"), dir, opts)

	assert.Equal(t, probe.StatusDryRun, result.Status)
	assert.Equal(t, "https://example.com", result.Structured["url"])
	assert.Zero(t, result.DurationSeconds)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBrowserAuditEndpointsCustomFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.txt")
	require.NoError(t, os.WriteFile(path, []byte("/internal-api\n"), 0644))

	opts := execOptions()
	opts.Settings.SensitiveEndpointsFile = path
	browser := NewBrowser(quietLogger())

	endpoints := browser.auditEndpoints(opts)
	require.NotEmpty(t, endpoints)

	// Custom patterns extend the built-in set rather than replacing it.
	findings := normalize.AuditLinks([]string{
		"https://example.com/internal-api/users",
		"https://example.com/.git/config",
	}, endpoints)
	require.Len(t, findings, 2)
	assert.Equal(t, "Custom", findings[0]["category"])

	// Without a configured file the defaults apply.
	assert.Nil(t, browser.auditEndpoints(execOptions()))
}

func TestBrowserAuditEndpointsUnreadableFileIgnored(t *testing.T) {
	opts := execOptions()
	opts.Settings.SensitiveEndpointsFile = filepath.Join(t.TempDir(), "missing.txt")

	assert.Nil(t, NewBrowser(quietLogger()).auditEndpoints(opts))
}
