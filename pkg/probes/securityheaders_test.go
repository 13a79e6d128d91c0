package probes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webscout/pkg/probe"
)

func TestSecurityHeadersGrading(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	target := mustTarget(t, server.URL)
	result := NewSecurityHeaders(server.Client(), quietLogger()).Run(context.Background(), target, t.TempDir(), execOptions())

	require.Equal(t, probe.StatusSuccess, result.Status)
	assert.Equal(t, http.StatusOK, result.Structured["status_code"])

	present, ok := result.Structured["present"].(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "DENY", present["X-Frame-Options"])
	assert.Len(t, present, 3)

	missing, ok := result.Structured["missing"].([]string)
	require.True(t, ok)
	assert.Contains(t, missing, "Strict-Transport-Security")
	assert.Len(t, missing, 5)

	assert.Equal(t, "C", result.Structured["grade_hint"])
	assert.Len(t, result.ArtifactPaths, 1)
}

func TestSecurityHeadersUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	result := NewSecurityHeaders(nil, quietLogger()).Run(context.Background(), mustTarget(t, server.URL), t.TempDir(), execOptions())

	assert.Equal(t, probe.StatusFailed, result.Status)
	assert.NotEmpty(t, result.Error)
}

func TestSecurityHeadersDryRun(t *testing.T) {
	opts := execOptions()
	opts.DryRun = true

	result := NewSecurityHeaders(nil, quietLogger()).Run(context.Background(), mustTarget(t, "https://example.com"), t.TempDir(), opts)

	assert.Equal(t, probe.StatusDryRun, result.Status)
	assert.Equal(t, "https://example.com", result.Structured["url"])
}

func TestGradeHint(t *testing.T) {
	total := len(securityHeaders)
	assert.Equal(t, "A", gradeHint(total, total))
	assert.Equal(t, "A", gradeHint(total-1, total))
	assert.Equal(t, "B", gradeHint(5, total))
	assert.Equal(t, "C", gradeHint(2, total))
	assert.Equal(t, "D", gradeHint(1, total))
	assert.Equal(t, "F", gradeHint(0, total))
}
