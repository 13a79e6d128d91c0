package probes

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webscout/pkg/probe"
	"webscout/pkg/testutil"
)

func TestNiktoSeveritySummary(t *testing.T) {
	dir := t.TempDir()
	report := `{"host": "example.com", "vulnerabilities": [` +
		`{"msg": "Cookie without HttpOnly flag"},` +
		`{"msg": "Possible SQL injection in /search"},` +
		`{"msg": "Allowed HTTP Methods: GET, HEAD, POST"}]}`

	mock := testutil.NewMockCommandRunner()
	mock.SetCommandResponse("nikto", testutil.CommandResponse{
		WriteFile:    filepath.Join(dir, "nikto_basic.json"),
		WriteContent: report,
	})

	result := NewNikto(mock, quietLogger(), nil).Run(context.Background(), mustTarget(t, "example.com"), dir, execOptions())

	require.Equal(t, probe.StatusSuccess, result.Status)
	summary, ok := result.Structured["severity_summary"].(map[string]int)
	require.True(t, ok)
	assert.Equal(t, 1, summary["high"])
	assert.Equal(t, 1, summary["low"])
	assert.Equal(t, 1, summary["info"])
	assert.Equal(t, "basic", result.Structured["profile"])

	_, err := os.Stat(filepath.Join(dir, "nikto_summary.json"))
	assert.NoError(t, err)
}

func TestNiktoProfileArguments(t *testing.T) {
	tests := []struct {
		profile    probe.NiktoProfile
		customArgs []string
		want       []string
	}{
		{profile: probe.NiktoQuick, want: []string{"-Tuning", "123b", "-maxtime", "300"}},
		{profile: probe.NiktoThorough, want: []string{"-Tuning", "x", "-maxtime", "3600"}},
		{profile: probe.NiktoCustom, customArgs: []string{"-Plugins", "headers"}, want: []string{"-Plugins", "headers"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.profile), func(t *testing.T) {
			mock := testutil.NewMockCommandRunner()
			opts := execOptions()
			opts.NiktoProfile = tt.profile
			opts.NiktoCustomArgs = tt.customArgs

			NewNikto(mock, quietLogger(), nil).Run(context.Background(), mustTarget(t, "example.com"), t.TempDir(), opts)

			commands := mock.GetExecutedCommands()
			require.Len(t, commands, 1)
			assert.Equal(t, "nikto", commands[0].Command)
			assert.Subset(t, commands[0].Args, tt.want)
		})
	}
}

func TestNiktoFailedRunSkipsSummary(t *testing.T) {
	mock := testutil.NewMockCommandRunner()

	result := NewNikto(mock, quietLogger(), nil).Run(context.Background(), mustTarget(t, "example.com"), t.TempDir(), execOptions())

	assert.Equal(t, probe.StatusFailed, result.Status)
	assert.NotContains(t, result.Structured, "severity_summary")
}
