package probe

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scouterrors "webscout/pkg/errors"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantErr    bool
		wantURL    string
		wantDomain string
	}{
		{name: "https url", raw: "https://example.com/path", wantURL: "https://example.com/path", wantDomain: "example.com"},
		{name: "http url with port", raw: "http://example.com:8080", wantURL: "http://example.com:8080", wantDomain: "example.com:8080"},
		{name: "bare hostname", raw: "example.com", wantURL: "http://example.com", wantDomain: "example.com"},
		{name: "subdomain", raw: "www.staging.example.com", wantURL: "http://www.staging.example.com", wantDomain: "www.staging.example.com"},
		{name: "ipv4", raw: "192.168.1.10", wantURL: "http://192.168.1.10", wantDomain: "192.168.1.10"},
		{name: "surrounding whitespace", raw: "  example.com  ", wantURL: "http://example.com", wantDomain: "example.com"},
		{name: "empty", raw: "", wantErr: true},
		{name: "whitespace only", raw: "   ", wantErr: true},
		{name: "url without host", raw: "https://", wantErr: true},
		{name: "single label", raw: "localhost", wantErr: true},
		{name: "shell metacharacters", raw: "example.com;rm -rf /", wantErr: true},
		{name: "space in host", raw: "exa mple.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, err := ParseTarget(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, scouterrors.ErrInvalidTarget))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, target.URL)
			assert.Equal(t, tt.wantDomain, target.Domain)
		})
	}
}

func TestTargetIsHTTP(t *testing.T) {
	target, err := ParseTarget("https://example.com")
	require.NoError(t, err)
	assert.True(t, target.IsHTTP())

	target, err = ParseTarget("example.com")
	require.NoError(t, err)
	assert.False(t, target.IsHTTP())
}
