package probes

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webscout/pkg/probe"
	"webscout/pkg/testutil"
)

func TestObservatoryScanLifecycle(t *testing.T) {
	var mu sync.Mutex
	polls := 0
	client := stubClient(func(r *http.Request) (*http.Response, error) {
		switch {
		case r.Method == http.MethodPost:
			return jsonResponse(`{"scan_id": 42, "state": "PENDING"}`), nil
		case strings.Contains(r.URL.Path, "getScanResults"):
			assert.Equal(t, "42", r.URL.Query().Get("scan"))
			return jsonResponse(`{"content-security-policy": {"pass": false, "score_modifier": -25}}`), nil
		default:
			mu.Lock()
			polls++
			n := polls
			mu.Unlock()
			if n < 2 {
				return jsonResponse(`{"scan_id": 42, "state": "RUNNING"}`), nil
			}
			return jsonResponse(`{"scan_id": 42, "state": "FINISHED", "grade": "B", "score": 80}`), nil
		}
	})

	p := NewObservatory(client, quietLogger()).WithClock(testutil.NewFakeClock(time.Unix(0, 0)))
	result := p.Run(context.Background(), mustTarget(t, "example.com"), t.TempDir(), pollOptions())

	require.Equal(t, probe.StatusSuccess, result.Status)

	scan, ok := result.Structured["scan"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "B", scan["grade"])

	tests, ok := result.Structured["tests"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, tests, "content-security-policy")
}

func TestObservatoryTerminalFailureStates(t *testing.T) {
	for _, state := range []string{"FAILED", "ABORTED"} {
		t.Run(state, func(t *testing.T) {
			client := stubClient(func(r *http.Request) (*http.Response, error) {
				if r.Method == http.MethodPost {
					return jsonResponse(`{"scan_id": 7, "state": "PENDING"}`), nil
				}
				return jsonResponse(`{"scan_id": 7, "state": "` + state + `"}`), nil
			})

			p := NewObservatory(client, quietLogger()).WithClock(testutil.NewFakeClock(time.Unix(0, 0)))
			result := p.Run(context.Background(), mustTarget(t, "example.com"), t.TempDir(), pollOptions())

			assert.Equal(t, probe.StatusFailed, result.Status)
			assert.Contains(t, result.Error, state)
		})
	}
}

func TestObservatorySubmissionRejected(t *testing.T) {
	client := stubClient(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(`{"error": "invalid-hostname"}`), nil
	})

	p := NewObservatory(client, quietLogger()).WithClock(testutil.NewFakeClock(time.Unix(0, 0)))
	result := p.Run(context.Background(), mustTarget(t, "example.com"), t.TempDir(), pollOptions())

	assert.Equal(t, probe.StatusFailed, result.Status)
	assert.Contains(t, result.Error, "invalid-hostname")
}
