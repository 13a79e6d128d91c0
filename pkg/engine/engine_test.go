package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scouterrors "webscout/pkg/errors"
	"webscout/pkg/logger"
	"webscout/pkg/probe"
)

type stubProbe struct {
	id   string
	kind probe.Kind
	run  func(ctx context.Context, target probe.Target, outputDir string, opts *probe.Options) probe.Result
}

func (p *stubProbe) ID() string       { return p.id }
func (p *stubProbe) Kind() probe.Kind { return p.kind }

func (p *stubProbe) Run(ctx context.Context, target probe.Target, outputDir string, opts *probe.Options) probe.Result {
	if p.run != nil {
		return p.run(ctx, target, outputDir, opts)
	}
	res := probe.NewResult(p.id)
	res.Status = probe.StatusSuccess
	return res
}

func staticProbe(id string, kind probe.Kind, status probe.Status) *stubProbe {
	return &stubProbe{id: id, kind: kind, run: func(ctx context.Context, target probe.Target, outputDir string, opts *probe.Options) probe.Result {
		res := probe.NewResult(id)
		res.Status = status
		return res
	}}
}

func quietLogger() *logger.Logger {
	return logger.NewLogger(logrus.PanicLevel)
}

func testOptions() *probe.Options {
	opts := probe.DefaultOptions()
	opts.UseBrowser = false
	opts.UseOnline = false
	return opts
}

func TestRunRecordsEveryProbe(t *testing.T) {
	dir := t.TempDir()
	coordinator := NewCoordinator(
		WithLogger(quietLogger()),
		WithProbes([]probe.Probe{
			staticProbe("whatweb", probe.KindRecon, probe.StatusSuccess),
			staticProbe("dnsenum", probe.KindRecon, probe.StatusPartialSuccess),
			staticProbe("nikto", probe.KindVuln, probe.StatusSuccess),
		}),
	)

	record, err := coordinator.Run(context.Background(), "example.com", dir, probe.ModeFull, testOptions())

	require.NoError(t, err)
	require.Len(t, record.Results, 3)
	assert.Equal(t, probe.StatusSuccess, record.Results["whatweb"].Status)
	assert.Equal(t, probe.StatusPartialSuccess, record.Results["dnsenum"].Status)
	assert.False(t, record.FinishedAt.IsZero())

	_, err = os.Stat(filepath.Join(dir, probe.RecordFileName))
	assert.NoError(t, err)
}

func TestRunModeFiltersByKind(t *testing.T) {
	coordinator := NewCoordinator(
		WithLogger(quietLogger()),
		WithProbes([]probe.Probe{
			staticProbe("whatweb", probe.KindRecon, probe.StatusSuccess),
			staticProbe("nikto", probe.KindVuln, probe.StatusSuccess),
		}),
	)

	record, err := coordinator.Run(context.Background(), "example.com", t.TempDir(), probe.ModeRecon, testOptions())

	require.NoError(t, err)
	require.Len(t, record.Results, 1)
	assert.Contains(t, record.Results, "whatweb")
}

func TestRunAllProbesFailingDoesNotAbort(t *testing.T) {
	coordinator := NewCoordinator(
		WithLogger(quietLogger()),
		WithProbes([]probe.Probe{
			staticProbe("whatweb", probe.KindRecon, probe.StatusFailed),
			staticProbe("nikto", probe.KindVuln, probe.StatusFailed),
		}),
	)

	record, err := coordinator.Run(context.Background(), "example.com", t.TempDir(), probe.ModeFull, testOptions())

	require.NoError(t, err)
	assert.Len(t, record.FailedProbes(), 2)
}

func TestRunInvalidTarget(t *testing.T) {
	coordinator := NewCoordinator(WithLogger(quietLogger()))

	record, err := coordinator.Run(context.Background(), "not a target;", t.TempDir(), probe.ModeFull, testOptions())

	require.Error(t, err)
	assert.True(t, errors.Is(err, scouterrors.ErrInvalidTarget))
	assert.Nil(t, record)
}

func TestRunInvalidMode(t *testing.T) {
	coordinator := NewCoordinator(WithLogger(quietLogger()))

	_, err := coordinator.Run(context.Background(), "example.com", t.TempDir(), probe.Mode("deep"), testOptions())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown scan mode")
}

func TestRunDryRunWritesNoRecord(t *testing.T) {
	dir := t.TempDir()
	opts := testOptions()
	opts.DryRun = true

	coordinator := NewCoordinator(
		WithLogger(quietLogger()),
		WithProbes([]probe.Probe{
			staticProbe("whatweb", probe.KindRecon, probe.StatusDryRun),
		}),
	)

	record, err := coordinator.Run(context.Background(), "example.com", dir, probe.ModeFull, opts)

	require.NoError(t, err)
	assert.True(t, record.DryRun)
	assert.Equal(t, probe.StatusDryRun, record.Results["whatweb"].Status)

	_, err = os.Stat(filepath.Join(dir, probe.RecordFileName))
	assert.True(t, os.IsNotExist(err))
}

func TestRunTogglesProduceSkippedResults(t *testing.T) {
	coordinator := NewCoordinator(
		WithLogger(quietLogger()),
		WithProbes([]probe.Probe{
			staticProbe("browser", probe.KindRecon, probe.StatusSuccess),
			staticProbe("ssllabs", probe.KindVuln, probe.StatusSuccess),
			staticProbe("securityheaders", probe.KindVuln, probe.StatusSuccess),
			staticProbe("whatweb", probe.KindRecon, probe.StatusSuccess),
		}),
	)

	record, err := coordinator.Run(context.Background(), "https://example.com", t.TempDir(), probe.ModeFull, testOptions())

	require.NoError(t, err)
	require.Len(t, record.Results, 4)
	assert.Equal(t, probe.StatusSkipped, record.Results["browser"].Status)
	assert.Equal(t, probe.StatusSkipped, record.Results["ssllabs"].Status)
	assert.Equal(t, probe.StatusSkipped, record.Results["securityheaders"].Status)
	assert.Equal(t, probe.StatusSuccess, record.Results["whatweb"].Status)
}

func TestRunBrowserSkippedForBareHostname(t *testing.T) {
	opts := testOptions()
	opts.UseBrowser = true

	coordinator := NewCoordinator(
		WithLogger(quietLogger()),
		WithProbes([]probe.Probe{
			staticProbe("browser", probe.KindRecon, probe.StatusSuccess),
		}),
	)

	record, err := coordinator.Run(context.Background(), "example.com", t.TempDir(), probe.ModeFull, opts)

	require.NoError(t, err)
	res := record.Results["browser"]
	assert.Equal(t, probe.StatusSkipped, res.Status)
	assert.Contains(t, res.Structured["skip_reason"], "http")
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	coordinator := NewCoordinator(
		WithLogger(quietLogger()),
		WithProbes([]probe.Probe{
			staticProbe("whatweb", probe.KindRecon, probe.StatusSuccess),
			staticProbe("nikto", probe.KindVuln, probe.StatusSuccess),
		}),
	)

	record, err := coordinator.Run(ctx, "example.com", t.TempDir(), probe.ModeFull, testOptions())

	require.NoError(t, err)
	require.Len(t, record.Results, 2)
	for id, res := range record.Results {
		assert.Equal(t, probe.StatusFailed, res.Status, "probe %s", id)
		assert.Contains(t, res.Error, "scan interrupted")
	}
}

func TestRunPanicIsolatedToProbe(t *testing.T) {
	panicking := &stubProbe{id: "whatweb", kind: probe.KindRecon, run: func(ctx context.Context, target probe.Target, outputDir string, opts *probe.Options) probe.Result {
		panic("adapter bug")
	}}

	coordinator := NewCoordinator(
		WithLogger(quietLogger()),
		WithProbes([]probe.Probe{
			panicking,
			staticProbe("dnsenum", probe.KindRecon, probe.StatusSuccess),
		}),
	)

	record, err := coordinator.Run(context.Background(), "example.com", t.TempDir(), probe.ModeFull, testOptions())

	require.NoError(t, err)
	assert.Equal(t, probe.StatusFailed, record.Results["whatweb"].Status)
	assert.Contains(t, record.Results["whatweb"].Error, "panic")
	assert.Equal(t, probe.StatusSuccess, record.Results["dnsenum"].Status)
}

func TestRunObserverSeesEveryCompletion(t *testing.T) {
	var events []probe.ProgressEvent
	coordinator := NewCoordinator(
		WithLogger(quietLogger()),
		WithConcurrency(2),
		WithObserver(func(ev probe.ProgressEvent) { events = append(events, ev) }),
		WithProbes([]probe.Probe{
			staticProbe("whatweb", probe.KindRecon, probe.StatusSuccess),
			staticProbe("dnsenum", probe.KindRecon, probe.StatusSuccess),
			staticProbe("theharvester", probe.KindRecon, probe.StatusSuccess),
		}),
	)

	_, err := coordinator.Run(context.Background(), "example.com", t.TempDir(), probe.ModeRecon, testOptions())

	require.NoError(t, err)
	require.Len(t, events, 3)
	for _, ev := range events {
		assert.Equal(t, 3, ev.Total)
	}
	assert.Equal(t, 3, events[len(events)-1].Completed)
}

type fakeNotifier struct{ record *probe.ScanRecord }

func (n *fakeNotifier) ScanCompleted(record *probe.ScanRecord) { n.record = record }

func TestRunNotifierReceivesFinalizedRecord(t *testing.T) {
	notifier := &fakeNotifier{}
	coordinator := NewCoordinator(
		WithLogger(quietLogger()),
		WithNotifier(notifier),
		WithProbes([]probe.Probe{
			staticProbe("whatweb", probe.KindRecon, probe.StatusSuccess),
		}),
	)

	record, err := coordinator.Run(context.Background(), "example.com", t.TempDir(), probe.ModeRecon, testOptions())

	require.NoError(t, err)
	require.NotNil(t, notifier.record)
	assert.Equal(t, record.ID, notifier.record.ID)
	assert.False(t, notifier.record.FinishedAt.IsZero())
}

func TestScanStatus(t *testing.T) {
	build := func(statuses ...probe.Status) *probe.ScanRecord {
		record := probe.NewScanRecord("example.com", probe.ModeFull, false)
		for i, s := range statuses {
			res := probe.NewResult(fmt.Sprintf("p%d", i))
			res.Status = s
			record.Add(res)
		}
		return record
	}

	assert.Equal(t, probe.StatusSuccess, scanStatus(build(probe.StatusSuccess, probe.StatusPartialSuccess)))
	assert.Equal(t, probe.StatusPartialSuccess, scanStatus(build(probe.StatusSuccess, probe.StatusFailed)))
	assert.Equal(t, probe.StatusFailed, scanStatus(build(probe.StatusFailed, probe.StatusSkipped)))
}
