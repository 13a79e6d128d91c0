// Package engine coordinates one scan: it resolves the probe set for
// the requested mode, runs the probes under a bounded worker pool, and
// aggregates every outcome into a single scan record.
package engine

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"webscout/pkg/artifacts"
	scouterrors "webscout/pkg/errors"
	"webscout/pkg/logger"
	"webscout/pkg/probe"
	"webscout/pkg/probes"
	"webscout/pkg/runner"
)

// Notifier receives the finalized record of a completed scan.
type Notifier interface {
	ScanCompleted(record *probe.ScanRecord)
}

type coordinatorOpts struct {
	runner      runner.CommandRunner
	httpClient  *http.Client
	observer    probe.Observer
	notifier    Notifier
	concurrency int
	logger      *logger.Logger
	probes      []probe.Probe
}

type OptFunc func(*coordinatorOpts)

func WithRunner(cr runner.CommandRunner) OptFunc {
	return func(o *coordinatorOpts) { o.runner = cr }
}

func WithHTTPClient(client *http.Client) OptFunc {
	return func(o *coordinatorOpts) { o.httpClient = client }
}

func WithObserver(obs probe.Observer) OptFunc {
	return func(o *coordinatorOpts) { o.observer = obs }
}

func WithNotifier(n Notifier) OptFunc {
	return func(o *coordinatorOpts) { o.notifier = n }
}

func WithConcurrency(n int) OptFunc {
	return func(o *coordinatorOpts) { o.concurrency = n }
}

func WithLogger(log *logger.Logger) OptFunc {
	return func(o *coordinatorOpts) { o.logger = log }
}

// WithProbes overrides the probe set, primarily for tests.
func WithProbes(set []probe.Probe) OptFunc {
	return func(o *coordinatorOpts) { o.probes = set }
}

// Coordinator runs scans. It is safe to reuse for sequential scans; a
// single Run never mutates shared state outside its record.
type Coordinator struct {
	coordinatorOpts
}

func NewCoordinator(opts ...OptFunc) *Coordinator {
	o := coordinatorOpts{
		runner:      runner.NewExecRunner(),
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		concurrency: 4,
		logger:      logger.NewLogger(logrus.InfoLevel),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.concurrency < 1 {
		o.concurrency = 1
	}
	if o.probes == nil {
		o.probes = probes.DefaultSet(o.runner, o.httpClient, o.logger)
	}
	return &Coordinator{coordinatorOpts: o}
}

// Run executes one scan of rawTarget into outputDir. Probe failures
// never abort the run; they are recorded per probe. The returned error
// is non-nil only when the target is invalid, the options are
// inconsistent, or the output directory cannot be prepared.
func (c *Coordinator) Run(ctx context.Context, rawTarget, outputDir string, mode probe.Mode, opts *probe.Options) (*probe.ScanRecord, error) {
	target, err := probe.ParseTarget(rawTarget)
	if err != nil {
		return nil, err
	}
	if !probe.ValidMode(mode) {
		return nil, fmt.Errorf("unknown scan mode %q", mode)
	}
	if opts == nil {
		opts = probe.DefaultOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	record := probe.NewScanRecord(target.Raw, mode, opts.DryRun)

	scanLog, err := logger.NewScanLogger(record.ID, outputDir, logrus.InfoLevel)
	if err != nil {
		c.logger.WithError(err).Warn("Scan log unavailable, continuing without it")
	} else {
		defer scanLog.Close()
	}

	var inventory *artifacts.Inventory
	if !opts.DryRun {
		inventory, err = artifacts.Watch(ctx, outputDir, c.logger)
		if err != nil {
			c.logger.WithError(err).Warn("Artifact watcher unavailable")
		}
	}

	c.logger.WithFields(logger.Fields{
		"scan_id": record.ID,
		"target":  target.Raw,
		"mode":    string(mode),
		"dry_run": opts.DryRun,
	}).Info("Scan started")

	scheduled, skipped := c.resolveProbes(target, mode, opts)
	for _, res := range skipped {
		record.Add(res)
	}

	c.runPool(ctx, scheduled, target, outputDir, opts, record, len(scheduled)+len(skipped), scanLog)

	record.Finalize()
	if inventory != nil {
		record.Artifacts = inventory.Stop()
	}

	if !opts.DryRun {
		if err := record.Write(outputDir); err != nil {
			c.logger.WithError(err).Error("Failed to persist scan record")
		}
	}
	if scanLog != nil {
		scanLog.LogScanOutcome(string(scanStatus(record)), record.FailedProbes())
	}
	if c.notifier != nil {
		c.notifier.ScanCompleted(record)
	}

	c.logger.WithFields(logger.Fields{
		"scan_id":  record.ID,
		"duration": record.FinishedAt.Sub(record.StartedAt).String(),
		"results":  len(record.Results),
		"failed":   len(record.FailedProbes()),
	}).Info("Scan finished")

	return record, nil
}

// resolveProbes selects the probes the mode schedules and produces
// skipped results for those disabled by a toggle, so the record still
// carries one entry per considered probe.
func (c *Coordinator) resolveProbes(target probe.Target, mode probe.Mode, opts *probe.Options) ([]probe.Probe, []probe.Result) {
	var scheduled []probe.Probe
	var skipped []probe.Result

	for _, p := range c.probes {
		if !mode.Includes(p.Kind()) {
			continue
		}
		switch p.ID() {
		case "browser":
			if !opts.UseBrowser {
				skipped = append(skipped, probe.SkippedResult(p.ID(), "browser probing disabled"))
				continue
			}
			if !target.IsHTTP() {
				skipped = append(skipped, probe.SkippedResult(p.ID(), "target is not an explicit http(s) URL"))
				continue
			}
		case "ssllabs", "observatory", "securityheaders":
			if !opts.UseOnline {
				skipped = append(skipped, probe.SkippedResult(p.ID(), "online assessments disabled"))
				continue
			}
		}
		scheduled = append(scheduled, p)
	}
	return scheduled, skipped
}

// runPool fans the scheduled probes out over a bounded worker pool and
// collects results on the coordinator goroutine, which is the record's
// single writer.
func (c *Coordinator) runPool(ctx context.Context, scheduled []probe.Probe, target probe.Target, outputDir string, opts *probe.Options, record *probe.ScanRecord, total int, scanLog *logger.ScanLogger) {
	jobs := make(chan probe.Probe)
	results := make(chan probe.Result)

	var wg sync.WaitGroup
	for i := 0; i < c.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				results <- c.runProbe(ctx, p, target, outputDir, opts)
			}
		}()
	}

	var feed sync.WaitGroup
	feed.Add(1)
	go func() {
		defer feed.Done()
		defer close(jobs)
		for _, p := range scheduled {
			select {
			case jobs <- p:
			case <-ctx.Done():
				// Probes that never started still get a recorded
				// outcome.
				results <- interruptedResult(p.ID(), ctx.Err())
			}
		}
	}()

	go func() {
		wg.Wait()
		feed.Wait()
		close(results)
	}()

	completed := len(record.Results)
	for res := range results {
		record.Add(res)
		completed++

		if scanLog != nil && res.RawText != "" {
			scanLog.LogProbeOutput(res.ProbeID, "raw", res.RawText)
		}
		c.logger.WithFields(logger.Fields{
			"probe":    res.ProbeID,
			"status":   string(res.Status),
			"duration": res.DurationSeconds,
		}).Info("Probe finished")

		if c.observer != nil {
			c.observer(probe.ProgressEvent{
				ProbeID:   res.ProbeID,
				Status:    res.Status,
				Completed: completed,
				Total:     total,
				Timestamp: time.Now(),
			})
		}
	}
}

// runProbe isolates one probe invocation, converting a panic into a
// failed result so a buggy adapter cannot take down the scan.
func (c *Coordinator) runProbe(ctx context.Context, p probe.Probe, target probe.Target, outputDir string, opts *probe.Options) (res probe.Result) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.WithFields(logger.Fields{
				"probe": p.ID(),
				"panic": fmt.Sprint(r),
			}).Error("Probe panicked")
			res = probe.NewResult(p.ID())
			res.Status = probe.StatusFailed
			res.Error = scouterrors.NewProbeExecutionError(p.ID(), fmt.Errorf("panic: %v", r)).Error()
		}
	}()

	if ctx.Err() != nil {
		return interruptedResult(p.ID(), ctx.Err())
	}

	c.logger.WithProbe(p.ID(), target.Raw).Info("Probe started")
	return p.Run(ctx, target, outputDir, opts)
}

func interruptedResult(probeID string, cause error) probe.Result {
	res := probe.NewResult(probeID)
	res.Status = probe.StatusFailed
	res.Error = fmt.Sprintf("%v: %v", scouterrors.ErrScanInterrupted, cause)
	return res
}

// scanStatus derives the overall disposition from the per-probe
// results: success only when nothing failed, failed only when nothing
// worked at all.
func scanStatus(record *probe.ScanRecord) probe.Status {
	counts := record.CountByStatus()
	if record.DryRun {
		return probe.StatusDryRun
	}
	if counts[probe.StatusFailed] == 0 {
		return probe.StatusSuccess
	}
	if counts[probe.StatusSuccess] == 0 && counts[probe.StatusPartialSuccess] == 0 {
		return probe.StatusFailed
	}
	return probe.StatusPartialSuccess
}
