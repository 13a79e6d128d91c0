// Package polling drives slow remote analysis APIs that follow the
// submit-then-poll pattern: one request starts the assessment, repeated
// status requests wait for it, and a final request fetches the report.
package polling

import (
	"context"
	"time"

	scouterrors "webscout/pkg/errors"
	"webscout/pkg/logger"
)

// State of a polling client. Transitions are strictly
// Submitted -> Polling -> Ready | Failed; a terminal state is never left.
type State string

const (
	StateSubmitted State = "submitted"
	StatePolling   State = "polling"
	StateReady     State = "ready"
	StateFailed    State = "failed"
)

// Job adapts one remote API to the generic poll loop.
type Job interface {
	// Submit starts the remote assessment.
	Submit(ctx context.Context) error

	// Poll checks progress once. done reports a terminal remote state;
	// a non-nil error with done=true means the remote side failed.
	Poll(ctx context.Context) (done bool, err error)

	// Fetch retrieves the finished report.
	Fetch(ctx context.Context) (map[string]any, error)
}

// Clock abstracts wall time so budget expiry is testable without
// waiting out real intervals.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Config bounds one polling run. Budget is wall-clock from submission:
// a remote assessment that takes longer is reported as failed, it does
// not stall the whole scan.
type Config struct {
	Interval time.Duration
	Budget   time.Duration
}

// Client runs one Job to completion under a Config.
type Client struct {
	api    string
	cfg    Config
	clock  Clock
	logger *logger.Logger
	state  State
}

// NewClient creates a client using the real clock. api names the remote
// service for error reporting.
func NewClient(api string, cfg Config, log *logger.Logger) *Client {
	return NewClientWithClock(api, cfg, log, realClock{})
}

// NewClientWithClock injects the clock for tests.
func NewClientWithClock(api string, cfg Config, log *logger.Logger, clock Clock) *Client {
	return &Client{
		api:    api,
		cfg:    cfg,
		clock:  clock,
		logger: log,
		state:  StateSubmitted,
	}
}

// State reports the client's current lifecycle state.
func (c *Client) State() State {
	return c.state
}

// Run submits the job and polls at the configured interval until the
// remote side finishes, the budget expires, or the context is
// cancelled. On success the fetched report is returned and the client
// is Ready; every failure path leaves it Failed.
func (c *Client) Run(ctx context.Context, job Job) (map[string]any, error) {
	deadline := c.clock.Now().Add(c.cfg.Budget)

	if err := job.Submit(ctx); err != nil {
		c.state = StateFailed
		return nil, scouterrors.NewRemoteAPIError(c.api, string(StateSubmitted), "submission failed", err)
	}
	c.state = StatePolling
	c.logger.WithFields(logger.Fields{
		"api":      c.api,
		"interval": c.cfg.Interval.String(),
		"budget":   c.cfg.Budget.String(),
	}).Info("Assessment submitted, polling for completion")

	for {
		done, err := job.Poll(ctx)
		if done {
			if err != nil {
				c.state = StateFailed
				return nil, scouterrors.NewRemoteAPIError(c.api, string(StateFailed), "remote assessment failed", err)
			}
			report, err := job.Fetch(ctx)
			if err != nil {
				c.state = StateFailed
				return nil, scouterrors.NewRemoteAPIError(c.api, string(StatePolling), "report fetch failed", err)
			}
			c.state = StateReady
			return report, nil
		}
		if err != nil {
			// Transient poll errors are tolerated until the budget
			// runs out; remote APIs rate-limit and hiccup routinely.
			c.logger.WithFields(logger.Fields{"api": c.api}).WithError(err).Warn("Poll attempt failed, retrying")
		}

		if !c.clock.Now().Add(c.cfg.Interval).Before(deadline) {
			c.state = StateFailed
			return nil, scouterrors.NewRemoteAPIError(c.api, string(StatePolling), "polling budget exhausted", scouterrors.ErrPollingBudget)
		}

		select {
		case <-ctx.Done():
			c.state = StateFailed
			return nil, scouterrors.NewRemoteAPIError(c.api, string(StatePolling), "polling interrupted", ctx.Err())
		case <-c.clock.After(c.cfg.Interval):
		}
	}
}
