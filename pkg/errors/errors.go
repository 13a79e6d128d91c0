package errors

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidTarget   = errors.New("invalid target")
	ErrProbeNotFound   = errors.New("probe not found")
	ErrNoOutput        = errors.New("probe produced no retrievable output")
	ErrPollingBudget   = errors.New("polling budget exceeded")
	ErrScanInterrupted = errors.New("scan interrupted")
)

// InvalidTargetError aborts a run before any probe executes. It is the
// only error the coordinator returns to its caller.
type InvalidTargetError struct {
	Target string
	Reason string
}

func (e *InvalidTargetError) Error() string {
	return fmt.Sprintf("invalid target %q: %s", e.Target, e.Reason)
}

func (e *InvalidTargetError) Unwrap() error {
	return ErrInvalidTarget
}

func NewInvalidTargetError(target, reason string) *InvalidTargetError {
	return &InvalidTargetError{Target: target, Reason: reason}
}

// ProbeExecutionError means the external process could not be started or
// did not run at all (binary missing, bad arguments). It is recovered at
// the adapter level and surfaced as a ProbeResult field.
type ProbeExecutionError struct {
	ProbeID string
	Err     error
}

func (e *ProbeExecutionError) Error() string {
	return fmt.Sprintf("probe %s execution failed: %v", e.ProbeID, e.Err)
}

func (e *ProbeExecutionError) Unwrap() error {
	return e.Err
}

func NewProbeExecutionError(probeID string, err error) *ProbeExecutionError {
	return &ProbeExecutionError{ProbeID: probeID, Err: err}
}

// ProbeTimeout means the probe exceeded its wall-clock budget and was
// terminated.
type ProbeTimeout struct {
	ProbeID string
	Budget  time.Duration
}

func (e *ProbeTimeout) Error() string {
	return fmt.Sprintf("probe %s timed out after %s", e.ProbeID, e.Budget)
}

// OutputParseError records a normalization failure. Depending on how much
// signal was recovered the result degrades to PartialSuccess or Failed.
type OutputParseError struct {
	ProbeID string
	Format  string
	Err     error
}

func (e *OutputParseError) Error() string {
	return fmt.Sprintf("probe %s: failed to parse %s output: %v", e.ProbeID, e.Format, e.Err)
}

func (e *OutputParseError) Unwrap() error {
	return e.Err
}

func NewOutputParseError(probeID, format string, err error) *OutputParseError {
	return &OutputParseError{ProbeID: probeID, Format: format, Err: err}
}

// RemoteAPIError records a terminal failure from a polled external API,
// either an explicit failure state or a transport error.
type RemoteAPIError struct {
	API     string
	State   string
	Message string
	Err     error
}

func (e *RemoteAPIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s API error: %v", e.API, e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s API reported %s: %s", e.API, e.State, e.Message)
	}
	return fmt.Sprintf("%s API reported %s", e.API, e.State)
}

func (e *RemoteAPIError) Unwrap() error {
	return e.Err
}

func NewRemoteAPIError(api, state, message string, err error) *RemoteAPIError {
	return &RemoteAPIError{API: api, State: state, Message: message, Err: err}
}
