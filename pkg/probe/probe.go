// Package probe defines the uniform result model shared by every probe
// adapter and the scan coordinator.
package probe

import (
	"context"
	"time"
)

// Status is the terminal disposition of a single probe invocation.
type Status string

const (
	StatusSuccess        Status = "success"
	StatusPartialSuccess Status = "partial_success"
	StatusFailed         Status = "failed"
	StatusDryRun         Status = "dry_run"
	StatusSkipped        Status = "skipped"
)

// Kind groups probes into the phases a scan mode selects from.
type Kind string

const (
	KindRecon Kind = "recon"
	KindVuln  Kind = "vuln"
)

// Mode selects which probe kinds a coordinator run schedules.
type Mode string

const (
	ModeRecon Mode = "recon"
	ModeVuln  Mode = "vuln"
	ModeFull  Mode = "full"
)

// ValidMode reports whether m is one of the supported scan modes.
func ValidMode(m Mode) bool {
	switch m {
	case ModeRecon, ModeVuln, ModeFull:
		return true
	}
	return false
}

// Includes reports whether a probe of kind k is selected by mode m.
func (m Mode) Includes(k Kind) bool {
	switch m {
	case ModeFull:
		return true
	case ModeRecon:
		return k == KindRecon
	case ModeVuln:
		return k == KindVuln
	}
	return false
}

// Result is the envelope every probe produces. Structured is never nil:
// a parse failure degrades Status, it never suppresses partial data.
type Result struct {
	ProbeID         string         `json:"probe_id"`
	Status          Status         `json:"status"`
	Structured      map[string]any `json:"structured"`
	RawText         string         `json:"raw_text"`
	Error           string         `json:"error,omitempty"`
	DurationSeconds float64        `json:"duration_seconds"`
	ArtifactPaths   []string       `json:"artifact_paths,omitempty"`
}

// NewResult returns a Result with an empty (non-nil) structured mapping.
func NewResult(probeID string) Result {
	return Result{
		ProbeID:    probeID,
		Structured: map[string]any{},
	}
}

// SkippedResult records a probe that was scheduled but disabled by a
// feature toggle.
func SkippedResult(probeID, reason string) Result {
	r := NewResult(probeID)
	r.Status = StatusSkipped
	r.Structured["skip_reason"] = reason
	return r
}

// Probe is one external tool invocation or external API call. Run never
// returns an error: every failure mode is folded into the Result so a
// single misbehaving probe cannot abort the run.
type Probe interface {
	ID() string
	Kind() Kind
	Run(ctx context.Context, target Target, outputDir string, opts *Options) Result
}

// ProgressEvent is the coordinator's side-channel notification of
// cumulative run progress.
type ProgressEvent struct {
	ProbeID   string
	Status    Status
	Completed int
	Total     int
	Timestamp time.Time
}

// Observer receives progress events. Implementations must be safe for
// concurrent use; the coordinator invokes it from its collector loop only.
type Observer func(ProgressEvent)
