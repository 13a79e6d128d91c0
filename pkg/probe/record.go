package probe

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// RecordFileName is the on-disk name of the aggregated scan record
// inside a scan's output directory.
const RecordFileName = "scan_record.json"

// ScanRecord is the aggregated, immutable result of one coordinator run.
// Only the coordinator appends results; once finalized it is handed to
// the reporting collaborator and never mutated again.
type ScanRecord struct {
	ID         string            `json:"id"`
	Target     string            `json:"target"`
	Mode       Mode              `json:"mode"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Results    map[string]Result `json:"results"`
	DryRun     bool              `json:"dry_run"`

	// Artifacts is the ordered inventory of files observed in the
	// output directory during the run, independent of what each
	// adapter self-reported.
	Artifacts []string `json:"artifacts,omitempty"`
}

// NewScanRecord creates the record at the start of a coordinator run.
func NewScanRecord(target string, mode Mode, dryRun bool) *ScanRecord {
	return &ScanRecord{
		ID:        uuid.NewString(),
		Target:    target,
		Mode:      mode,
		StartedAt: time.Now(),
		Results:   make(map[string]Result),
		DryRun:    dryRun,
	}
}

// Add stores one probe's result. Single-writer discipline: only the
// coordinator goroutine calls Add.
func (r *ScanRecord) Add(res Result) {
	r.Results[res.ProbeID] = res
}

// Finalize stamps the completion time.
func (r *ScanRecord) Finalize() {
	r.FinishedAt = time.Now()
}

// FailedProbes lists the probe IDs that ended in StatusFailed.
func (r *ScanRecord) FailedProbes() []string {
	var failed []string
	for id, res := range r.Results {
		if res.Status == StatusFailed {
			failed = append(failed, id)
		}
	}
	return failed
}

// CountByStatus tallies results per status for reporting.
func (r *ScanRecord) CountByStatus() map[Status]int {
	counts := make(map[Status]int)
	for _, res := range r.Results {
		counts[res.Status]++
	}
	return counts
}

// Write serializes the record to scan_record.json in the output
// directory so a finished run can be reconstructed from disk.
func (r *ScanRecord) Write(outputDir string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode scan record: %w", err)
	}
	path := filepath.Join(outputDir, RecordFileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write scan record: %w", err)
	}
	return nil
}

// LoadScanRecord reconstructs a finalized record from a scan's output
// directory.
func LoadScanRecord(outputDir string) (*ScanRecord, error) {
	data, err := os.ReadFile(filepath.Join(outputDir, RecordFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to read scan record: %w", err)
	}
	var record ScanRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode scan record: %w", err)
	}
	if record.Results == nil {
		record.Results = make(map[string]Result)
	}
	return &record, nil
}
