package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ScanLogger mirrors everything to a scan.log file inside the scan's
// output directory so each run carries its own audit trail.
type ScanLogger struct {
	*Logger
	scanID  string
	scanDir string
	logFile *os.File
	mu      sync.Mutex
}

func NewScanLogger(scanID, scanDir string, level logrus.Level) (*ScanLogger, error) {
	baseLogger := NewLogger(level)

	logFilePath := filepath.Join(scanDir, "scan.log")
	logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create scan log file: %w", err)
	}

	header := fmt.Sprintf("\n=== Scan Log Started: %s ===\n", time.Now().Format(time.RFC3339))
	header += fmt.Sprintf("Scan ID: %s\n", scanID)
	header += fmt.Sprintf("Scan Directory: %s\n", scanDir)
	header += "==========================================\n\n"
	logFile.WriteString(header)

	baseLogger.Logger.SetOutput(io.MultiWriter(os.Stdout, logFile))

	return &ScanLogger{
		Logger:  baseLogger,
		scanID:  scanID,
		scanDir: scanDir,
		logFile: logFile,
	}, nil
}

// LogProbeOutput appends a probe's raw output block to the scan log.
func (sl *ScanLogger) LogProbeOutput(probeID, outputType, output string) {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	timestamp := time.Now().Format(time.RFC3339)
	header := fmt.Sprintf("\n--- [%s] Probe: %s (%s) ---\n", timestamp, probeID, outputType)
	footer := fmt.Sprintf("--- End %s ---\n\n", probeID)

	sl.logFile.WriteString(header + output + "\n" + footer)

	sl.WithFields(Fields{
		"probe":       probeID,
		"output_type": outputType,
		"scan_id":     sl.scanID,
	}).Debug("Probe output captured")
}

// LogScanOutcome records the final disposition of the run.
func (sl *ScanLogger) LogScanOutcome(status string, failedProbes []string) {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	timestamp := time.Now().Format(time.RFC3339)
	msg := fmt.Sprintf("\n=== SCAN %s: %s ===\n", status, timestamp)
	msg += fmt.Sprintf("Scan ID: %s\n", sl.scanID)
	if len(failedProbes) > 0 {
		msg += fmt.Sprintf("Failed Probes (%d):\n", len(failedProbes))
		for _, p := range failedProbes {
			msg += fmt.Sprintf("  - %s\n", p)
		}
	}
	msg += "==========================================\n\n"

	sl.logFile.WriteString(msg)

	fields := Fields{"scan_id": sl.scanID, "status": status}
	if len(failedProbes) > 0 {
		fields["failed_count"] = len(failedProbes)
		sl.WithFields(fields).Warn("Scan finished with probe failures")
	} else {
		sl.WithFields(fields).Info("Scan finished")
	}
}

func (sl *ScanLogger) Close() error {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if sl.logFile == nil {
		return nil
	}

	footer := fmt.Sprintf("\n=== Scan Log Ended: %s ===\n", time.Now().Format(time.RFC3339))
	sl.logFile.WriteString(footer)

	if err := sl.logFile.Close(); err != nil {
		return fmt.Errorf("failed to close scan log file: %w", err)
	}
	sl.logFile = nil
	return nil
}

func (sl *ScanLogger) LogFilePath() string {
	return filepath.Join(sl.scanDir, "scan.log")
}
