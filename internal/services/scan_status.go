package services

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"webscout/internal/dao"
	"webscout/pkg/logger"
)

type ScanStatusManager struct {
	scanDao dao.ScanDAO
	logger  *logger.Logger
}

func newScanStatusManager(scanDao dao.ScanDAO, logger *logger.Logger) *ScanStatusManager {
	return &ScanStatusManager{
		scanDao: scanDao,
		logger:  logger,
	}
}

func (m *ScanStatusManager) UpdateStatus(scanID, status string) error {
	scan, err := m.scanDao.GetScanByUUID(scanID)
	if err != nil {
		return err
	}
	scan.Status = status
	return m.scanDao.UpdateScan(scan)
}

func (m *ScanStatusManager) MarkFailed(scanID, reason string) {
	scan, err := m.scanDao.GetScanByUUID(scanID)
	if err != nil {
		m.logger.WithError(err).WithFields(logrus.Fields{"scan_id": scanID}).Error("Failed to load scan for failure update")
		return
	}

	scan.Status = "failed"
	scan.ErrorMessage = reason

	if err := m.scanDao.UpdateScan(scan); err != nil {
		m.logger.WithError(err).WithFields(logrus.Fields{"scan_id": scanID}).Error("Failed to persist failed scan status")
	}

	m.logger.WithFields(logger.Fields{
		"scan_id": scanID,
		"reason":  reason,
	}).Error("Scan marked as failed")
}

// MarkCompleted persists the terminal state of a finished scan. Probe
// failures downgrade the status without hiding the results that did
// come back.
func (m *ScanStatusManager) MarkCompleted(scanID string, failedProbes []string, probeCount int, results string) error {
	scan, err := m.scanDao.GetScanByUUID(scanID)
	if err != nil {
		return fmt.Errorf("load scan: %w", err)
	}

	if len(failedProbes) == 0 {
		scan.Status = "completed"
	} else if len(failedProbes) == probeCount {
		scan.Status = "failed"
	} else {
		scan.Status = "completed_with_warnings"
	}
	scan.ProbeCount = probeCount
	scan.FailedCount = len(failedProbes)
	scan.Results = results

	if err := m.scanDao.UpdateScan(scan); err != nil {
		return fmt.Errorf("persist scan completion: %w", err)
	}
	return nil
}
