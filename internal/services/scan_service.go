package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"webscout/internal/dao"
	"webscout/internal/models"
	"webscout/internal/utils"
	"webscout/pkg/engine"
	"webscout/pkg/logger"
	"webscout/pkg/probe"
)

// StartScanRequest is the service-level request for a new scan.
type StartScanRequest struct {
	Target       string
	Mode         string
	DryRun       bool
	UseBrowser   bool
	UseOnline    bool
	NiktoProfile string
}

// ScanProgress is the in-memory progress snapshot of a running scan.
type ScanProgress struct {
	Completed  int       `json:"completed"`
	Total      int       `json:"total"`
	LastProbe  string    `json:"last_probe"`
	LastStatus string    `json:"last_status"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type ScanServiceMethods interface {
	StartScan(req StartScanRequest) (string, error)
	GetScanByUUID(id string) (*models.Scan, error)
	ListScans() ([]models.Scan, error)
	ListScansWithPagination(page, limit int) ([]models.Scan, int64, error)
	DeleteScan(id string) error
	Progress(id string) (ScanProgress, bool)
	QueueStatus() (running, queued, maxConcurrent int)
}

type scanService struct {
	scanDao    dao.ScanDAO
	status     *ScanStatusManager
	queue      *engine.Queue
	notifier   engine.Notifier
	outputRoot string
	settings   probe.Settings
	logger     *logger.Logger

	mu       sync.Mutex
	progress map[string]ScanProgress
}

// NewScanService wires the background scan executor. maxConcurrent
// bounds how many coordinator runs execute at once; notifier may be
// nil when no channel is configured.
func NewScanService(scanDao dao.ScanDAO, outputRoot string, maxConcurrent int, settings probe.Settings, notifier engine.Notifier) ScanServiceMethods {
	log := logger.NewLogger(logrus.InfoLevel)
	return &scanService{
		scanDao:    scanDao,
		status:     newScanStatusManager(scanDao, log),
		queue:      engine.NewQueue(maxConcurrent),
		notifier:   notifier,
		outputRoot: outputRoot,
		settings:   settings,
		logger:     log,
		progress:   make(map[string]ScanProgress),
	}
}

func (s *scanService) StartScan(req StartScanRequest) (string, error) {
	// Validate up front so the caller gets the invalid-target error
	// synchronously instead of a scan row that immediately fails.
	if _, err := probe.ParseTarget(req.Target); err != nil {
		return "", err
	}
	mode := probe.Mode(req.Mode)
	if req.Mode == "" {
		mode = probe.ModeFull
	}
	if !probe.ValidMode(mode) {
		return "", fmt.Errorf("unknown scan mode %q", req.Mode)
	}

	opts := probe.DefaultOptions()
	opts.DryRun = req.DryRun
	opts.UseBrowser = req.UseBrowser
	opts.UseOnline = req.UseOnline
	opts.Settings = s.settings
	if req.NiktoProfile != "" {
		opts.NiktoProfile = probe.NiktoProfile(req.NiktoProfile)
	}
	if err := opts.Validate(); err != nil {
		return "", err
	}

	outputDir, err := utils.CreateScanDirectory(s.outputRoot, req.Target)
	if err != nil {
		return "", err
	}

	id := uuid.New().String()
	now := time.Now().Unix()
	scan := &models.Scan{
		UUID:      id,
		Target:    req.Target,
		Mode:      string(mode),
		Status:    "queued",
		DryRun:    req.DryRun,
		OutputDir: outputDir,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.scanDao.SaveScan(scan); err != nil {
		s.logger.WithError(err).Error("SaveScan failed")
		return "", err
	}

	go s.executeScan(id, req.Target, outputDir, mode, opts)

	return id, nil
}

func (s *scanService) executeScan(scanID, target, outputDir string, mode probe.Mode, opts *probe.Options) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithFields(logger.Fields{"scan_id": scanID, "panic": fmt.Sprint(r)}).Error("panic in background scan")
			s.status.MarkFailed(scanID, fmt.Sprintf("internal error: %v", r))
		}
		s.mu.Lock()
		delete(s.progress, scanID)
		s.mu.Unlock()
	}()

	err := s.queue.ExecuteWithQueue(func() error {
		if err := s.status.UpdateStatus(scanID, "running"); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{"scan_id": scanID}).Error("Failed to mark scan running")
		}

		coordinator := engine.NewCoordinator(
			engine.WithObserver(s.trackProgress(scanID)),
			engine.WithNotifier(s.notifier),
			engine.WithLogger(s.logger),
		)

		record, err := coordinator.Run(context.Background(), target, outputDir, mode, opts)
		if err != nil {
			return err
		}

		results, merr := json.Marshal(record)
		if merr != nil {
			s.logger.WithError(merr).WithFields(logrus.Fields{"scan_id": scanID}).Error("Failed to encode scan record")
		}
		return s.status.MarkCompleted(scanID, record.FailedProbes(), len(record.Results), string(results))
	})
	if err != nil {
		s.status.MarkFailed(scanID, err.Error())
	}
}

// trackProgress returns an observer that keeps the latest progress
// snapshot for the scan in memory.
func (s *scanService) trackProgress(scanID string) probe.Observer {
	return func(ev probe.ProgressEvent) {
		s.mu.Lock()
		s.progress[scanID] = ScanProgress{
			Completed:  ev.Completed,
			Total:      ev.Total,
			LastProbe:  ev.ProbeID,
			LastStatus: string(ev.Status),
			UpdatedAt:  ev.Timestamp,
		}
		s.mu.Unlock()
	}
}

func (s *scanService) Progress(id string) (ScanProgress, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.progress[id]
	return p, ok
}

func (s *scanService) QueueStatus() (int, int, int) {
	return s.queue.GetStatus()
}

func (s *scanService) GetScanByUUID(id string) (*models.Scan, error) {
	return s.scanDao.GetScanByUUID(id)
}

func (s *scanService) ListScans() ([]models.Scan, error) {
	return s.scanDao.ListScans()
}

func (s *scanService) ListScansWithPagination(page, limit int) ([]models.Scan, int64, error) {
	return s.scanDao.ListScansWithPagination(page, limit)
}

func (s *scanService) DeleteScan(id string) error {
	return s.scanDao.DeleteScan(id)
}
