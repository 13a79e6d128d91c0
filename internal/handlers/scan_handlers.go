package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"webscout/internal/services"
	scouterrors "webscout/pkg/errors"
	"webscout/pkg/logger"
)

type ScanHandler struct {
	scanService services.ScanServiceMethods
	logger      *logger.Logger
}

func NewScanHandler(scanService services.ScanServiceMethods) *ScanHandler {
	return &ScanHandler{scanService: scanService, logger: logger.NewLogger(logrus.InfoLevel)}
}

func (h *ScanHandler) StartScan(c *gin.Context) {
	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Error("Failed to bind JSON")
		c.JSON(400, gin.H{"error": "Invalid request payload"})
		return
	}

	h.logger.WithFields(logger.Fields{"target": req.Target, "mode": req.Mode}).Info("Starting scan")
	id, err := h.scanService.StartScan(services.StartScanRequest{
		Target:       req.Target,
		Mode:         req.Mode,
		DryRun:       req.DryRun,
		UseBrowser:   !req.NoBrowser,
		UseOnline:    !req.NoOnline,
		NiktoProfile: req.NiktoProfile,
	})
	if err != nil {
		if errors.Is(err, scouterrors.ErrInvalidTarget) {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		h.logger.WithError(err).Error("Failed to start scan")
		c.JSON(500, gin.H{"error": "Failed to start scan"})
		return
	}
	c.JSON(200, ScanResponse{ScanID: id})
}

func (h *ScanHandler) GetScanByUUID(c *gin.Context) {
	scanID := c.Param("id")
	scan, err := h.scanService.GetScanByUUID(scanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(404, gin.H{"error": "Scan not found"})
			return
		}
		h.logger.WithError(err).Error("Failed to get scan")
		c.JSON(500, gin.H{"error": "Failed to get scan"})
		return
	}
	if scan == nil {
		c.JSON(404, gin.H{"error": "Scan not found"})
		return
	}
	c.JSON(200, scan)
}

func (h *ScanHandler) ListScans(c *gin.Context) {
	if c.Query("page") != "" || c.Query("limit") != "" {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

		scans, total, err := h.scanService.ListScansWithPagination(page, limit)
		if err != nil {
			h.logger.WithError(err).Error("Failed to list scans")
			c.JSON(500, gin.H{"error": "Failed to list scans"})
			return
		}
		c.JSON(200, gin.H{"scans": scans, "total": total, "page": page, "limit": limit})
		return
	}

	scans, err := h.scanService.ListScans()
	if err != nil {
		h.logger.WithError(err).Error("Failed to list scans")
		c.JSON(500, gin.H{"error": "Failed to list scans"})
		return
	}
	c.JSON(200, gin.H{"scans": scans})
}

func (h *ScanHandler) DeleteScan(c *gin.Context) {
	scanID := c.Param("id")
	if err := h.scanService.DeleteScan(scanID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(404, gin.H{"error": "Scan not found"})
			return
		}
		h.logger.WithError(err).Error("Failed to delete scan")
		c.JSON(500, gin.H{"error": "Failed to delete scan"})
		return
	}
	c.Status(204)
}

// GetScanProgress reports the live progress of a running scan, falling
// back to the persisted status once the run has finished.
func (h *ScanHandler) GetScanProgress(c *gin.Context) {
	scanID := c.Param("id")

	scan, err := h.scanService.GetScanByUUID(scanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(404, gin.H{"error": "Scan not found"})
			return
		}
		h.logger.WithError(err).Error("Failed to get scan")
		c.JSON(500, gin.H{"error": "Failed to get scan"})
		return
	}

	resp := ProgressResponse{ScanID: scanID, Status: scan.Status}
	if progress, ok := h.scanService.Progress(scanID); ok {
		resp.Progress = &progress
	}
	c.JSON(200, resp)
}

func (h *ScanHandler) QueueStatus(c *gin.Context) {
	running, queued, max := h.scanService.QueueStatus()
	c.JSON(200, QueueStatusResponse{Running: running, Queued: queued, MaxConcurrent: max})
}
