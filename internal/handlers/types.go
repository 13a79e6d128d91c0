package handlers

import "webscout/internal/services"

type ScanRequest struct {
	Target       string `json:"target" binding:"required"`
	Mode         string `json:"mode"`
	DryRun       bool   `json:"dry_run"`
	NoBrowser    bool   `json:"no_browser"`
	NoOnline     bool   `json:"no_online"`
	NiktoProfile string `json:"nikto_profile"`
}

type ScanResponse struct {
	ScanID string `json:"scan_id"`
}

type ProgressResponse struct {
	ScanID   string                `json:"scan_id"`
	Status   string                `json:"status"`
	Progress *services.ScanProgress `json:"progress,omitempty"`
}

type QueueStatusResponse struct {
	Running       int `json:"running"`
	Queued        int `json:"queued"`
	MaxConcurrent int `json:"max_concurrent"`
}
