package models

// Scan is the persisted row for one coordinator run. Results carries
// the full scan record JSON; the scalar columns exist for listing and
// filtering without deserializing it.
type Scan struct {
	UUID         string `gorm:"primaryKey;type:varchar(36)" json:"uuid"`
	Target       string `json:"target"`
	Mode         string `json:"mode"`
	Status       string `json:"status"`
	DryRun       bool   `json:"dry_run"`
	ProbeCount   int    `json:"probe_count"`
	FailedCount  int    `json:"failed_count"`
	OutputDir    string `json:"output_dir"`
	ErrorMessage string `json:"error_message,omitempty"`
	Results      string `gorm:"type:text" json:"results,omitempty"`
	CreatedAt    int64  `json:"created_at"`
	UpdatedAt    int64  `json:"updated_at"`
}
