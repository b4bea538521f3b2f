package models

import (
	"time"
)

// Mögliche Status eines Pipeline-Laufs.
const (
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
	RunStatusForced    = "forced"
)

// ImportRun protokolliert einen kompletten Pipeline-Lauf mit allen Zählern.
type ImportRun struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	StartedAt  time.Time  `json:"started_at" gorm:"index"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// Zuletzt erreichte Stufe (FETCH, SCHEMA_ENSURE, LOAD, VALIDATE, DONE)
	Stage  string `json:"stage" gorm:"size:32"`
	Status string `json:"status" gorm:"size:16;index"`

	PapersFetched   int `json:"papers_fetched"`
	PapersProcessed int `json:"papers_processed"`
	PapersInserted  int `json:"papers_inserted"`
	PapersUpdated   int `json:"papers_updated"`
	PapersFailed    int `json:"papers_failed"`

	AuthorsProcessed            int `json:"authors_processed"`
	AuthorshipsProcessed        int `json:"authorships_processed"`
	AuthorshipDuplicatesRemoved int `json:"authorship_duplicates_removed"`

	ChecksPassed int `json:"checks_passed"`
	ChecksFailed int `json:"checks_failed"`

	SnapshotPath string `json:"snapshot_path,omitempty"`
	ReportPath   string `json:"report_path,omitempty"`
	ArchiveKey   string `json:"archive_key,omitempty"`
	ErrorText    string `json:"error_text,omitempty" gorm:"type:text"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (ImportRun) TableName() string {
	return "import_runs"
}
