package loader

import (
	"time"

	"github.com/leapstack-labs/leapload/pkg/core"
)

// SourceSummary describes the files of one data root.
type SourceSummary struct {
	Kind   core.SourceKind `json:"kind"`
	Root   string          `json:"root"`
	Files  int             `json:"files"`
	Loaded int             `json:"loaded"`
	Rows   core.RowCounts  `json:"rows"`
}

// Summary describes the outcome of a run.
type Summary struct {
	RunID       string          `json:"run_id,omitempty"`
	Environment string          `json:"environment,omitempty"`
	Commit      CommitPolicy    `json:"commit"`
	Status      core.RunStatus  `json:"status"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt time.Time       `json:"completed_at"`
	Sources     []SourceSummary `json:"sources"`
	FilesLoaded int             `json:"files_loaded"`
	Rows        core.RowCounts  `json:"rows"`
	Error       string          `json:"error,omitempty"`
}

// Duration returns the wall time of the run.
func (s *Summary) Duration() time.Duration {
	if s.CompletedAt.IsZero() {
		return 0
	}
	return s.CompletedAt.Sub(s.StartedAt)
}
