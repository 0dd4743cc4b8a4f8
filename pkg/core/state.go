package core

import "time"

// RunStatus represents the status of a load run.
type RunStatus string

// Run status values.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// FileStatus represents the outcome of loading one file.
type FileStatus string

// File status values.
const (
	FileStatusLoaded FileStatus = "loaded"
	FileStatusFailed FileStatus = "failed"
)

// SourceKind identifies which transformer a file is routed to.
type SourceKind string

// Source kinds.
const (
	SourceSongs SourceKind = "songs"
	SourceLogs  SourceKind = "logs"
)

// LoadRun represents one invocation of the loader.
type LoadRun struct {
	ID           string
	Environment  string
	CommitPolicy string
	Status       RunStatus
	StartedAt    time.Time
	CompletedAt  *time.Time
	Error        string
	Files        int
	Rows         RowCounts
}

// FileLoad records the result of loading a single source file.
type FileLoad struct {
	ID       string
	RunID    string
	Kind     SourceKind
	Path     string
	Status   FileStatus
	Rows     RowCounts
	Records  int
	LoadedAt time.Time
	Error    string
}

// RunStore persists load history.
type RunStore interface {
	Close() error

	CreateRun(env, commitPolicy string) (*LoadRun, error)
	GetRun(id string) (*LoadRun, error)
	CompleteRun(id string, status RunStatus, errMsg string) error
	ListRuns(limit int) ([]*LoadRun, error)

	RecordFile(f *FileLoad) error
	ListFiles(runID string) ([]*FileLoad, error)
}
