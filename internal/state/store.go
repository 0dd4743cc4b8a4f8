// Package state records load history in a local SQLite database.
// It tracks each loader invocation and the outcome of every file it read.
package state

import (
	"github.com/leapstack-labs/leapload/pkg/core"
)

// Aliases for the history types defined in pkg/core.
type (
	// Store is an alias for core.RunStore.
	Store = core.RunStore

	// Run is an alias for core.LoadRun.
	Run = core.LoadRun

	// File is an alias for core.FileLoad.
	File = core.FileLoad

	// RunStatus is an alias for core.RunStatus.
	RunStatus = core.RunStatus
)

// Re-export status constants from core.
const (
	RunStatusRunning   = core.RunStatusRunning
	RunStatusCompleted = core.RunStatusCompleted
	RunStatusFailed    = core.RunStatusFailed
)

// DefaultPath is the state database location relative to the working directory.
const DefaultPath = ".leapload/state.db"
