package loader

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/leapstack-labs/leapload/internal/source"
	"github.com/leapstack-labs/leapload/internal/warehouse"
	"github.com/leapstack-labs/leapload/pkg/core"
)

// CommitPolicy selects the transaction boundary of a run.
type CommitPolicy string

// Commit policies.
const (
	// CommitPerFile commits after every file. A failing file is rolled back
	// and earlier files stay committed.
	CommitPerFile CommitPolicy = "file"
	// CommitPerRun loads every file in one transaction.
	CommitPerRun CommitPolicy = "run"
)

// Validate reports whether p is a known policy.
func (p CommitPolicy) Validate() error {
	switch p {
	case CommitPerFile, CommitPerRun:
		return nil
	default:
		return fmt.Errorf("unknown commit policy %q (want file or run)", p)
	}
}

// Config configures a Loader.
type Config struct {
	// SongDataDir is the root of the song catalog files.
	SongDataDir string
	// LogDataDir is the root of the activity log files.
	LogDataDir string
	// Extension selects input files; defaults to ".json".
	Extension string

	Commit CommitPolicy
	// OnConflict defaults to ignore: repeated users and timestamps are
	// normal in activity logs.
	OnConflict warehouse.ConflictPolicy

	// Environment is recorded with each run.
	Environment string

	// SkipPreflight disables the check that all target tables exist.
	SkipPreflight bool

	// Progress receives the human-readable progress lines.
	Progress io.Writer
	Logger   *slog.Logger
}

func (c *Config) applyDefaults() {
	if c.Extension == "" {
		c.Extension = source.DefaultExtension
	}
	if c.Commit == "" {
		c.Commit = CommitPerFile
	}
	if c.OnConflict == "" {
		c.OnConflict = warehouse.ConflictIgnore
	}
	if c.Progress == nil {
		c.Progress = io.Discard
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
}

func (c *Config) validate() error {
	if err := c.Commit.Validate(); err != nil {
		return err
	}
	return c.OnConflict.Validate()
}

// root returns the configured data root for kind.
func (c *Config) root(kind core.SourceKind) (string, error) {
	var root string
	switch kind {
	case core.SourceSongs:
		root = c.SongDataDir
	case core.SourceLogs:
		root = c.LogDataDir
	default:
		return "", fmt.Errorf("unknown source kind %q", kind)
	}
	if root == "" {
		return "", fmt.Errorf("no data directory configured for %s", kind)
	}
	return root, nil
}

// ParseKind maps a user-supplied source name to a SourceKind.
func ParseKind(s string) (core.SourceKind, error) {
	switch core.SourceKind(s) {
	case core.SourceSongs, core.SourceLogs:
		return core.SourceKind(s), nil
	default:
		return "", fmt.Errorf("unknown source %q (want songs or logs)", s)
	}
}
