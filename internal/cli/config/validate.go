package config

import (
	"fmt"
	"os"

	intconfig "github.com/leapstack-labs/leapload/internal/config"
	"github.com/leapstack-labs/leapload/internal/loader"
	"github.com/leapstack-labs/leapload/internal/warehouse"
)

// Validate checks if the configuration is valid.
// Data directories are checked separately by ValidateDirectories so that
// commands which do not read input work without them.
func (c *Config) Validate() error {
	if err := intconfig.ValidateTarget(c.Target); err != nil {
		return fmt.Errorf("invalid target configuration: %w", err)
	}
	if err := loader.CommitPolicy(c.Ingest.Commit).Validate(); err != nil {
		return fmt.Errorf("invalid ingest.commit: %w", err)
	}
	if err := warehouse.ConflictPolicy(c.Ingest.OnConflict).Validate(); err != nil {
		return fmt.Errorf("invalid ingest.on_conflict: %w", err)
	}
	switch c.OutputFormat {
	case "", "auto", "text", "markdown", "json":
	default:
		return fmt.Errorf("invalid output format %q (want auto, text, markdown or json)", c.OutputFormat)
	}
	return nil
}

// ValidateDirectories checks that the given data directories exist.
func ValidateDirectories(dirs ...string) error {
	for _, dir := range dirs {
		info, err := os.Stat(dir)
		if os.IsNotExist(err) {
			return fmt.Errorf("data directory does not exist: %s\nHint: set song_data/log_data in leapload.yaml or use --song-data/--log-data", dir)
		}
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("data path is not a directory: %s", dir)
		}
	}
	return nil
}
