// Package config loads the leapload CLI configuration.
//
// Values are layered with koanf: defaults, then leapload.yaml, then
// LEAPLOAD_* environment variables, then explicitly set command-line flags.
package config

import (
	"github.com/leapstack-labs/leapload/internal/state"
	"github.com/leapstack-labs/leapload/pkg/core"
)

// TargetConfig is an alias for the shared target configuration.
type TargetConfig = core.TargetConfig

// IngestConfig controls how rows are written.
type IngestConfig struct {
	// Commit is the transaction boundary: "file" or "run".
	Commit string `koanf:"commit" yaml:"commit"`
	// OnConflict is "error", "ignore" or "update".
	OnConflict string `koanf:"on_conflict" yaml:"on_conflict"`
	// SkipPreflight disables the target table check.
	SkipPreflight bool `koanf:"skip_preflight" yaml:"skip_preflight,omitempty"`
}

// Config holds all CLI configuration options.
type Config struct {
	SongData     string               `koanf:"song_data" yaml:"song_data"`
	LogData      string               `koanf:"log_data" yaml:"log_data"`
	Extension    string               `koanf:"extension" yaml:"extension"`
	StatePath    string               `koanf:"state_path" yaml:"state_path"`
	Environment  string               `koanf:"environment" yaml:"environment"`
	Verbose      bool                 `koanf:"verbose" yaml:"verbose,omitempty"`
	OutputFormat string               `koanf:"output" yaml:"output,omitempty"`
	Target       *TargetConfig        `koanf:"target" yaml:"target"`
	Ingest       IngestConfig         `koanf:"ingest" yaml:"ingest"`
	Environments map[string]EnvConfig `koanf:"environments" yaml:"environments,omitempty"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-" yaml:"-"`
}

// EnvConfig holds environment-specific configuration overrides.
type EnvConfig struct {
	SongData string        `koanf:"song_data" yaml:"song_data,omitempty"`
	LogData  string        `koanf:"log_data" yaml:"log_data,omitempty"`
	Target   *TargetConfig `koanf:"target" yaml:"target,omitempty"`
}

// Default configuration values.
const (
	DefaultStateFile = state.DefaultPath
	DefaultEnv       = "dev"
	DefaultOutput    = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultCommit    = "file"
	DefaultConflict  = "ignore"
)
