// Package config holds the project-level configuration defaults and target
// helpers shared by the CLI and the loader.
package config

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapload/pkg/adapter"
	"github.com/leapstack-labs/leapload/pkg/core"
	"github.com/leapstack-labs/leapload/pkg/dialect"
)

// Default configuration values.
const (
	DefaultSongDataDir = "data/song_data"
	DefaultLogDataDir  = "data/log_data"
	DefaultExtension   = ".json"
	DefaultTargetType  = "sqlite"
	DefaultDatabase    = "sparkify.db"
)

// DefaultSchemaForType returns the default schema for a database type.
// The value comes from the registered dialect when there is one.
func DefaultSchemaForType(dbType string) string {
	if d, ok := dialect.Get(dbType); ok && d.DefaultSchema != "" {
		return d.DefaultSchema
	}
	switch strings.ToLower(dbType) {
	case "postgres", "postgresql":
		return "public"
	default:
		return "main"
	}
}

// ApplyTargetDefaults applies default values to a TargetConfig based on the target type.
func ApplyTargetDefaults(t *core.TargetConfig) {
	if t == nil {
		return
	}

	t.Type = strings.ToLower(t.Type)
	if t.Type == "postgresql" {
		t.Type = "postgres"
	}

	if t.Schema == "" {
		t.Schema = DefaultSchemaForType(t.Type)
	}

	if t.Type == "postgres" {
		if t.Host == "" {
			t.Host = "127.0.0.1"
		}
		if t.Port == 0 {
			t.Port = 5432
		}
	}
}

// ValidateTarget checks that a target names a registered adapter and has
// the fields that adapter needs.
func ValidateTarget(t *core.TargetConfig) error {
	if t == nil {
		return fmt.Errorf("target is required")
	}
	if t.Type == "" {
		return fmt.Errorf("target type is required")
	}
	if !adapter.IsRegistered(strings.ToLower(t.Type)) {
		return &adapter.UnknownAdapterError{Type: t.Type, Available: adapter.ListAdapters()}
	}
	if t.Type == "postgres" && t.Database == "" {
		return fmt.Errorf("target database is required for postgres")
	}
	if t.Port < 0 || t.Port > 65535 {
		return fmt.Errorf("target port %d out of range", t.Port)
	}
	return nil
}
