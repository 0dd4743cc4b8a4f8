package core

// TargetConfig holds database target configuration.
type TargetConfig struct {
	Type string `koanf:"type" yaml:"type"` // postgres, duckdb, sqlite

	// File-based databases (DuckDB, SQLite)
	Database string `koanf:"database" yaml:"database"` // file path or database name

	// Network databases
	Host     string `koanf:"host" yaml:"host,omitempty"`
	Port     int    `koanf:"port" yaml:"port,omitempty"`
	User     string `koanf:"user" yaml:"user,omitempty"`
	Password string `koanf:"password" yaml:"password,omitempty"`

	// Common
	Schema string `koanf:"schema" yaml:"schema,omitempty"`

	// Additional driver-specific options (e.g., sslmode)
	Options map[string]string `koanf:"options" yaml:"options,omitempty"`

	// Params holds adapter-specific configuration (e.g., DuckDB settings)
	Params map[string]any `koanf:"params" yaml:"params,omitempty"`
}

// ToAdapterConfig converts a target into the adapter connection config.
// File-based targets use Database as the path.
func (t *TargetConfig) ToAdapterConfig() AdapterConfig {
	return AdapterConfig{
		Type:     t.Type,
		Path:     t.Database,
		Database: t.Database,
		Schema:   t.Schema,
		Host:     t.Host,
		Port:     t.Port,
		Username: t.User,
		Password: t.Password,
		Options:  t.Options,
		Params:   t.Params,
	}
}
