package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	intconfig "github.com/leapstack-labs/leapload/internal/config"
	"github.com/leapstack-labs/leapload/pkg/core"
	"github.com/spf13/pflag"
)

// loggerKey is used to store logger in context.
type loggerKey struct{}

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// envPrefix is the prefix of configuration environment variables.
const envPrefix = "LEAPLOAD_"

// flagKeys maps command-line flag names to config keys where they differ.
var flagKeys = map[string]string{
	"state":          "state_path",
	"env":            "environment",
	"database":       "target.database",
	"commit":         "ingest.commit",
	"on-conflict":    "ingest.on_conflict",
	"skip-preflight": "ingest.skip_preflight",
}

// Package-level config file tracking
var (
	configFileUsed string
	currentConfig  *Config // Stores the loaded config for access by commands
)

// inferProjectRoot determines the project root.
// Priority: directory of an explicit config file, then the nearest
// directory upwards from the working directory holding leapload.yaml,
// then the working directory.
func inferProjectRoot(cfgFile string) string {
	if cfgFile != "" {
		if abs, err := filepath.Abs(cfgFile); err == nil {
			return filepath.Dir(abs)
		}
	}

	cwd, err := os.Getwd()
	if err != nil || cwd == "" {
		return "."
	}
	if root := intconfig.FindProjectRoot(cwd, maxUpwardSearchLevels); root != "" {
		return root
	}
	return cwd
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty, in-memory or already absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// ResetConfig clears the tracked config. Used for testing.
func ResetConfig() {
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	return LoadConfigWithTarget(cfgFile, "", flags)
}

// LoadConfigWithTarget loads configuration with an optional target override.
// targetOverride names an entry of environments whose settings are merged
// over the base configuration.
func LoadConfigWithTarget(cfgFile string, targetOverride string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	projectRoot := inferProjectRoot(cfgFile)

	// Paths given as flags are relative to the working directory, not the project.
	flagPaths := map[string]string{}
	if flags != nil {
		for _, name := range []string{"song-data", "log-data", "state", "database"} {
			if f := flags.Lookup(name); f != nil && f.Changed {
				if v := f.Value.String(); v != "" && v != ":memory:" {
					abs, err := filepath.Abs(v)
					if err == nil {
						flagPaths[name] = abs
					}
				}
			}
		}
	}

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]any{
		"song_data":          intconfig.DefaultSongDataDir,
		"log_data":           intconfig.DefaultLogDataDir,
		"extension":          intconfig.DefaultExtension,
		"state_path":         DefaultStateFile,
		"environment":        DefaultEnv,
		"verbose":            false,
		"output":             DefaultOutput,
		"ingest.commit":      DefaultCommit,
		"ingest.on_conflict": DefaultConflict,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	configFileUsed = cfgFile
	if configFileUsed == "" {
		configFileUsed = intconfig.FindConfigFile(projectRoot)
	}
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Environment variables. A double underscore descends into a section:
	// LEAPLOAD_TARGET__PASSWORD -> target.password
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags, only those explicitly set
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			// Only load flags that were explicitly set; --config and --target
			// select sources rather than carry values.
			if !f.Changed || f.Name == "config" || f.Name == "target" {
				return "", nil
			}
			if key, ok := flagKeys[f.Name]; ok {
				return key, posflag.FlagVal(flags, f)
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ProjectRoot = projectRoot

	envName := cfg.Environment
	if targetOverride != "" {
		envName = targetOverride
		cfg.Environment = targetOverride
	}
	if envCfg, ok := cfg.Environments[envName]; ok {
		if envCfg.SongData != "" && flagPaths["song-data"] == "" {
			cfg.SongData = envCfg.SongData
		}
		if envCfg.LogData != "" && flagPaths["log-data"] == "" {
			cfg.LogData = envCfg.LogData
		}
		if envCfg.Target != nil {
			cfg.Target = MergeTargetConfig(cfg.Target, envCfg.Target)
		}
	}

	if cfg.Target == nil {
		cfg.Target = &core.TargetConfig{
			Type:     intconfig.DefaultTargetType,
			Database: intconfig.DefaultDatabase,
		}
	} else if !k.Exists("target.type") && cfg.Target.Type == "" {
		// Only target.database was given, e.g. through --database.
		cfg.Target.Type = intconfig.DefaultTargetType
	}
	intconfig.ApplyTargetDefaults(cfg.Target)
	expandTargetEnvVars(cfg.Target)

	cfg.SongData = pick(flagPaths["song-data"], resolvePathRelativeTo(cfg.SongData, projectRoot))
	cfg.LogData = pick(flagPaths["log-data"], resolvePathRelativeTo(cfg.LogData, projectRoot))
	cfg.StatePath = pick(flagPaths["state"], resolvePathRelativeTo(cfg.StatePath, projectRoot))
	if isFileTarget(cfg.Target.Type) {
		cfg.Target.Database = pick(flagPaths["database"], resolvePathRelativeTo(cfg.Target.Database, projectRoot))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	currentConfig = &cfg

	return &cfg, nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

func pick(preferred, fallback string) string {
	if preferred != "" {
		return preferred
	}
	return fallback
}

// isFileTarget reports whether the target database is a local file path.
func isFileTarget(dbType string) bool {
	return dbType == "sqlite" || dbType == "duckdb"
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
// Unset variables are left as written.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if val := os.Getenv(match[2 : len(match)-1]); val != "" {
			return val
		}
		return match
	})
}

// expandTargetEnvVars expands environment variables in sensitive target fields.
func expandTargetEnvVars(t *core.TargetConfig) {
	if t == nil {
		return
	}
	t.Password = expandEnvVars(t.Password)
	t.User = expandEnvVars(t.User)
	t.Host = expandEnvVars(t.Host)
	t.Database = expandEnvVars(t.Database)
}

// MergeTargetConfig merges two target configs, with override taking precedence.
func MergeTargetConfig(base, override *core.TargetConfig) *core.TargetConfig {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}

	merged := *base
	merged.Options = make(map[string]string, len(base.Options)+len(override.Options))
	merged.Params = make(map[string]any, len(base.Params)+len(override.Params))
	for k, v := range base.Options {
		merged.Options[k] = v
	}
	for k, v := range base.Params {
		merged.Params[k] = v
	}

	if override.Type != "" {
		merged.Type = override.Type
	}
	if override.Database != "" {
		merged.Database = override.Database
	}
	if override.Host != "" {
		merged.Host = override.Host
	}
	if override.Port != 0 {
		merged.Port = override.Port
	}
	if override.User != "" {
		merged.User = override.User
	}
	if override.Password != "" {
		merged.Password = override.Password
	}
	if override.Schema != "" {
		merged.Schema = override.Schema
	}
	for k, v := range override.Options {
		merged.Options[k] = v
	}
	for k, v := range override.Params {
		merged.Params[k] = v
	}

	return &merged
}
