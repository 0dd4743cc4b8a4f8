package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/leapstack-labs/leapload/internal/cli/config"
	"github.com/leapstack-labs/leapload/internal/cli/output"
	intconfig "github.com/leapstack-labs/leapload/internal/config"
	"github.com/leapstack-labs/leapload/internal/state"
	"github.com/leapstack-labs/leapload/pkg/adapter"
	"github.com/leapstack-labs/leapload/pkg/core"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext for cmd.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// Helper functions shared across commands

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise falls back to environment variables.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	return &config.Config{
		SongData:     getEnvOrDefault("LEAPLOAD_SONG_DATA", intconfig.DefaultSongDataDir),
		LogData:      getEnvOrDefault("LEAPLOAD_LOG_DATA", intconfig.DefaultLogDataDir),
		Extension:    getEnvOrDefault("LEAPLOAD_EXTENSION", intconfig.DefaultExtension),
		StatePath:    getEnvOrDefault("LEAPLOAD_STATE_PATH", config.DefaultStateFile),
		Environment:  getEnvOrDefault("LEAPLOAD_ENVIRONMENT", config.DefaultEnv),
		Verbose:      os.Getenv("LEAPLOAD_VERBOSE") == "true",
		OutputFormat: os.Getenv("LEAPLOAD_OUTPUT"),
		Target: &core.TargetConfig{
			Type:     intconfig.DefaultTargetType,
			Database: getEnvOrDefault("LEAPLOAD_DATABASE", intconfig.DefaultDatabase),
		},
		Ingest: config.IngestConfig{
			Commit:     config.DefaultCommit,
			OnConflict: config.DefaultConflict,
		},
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// openWarehouse connects the adapter for the configured target.
func openWarehouse(ctx context.Context, cfg *config.Config, logger *slog.Logger) (adapter.Adapter, error) {
	if cfg.Target == nil {
		return nil, fmt.Errorf("no target configured")
	}
	adp, err := adapter.NewAdapter(cfg.Target.ToAdapterConfig(), logger)
	if err != nil {
		return nil, err
	}
	if err := adp.Connect(ctx, cfg.Target.ToAdapterConfig()); err != nil {
		return nil, fmt.Errorf("failed to connect to %s target: %w", cfg.Target.Type, err)
	}
	return adp, nil
}

// openState opens the load history database.
func openState(cfg *config.Config, logger *slog.Logger) (*state.SQLiteStore, error) {
	store := state.NewSQLiteStore(logger)
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}
	return store, nil
}
