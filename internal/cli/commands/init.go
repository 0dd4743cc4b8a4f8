package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/leapload/internal/cli/config"
	"github.com/leapstack-labs/leapload/internal/cli/output"
	intconfig "github.com/leapstack-labs/leapload/internal/config"
	"github.com/leapstack-labs/leapload/pkg/core"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const configHeader = `# leapload configuration
# Relative paths are resolved against the directory of this file.
# Credentials may reference environment variables: password: ${PGPASSWORD}
`

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool
	var targetType string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new leapload project",
		Long: `Initialize a new leapload project with a starter configuration.

This creates:
  - data/song_data/ directory for song catalog files
  - data/log_data/ directory for listening log files
  - leapload.yaml configuration file`,
		Example: `  # Initialize in current directory
  leapload init

  # Initialize a project loading into Postgres
  leapload init my-warehouse --type postgres

  # Force overwrite existing config
  leapload init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			cfg := getConfig()
			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))
			return runInit(r, dir, targetType, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")
	cmd.Flags().StringVar(&targetType, "type", intconfig.DefaultTargetType, "Target database type: sqlite, duckdb or postgres")

	return cmd
}

// starterConfig returns the configuration written by init.
func starterConfig(targetType string) *config.Config {
	target := &core.TargetConfig{Type: targetType, Database: intconfig.DefaultDatabase}
	switch targetType {
	case "duckdb":
		target.Database = "sparkify.duckdb"
	case "postgres":
		target.Database = "sparkifydb"
		target.Host = "127.0.0.1"
		target.Port = 5432
		target.User = "${PGUSER}"
		target.Password = "${PGPASSWORD}"
		target.Options = map[string]string{"sslmode": "disable"}
	}

	return &config.Config{
		SongData:    intconfig.DefaultSongDataDir,
		LogData:     intconfig.DefaultLogDataDir,
		Extension:   intconfig.DefaultExtension,
		StatePath:   config.DefaultStateFile,
		Environment: config.DefaultEnv,
		Target:      target,
		Ingest: config.IngestConfig{
			Commit:     config.DefaultCommit,
			OnConflict: config.DefaultConflict,
		},
	}
}

func runInit(r *output.Renderer, dir, targetType string, force bool) error {
	normalized := &core.TargetConfig{Type: targetType}
	intconfig.ApplyTargetDefaults(normalized)
	cfg := starterConfig(normalized.Type)
	intconfig.ApplyTargetDefaults(cfg.Target)
	if err := intconfig.ValidateTarget(cfg.Target); err != nil {
		return err
	}
	// Defaults are applied at load time; keep the file minimal.
	if cfg.Target.Schema == intconfig.DefaultSchemaForType(cfg.Target.Type) {
		cfg.Target.Schema = ""
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	configPath := filepath.Join(dir, intconfig.ConfigFileName)
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", intconfig.ConfigFileName)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	if err := os.WriteFile(configPath, append([]byte(configHeader), data...), 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", configPath, err)
	}
	r.StatusLine(intconfig.ConfigFileName, "success", "")

	for _, sub := range []string{cfg.SongData, cfg.LogData} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", sub, err)
		}
		r.StatusLine(sub+"/", "success", "")
	}

	r.Println("")
	r.Success("leapload project initialized!")
	r.Println("")
	r.Println("Next steps:")
	r.Println("  1. Copy song catalog files into " + cfg.SongData + "/")
	r.Println("  2. Copy listening log files into " + cfg.LogData + "/")
	r.Println("  3. Create the star schema tables in the target database")
	r.Println("  4. Run 'leapload load'")

	return nil
}
