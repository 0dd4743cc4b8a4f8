package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/leapstack-labs/leapload/internal/cli/config"
	"github.com/leapstack-labs/leapload/internal/cli/output"
	"github.com/leapstack-labs/leapload/internal/loader"
	"github.com/leapstack-labs/leapload/internal/warehouse"
	"github.com/leapstack-labs/leapload/pkg/core"
	"github.com/spf13/cobra"
)

// LoadOptions holds options for the load command.
type LoadOptions struct {
	Only string
}

// NewLoadCommand creates the load command.
func NewLoadCommand() *cobra.Command {
	opts := &LoadOptions{}

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load song catalog and listening logs into the star schema",
		Long: `Load the song catalog and the listening logs into the target database.

Catalog files are loaded first and produce the songs and artists tables.
Log files are loaded next; every NextSong event produces a time row, a
users row and a songplays row, matched to a song by title, artist name
and duration.

The target tables must already exist.

Output adapts to environment:
  - Terminal: Styled, colored output
  - Piped/Scripted: Markdown format (agent-friendly)

Use --output to override: auto, text, markdown, json`,
		Example: `  # Load everything with one transaction per file
  leapload load

  # Load only the listening logs
  leapload load --only logs

  # Load all files in a single transaction
  leapload load --commit run

  # Load into the prod environment and print a JSON summary
  leapload load --target prod --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLoad(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Only, "only", "", "Load a single source: songs or logs")
	cmd.Flags().String("commit", "", "Transaction boundary: file or run")
	cmd.Flags().String("on-conflict", "", "Duplicate key handling: error, ignore or update")
	cmd.Flags().Bool("skip-preflight", false, "Do not check that the target tables exist")

	_ = cmd.RegisterFlagCompletionFunc("only", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{string(core.SourceSongs), string(core.SourceLogs)}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("commit", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{string(loader.CommitPerFile), string(loader.CommitPerRun)}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("on-conflict", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{string(warehouse.ConflictError), string(warehouse.ConflictIgnore), string(warehouse.ConflictUpdate)}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runLoad(cmd *cobra.Command, opts *LoadOptions) error {
	cc := NewCommandContext(cmd)
	cfg, r := cc.Cfg, cc.Renderer
	ctx := cmd.Context()

	kinds := loader.DefaultKinds
	if opts.Only != "" {
		kind, err := loader.ParseKind(opts.Only)
		if err != nil {
			return err
		}
		kinds = []core.SourceKind{kind}
	}

	var dirs []string
	for _, kind := range kinds {
		dirs = append(dirs, dataDir(cfg, kind))
	}
	if err := config.ValidateDirectories(dirs...); err != nil {
		return err
	}

	adp, err := openWarehouse(ctx, cfg, cc.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = adp.Close() }()

	runs, err := openState(cfg, cc.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = runs.Close() }()

	// JSON output must stay parseable, so progress goes to stderr.
	var progress io.Writer = r.Writer()
	if r.EffectiveMode() == output.ModeJSON {
		progress = r.ErrWriter()
	}

	ld, err := loader.New(adp, runs, loader.Config{
		SongDataDir:   cfg.SongData,
		LogDataDir:    cfg.LogData,
		Extension:     cfg.Extension,
		Commit:        loader.CommitPolicy(cfg.Ingest.Commit),
		OnConflict:    warehouse.ConflictPolicy(cfg.Ingest.OnConflict),
		Environment:   cfg.Environment,
		SkipPreflight: cfg.Ingest.SkipPreflight,
		Progress:      progress,
		Logger:        cc.Logger,
	})
	if err != nil {
		return err
	}

	summary, runErr := ld.Run(ctx, kinds...)
	if summary != nil {
		if err := renderSummary(r, summary); err != nil {
			return err
		}
	}
	return runErr
}

func dataDir(cfg *config.Config, kind core.SourceKind) string {
	if kind == core.SourceSongs {
		return cfg.SongData
	}
	return cfg.LogData
}

// renderSummary writes the result of a load run.
func renderSummary(r *output.Renderer, s *loader.Summary) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(s)
	}

	r.Println("")
	r.Header(1, "Load Summary")
	for _, src := range s.Sources {
		status := "success"
		if src.Loaded < src.Files {
			status = "failed"
		}
		r.StatusLine(string(src.Kind), status, fmt.Sprintf("%d/%d files from %s", src.Loaded, src.Files, src.Root))
	}

	r.Println("")
	rows := make([][]any, 0, len(core.Relations)+1)
	for _, rel := range core.Relations {
		rows = append(rows, []any{string(rel), s.Rows.Get(rel)})
	}
	rows = append(rows, []any{"total", s.Rows.Total()})
	r.Table([]string{"Relation", "Rows"}, rows)

	r.Println("")
	if s.RunID != "" {
		r.Println(output.FormatKeyValue("Run", s.RunID))
	}
	r.Println(output.FormatKeyValue("Commit", string(s.Commit)))
	r.Println(output.FormatKeyValue("Duration", s.Duration().Round(time.Millisecond).String()))
	if s.Error != "" {
		r.Println(output.FormatKeyValue("Status", string(s.Status)))
		r.Println(output.FormatKeyValue("Error", s.Error))
		return nil
	}
	r.Success(fmt.Sprintf("Loaded %d files", s.FilesLoaded))
	return nil
}
