package commands

import (
	"fmt"
	"time"

	"github.com/leapstack-labs/leapload/internal/cli/output"
	"github.com/leapstack-labs/leapload/pkg/core"
	"github.com/spf13/cobra"
)

// RunInfo is the JSON form of a load run.
type RunInfo struct {
	ID          string         `json:"id"`
	Environment string         `json:"environment"`
	Commit      string         `json:"commit"`
	Status      string         `json:"status"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Files       int            `json:"files"`
	Rows        core.RowCounts `json:"rows"`
	Error       string         `json:"error,omitempty"`
	FileLoads   []FileInfo     `json:"file_loads,omitempty"`
}

// FileInfo is the JSON form of one loaded file.
type FileInfo struct {
	Kind    string         `json:"kind"`
	Path    string         `json:"path"`
	Status  string         `json:"status"`
	Records int            `json:"records"`
	Rows    core.RowCounts `json:"rows"`
	Error   string         `json:"error,omitempty"`
}

// NewRunsCommand creates the runs command.
func NewRunsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "Show load history",
		Long: `Show previous load runs recorded in the state database.

With a run ID, show every file of that run with its row counts.`,
		Example: `  # List the 20 most recent runs
  leapload runs

  # Show the files of one run
  leapload runs 3f0c2a9e-6f1b-4d2c-9a51-0c6f0b3e2d11

  # All runs as JSON
  leapload runs --limit 0 --output json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := NewCommandContext(cmd)
			store, err := openState(cc.Cfg, cc.Logger)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if len(args) == 1 {
				return showRun(cc.Renderer, store, args[0])
			}
			return listRuns(cc.Renderer, store, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show (0 for all)")

	return cmd
}

func listRuns(r *output.Renderer, store core.RunStore, limit int) error {
	runs, err := store.ListRuns(limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if r.EffectiveMode() == output.ModeJSON {
		infos := make([]RunInfo, 0, len(runs))
		for _, run := range runs {
			infos = append(infos, toRunInfo(run))
		}
		return r.JSON(infos)
	}

	r.Header(1, "Load Runs")
	if len(runs) == 0 {
		r.Muted("No runs recorded yet. Run 'leapload load' first.")
		return nil
	}

	rows := make([][]any, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []any{
			run.ID,
			run.StartedAt.Local().Format(time.DateTime),
			run.Environment,
			run.CommitPolicy,
			string(run.Status),
			run.Files,
			run.Rows.Songplays,
			run.Rows.Total(),
		})
	}
	r.Table([]string{"Run", "Started", "Env", "Commit", "Status", "Files", "Songplays", "Rows"}, rows)
	return nil
}

func showRun(r *output.Renderer, store core.RunStore, id string) error {
	run, err := store.GetRun(id)
	if err != nil {
		return err
	}
	files, err := store.ListFiles(id)
	if err != nil {
		return fmt.Errorf("failed to list files: %w", err)
	}

	if r.EffectiveMode() == output.ModeJSON {
		info := toRunInfo(run)
		for _, f := range files {
			info.FileLoads = append(info.FileLoads, FileInfo{
				Kind:    string(f.Kind),
				Path:    f.Path,
				Status:  string(f.Status),
				Records: f.Records,
				Rows:    f.Rows,
				Error:   f.Error,
			})
		}
		return r.JSON(info)
	}

	r.Header(1, "Run "+run.ID)
	r.Println(output.FormatKeyValue("Status", string(run.Status)))
	r.Println(output.FormatKeyValue("Environment", run.Environment))
	r.Println(output.FormatKeyValue("Commit", run.CommitPolicy))
	r.Println(output.FormatKeyValue("Started", run.StartedAt.Local().Format(time.DateTime)))
	if run.CompletedAt != nil {
		r.Println(output.FormatKeyValue("Duration", run.CompletedAt.Sub(run.StartedAt).Round(time.Millisecond).String()))
	}
	if run.Error != "" {
		r.Println(output.FormatKeyValue("Error", run.Error))
	}

	r.Println("")
	r.Header(2, "Files")
	if len(files) == 0 {
		r.Muted("No files recorded.")
		return nil
	}
	rows := make([][]any, 0, len(files))
	for _, f := range files {
		rows = append(rows, []any{
			string(f.Kind),
			f.Path,
			string(f.Status),
			f.Records,
			f.Rows.Songs,
			f.Rows.Artists,
			f.Rows.Time,
			f.Rows.Users,
			f.Rows.Songplays,
		})
	}
	r.Table([]string{"Kind", "Path", "Status", "Records", "Songs", "Artists", "Time", "Users", "Songplays"}, rows)
	return nil
}

func toRunInfo(run *core.LoadRun) RunInfo {
	return RunInfo{
		ID:          run.ID,
		Environment: run.Environment,
		Commit:      run.CommitPolicy,
		Status:      string(run.Status),
		StartedAt:   run.StartedAt,
		CompletedAt: run.CompletedAt,
		Files:       run.Files,
		Rows:        run.Rows,
		Error:       run.Error,
	}
}
