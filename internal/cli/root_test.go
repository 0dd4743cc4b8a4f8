package cli

import (
	"bytes"
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/leapstack-labs/leapload/internal/cli/config"
	"github.com/leapstack-labs/leapload/internal/cli/testutil"
	"github.com/leapstack-labs/leapload/pkg/adapters/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	config.ResetConfig()

	cmd := NewRootCmd()
	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func countRows(t *testing.T, dbPath, table string) int {
	t.Helper()
	db, err := sql.Open("sqlite", sqlite.DSN(dbPath))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM "`+table+`"`).Scan(&n))
	return n
}

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCmd()

	assert.Equal(t, "leapload", cmd.Use)
	for _, name := range []string{"load", "runs", "doctor", "init", "version", "completion"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}
	for _, flag := range []string{"config", "target", "song-data", "log-data", "database", "state", "env", "verbose", "output"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestLoadCommand_EndToEnd(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	cfgPath := filepath.Join(dir, "leapload.yaml")
	dbPath := filepath.Join(dir, "sparkify.db")

	out, _, err := execute(t, "load", "--config", cfgPath, "--output", "markdown")
	require.NoError(t, err)

	assert.Contains(t, out, "1 files found in "+filepath.Join(dir, "data", "song_data"))
	assert.Contains(t, out, "1/1 files processed.")
	assert.Contains(t, out, "# Load Summary")
	assert.Contains(t, out, "| songplays | 2 |")
	testutil.AssertNoANSI(t, out)
	testutil.AssertValidMarkdown(t, out)

	assert.Equal(t, 1, countRows(t, dbPath, "songs"))
	assert.Equal(t, 1, countRows(t, dbPath, "artists"))
	assert.Equal(t, 2, countRows(t, dbPath, "time"))
	assert.Equal(t, 1, countRows(t, dbPath, "users"), "repeated users are ignored by default")
	assert.Equal(t, 2, countRows(t, dbPath, "songplays"))

	db, err := sql.Open("sqlite", sqlite.DSN(dbPath))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	var matched int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM songplays WHERE song_id = 'SOUPIRU12A6D4FA1E1' AND artist_id = 'ARJIE2Y1187B994AB7'`).Scan(&matched))
	assert.Equal(t, 1, matched)
}

func TestLoadCommand_JSONAndRuns(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	cfgPath := filepath.Join(dir, "leapload.yaml")

	out, errOut, err := execute(t, "load", "--config", cfgPath, "--output", "json", "--commit", "run")
	require.NoError(t, err)
	assert.Contains(t, errOut, "files processed.", "progress goes to stderr in JSON mode")

	var summary struct {
		RunID       string `json:"run_id"`
		Commit      string `json:"commit"`
		Status      string `json:"status"`
		FilesLoaded int    `json:"files_loaded"`
		Rows        struct {
			Songs     int `json:"songs"`
			Time      int `json:"time"`
			Users     int `json:"users"`
			Songplays int `json:"songplays"`
		} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, "run", summary.Commit)
	assert.Equal(t, "completed", summary.Status)
	assert.Equal(t, 2, summary.FilesLoaded)
	assert.Equal(t, 1, summary.Rows.Songs)
	assert.Equal(t, 2, summary.Rows.Time)
	assert.Equal(t, 2, summary.Rows.Users)
	assert.Equal(t, 2, summary.Rows.Songplays)

	out, _, err = execute(t, "runs", "--config", cfgPath, "--output", "json")
	require.NoError(t, err)
	var runs []struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Files  int    `json:"files"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, summary.RunID, runs[0].ID)
	assert.Equal(t, "completed", runs[0].Status)
	assert.Equal(t, 2, runs[0].Files)

	out, _, err = execute(t, "runs", summary.RunID, "--config", cfgPath, "--output", "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "# Run "+summary.RunID)
	assert.Contains(t, out, "2018-11-21-events.json")
}

func TestLoadCommand_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "unknown source", args: []string{"load", "--only", "podcasts"}, wantErr: "unknown source"},
		{name: "bad commit flag", args: []string{"load", "--commit", "nightly"}, wantErr: "invalid ingest.commit"},
		{name: "bad conflict flag", args: []string{"load", "--on-conflict", "merge"}, wantErr: "invalid ingest.on_conflict"},
		{name: "missing data directory", args: []string{"load", "--song-data", "does-not-exist"}, wantErr: "data directory does not exist"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := testutil.SetupTestProject(t)
			args := append(tt.args, "--config", filepath.Join(dir, "leapload.yaml"))
			_, _, err := execute(t, args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadCommand_MissingTables(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	_, _, err := execute(t, "load", "--config", filepath.Join(dir, "leapload.yaml"),
		"--database", filepath.Join(dir, "empty.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target tables missing")
}

func TestCompletionCommand(t *testing.T) {
	out, _, err := execute(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "leapload")
}
