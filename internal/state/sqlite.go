package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/leapstack-labs/leapload/pkg/adapters/sqlite"
	"github.com/leapstack-labs/leapload/pkg/core"

	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

// SQLiteStore implements core.RunStore using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite state store instance.
// If logger is nil, a discard logger is used.
func NewSQLiteStore(logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteStore{logger: logger}
}

// Open opens the state database at path and applies migrations.
// Parent directories are created as needed. Use ":memory:" for an
// in-memory database.
func (s *SQLiteStore) Open(path string) error {
	if path != sqlite.MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", sqlite.DSN(path))
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if path == sqlite.MemoryPath {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	if err := MigrateWithDB(db); err != nil {
		_ = db.Close()
		return err
	}

	s.logger.Debug("state store opened", slog.String("path", path))

	s.db = db
	s.path = path
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// generateID creates a new UUID.
func generateID() string {
	return uuid.New().String()
}

func ctx() context.Context {
	return context.Background()
}

const runColumns = `id, environment, commit_policy, status, started_at, completed_at, error,
	files, songs, artists, time_rows, users, songplays`

// CreateRun starts a new load run.
func (s *SQLiteStore) CreateRun(env, commitPolicy string) (*core.LoadRun, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &core.LoadRun{
		ID:           generateID(),
		Environment:  env,
		CommitPolicy: commitPolicy,
		Status:       core.RunStatusRunning,
		StartedAt:    time.Now().UTC(),
	}

	s.logger.Debug("creating run", slog.String("id", run.ID), slog.String("environment", env))

	_, err := s.db.ExecContext(ctx(),
		`INSERT INTO load_runs (id, environment, commit_policy, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Environment, run.CommitPolicy, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(id string) (*core.LoadRun, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRowContext(ctx(), `SELECT `+runColumns+` FROM load_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// CompleteRun marks a run as finished with the given status.
func (s *SQLiteStore) CompleteRun(id string, status core.RunStatus, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	var errorPtr *string
	if errMsg != "" {
		errorPtr = &errMsg
	}

	res, err := s.db.ExecContext(ctx(),
		`UPDATE load_runs SET status = ?, completed_at = ?, error = ? WHERE id = ?`,
		string(status), time.Now().UTC(), errorPtr, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run not found: %s", id)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
// A limit of zero or less returns every run.
func (s *SQLiteStore) ListRuns(limit int) ([]*core.LoadRun, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx(),
		`SELECT `+runColumns+` FROM load_runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*core.LoadRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RecordFile stores the outcome of one file and adds its rows to the run totals.
func (s *SQLiteStore) RecordFile(f *core.FileLoad) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	if f.ID == "" {
		f.ID = generateID()
	}
	if f.LoadedAt.IsZero() {
		f.LoadedAt = time.Now().UTC()
	}
	var errorPtr *string
	if f.Error != "" {
		errorPtr = &f.Error
	}

	tx, err := s.db.BeginTx(ctx(), nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx(),
		`INSERT INTO file_loads (id, run_id, kind, path, status, records, songs, artists, time_rows, users, songplays, loaded_at, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.RunID, string(f.Kind), f.Path, string(f.Status), f.Records,
		f.Rows.Songs, f.Rows.Artists, f.Rows.Time, f.Rows.Users, f.Rows.Songplays,
		f.LoadedAt, errorPtr,
	)
	if err != nil {
		return fmt.Errorf("failed to record file: %w", err)
	}

	// Only committed rows count towards the run.
	if f.Status == core.FileStatusLoaded {
		_, err = tx.ExecContext(ctx(),
			`UPDATE load_runs SET files = files + 1, songs = songs + ?, artists = artists + ?,
			 time_rows = time_rows + ?, users = users + ?, songplays = songplays + ? WHERE id = ?`,
			f.Rows.Songs, f.Rows.Artists, f.Rows.Time, f.Rows.Users, f.Rows.Songplays, f.RunID,
		)
		if err != nil {
			return fmt.Errorf("failed to update run totals: %w", err)
		}
	}

	return tx.Commit()
}

// ListFiles returns the files of a run in the order they were recorded.
func (s *SQLiteStore) ListFiles(runID string) ([]*core.FileLoad, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx(),
		`SELECT id, run_id, kind, path, status, records, songs, artists, time_rows, users, songplays, loaded_at, error
		 FROM file_loads WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var files []*core.FileLoad
	for rows.Next() {
		f := &core.FileLoad{}
		var kind, status string
		var errMsg sql.NullString
		if err := rows.Scan(&f.ID, &f.RunID, &kind, &f.Path, &status, &f.Records,
			&f.Rows.Songs, &f.Rows.Artists, &f.Rows.Time, &f.Rows.Users, &f.Rows.Songplays,
			&f.LoadedAt, &errMsg); err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		f.Kind = core.SourceKind(kind)
		f.Status = core.FileStatus(status)
		f.Error = errMsg.String
		files = append(files, f)
	}
	return files, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*core.LoadRun, error) {
	run := &core.LoadRun{}
	var status string
	var completedAt sql.NullTime
	var errMsg sql.NullString
	err := row.Scan(&run.ID, &run.Environment, &run.CommitPolicy, &status, &run.StartedAt, &completedAt, &errMsg,
		&run.Files, &run.Rows.Songs, &run.Rows.Artists, &run.Rows.Time, &run.Rows.Users, &run.Rows.Songplays)
	if err != nil {
		return nil, err
	}
	run.Status = core.RunStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	run.Error = errMsg.String
	return run, nil
}

// Ensure SQLiteStore implements core.RunStore.
var _ core.RunStore = (*SQLiteStore)(nil)
