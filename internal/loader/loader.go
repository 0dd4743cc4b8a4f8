// Package loader drives a load run: it discovers input files, transforms
// them and writes the rows through a warehouse sink under the configured
// commit policy.
package loader

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/leapload/internal/warehouse"
	"github.com/leapstack-labs/leapload/pkg/core"
)

// DefaultKinds is the source order of a full run: catalog before logs, so
// that plays can resolve against the songs loaded in the same run.
var DefaultKinds = []core.SourceKind{core.SourceSongs, core.SourceLogs}

// Loader runs loads against one warehouse store.
type Loader struct {
	store  warehouse.Store
	runs   core.RunStore
	cfg    Config
	logger *slog.Logger
}

// New creates a loader. runs may be nil to skip history recording.
func New(store warehouse.Store, runs core.RunStore, cfg Config) (*Loader, error) {
	if store == nil {
		return nil, fmt.Errorf("warehouse store is required")
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Loader{store: store, runs: runs, cfg: cfg, logger: cfg.Logger}, nil
}

// Run loads the given source kinds in order, DefaultKinds when none are given.
// It stops at the first failure. The returned summary is non-nil whenever
// the run got as far as starting, including on error.
func (l *Loader) Run(ctx context.Context, kinds ...core.SourceKind) (*Summary, error) {
	if len(kinds) == 0 {
		kinds = DefaultKinds
	}

	roots := make([]string, len(kinds))
	for i, kind := range kinds {
		root, err := l.cfg.root(kind)
		if err != nil {
			return nil, err
		}
		roots[i] = root
	}

	return l.run(ctx, kinds, roots)
}

// Load loads every file under root with the transformer for kind.
func (l *Loader) Load(ctx context.Context, kind core.SourceKind, root string) (*Summary, error) {
	return l.run(ctx, []core.SourceKind{kind}, []string{root})
}

func (l *Loader) run(ctx context.Context, kinds []core.SourceKind, roots []string) (*Summary, error) {
	l.logger.Info("starting load",
		slog.String("environment", l.cfg.Environment),
		slog.String("commit", string(l.cfg.Commit)))

	if !l.cfg.SkipPreflight {
		if err := warehouse.CheckTables(ctx, l.store); err != nil {
			return nil, err
		}
	}

	rs := &runState{
		summary: &Summary{
			Environment: l.cfg.Environment,
			Commit:      l.cfg.Commit,
			Status:      core.RunStatusRunning,
			StartedAt:   time.Now().UTC(),
		},
	}

	if l.runs != nil {
		run, err := l.runs.CreateRun(l.cfg.Environment, string(l.cfg.Commit))
		if err != nil {
			return nil, fmt.Errorf("failed to create run: %w", err)
		}
		rs.summary.RunID = run.ID
		l.logger.Debug("created run", slog.String("run_id", run.ID))
	}

	runErr := l.execute(ctx, rs, kinds, roots)
	l.finish(rs, runErr)
	return rs.summary, runErr
}

func (l *Loader) execute(ctx context.Context, rs *runState, kinds []core.SourceKind, roots []string) error {
	if l.cfg.Commit == CommitPerRun {
		tx, err := warehouse.Begin(ctx, l.store, l.sinkOptions())
		if err != nil {
			return err
		}
		rs.tx = tx

		if err := l.loadRoots(ctx, rs, kinds, roots); err != nil {
			_ = tx.Rollback()
			l.recordPending(rs, err)
			return err
		}
		if err := tx.Commit(); err != nil {
			l.recordPending(rs, err)
			return err
		}
		l.recordPending(rs, nil)
		return nil
	}

	return l.loadRoots(ctx, rs, kinds, roots)
}

func (l *Loader) loadRoots(ctx context.Context, rs *runState, kinds []core.SourceKind, roots []string) error {
	for i, kind := range kinds {
		if err := l.loadRoot(ctx, rs, kind, roots[i]); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) sinkOptions() warehouse.Options {
	return warehouse.Options{OnConflict: l.cfg.OnConflict, Logger: l.logger}
}

// finish closes the run in the history store and fills in the summary.
func (l *Loader) finish(rs *runState, runErr error) {
	s := rs.summary
	s.CompletedAt = time.Now().UTC()

	status := core.RunStatusCompleted
	errMsg := ""
	if runErr != nil {
		status = core.RunStatusFailed
		errMsg = runErr.Error()
		s.Error = errMsg
		// Rows of an aborted per-run transaction never became durable.
		if l.cfg.Commit == CommitPerRun {
			s.Rows = core.RowCounts{}
			s.FilesLoaded = 0
			for i := range s.Sources {
				s.Sources[i].Loaded = 0
				s.Sources[i].Rows = core.RowCounts{}
			}
		}
	}
	s.Status = status

	if l.runs != nil && s.RunID != "" {
		if err := l.runs.CompleteRun(s.RunID, status, errMsg); err != nil {
			l.logger.Warn("failed to complete run", slog.String("run_id", s.RunID), slog.String("error", err.Error()))
		}
	}

	if runErr != nil {
		l.logger.Info("load failed", slog.String("run_id", s.RunID), slog.String("error", errMsg))
		return
	}
	l.logger.Info("load completed",
		slog.String("run_id", s.RunID),
		slog.Int("files", s.FilesLoaded),
		slog.Int("rows", s.Rows.Total()),
		slog.Duration("duration", s.Duration()))
}
