package loader

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/leapload/internal/source"
	"github.com/leapstack-labs/leapload/internal/transform"
	"github.com/leapstack-labs/leapload/internal/warehouse"
	"github.com/leapstack-labs/leapload/pkg/core"
)

// runState is the mutable state of one run.
type runState struct {
	summary *Summary
	// tx is the shared transaction under CommitPerRun.
	tx *warehouse.Tx
	// pending holds file results awaiting the final commit under CommitPerRun.
	pending []*core.FileLoad
}

func (l *Loader) loadRoot(ctx context.Context, rs *runState, kind core.SourceKind, root string) error {
	files, err := source.Discover(root, l.cfg.Extension)
	if err != nil {
		return err
	}

	src := SourceSummary{Kind: kind, Root: root, Files: len(files)}
	fmt.Fprintf(l.cfg.Progress, "%d files found in %s\n", len(files), root)
	l.logger.Info("discovered files", slog.String("kind", string(kind)), slog.String("root", root), slog.Int("files", len(files)))

	defer func() { rs.summary.Sources = append(rs.summary.Sources, src) }()

	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		rows, err := l.loadFile(ctx, rs, kind, path)
		if err != nil {
			return err
		}

		src.Loaded++
		src.Rows.Add(rows)
		rs.summary.FilesLoaded++
		rs.summary.Rows.Add(rows)
		fmt.Fprintf(l.cfg.Progress, "%d/%d files processed.\n", i+1, len(files))
	}
	return nil
}

// loadFile transforms one file and writes its rows. Under CommitPerFile the
// file gets its own transaction.
func (l *Loader) loadFile(ctx context.Context, rs *runState, kind core.SourceKind, path string) (core.RowCounts, error) {
	start := time.Now()
	record := &core.FileLoad{RunID: rs.summary.RunID, Kind: kind, Path: path}

	tx := rs.tx
	if tx == nil {
		var err error
		tx, err = warehouse.Begin(ctx, l.store, l.sinkOptions())
		if err != nil {
			return core.RowCounts{}, err
		}
	}

	records, err := l.process(ctx, tx.Sink, kind, path, record)
	if err == nil && rs.tx == nil {
		err = tx.Commit()
	}
	if err != nil {
		if rs.tx == nil {
			_ = tx.Rollback()
		}
		err = fmt.Errorf("%s: %w", path, err)
		l.logger.Error("file failed", slog.String("path", path), slog.String("error", err.Error()))
		record.Status = core.FileStatusFailed
		record.Error = err.Error()
		l.record(rs, record)
		return core.RowCounts{}, err
	}

	l.logger.Debug("file loaded",
		slog.String("path", path),
		slog.Int("records", records),
		slog.Int("rows", record.Rows.Total()),
		slog.Duration("duration", time.Since(start)))

	record.Status = core.FileStatusLoaded
	l.record(rs, record)
	return record.Rows, nil
}

// process decodes path, runs the transformer for kind and applies the batch.
// It returns the number of decoded records.
func (l *Loader) process(ctx context.Context, sink *warehouse.Sink, kind core.SourceKind, path string, record *core.FileLoad) (int, error) {
	var batch *transform.Batch
	var records int

	switch kind {
	case core.SourceSongs:
		songs, err := source.ReadSongs(path)
		if err != nil {
			return 0, err
		}
		records = len(songs)
		batch = transform.SongFile(songs)
	case core.SourceLogs:
		events, err := source.ReadEvents(path)
		if err != nil {
			return 0, err
		}
		records = len(events)
		batch, err = transform.Logs(ctx, events, sink)
		if err != nil {
			return records, err
		}
	default:
		return 0, fmt.Errorf("unknown source kind %q", kind)
	}

	record.Records = records
	record.Rows = batch.Counts()
	if err := batch.Apply(ctx, sink); err != nil {
		return records, err
	}
	return records, nil
}

// record writes a file result to the history store. Under CommitPerRun the
// result is held back until the run transaction ends.
func (l *Loader) record(rs *runState, f *core.FileLoad) {
	if l.runs == nil || rs.summary.RunID == "" {
		return
	}
	if rs.tx != nil {
		rs.pending = append(rs.pending, f)
		return
	}
	l.writeFile(f)
}

// recordPending flushes held-back file results once the run transaction
// has been committed (txErr nil) or rolled back.
func (l *Loader) recordPending(rs *runState, txErr error) {
	for _, f := range rs.pending {
		if txErr != nil && f.Status == core.FileStatusLoaded {
			f.Status = core.FileStatusFailed
			f.Error = "rolled back: " + txErr.Error()
		}
		l.writeFile(f)
	}
	rs.pending = nil
}

func (l *Loader) writeFile(f *core.FileLoad) {
	if err := l.runs.RecordFile(f); err != nil {
		l.logger.Warn("failed to record file", slog.String("path", f.Path), slog.String("error", err.Error()))
	}
}
