package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapload/pkg/core"
	"github.com/leapstack-labs/leapload/pkg/dialect"
)

// Store is the part of an adapter the loader writes through.
type Store interface {
	BeginTx(ctx context.Context) (*sql.Tx, error)
	GetTableMetadata(ctx context.Context, table string) (*core.TableMetadata, error)
	Dialect() *dialect.Dialect
}

// Tx is a Sink bound to an open transaction.
type Tx struct {
	*Sink
	tx *sql.Tx
}

// Begin opens a transaction on store and returns a sink writing into it.
func Begin(ctx context.Context, store Store, opts Options) (*Tx, error) {
	tx, err := store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	sink, err := NewSink(tx, store.Dialect(), opts)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	return &Tx{Sink: sink, tx: tx}, nil
}

// Commit commits the underlying transaction.
func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Rollback aborts the underlying transaction. Rolling back a finished
// transaction is a no-op.
func (t *Tx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("failed to roll back: %w", err)
	}
	return nil
}

// MissingTablesError lists target relations absent from the store.
type MissingTablesError struct {
	Tables []core.Relation
}

func (e *MissingTablesError) Error() string {
	names := make([]string, len(e.Tables))
	for i, r := range e.Tables {
		names[i] = string(r)
	}
	return fmt.Sprintf("target tables missing: %s (create the star schema before loading)", strings.Join(names, ", "))
}

// CheckTables verifies that every target relation exists in the store.
func CheckTables(ctx context.Context, store Store) error {
	var missing []core.Relation
	for _, rel := range core.Relations {
		if _, err := store.GetTableMetadata(ctx, string(rel)); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			missing = append(missing, rel)
		}
	}
	if len(missing) > 0 {
		return &MissingTablesError{Tables: missing}
	}
	return nil
}

// MissingColumns returns the columns of rel that the loader writes but meta lacks.
func MissingColumns(meta *core.TableMetadata, rel core.Relation) []string {
	have := make(map[string]bool, len(meta.Columns))
	for _, c := range meta.Columns {
		have[strings.ToLower(c.Name)] = true
	}
	var missing []string
	for _, col := range Columns[rel] {
		if !have[col] {
			missing = append(missing, col)
		}
	}
	return missing
}
