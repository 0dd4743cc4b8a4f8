// Package adapter provides the database adapter contract for leapload's
// warehouse targets.
//
// Concrete adapter implementations live in pkg/adapters/ subdirectories and
// register themselves with this package's registry from init().
package adapter

import (
	"context"
	"database/sql"

	"github.com/leapstack-labs/leapload/pkg/core"
	"github.com/leapstack-labs/leapload/pkg/dialect"
)

type (
	// Config is an alias for core.AdapterConfig.
	Config = core.AdapterConfig
	// Column is an alias for core.Column.
	Column = core.Column
	// Metadata is an alias for core.TableMetadata.
	Metadata = core.TableMetadata
	// Rows is an alias for core.Rows.
	Rows = core.Rows
)

// Adapter defines the interface that all database adapters must implement.
// It provides methods for connecting to databases, executing SQL, opening
// transactions and retrieving metadata.
type Adapter interface {
	// Connect establishes a connection to the database using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the database connection and releases resources.
	Close() error

	// Exec executes a SQL statement that doesn't return rows (e.g., INSERT, UPDATE, CREATE).
	Exec(ctx context.Context, sql string, args ...any) error

	// Query executes a SQL statement that returns rows.
	Query(ctx context.Context, sql string, args ...any) (*Rows, error)

	// BeginTx starts a transaction. All rows of one commit unit are written through it.
	BeginTx(ctx context.Context) (*sql.Tx, error)

	// GetTableMetadata retrieves metadata for a specified table.
	GetTableMetadata(ctx context.Context, table string) (*Metadata, error)

	// Dialect returns the SQL dialect used to format statements for this adapter.
	Dialect() *dialect.Dialect
}
