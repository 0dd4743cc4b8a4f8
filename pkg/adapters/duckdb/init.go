// Package duckdb provides a DuckDB warehouse adapter for leapload.
//
// This file registers the DuckDB adapter and dialect.
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/leapstack-labs/leapload/pkg/adapters/duckdb"
package duckdb

import (
	"log/slog"

	"github.com/leapstack-labs/leapload/pkg/adapter"
	"github.com/leapstack-labs/leapload/pkg/dialect"
)

func init() {
	dialect.Register(DuckDB)
	adapter.Register("duckdb", func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}
