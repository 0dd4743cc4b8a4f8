// Package sqlite provides a SQLite warehouse adapter for leapload.
//
// This file registers the SQLite adapter and dialect.
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/leapstack-labs/leapload/pkg/adapters/sqlite"
package sqlite

import (
	"log/slog"

	"github.com/leapstack-labs/leapload/pkg/adapter"
	"github.com/leapstack-labs/leapload/pkg/dialect"
)

func init() {
	dialect.Register(SQLite)
	adapter.Register("sqlite", func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}
