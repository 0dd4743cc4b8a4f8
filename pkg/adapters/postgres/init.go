// Package postgres provides a PostgreSQL warehouse adapter for leapload.
//
// This file registers the PostgreSQL adapter and dialect.
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/leapstack-labs/leapload/pkg/adapters/postgres"
package postgres

import (
	"log/slog"

	"github.com/leapstack-labs/leapload/pkg/adapter"
	"github.com/leapstack-labs/leapload/pkg/dialect"
)

func init() {
	dialect.Register(Postgres)
	adapter.Register("postgres", func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}
