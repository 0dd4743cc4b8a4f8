package postgres

import "github.com/leapstack-labs/leapload/pkg/dialect"

// Postgres is the PostgreSQL dialect configuration.
var Postgres = dialect.NewDialect("postgres").
	Identifiers(`"`, `"`, `""`).
	DefaultSchema("public").
	PlaceholderStyle(dialect.PlaceholderDollar).
	Build()
