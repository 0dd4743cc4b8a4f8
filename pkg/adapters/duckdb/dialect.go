package duckdb

import "github.com/leapstack-labs/leapload/pkg/dialect"

// DuckDB is the DuckDB dialect configuration.
var DuckDB = dialect.NewDialect("duckdb").
	Identifiers(`"`, `"`, `""`).
	DefaultSchema("main").
	PlaceholderStyle(dialect.PlaceholderQuestion).
	Build()
