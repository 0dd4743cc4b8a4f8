package sqlite

import "github.com/leapstack-labs/leapload/pkg/dialect"

// SQLite is the SQLite dialect configuration.
var SQLite = dialect.NewDialect("sqlite").
	Identifiers(`"`, `"`, `""`).
	DefaultSchema("main").
	PlaceholderStyle(dialect.PlaceholderQuestion).
	Build()
