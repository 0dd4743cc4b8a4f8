// Package dialect provides SQL dialect definitions for the warehouse targets.
//
// A dialect knows how to format query placeholders and quote identifiers.
// Adapters register their dialect in init() so the warehouse sink can build
// statements without knowing which database it talks to.
package dialect

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapload/pkg/core"
)

// Re-exported placeholder styles for use in dialect builders.
const (
	PlaceholderQuestion = core.PlaceholderQuestion
	PlaceholderDollar   = core.PlaceholderDollar
)

// Dialect wraps the static dialect configuration with formatting helpers.
type Dialect struct {
	core.DialectConfig
}

// Config returns the static configuration of the dialect.
func (d *Dialect) Config() *core.DialectConfig {
	return &d.DialectConfig
}

// GetName returns the dialect name.
func (d *Dialect) GetName() string {
	return d.Name
}

// FormatPlaceholder returns a placeholder for the given parameter index (1-based).
// Returns "?" for PlaceholderQuestion style, "$1", "$2" etc. for PlaceholderDollar style.
func (d *Dialect) FormatPlaceholder(index int) string {
	switch d.Placeholder {
	case core.PlaceholderDollar:
		return "$" + strconv.Itoa(index)
	default: // PlaceholderQuestion
		return "?"
	}
}

// Placeholders returns n comma-separated placeholders starting at index 1.
func (d *Dialect) Placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = d.FormatPlaceholder(i + 1)
	}
	return strings.Join(parts, ", ")
}

// QuoteIdentifier quotes an identifier using the dialect's quote characters.
func (d *Dialect) QuoteIdentifier(name string) string {
	// Escape any existing quote end characters in the name
	escaped := strings.ReplaceAll(name, d.Identifiers.QuoteEnd, d.Identifiers.Escape)
	return d.Identifiers.Quote + escaped + d.Identifiers.QuoteEnd
}

// QualifyTable returns the quoted table name, prefixed with the quoted schema
// when schema is set.
func (d *Dialect) QualifyTable(schema, table string) string {
	if schema == "" {
		return d.QuoteIdentifier(table)
	}
	return d.QuoteIdentifier(schema) + "." + d.QuoteIdentifier(table)
}

// Builder provides a fluent API for constructing dialects.
type Builder struct {
	dialect *Dialect
}

// NewDialect starts building a new dialect with the given name.
// Identifiers default to ANSI double quotes and placeholders to "?".
func NewDialect(name string) *Builder {
	return &Builder{
		dialect: &Dialect{
			DialectConfig: core.DialectConfig{
				Name: name,
				Identifiers: core.IdentifierConfig{
					Quote:    `"`,
					QuoteEnd: `"`,
					Escape:   `""`,
				},
				Placeholder: core.PlaceholderQuestion,
			},
		},
	}
}

// Identifiers sets the identifier quoting rules.
func (b *Builder) Identifiers(quote, quoteEnd, escape string) *Builder {
	b.dialect.Identifiers = core.IdentifierConfig{
		Quote:    quote,
		QuoteEnd: quoteEnd,
		Escape:   escape,
	}
	return b
}

// DefaultSchema sets the schema used when none is configured.
func (b *Builder) DefaultSchema(schema string) *Builder {
	b.dialect.DialectConfig.DefaultSchema = schema
	return b
}

// PlaceholderStyle sets the query parameter style.
func (b *Builder) PlaceholderStyle(style core.PlaceholderStyle) *Builder {
	b.dialect.Placeholder = style
	return b
}

// Build returns the constructed dialect.
func (b *Builder) Build() *Dialect {
	return b.dialect
}
