package warehouse

import (
	"fmt"

	"github.com/leapstack-labs/leapload/pkg/core"
)

// ConflictPolicy decides what happens when a dimension row already exists.
type ConflictPolicy string

// Conflict policies.
const (
	// ConflictError lets the store reject duplicates.
	ConflictError ConflictPolicy = "error"
	// ConflictIgnore keeps the existing row.
	ConflictIgnore ConflictPolicy = "ignore"
	// ConflictUpdate keeps existing rows but refreshes users.level.
	ConflictUpdate ConflictPolicy = "update"
)

// Validate reports whether p is a known policy.
func (p ConflictPolicy) Validate() error {
	switch p {
	case ConflictError, ConflictIgnore, ConflictUpdate:
		return nil
	default:
		return fmt.Errorf("unknown on_conflict policy %q (want error, ignore or update)", p)
	}
}

// clause returns the ON CONFLICT suffix for a dimension insert.
func (p ConflictPolicy) clause(rel core.Relation, key string) string {
	switch p {
	case ConflictIgnore:
		return " ON CONFLICT DO NOTHING"
	case ConflictUpdate:
		if rel == core.RelationUsers {
			return fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET level = EXCLUDED.level", key)
		}
		return " ON CONFLICT DO NOTHING"
	default:
		return ""
	}
}
