// Package core defines the shared language of the leapload system.
//
// This package contains:
//   - Source records (SongRecord, LogEvent) as they appear in the NDJSON input
//   - Star-schema rows (Song, Artist, TimeRow, User, Songplay)
//   - Service interfaces (RowSink, SongResolver, RunStore)
//   - Configuration types (AdapterConfig, TargetConfig, DialectConfig)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
