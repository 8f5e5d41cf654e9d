// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple store interfaces
// through a single database connection:
//
//   - FormStore: form registration persistence
//   - ReferenceStore: read access to the exported reference tables
//   - RecordStore: mapped submission persistence
//   - SchedulerStore: scheduler state and history persistence
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// The reference tables (taxa, observers, nomenclatures) are read-only to the
// pipelines and populated by external tooling.
//
// # Data Location
//
// By default, the database is stored at ~/.centralsync/data/centralsync.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
