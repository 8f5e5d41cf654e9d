// Package domain defines the core business entities for centralsync.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - RegisteredForm: A monitoring form bound to a remote project
//   - ReferenceDataset: A named tabular export pushed as a form attachment
//   - Submission: One remote record belonging to a form
//   - FlattenedRecord: A submission's nested tree flattened to path/value pairs
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
