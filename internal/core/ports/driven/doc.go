// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - FormService: Remote form service operations (draft, attach, publish,
//     submission fetch, review-state patch)
//   - FormStore: Registered form persistence
//   - ReferenceStore: Read-only access to taxa, observers and nomenclatures
//   - RecordStore: Persistence for mapped submission records
//   - SchedulerStore: Scheduler state and history persistence
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
//   - RecordMapper: Domain-specific mapping from flattened submissions to
//     store records. A default pass-through mapper is used when nil.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or service package
package driven
