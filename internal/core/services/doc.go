// Package services implements the core pipelines of centralsync: the
// reference-data exporter, the form-publish pipeline, the submission
// ingestion pipeline, the per-form dispatcher and the recurring sweep
// scheduler. Services depend only on domain types and driven ports.
package services
