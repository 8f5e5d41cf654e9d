package driving

import (
	"context"

	"github.com/fieldwork-labs/centralsync/internal/core/domain"
)

// SyncDispatcher resolves and runs the right pipeline per registered form
// and drives the periodic sweep over all of them.
type SyncDispatcher interface {
	// Sweep runs the pipeline matching each registered form's declared
	// command for the intent. Forms with no matching command are skipped
	// silently; one form's failure never aborts the sweep.
	Sweep(ctx context.Context, intent domain.SyncIntent) (*domain.SweepReport, error)

	// Dispatch runs the pipeline for a single registration.
	Dispatch(ctx context.Context, intent domain.SyncIntent, form *domain.RegisteredForm) error
}

// Publisher runs the form-publish pipeline for one form.
type Publisher interface {
	// Publish exports reference datasets, uploads them to a fresh draft
	// and republishes the form, returning the cycle report.
	Publish(ctx context.Context, form *domain.RegisteredForm, skip domain.SkipFlags) *domain.PublishReport
}

// Ingester runs the submission-ingestion pipeline for one form.
type Ingester interface {
	// Ingest fetches pending submissions, persists the mapped records and
	// advances their review state, returning the cycle report.
	Ingest(ctx context.Context, form *domain.RegisteredForm) *domain.IngestReport
}
