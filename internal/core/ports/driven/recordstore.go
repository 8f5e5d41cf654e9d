package driven

import (
	"context"

	"github.com/fieldwork-labs/centralsync/internal/core/domain"
)

// RecordStore persists mapped submission records. Each Save runs in its
// own transaction so one bad submission never poisons the batch.
type RecordStore interface {
	// Save writes one record. Saving the same form/submission pair again
	// replaces the previous payload (idempotent retries).
	Save(ctx context.Context, record domain.Record) error

	// Get retrieves a record by form and submission ID.
	// Returns domain.ErrNotFound if it does not exist.
	Get(ctx context.Context, formID, submissionID string) (*domain.Record, error)

	// ListByForm returns all records persisted for a form.
	ListByForm(ctx context.Context, formID string) ([]domain.Record, error)
}

// RecordMapper maps a flattened submission into a store-ready record.
// The mapping rules are domain-specific and belong to the store layer;
// implementations may reject a submission with an error wrapping
// domain.ErrMappingFailed, which skips that submission only.
//
// Geoshape formatting is deliberately not part of the default mapping;
// implementations that need it hook it in here.
type RecordMapper interface {
	Map(ctx context.Context, form *domain.RegisteredForm, flat domain.FlattenedRecord) (*domain.Record, error)
}
