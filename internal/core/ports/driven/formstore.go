package driven

import (
	"context"

	"github.com/fieldwork-labs/centralsync/internal/core/domain"
)

// FormStore persists registered forms. Registrations are created and
// edited by external configuration; pipelines only ever read them.
type FormStore interface {
	// Save stores or updates a registration.
	Save(ctx context.Context, form domain.RegisteredForm) error

	// Get retrieves a registration by ID.
	// Returns domain.ErrNotFound if it does not exist.
	Get(ctx context.Context, id string) (*domain.RegisteredForm, error)

	// List returns all registrations.
	List(ctx context.Context) ([]domain.RegisteredForm, error)

	// Delete removes a registration.
	Delete(ctx context.Context, id string) error
}
