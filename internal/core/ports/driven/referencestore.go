package driven

import (
	"context"

	"github.com/fieldwork-labs/centralsync/internal/core/domain"
)

// ReferenceStore gives read-only access to the reference tables exported
// as form attachments. Failures surface wrapped in
// domain.ErrStoreUnavailable.
type ReferenceStore interface {
	// Taxa returns the taxon entries belonging to a list.
	Taxa(ctx context.Context, listID int) ([]domain.TaxonRow, error)

	// Observers returns the observer roster for a menu.
	Observers(ctx context.Context, menuID int) ([]domain.ObserverRow, error)

	// Nomenclatures returns the controlled-vocabulary entries whose type
	// mnemonic is in the given set.
	Nomenclatures(ctx context.Context, mnemonics []string) ([]domain.NomenclatureRow, error)
}
