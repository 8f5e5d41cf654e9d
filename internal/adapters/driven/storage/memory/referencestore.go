package memory

import (
	"context"
	"sync"

	"github.com/fieldwork-labs/centralsync/internal/core/domain"
	"github.com/fieldwork-labs/centralsync/internal/core/ports/driven"
)

// Ensure ReferenceStore implements the interface.
var _ driven.ReferenceStore = (*ReferenceStore)(nil)

// ReferenceStore is an in-memory implementation of driven.ReferenceStore.
// Reference rows are seeded with the Add methods, keyed the same way the
// persistent store keys them.
type ReferenceStore struct {
	mu            sync.RWMutex
	taxa          map[int][]domain.TaxonRow
	observers     map[int][]domain.ObserverRow
	nomenclatures []domain.NomenclatureRow
}

// NewReferenceStore creates a new in-memory reference store.
func NewReferenceStore() *ReferenceStore {
	return &ReferenceStore{
		taxa:      make(map[int][]domain.TaxonRow),
		observers: make(map[int][]domain.ObserverRow),
	}
}

// AddTaxa seeds taxon rows for a list.
func (s *ReferenceStore) AddTaxa(listID int, rows ...domain.TaxonRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taxa[listID] = append(s.taxa[listID], rows...)
}

// AddObservers seeds observer rows for a menu.
func (s *ReferenceStore) AddObservers(menuID int, rows ...domain.ObserverRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers[menuID] = append(s.observers[menuID], rows...)
}

// AddNomenclatures seeds controlled-vocabulary rows.
func (s *ReferenceStore) AddNomenclatures(rows ...domain.NomenclatureRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nomenclatures = append(s.nomenclatures, rows...)
}

// Taxa returns the taxon entries belonging to a list.
func (s *ReferenceStore) Taxa(_ context.Context, listID int) ([]domain.TaxonRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.taxa[listID]
	result := make([]domain.TaxonRow, len(rows))
	copy(result, rows)
	return result, nil
}

// Observers returns the observer roster for a menu.
func (s *ReferenceStore) Observers(_ context.Context, menuID int) ([]domain.ObserverRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.observers[menuID]
	result := make([]domain.ObserverRow, len(rows))
	copy(result, rows)
	return result, nil
}

// Nomenclatures returns the entries whose mnemonic is in the given set.
func (s *ReferenceStore) Nomenclatures(_ context.Context, mnemonics []string) ([]domain.NomenclatureRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wanted := make(map[string]bool, len(mnemonics))
	for _, m := range mnemonics {
		wanted[m] = true
	}
	var result []domain.NomenclatureRow
	for _, row := range s.nomenclatures {
		if wanted[row.Mnemonique] {
			result = append(result, row)
		}
	}
	return result, nil
}
