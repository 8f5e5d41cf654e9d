package memory

import (
	"context"
	"sync"

	"github.com/fieldwork-labs/centralsync/internal/core/domain"
	"github.com/fieldwork-labs/centralsync/internal/core/ports/driven"
)

// Ensure FormStore implements the interface.
var _ driven.FormStore = (*FormStore)(nil)

// FormStore is an in-memory implementation of driven.FormStore.
type FormStore struct {
	mu    sync.RWMutex
	forms map[string]domain.RegisteredForm
}

// NewFormStore creates a new in-memory form store.
func NewFormStore() *FormStore {
	return &FormStore{
		forms: make(map[string]domain.RegisteredForm),
	}
}

// Save stores or updates a registration.
func (s *FormStore) Save(_ context.Context, form domain.RegisteredForm) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forms[form.ID] = form
	return nil
}

// Get retrieves a registration by ID.
func (s *FormStore) Get(_ context.Context, id string) (*domain.RegisteredForm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	form, ok := s.forms[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &form, nil
}

// List returns all registrations.
func (s *FormStore) List(_ context.Context) ([]domain.RegisteredForm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.RegisteredForm, 0, len(s.forms))
	for _, form := range s.forms {
		result = append(result, form)
	}
	return result, nil
}

// Delete removes a registration.
func (s *FormStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.forms, id)
	return nil
}
