package memory

import (
	"context"
	"sync"
	"time"

	"github.com/fieldwork-labs/centralsync/internal/core/domain"
	"github.com/fieldwork-labs/centralsync/internal/core/ports/driven"
)

// Ensure RecordStore implements the interface.
var _ driven.RecordStore = (*RecordStore)(nil)

// recordKey keys records by form and submission, matching the uniqueness
// constraint of the persistent store.
type recordKey struct {
	formID       string
	submissionID string
}

// RecordStore is an in-memory implementation of driven.RecordStore.
type RecordStore struct {
	mu      sync.RWMutex
	records map[recordKey]domain.Record
}

// NewRecordStore creates a new in-memory record store.
func NewRecordStore() *RecordStore {
	return &RecordStore{
		records: make(map[recordKey]domain.Record),
	}
}

// Save writes one record, replacing any previous payload for the same
// form/submission pair.
func (s *RecordStore) Save(_ context.Context, record domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := recordKey{formID: record.FormID, submissionID: record.SubmissionID}
	if prev, ok := s.records[key]; ok {
		record.ID = prev.ID
		record.CreatedAt = prev.CreatedAt
	} else if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	s.records[key] = record
	return nil
}

// Get retrieves a record by form and submission ID.
func (s *RecordStore) Get(_ context.Context, formID, submissionID string) (*domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[recordKey{formID: formID, submissionID: submissionID}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &record, nil
}

// ListByForm returns all records persisted for a form.
func (s *RecordStore) ListByForm(_ context.Context, formID string) ([]domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Record
	for key, record := range s.records {
		if key.formID == formID {
			result = append(result, record)
		}
	}
	return result, nil
}
