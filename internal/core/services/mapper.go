package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/fieldwork-labs/centralsync/internal/core/domain"
	"github.com/fieldwork-labs/centralsync/internal/core/ports/driven"
)

// Ensure FlatMapper implements the interface.
var _ driven.RecordMapper = (*FlatMapper)(nil)

// metaSystemPath is the flattened prefix of the remote system columns.
const metaSystemPath = "__system"

// FlatMapper is the default record mapper: it persists the flattened
// payload as-is, minus the remote system columns. Deployments with a
// richer relational mapping (sites, visits, observations, geoshapes)
// replace it with their own driven.RecordMapper.
type FlatMapper struct{}

// NewFlatMapper creates the default pass-through mapper.
func NewFlatMapper() *FlatMapper {
	return &FlatMapper{}
}

// Map builds a store record from the flattened submission.
func (m *FlatMapper) Map(
	_ context.Context, form *domain.RegisteredForm, flat domain.FlattenedRecord,
) (*domain.Record, error) {
	id := flat.String("__id")
	if id == "" {
		return nil, fmt.Errorf("%w: submission has no identifier", domain.ErrMappingFailed)
	}

	fields := make(domain.FlattenedRecord, len(flat))
	for path, value := range flat {
		if path == "__id" || hasPathPrefix(path, metaSystemPath) {
			continue
		}
		fields[path] = value
	}

	return &domain.Record{
		ID:           uuid.NewString(),
		FormID:       form.ID,
		SubmissionID: id,
		Fields:       fields,
	}, nil
}

// hasPathPrefix reports whether path is prefix or starts with "prefix/".
func hasPathPrefix(path, prefix string) bool {
	if path == prefix {
		return true
	}
	return len(path) > len(prefix) && path[:len(prefix)] == prefix && path[len(prefix)] == '/'
}
