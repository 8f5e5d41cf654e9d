package services

import (
	"context"
	"fmt"

	"github.com/fieldwork-labs/centralsync/internal/core/domain"
	"github.com/fieldwork-labs/centralsync/internal/core/ports/driven"
	"github.com/fieldwork-labs/centralsync/internal/core/ports/driving"
	"github.com/fieldwork-labs/centralsync/internal/logger"
)

// Ensure IngestPipeline implements the interface.
var _ driving.Ingester = (*IngestPipeline)(nil)

// IngestPipeline pulls pending submissions for one form, flattens and
// maps them, persists the result and advances each submission's review
// state. The server-side open-state filter is the idempotency boundary:
// closed submissions are never fetched again, so re-running a cycle is
// always safe.
type IngestPipeline struct {
	service driven.FormService
	records driven.RecordStore
	mapper  driven.RecordMapper
	filter  string
	next    domain.ReviewState
}

// NewIngestPipeline creates an ingestion pipeline. A nil mapper falls
// back to the pass-through FlatMapper.
func NewIngestPipeline(
	service driven.FormService,
	records driven.RecordStore,
	mapper driven.RecordMapper,
	filter string,
	next domain.ReviewState,
) *IngestPipeline {
	if mapper == nil {
		mapper = NewFlatMapper()
	}
	return &IngestPipeline{
		service: service,
		records: records,
		mapper:  mapper,
		filter:  filter,
		next:    next,
	}
}

// Ingest runs one ingestion cycle for the form. An empty fetch is a
// successful no-op. One submission's failure never blocks the batch: a
// mapping or persistence failure skips that submission and leaves its
// review state untouched, so it is retried on the next sweep.
func (p *IngestPipeline) Ingest(ctx context.Context, form *domain.RegisteredForm) *domain.IngestReport {
	report := &domain.IngestReport{
		FormID:  form.FormID,
		Skipped: make(map[string]error),
	}

	subs, errs := p.service.Submissions(ctx, form.ProjectID, form.FormID, p.filter)

	for {
		select {
		case <-ctx.Done():
			report.Err = ctx.Err()
			return report

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil {
				report.Err = fmt.Errorf("fetch submissions: %w", err)
				return report
			}

		case sub, ok := <-subs:
			if !ok {
				// The stream may have ended on a terminal failure sitting
				// in the buffered error channel; drain it before reporting.
				if errs != nil {
					if err := <-errs; err != nil {
						report.Err = fmt.Errorf("fetch submissions: %w", err)
					}
				}
				return report
			}
			report.Fetched++
			p.ingestOne(ctx, form, &sub, report)
		}
	}
}

// ingestOne flattens, maps, persists and review-advances one submission.
func (p *IngestPipeline) ingestOne(
	ctx context.Context, form *domain.RegisteredForm, sub *domain.Submission, report *domain.IngestReport,
) {
	flat := domain.Flatten(sub.Fields)

	record, err := p.mapper.Map(ctx, form, flat)
	if err != nil {
		logger.Warn("submission %s of form %s skipped: %v", sub.ID, form.FormID, err)
		report.Skipped[sub.ID] = err
		return
	}
	if record.SubmissionID == "" {
		record.SubmissionID = sub.ID
	}
	record.FormID = form.ID

	if err := p.records.Save(ctx, *record); err != nil {
		// Left untouched on the remote so the next cycle retries it.
		logger.Error("persisting submission %s of form %s: %v", sub.ID, form.FormID, err)
		report.Skipped[sub.ID] = fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
		return
	}
	report.Persisted++

	if err := p.service.PatchReviewState(ctx, form.ProjectID, form.FormID, sub.ID, p.next); err != nil {
		// Not fatal: the record is persisted and Save is idempotent, so
		// re-fetching it next cycle is harmless.
		logger.Warn("review state of submission %s not advanced: %v", sub.ID, err)
		return
	}
	report.Patched++
}
