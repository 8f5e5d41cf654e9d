package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fieldwork-labs/centralsync/internal/core/domain"
	"github.com/fieldwork-labs/centralsync/internal/core/ports/driven"
	"github.com/fieldwork-labs/centralsync/internal/core/ports/driving"
	"github.com/fieldwork-labs/centralsync/internal/logger"
)

// Ensure PublishPipeline implements the interface.
var _ driving.Publisher = (*PublishPipeline)(nil)

// versionTagFormat yields tags that sort and strictly increase with time,
// giving each publish a unique version per form.
const versionTagFormat = "20060102T150405.000000000Z"

// PublishPipeline runs the draft, attach and publish sequence for one
// form. A failed cycle never leaves reference data partially visible:
// the remote form stays on its previous published version until the
// final publish succeeds, and the next cycle retries from the draft step.
type PublishPipeline struct {
	service  driven.FormService
	exporter *Exporter
	now      func() time.Time
}

// NewPublishPipeline creates a publish pipeline.
func NewPublishPipeline(service driven.FormService, exporter *Exporter) *PublishPipeline {
	return &PublishPipeline{
		service:  service,
		exporter: exporter,
		now:      time.Now,
	}
}

// Publish exports the reference datasets, uploads them to a fresh draft
// and republishes the form.
//
// Failure containment: a dataset the form does not declare (remote 404)
// is a warning; any other attachment rejection is logged and that dataset
// skipped, the cycle continues. Remote-unavailable, auth failures and
// draft or publish rejections abort the cycle.
func (p *PublishPipeline) Publish(
	ctx context.Context, form *domain.RegisteredForm, skip domain.SkipFlags,
) *domain.PublishReport {
	report := &domain.PublishReport{FormID: form.FormID}

	datasets, err := p.exporter.ExportAll(ctx, form, skip)
	if err != nil {
		report.Err = fmt.Errorf("build reference datasets: %w", err)
		return report
	}

	if err := p.service.RequestDraft(ctx, form.ProjectID, form.FormID); err != nil {
		report.Err = err
		return report
	}

	for _, named := range datasets {
		result := p.uploadOne(ctx, form, named)
		report.Attachments = append(report.Attachments, result)

		// Remote-unavailable means the service itself is gone, and a
		// rejected credential fails every remaining request too; either
		// way the rest of the cycle cannot succeed.
		if result.Err != nil &&
			(errors.Is(result.Err, domain.ErrRemoteUnavailable) ||
				errors.Is(result.Err, domain.ErrRemoteAuth)) {
			report.Err = result.Err
			return report
		}
	}

	version := p.now().UTC().Format(versionTagFormat)
	if err := p.service.Publish(ctx, form.ProjectID, form.FormID, version); err != nil {
		report.Err = err
		return report
	}

	report.Version = version
	logger.Info("form %s published as version %s (%d attachments)",
		form.FormID, version, len(report.Attachments))
	return report
}

// uploadOne serialises and uploads a single dataset, classifying the
// outcome.
func (p *PublishPipeline) uploadOne(
	ctx context.Context, form *domain.RegisteredForm, named NamedDataset,
) domain.AttachmentResult {
	data, err := EncodeCSV(named.Dataset)
	if err != nil {
		return domain.AttachmentResult{
			FileName: named.FileName,
			Outcome:  domain.AttachmentRejected,
			Err:      err,
		}
	}

	outcome, err := p.service.UploadAttachment(ctx, form.ProjectID, form.FormID, named.FileName, data)
	switch outcome {
	case domain.AttachmentApplied:
		logger.Debug("attachment %s uploaded to form %s", named.FileName, form.FormID)
	case domain.AttachmentNotDefined:
		logger.Warn("attachment %s is not declared by form %s", named.FileName, form.FormID)
	case domain.AttachmentRejected:
		logger.Error("attachment %s rejected by form %s: %v", named.FileName, form.FormID, err)
	}

	return domain.AttachmentResult{FileName: named.FileName, Outcome: outcome, Err: err}
}
