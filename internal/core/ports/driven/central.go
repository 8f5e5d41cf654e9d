package driven

import (
	"context"

	"github.com/fieldwork-labs/centralsync/internal/core/domain"
)

// FormService is the contract over the remote form-management service.
// All operations may fail with domain.ErrRemoteUnavailable (network or
// timeout), domain.ErrRemoteAuth (credential rejected) or an error wrapping
// domain.ErrRemoteRejected (unexpected status).
type FormService interface {
	// RequestDraft asks the service to open a mutable draft of the form.
	// Re-requesting a draft on an already-draft form is accepted, which
	// makes a failed publish cycle safe to retry from the draft step.
	RequestDraft(ctx context.Context, projectID, formID string) error

	// UploadAttachment replaces one named draft attachment with the given
	// bytes. A 404 means the form does not declare that attachment slot;
	// this is reported as AttachmentNotDefined with a nil error. Other
	// non-2xx statuses are reported as AttachmentRejected with the
	// rejection error attached.
	UploadAttachment(ctx context.Context, projectID, formID, name string, data []byte) (domain.AttachmentOutcome, error)

	// Publish promotes the draft to a new immutable form version. The
	// version tag must be unique and monotonically increasing per form.
	Publish(ctx context.Context, projectID, formID, version string) error

	// Submissions streams the form's submissions matching the filter
	// expression. Pagination is the implementation's responsibility and
	// invisible to callers; the stream is lazy, finite and non-restartable.
	// The submissions channel is closed when the stream ends; a terminal
	// failure is delivered on the error channel.
	Submissions(ctx context.Context, projectID, formID, filter string) (<-chan domain.Submission, <-chan error)

	// PatchReviewState advances one submission's review workflow state.
	PatchReviewState(ctx context.Context, projectID, formID, submissionID string, state domain.ReviewState) error

	// Validate checks connectivity and credentials with a lightweight call.
	Validate(ctx context.Context) error
}
