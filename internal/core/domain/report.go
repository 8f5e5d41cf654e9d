package domain

import "time"

// AttachmentOutcome classifies the result of one attachment upload.
type AttachmentOutcome int

const (
	// AttachmentApplied means the remote accepted the attachment.
	AttachmentApplied AttachmentOutcome = iota

	// AttachmentNotDefined means the form does not declare that attachment
	// slot (remote 404). Logged as a warning, not an error.
	AttachmentNotDefined

	// AttachmentRejected means the remote refused the attachment with a
	// non-2xx status other than 404. Non-fatal to the publish cycle.
	AttachmentRejected
)

// String returns a human-readable outcome name.
func (o AttachmentOutcome) String() string {
	switch o {
	case AttachmentApplied:
		return "applied"
	case AttachmentNotDefined:
		return "not defined in form"
	case AttachmentRejected:
		return "rejected"
	}
	return "unknown"
}

// AttachmentResult records one upload attempt within a publish cycle.
type AttachmentResult struct {
	// FileName is the attachment file name as uploaded.
	FileName string

	// Outcome classifies the upload result.
	Outcome AttachmentOutcome

	// Err carries the rejection detail for AttachmentRejected.
	Err error
}

// PublishReport summarises one form-publish cycle.
type PublishReport struct {
	// FormID is the remote form the cycle targeted.
	FormID string

	// Version is the tag the draft was published under, empty if the
	// cycle did not reach publish.
	Version string

	// Attachments lists the per-dataset upload results.
	Attachments []AttachmentResult

	// Err is the fatal error that aborted the cycle, if any. Attachment
	// failures are never fatal; they appear in Attachments only.
	Err error
}

// Rejected counts attachments refused with a non-404 status.
func (r *PublishReport) Rejected() int {
	n := 0
	for _, a := range r.Attachments {
		if a.Outcome == AttachmentRejected {
			n++
		}
	}
	return n
}

// IngestReport summarises one submission-ingestion cycle.
type IngestReport struct {
	// FormID is the remote form the cycle targeted.
	FormID string

	// Fetched is the number of submissions produced by the fetch.
	Fetched int

	// Persisted is the number of submissions written to the store.
	Persisted int

	// Patched is the number of submissions whose review state advanced.
	Patched int

	// Skipped maps submission IDs to the error that excluded them.
	// Skipped submissions keep their review state and are retried on
	// the next sweep.
	Skipped map[string]error

	// Err is the fatal error that aborted the cycle, if any.
	Err error
}

// Partial reports whether some but not all submissions were persisted.
func (r *IngestReport) Partial() bool {
	return len(r.Skipped) > 0 && r.Persisted > 0
}

// SweepReport summarises one dispatcher sweep over all registered forms.
type SweepReport struct {
	// Intent is the sweep's intent.
	Intent SyncIntent

	// StartedAt and EndedAt bound the sweep.
	StartedAt time.Time
	EndedAt   time.Time

	// Processed is the number of forms whose pipeline ran.
	Processed int

	// SkippedForms lists forms with no matching command for the intent.
	SkippedForms []string

	// Failures maps form IDs to their pipeline's fatal error. A failure
	// never aborts the sweep over the remaining forms.
	Failures map[string]error
}
