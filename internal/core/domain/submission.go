package domain

import "time"

// ReviewState is the workflow status of a submitted record. It controls
// whether the ingestion pipeline may still touch the submission.
type ReviewState string

const (
	ReviewStatePending   ReviewState = "pending"
	ReviewStateEdited    ReviewState = "edited"
	ReviewStateHasIssues ReviewState = "hasIssues"
	ReviewStateRejected  ReviewState = "rejected"
	ReviewStateApproved  ReviewState = "approved"
)

// ClosedReviewStates are terminal for ingestion: submissions in these
// states are never fetched and never modified by the pipeline.
var ClosedReviewStates = []ReviewState{
	ReviewStateApproved,
	ReviewStateHasIssues,
	ReviewStateRejected,
}

// Closed reports whether the state is immutable to the ingestion pipeline.
func (s ReviewState) Closed() bool {
	for _, c := range ClosedReviewStates {
		if s == c {
			return true
		}
	}
	return false
}

// Submission is one remote record belonging to a form. Fields holds the
// decoded nested field tree, arbitrary depth with repeat groups.
type Submission struct {
	// ID is the remote submission identifier (instance ID).
	ID string

	// ReviewState is the submission's workflow status at fetch time.
	ReviewState ReviewState

	// SubmittedAt is when the record was submitted, if reported.
	SubmittedAt time.Time

	// Fields is the nested field tree as decoded from the wire format.
	Fields map[string]any
}

// Record is a store-ready row mapped from one submission.
type Record struct {
	// ID is the local record identifier.
	ID string

	// FormID references the registration the record came from.
	FormID string

	// SubmissionID is the remote submission identifier. Unique per form.
	SubmissionID string

	// Fields is the flattened, mapped payload persisted to the store.
	Fields FlattenedRecord

	// CreatedAt is when the record was persisted.
	CreatedAt time.Time
}
