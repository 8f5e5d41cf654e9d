package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Remote Service Errors.

	// ErrRemoteUnavailable indicates the central service could not be
	// reached (network failure or timeout). The affected form's cycle is
	// aborted and retried on the next scheduled sweep.
	ErrRemoteUnavailable = errors.New("remote service unavailable")

	// ErrRemoteAuth indicates the central service rejected our credentials.
	// The cycle is aborted and the failure surfaced as an operational alert.
	ErrRemoteAuth = errors.New("remote authentication failed")

	// ErrRemoteRejected indicates a non-2xx response outside the documented
	// attachment 404 case. Draft and publish rejections abort the form's
	// cycle; attachment rejections are contained per attachment.
	ErrRemoteRejected = errors.New("remote request rejected")

	// Store Errors.

	// ErrStoreUnavailable indicates a read or write against the local store
	// failed. Contained to the affected form or submission.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrMappingFailed indicates a submission's flattened data could not be
	// mapped to store records. The submission is skipped, never the batch.
	ErrMappingFailed = errors.New("submission mapping failed")
)
