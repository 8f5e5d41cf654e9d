package central

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/fieldwork-labs/centralsync/internal/core/domain"
)

// APIError represents a non-2xx response from the central service.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("central: API error %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

// Unwrap ties APIError into the domain error taxonomy so callers can
// test with errors.Is.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.ErrRemoteAuth
	default:
		return domain.ErrRemoteRejected
	}
}

// IsNotFound checks if the error is a remote 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
}

// IsUnauthorized checks if the error indicates an authentication failure.
func IsUnauthorized(err error) bool {
	return errors.Is(err, domain.ErrRemoteAuth)
}

// statusError builds the typed error for an unexpected response status.
func statusError(resp *http.Response, body string) error {
	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    body,
		URL:        resp.Request.URL.String(),
	}
}

// transportError wraps a network-level failure as remote-unavailable.
func transportError(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, domain.ErrRemoteUnavailable, err)
}
