package central

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/fieldwork-labs/centralsync/internal/core/domain"
	"github.com/fieldwork-labs/centralsync/internal/core/ports/driven"
)

const (
	// RequestRate is the proactive request throttle (requests per second).
	// The service publishes no rate-limit headers, so pacing is purely
	// client-side.
	RequestRate = 5

	// maxErrorBody bounds how much of an error response body is kept.
	maxErrorBody = 4096
)

// Ensure Client implements the port.
var _ driven.FormService = (*Client)(nil)

// Client talks to the remote form-management service.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  *cachedTokenSource
	limiter *rate.Limiter
}

// NewClient creates a client for the configured central service.
// The bearer credential is acquired lazily via the session handshake,
// refreshed transparently on expiry and re-acquired once when the
// service rejects a cached token early.
func NewClient(cfg domain.CentralSettings) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		tokens:  newTokenSource(cfg),
		limiter: rate.NewLimiter(rate.Limit(RequestRate), 1),
	}
}

// RequestDraft opens a mutable draft of the form. The service accepts a
// draft request on a form that already has one, so retrying a failed
// publish cycle is safe.
func (c *Client) RequestDraft(ctx context.Context, projectID, formID string) error {
	endpoint := fmt.Sprintf("%s/v1/projects/%s/forms/%s/draft",
		c.baseURL, url.PathEscape(projectID), url.PathEscape(formID))

	resp, err := c.do(ctx, http.MethodPost, endpoint, nil, "")
	if err != nil {
		return fmt.Errorf("request draft: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request draft: %w", statusError(resp, readErrorBody(resp)))
	}
	return nil
}

// UploadAttachment replaces one named draft attachment with raw bytes.
// A 404 means the form does not declare that attachment slot and is
// reported as AttachmentNotDefined without an error.
func (c *Client) UploadAttachment(
	ctx context.Context, projectID, formID, name string, data []byte,
) (domain.AttachmentOutcome, error) {
	endpoint := fmt.Sprintf("%s/v1/projects/%s/forms/%s/draft/attachments/%s",
		c.baseURL, url.PathEscape(projectID), url.PathEscape(formID), url.PathEscape(name))

	resp, err := c.do(ctx, http.MethodPost, endpoint, bytes.NewReader(data), "text/csv")
	if err != nil {
		return domain.AttachmentRejected, fmt.Errorf("upload attachment %s: %w", name, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return domain.AttachmentApplied, nil
	case http.StatusNotFound:
		return domain.AttachmentNotDefined, nil
	default:
		return domain.AttachmentRejected,
			fmt.Errorf("upload attachment %s: %w", name, statusError(resp, readErrorBody(resp)))
	}
}

// Publish promotes the draft to a new immutable form version.
func (c *Client) Publish(ctx context.Context, projectID, formID, version string) error {
	endpoint := fmt.Sprintf("%s/v1/projects/%s/forms/%s/draft/publish?version=%s",
		c.baseURL, url.PathEscape(projectID), url.PathEscape(formID), url.QueryEscape(version))

	resp, err := c.do(ctx, http.MethodPost, endpoint, nil, "")
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("publish: %w", statusError(resp, readErrorBody(resp)))
	}
	return nil
}

// PatchReviewState advances one submission's review workflow state.
// The bearer credential is acquired fresh from the token source for each
// patch; the source refreshes it if the cached session expired.
func (c *Client) PatchReviewState(
	ctx context.Context, projectID, formID, submissionID string, state domain.ReviewState,
) error {
	endpoint := fmt.Sprintf("%s/v1/projects/%s/forms/%s/submissions/%s",
		c.baseURL, url.PathEscape(projectID), url.PathEscape(formID), url.PathEscape(submissionID))

	payload, err := json.Marshal(map[string]domain.ReviewState{"reviewState": state})
	if err != nil {
		return fmt.Errorf("encode review state: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPatch, endpoint, bytes.NewReader(payload), "application/json")
	if err != nil {
		return fmt.Errorf("patch review state: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("patch review state: %w", statusError(resp, readErrorBody(resp)))
	}
	return nil
}

// Validate checks connectivity and credentials with a lightweight call.
func (c *Client) Validate(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, c.baseURL+"/v1/projects", nil, "")
	if err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("validate: %w", statusError(resp, readErrorBody(resp)))
	}
	return nil
}

// do paces and sends one request, classifying transport failures.
// A 401 means the service revoked the session before its reported
// expiry; the cached token is discarded and the request retried once
// with a fresh session.
func (c *Client) do(
	ctx context.Context, method, endpoint string, body io.Reader, contentType string,
) (*http.Response, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = io.ReadAll(body)
		if err != nil {
			return nil, fmt.Errorf("read request body: %w", err)
		}
	}

	resp, token, err := c.send(ctx, method, endpoint, payload, contentType)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	resp.Body.Close()

	c.tokens.invalidate(token)
	resp, _, err = c.send(ctx, method, endpoint, payload, contentType)
	return resp, err
}

// send performs a single paced request carrying a bearer token, and
// reports which token it used.
func (c *Client) send(
	ctx context.Context, method, endpoint string, payload []byte, contentType string,
) (*http.Response, string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, "", err
	}

	token, err := c.tokens.Token()
	if err != nil {
		return nil, "", err
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	token.SetAuthHeader(req)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", transportError(method+" "+endpoint, err)
	}
	return resp, token.AccessToken, nil
}

// readErrorBody drains a bounded prefix of an error response body.
func readErrorBody(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return strings.TrimSpace(string(body))
}
