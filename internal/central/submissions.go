package central

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/fieldwork-labs/centralsync/internal/core/domain"
)

// OpenSubmissionsFilter is the fixed server-side filter restricting a
// fetch to open review states. Closed submissions (approved, hasIssues,
// rejected) are immutable to the ingestion pipeline and must never be
// re-fetched; this filter is the pipeline's idempotency boundary.
const OpenSubmissionsFilter = "__system/reviewState ne 'approved' " +
	"and __system/reviewState ne 'hasIssues' " +
	"and __system/reviewState ne 'rejected'"

// pageSize is the number of submissions requested per OData page.
const pageSize = 250

// submissionPage is the wire shape of one OData table page.
type submissionPage struct {
	Value []map[string]any `json:"value"`
	Count *int             `json:"@odata.count"`
}

// Submissions streams the form's submissions matching the filter.
// Pages are fetched lazily as the consumer drains the channel; the
// submissions channel closes when the last page is exhausted, and a
// terminal failure is delivered on the error channel.
func (c *Client) Submissions(
	ctx context.Context, projectID, formID, filter string,
) (<-chan domain.Submission, <-chan error) {
	subs := make(chan domain.Submission)
	errs := make(chan error, 1)

	go func() {
		defer close(subs)
		defer close(errs)

		skip := 0
		for {
			page, err := c.fetchPage(ctx, projectID, formID, filter, skip)
			if err != nil {
				errs <- err
				return
			}
			if len(page.Value) == 0 {
				return
			}

			for _, raw := range page.Value {
				select {
				case <-ctx.Done():
					errs <- ctx.Err()
					return
				case subs <- decodeSubmission(raw):
				}
			}

			skip += len(page.Value)
			if page.Count != nil && skip >= *page.Count {
				return
			}
		}
	}()

	return subs, errs
}

// fetchPage retrieves one OData page of the submission table.
func (c *Client) fetchPage(
	ctx context.Context, projectID, formID, filter string, skip int,
) (*submissionPage, error) {
	query := url.Values{}
	query.Set("$filter", filter)
	query.Set("$expand", "*")
	query.Set("$count", "true")
	query.Set("$top", strconv.Itoa(pageSize))
	query.Set("$skip", strconv.Itoa(skip))

	endpoint := fmt.Sprintf("%s/v1/projects/%s/forms/%s.svc/Submissions?%s",
		c.baseURL, url.PathEscape(projectID), url.PathEscape(formID), query.Encode())

	resp, err := c.do(ctx, http.MethodGet, endpoint, nil, "")
	if err != nil {
		return nil, fmt.Errorf("fetch submissions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch submissions: %w", statusError(resp, readErrorBody(resp)))
	}

	var page submissionPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode submissions page: %w", err)
	}
	return &page, nil
}

// decodeSubmission lifts the system columns out of one raw table row.
func decodeSubmission(raw map[string]any) domain.Submission {
	sub := domain.Submission{Fields: raw}

	if id, ok := raw["__id"].(string); ok {
		sub.ID = id
	}

	system, ok := raw["__system"].(map[string]any)
	if !ok {
		return sub
	}
	if state, ok := system["reviewState"].(string); ok {
		sub.ReviewState = domain.ReviewState(state)
	}
	if submitted, ok := system["submissionDate"].(string); ok {
		if ts, err := time.Parse(time.RFC3339, submitted); err == nil {
			sub.SubmittedAt = ts
		}
	}
	return sub
}
