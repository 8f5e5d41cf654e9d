package central

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldwork-labs/centralsync/internal/core/domain"
)

// testServer wraps an httptest server that speaks the session handshake.
type testServer struct {
	*httptest.Server
	sessions int
	handler  http.HandlerFunc
}

func newTestServer(t *testing.T, handler http.HandlerFunc) *testServer {
	t.Helper()
	ts := &testServer{handler: handler}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/sessions" {
			ts.sessions++
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"token":"secret-token","expiresAt":%q}`,
				time.Now().Add(24*time.Hour).Format(time.RFC3339))
			return
		}
		if r.Header.Get("Authorization") != "Bearer secret-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		ts.handler(w, r)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func newTestClient(ts *testServer) *Client {
	return NewClient(domain.CentralSettings{
		BaseURL:  ts.URL,
		Username: "sync@example.org",
		Password: "hunter2",
		Timeout:  5 * time.Second,
	})
}

// TestClient_RequestDraft tests the draft request happy path
func TestClient_RequestDraft(t *testing.T) {
	var gotPath string
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		w.WriteHeader(http.StatusOK)
	})

	err := newTestClient(ts).RequestDraft(context.Background(), "4", "priority-flora")

	require.NoError(t, err)
	assert.Equal(t, "POST /v1/projects/4/forms/priority-flora/draft", gotPath)
}

// TestClient_RequestDraft_Rejected tests non-200 draft classification
func TestClient_RequestDraft_Rejected(t *testing.T) {
	ts := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := newTestClient(ts).RequestDraft(context.Background(), "4", "priority-flora")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRemoteRejected)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
}

// TestClient_UploadAttachment_Outcomes tests the per-status classification
func TestClient_UploadAttachment_Outcomes(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		want    domain.AttachmentOutcome
		wantErr bool
	}{
		{name: "applied", status: http.StatusOK, want: domain.AttachmentApplied},
		{name: "not defined in form", status: http.StatusNotFound, want: domain.AttachmentNotDefined},
		{name: "rejected", status: http.StatusBadRequest, want: domain.AttachmentRejected, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			})

			outcome, err := newTestClient(ts).UploadAttachment(
				context.Background(), "4", "priority-flora", "pf_taxons.csv", []byte("cd_nom\n92\n"))

			assert.Equal(t, tt.want, outcome)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrRemoteRejected)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestClient_UploadAttachment_Body tests raw bytes and content type
func TestClient_UploadAttachment_Body(t *testing.T) {
	var gotBody, gotType string
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		buf, _ := io.ReadAll(r.Body)
		gotBody = string(buf)
		gotType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	})

	_, err := newTestClient(ts).UploadAttachment(
		context.Background(), "4", "f", "pf_observers.csv", []byte("id_role,nom_complet\n"))

	require.NoError(t, err)
	assert.Equal(t, "id_role,nom_complet\n", gotBody)
	assert.Equal(t, "text/csv", gotType)
}

// TestClient_Publish tests version tag propagation
func TestClient_Publish(t *testing.T) {
	var gotVersion string
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotVersion = r.URL.Query().Get("version")
		w.WriteHeader(http.StatusOK)
	})

	err := newTestClient(ts).Publish(context.Background(), "4", "priority-flora", "20260901T120000Z")

	require.NoError(t, err)
	assert.Equal(t, "20260901T120000Z", gotVersion)
}

// TestClient_PatchReviewState tests the JSON body and method
func TestClient_PatchReviewState(t *testing.T) {
	var gotMethod string
	var gotBody map[string]string
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	})

	err := newTestClient(ts).PatchReviewState(
		context.Background(), "4", "priority-flora", "uuid:abc", domain.ReviewStateApproved)

	require.NoError(t, err)
	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, map[string]string{"reviewState": "approved"}, gotBody)
}

// TestClient_SessionReuse tests the token is cached across requests
func TestClient_SessionReuse(t *testing.T) {
	ts := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	client := newTestClient(ts)

	require.NoError(t, client.Validate(context.Background()))
	require.NoError(t, client.RequestDraft(context.Background(), "4", "f"))
	require.NoError(t, client.Publish(context.Background(), "4", "f", "v1"))

	assert.Equal(t, 1, ts.sessions)
}

// TestClient_AuthFailure tests credential rejection classification
func TestClient_AuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/sessions" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(domain.CentralSettings{
		BaseURL:  server.URL,
		Username: "wrong@example.org",
		Password: "nope",
		Timeout:  5 * time.Second,
	})

	err := client.Validate(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRemoteAuth)
}

// TestClient_SessionRevoked_Reauthenticates tests that a token the
// service revokes before its reported expiry is replaced by a fresh
// session and the request retried once
func TestClient_SessionRevoked_Reauthenticates(t *testing.T) {
	var sessions int
	revoked := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/sessions" {
			sessions++
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"token":"tok-%d","expiresAt":%q}`,
				sessions, time.Now().Add(24*time.Hour).Format(time.RFC3339))
			return
		}
		if r.Header.Get("Authorization") == "Bearer tok-1" && revoked {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Header.Get("Authorization") != fmt.Sprintf("Bearer tok-%d", sessions) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(domain.CentralSettings{
		BaseURL:  server.URL,
		Username: "sync@example.org",
		Password: "hunter2",
		Timeout:  5 * time.Second,
	})

	require.NoError(t, client.Validate(context.Background()))
	require.Equal(t, 1, sessions)

	revoked = true

	require.NoError(t, client.Validate(context.Background()))
	assert.Equal(t, 2, sessions)

	// The replacement session stays cached.
	require.NoError(t, client.Validate(context.Background()))
	assert.Equal(t, 2, sessions)
}

// TestClient_SessionRevoked_SingleRetry tests that a request rejected
// again after re-authentication surfaces the auth failure instead of
// looping
func TestClient_SessionRevoked_SingleRetry(t *testing.T) {
	var sessions, requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/sessions" {
			sessions++
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"token":"tok-%d","expiresAt":%q}`,
				sessions, time.Now().Add(24*time.Hour).Format(time.RFC3339))
			return
		}
		requests++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(domain.CentralSettings{
		BaseURL:  server.URL,
		Username: "sync@example.org",
		Password: "hunter2",
		Timeout:  5 * time.Second,
	})

	err := client.Validate(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRemoteAuth)
	assert.Equal(t, 2, sessions)
	assert.Equal(t, 2, requests)
}

// TestClient_RemoteUnavailable tests network failure classification
func TestClient_RemoteUnavailable(t *testing.T) {
	ts := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	client := newTestClient(ts)
	require.NoError(t, client.Validate(context.Background()))
	ts.Close()

	err := client.RequestDraft(context.Background(), "4", "f")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRemoteUnavailable)
}

// TestOpenSubmissionsFilter tests the fixed filter excludes every closed
// state
func TestOpenSubmissionsFilter(t *testing.T) {
	for _, state := range domain.ClosedReviewStates {
		assert.Contains(t, OpenSubmissionsFilter,
			fmt.Sprintf("__system/reviewState ne '%s'", state))
	}
	assert.NotContains(t, OpenSubmissionsFilter, "pending")
	assert.NotContains(t, OpenSubmissionsFilter, "edited")
}

// TestClient_Submissions_Pagination tests pages are concatenated lazily
func TestClient_Submissions_Pagination(t *testing.T) {
	total := pageSize + 3
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, ".svc/Submissions"))
		assert.Equal(t, OpenSubmissionsFilter, r.URL.Query().Get("$filter"))

		skip := 0
		fmt.Sscanf(r.URL.Query().Get("$skip"), "%d", &skip)
		count := total
		end := skip + pageSize
		if end > total {
			end = total
		}

		var rows []map[string]any
		for i := skip; i < end; i++ {
			rows = append(rows, map[string]any{
				"__id": fmt.Sprintf("uuid:%d", i),
				"__system": map[string]any{
					"reviewState": "pending",
				},
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"value":        rows,
			"@odata.count": count,
		})
	})

	subs, errs := newTestClient(ts).Submissions(
		context.Background(), "4", "priority-flora", OpenSubmissionsFilter)

	var got []domain.Submission
	for sub := range subs {
		got = append(got, sub)
	}
	require.NoError(t, <-errs)

	require.Len(t, got, total)
	assert.Equal(t, "uuid:0", got[0].ID)
	assert.Equal(t, fmt.Sprintf("uuid:%d", total-1), got[total-1].ID)
	assert.Equal(t, domain.ReviewStatePending, got[0].ReviewState)
}

// TestClient_Submissions_Empty tests an empty fetch is a clean no-op
func TestClient_Submissions_Empty(t *testing.T) {
	ts := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"value":[],"@odata.count":0}`)
	})

	subs, errs := newTestClient(ts).Submissions(
		context.Background(), "4", "f", OpenSubmissionsFilter)

	count := 0
	for range subs {
		count++
	}

	assert.Zero(t, count)
	assert.NoError(t, <-errs)
}

// TestClient_Submissions_ServerError tests terminal failures surface on
// the error channel
func TestClient_Submissions_ServerError(t *testing.T) {
	ts := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	subs, errs := newTestClient(ts).Submissions(
		context.Background(), "4", "f", OpenSubmissionsFilter)

	for range subs {
		t.Fatal("no submissions expected")
	}
	err := <-errs
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRemoteRejected)
}

// TestDecodeSubmission tests system column extraction
func TestDecodeSubmission(t *testing.T) {
	raw := map[string]any{
		"__id": "uuid:abc",
		"__system": map[string]any{
			"reviewState":    "edited",
			"submissionDate": "2026-08-30T09:15:00Z",
		},
		"site": map[string]any{"name": "crest"},
	}

	sub := decodeSubmission(raw)

	assert.Equal(t, "uuid:abc", sub.ID)
	assert.Equal(t, domain.ReviewStateEdited, sub.ReviewState)
	assert.Equal(t, 2026, sub.SubmittedAt.Year())
	assert.Equal(t, raw, sub.Fields)
}
