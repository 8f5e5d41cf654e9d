package central

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/fieldwork-labs/centralsync/internal/core/domain"
)

// sessionExpiryMargin is subtracted from the reported token expiry so a
// token is refreshed before the service would reject it mid-cycle.
const sessionExpiryMargin = 5 * time.Minute

// sessionTokenSource obtains bearer tokens from the service's session
// endpoint. It implements oauth2.TokenSource; wrap it in a
// cachedTokenSource so tokens are cached until expiry.
type sessionTokenSource struct {
	baseURL  string
	username string
	password string
	client   *http.Client
}

var _ oauth2.TokenSource = (*sessionTokenSource)(nil)

// sessionResponse is the wire shape of a successful session creation.
type sessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Token posts the credentials to /v1/sessions and returns the bearer token.
func (s *sessionTokenSource) Token() (*oauth2.Token, error) {
	payload, err := json.Marshal(map[string]string{
		"email":    s.username,
		"password": s.password,
	})
	if err != nil {
		return nil, fmt.Errorf("encode session request: %w", err)
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost,
		s.baseURL+"/v1/sessions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build session request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, transportError("create session", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("create session: %w", domain.ErrRemoteAuth)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, statusError(resp, string(body))
	}

	var session sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("decode session response: %w", err)
	}

	return &oauth2.Token{
		AccessToken: session.Token,
		TokenType:   "Bearer",
		Expiry:      session.ExpiresAt.Add(-sessionExpiryMargin),
	}, nil
}

// cachedTokenSource caches session tokens until their expiry margin and
// lets the client discard a token the service revoked early.
type cachedTokenSource struct {
	src oauth2.TokenSource

	mu    sync.Mutex
	token *oauth2.Token
}

var _ oauth2.TokenSource = (*cachedTokenSource)(nil)

// Token returns the cached token, creating a fresh session when the
// cache is empty or past the expiry margin.
func (c *cachedTokenSource) Token() (*oauth2.Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token.Valid() {
		return c.token, nil
	}
	token, err := c.src.Token()
	if err != nil {
		return nil, err
	}
	c.token = token
	return token, nil
}

// invalidate discards the cached token if it is still the one the failed
// request carried. A token minted after that request stays cached.
func (c *cachedTokenSource) invalidate(stale string) {
	c.mu.Lock()
	if c.token != nil && c.token.AccessToken == stale {
		c.token = nil
	}
	c.mu.Unlock()
}

// newTokenSource builds the cached session token source for a configuration.
func newTokenSource(cfg domain.CentralSettings) *cachedTokenSource {
	return &cachedTokenSource{
		src: &sessionTokenSource{
			baseURL:  cfg.BaseURL,
			username: cfg.Username,
			password: cfg.Password,
			client:   &http.Client{Timeout: cfg.Timeout},
		},
	}
}
