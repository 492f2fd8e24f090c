package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"atrium/internal/shared/constants"
)

const (
	// httpClientTimeout is the timeout for HTTP requests to OAuth providers
	httpClientTimeout = 30 * time.Second
)

// ErrOAuthNotConfigured is returned when an OAuth client is missing its
// credentials. Callers map it onto the misconfiguration error kind, distinct
// from upstream rejections.
var ErrOAuthNotConfigured = errors.New("oauth provider not configured")

// OAuthUserInfo is the normalized identity shape every adapter returns.
// It is transient: merged into the user record on first login per provider,
// never persisted directly.
type OAuthUserInfo struct {
	Email         string
	Name          string
	Picture       string
	EmailVerified bool
	Provider      constants.Provider
	ProviderID    string
}

// OAuthTokens carries the results of a code exchange. IDToken is only set by
// providers that return identity claims at exchange time.
type OAuthTokens struct {
	AccessToken string
	IDToken     string
}

// OAuthClient is the per-provider adapter contract. Adapters are stateless
// except for provider credentials; state and redirect URI are caller-supplied
// per call.
type OAuthClient interface {
	Provider() constants.Provider
	IsConfigured() bool

	// GetAuthURL builds the authorization URL embedding the caller-supplied
	// opaque state for CSRF binding. The returned code verifier must be
	// presented again at exchange time (PKCE).
	GetAuthURL(state, redirectURI string, scopes ...string) (authURL, codeVerifier string, err error)

	// ExchangeCode trades the authorization code for provider tokens.
	ExchangeCode(ctx context.Context, code, redirectURI, codeVerifier string) (*OAuthTokens, error)

	// GetUserInfo normalizes the provider's identity shape.
	GetUserInfo(ctx context.Context, tokens *OAuthTokens) (*OAuthUserInfo, error)
}

// fetchJSON performs an authorized GET against a provider API and returns the
// raw response body.
func fetchJSON(ctx context.Context, client *http.Client, url, accessToken string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request to %s failed: status %d, body: %s", url, resp.StatusCode, string(body))
	}

	return body, nil
}
