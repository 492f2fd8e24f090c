// Package identity talks to the hosted identity platform used by the managed
// provider. It wraps the platform's REST API and translates its error strings
// into the application error taxonomy.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"atrium/internal/shared/errors"
	"atrium/internal/shared/logger"
)

const defaultTimeout = 30 * time.Second

// PlatformUser is the platform's representation of an account.
type PlatformUser struct {
	ID               string         `json:"id"`
	Email            string         `json:"email"`
	EmailConfirmedAt *time.Time     `json:"email_confirmed_at"`
	UserMetadata     map[string]any `json:"user_metadata"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// DisplayName reads the display name out of the metadata blob.
func (u *PlatformUser) DisplayName() string {
	if u.UserMetadata == nil {
		return ""
	}
	if name, ok := u.UserMetadata["name"].(string); ok {
		return name
	}
	if name, ok := u.UserMetadata["full_name"].(string); ok {
		return name
	}
	return ""
}

// PlatformSession is the token bundle returned by sign-in style endpoints.
type PlatformSession struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    int           `json:"expires_in"`
	TokenType    string        `json:"token_type"`
	User         *PlatformUser `json:"user"`
}

// PlatformClient is the subset of the hosted platform's auth API the managed
// provider needs.
type PlatformClient interface {
	SignUp(ctx context.Context, email, password, name string) (*PlatformSession, error)
	SignInWithPassword(ctx context.Context, email, password string) (*PlatformSession, error)
	SignOut(ctx context.Context, accessToken string) error
	GetUser(ctx context.Context, accessToken string) (*PlatformUser, error)
	RefreshSession(ctx context.Context, refreshToken string) (*PlatformSession, error)
	UpdateUser(ctx context.Context, accessToken string, updates map[string]any) (*PlatformUser, error)
	Recover(ctx context.Context, email string) error
	ResendVerification(ctx context.Context, email string) error
	Verify(ctx context.Context, verifyType, token string) (*PlatformSession, error)
	ExchangeOAuthCode(ctx context.Context, authCode, codeVerifier string) (*PlatformSession, error)
	AuthorizeURL(provider, redirectTo, state string) string
	AdminDeleteUser(ctx context.Context, platformUserID string) error
}

// HTTPPlatformClient implements PlatformClient against the platform's
// /auth/v1 REST surface.
type HTTPPlatformClient struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
	logger     logger.Interface
}

func NewHTTPPlatformClient(baseURL, serviceKey string, log logger.Interface) *HTTPPlatformClient {
	return &HTTPPlatformClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     log,
	}
}

func (c *HTTPPlatformClient) SignUp(ctx context.Context, email, password, name string) (*PlatformSession, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
	}
	if name != "" {
		body["data"] = map[string]any{"name": name}
	}

	var session PlatformSession
	if err := c.do(ctx, http.MethodPost, "/auth/v1/signup", c.serviceKey, body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *HTTPPlatformClient) SignInWithPassword(ctx context.Context, email, password string) (*PlatformSession, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
	}

	var session PlatformSession
	if err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", c.serviceKey, body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *HTTPPlatformClient) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/auth/v1/logout", accessToken, nil, nil)
}

func (c *HTTPPlatformClient) GetUser(ctx context.Context, accessToken string) (*PlatformUser, error) {
	var user PlatformUser
	if err := c.do(ctx, http.MethodGet, "/auth/v1/user", accessToken, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *HTTPPlatformClient) RefreshSession(ctx context.Context, refreshToken string) (*PlatformSession, error) {
	body := map[string]any{"refresh_token": refreshToken}

	var session PlatformSession
	if err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=refresh_token", c.serviceKey, body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *HTTPPlatformClient) UpdateUser(ctx context.Context, accessToken string, updates map[string]any) (*PlatformUser, error) {
	var user PlatformUser
	if err := c.do(ctx, http.MethodPut, "/auth/v1/user", accessToken, updates, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *HTTPPlatformClient) Recover(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/auth/v1/recover", c.serviceKey, map[string]any{"email": email}, nil)
}

func (c *HTTPPlatformClient) ResendVerification(ctx context.Context, email string) error {
	body := map[string]any{"type": "signup", "email": email}
	return c.do(ctx, http.MethodPost, "/auth/v1/resend", c.serviceKey, body, nil)
}

// Verify consumes a platform-issued verification or recovery token.
func (c *HTTPPlatformClient) Verify(ctx context.Context, verifyType, token string) (*PlatformSession, error) {
	body := map[string]any{"type": verifyType, "token": token}

	var session PlatformSession
	if err := c.do(ctx, http.MethodPost, "/auth/v1/verify", c.serviceKey, body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// ExchangeOAuthCode completes a platform-brokered OAuth flow (PKCE grant).
func (c *HTTPPlatformClient) ExchangeOAuthCode(ctx context.Context, authCode, codeVerifier string) (*PlatformSession, error) {
	body := map[string]any{
		"auth_code":     authCode,
		"code_verifier": codeVerifier,
	}

	var session PlatformSession
	if err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=pkce", c.serviceKey, body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// AuthorizeURL builds the platform-hosted authorization redirect for a
// brokered OAuth provider.
func (c *HTTPPlatformClient) AuthorizeURL(provider, redirectTo, state string) string {
	q := url.Values{}
	q.Set("provider", provider)
	if redirectTo != "" {
		q.Set("redirect_to", redirectTo)
	}
	if state != "" {
		q.Set("state", state)
	}
	return c.baseURL + "/auth/v1/authorize?" + q.Encode()
}

func (c *HTTPPlatformClient) AdminDeleteUser(ctx context.Context, platformUserID string) error {
	return c.do(ctx, http.MethodDelete, "/auth/v1/admin/users/"+platformUserID, c.serviceKey, nil, nil)
}

func (c *HTTPPlatformClient) do(ctx context.Context, method, path, bearer string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", c.serviceKey)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewProviderError("identity platform unreachable: " + err.Error())
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.NewProviderError("failed to read platform response: " + err.Error())
	}

	if resp.StatusCode >= 400 {
		return c.mapError(resp.StatusCode, data)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return errors.NewProviderError("failed to decode platform response: " + err.Error())
		}
	}
	return nil
}

type platformError struct {
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (e *platformError) text() string {
	for _, s := range []string{e.Msg, e.Message, e.ErrorDescription, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

// mapError translates the platform's error strings into the application
// taxonomy so callers see the same errors regardless of provider.
func (c *HTTPPlatformClient) mapError(status int, body []byte) error {
	var pe platformError
	_ = json.Unmarshal(body, &pe)

	msg := pe.text()
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "already registered"):
		return errors.NewUserExistsError()
	case strings.Contains(lower, "invalid login credentials"):
		return errors.NewInvalidCredentialsError()
	case strings.Contains(lower, "email not confirmed"):
		return errors.NewEmailNotVerifiedError()
	case strings.Contains(lower, "token expired"), strings.Contains(lower, "token is expired"):
		return errors.NewTokenExpiredError("platform token")
	}

	if status == http.StatusUnauthorized {
		return errors.NewTokenInvalidError("platform token")
	}

	c.logger.Warnw("unmapped identity platform error", "status", status, "message", msg)
	if msg == "" {
		msg = fmt.Sprintf("identity platform returned status %d", status)
	}
	return errors.NewProviderError(msg)
}
