package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"atrium/internal/shared/constants"
)

const (
	githubUserURL   = "https://api.github.com/user"
	githubEmailsURL = "https://api.github.com/user/emails"

	githubAcceptHeader = "application/vnd.github.v3+json"
)

type GitHubOAuthConfig struct {
	ClientID     string
	ClientSecret string
}

type GitHubOAuthClient struct {
	config     *oauth2.Config
	httpClient *http.Client
	userURL    string
	emailsURL  string
}

type githubUserInfo struct {
	ID        int    `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	Login     string `json:"login"`
}

type githubEmail struct {
	Email      string `json:"email"`
	Primary    bool   `json:"primary"`
	Verified   bool   `json:"verified"`
	Visibility string `json:"visibility"`
}

func NewGitHubOAuthClient(cfg GitHubOAuthConfig) *GitHubOAuthClient {
	return &GitHubOAuthClient{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Scopes:       []string{"user:email"},
			Endpoint:     github.Endpoint,
		},
		httpClient: &http.Client{Timeout: httpClientTimeout},
		userURL:    githubUserURL,
		emailsURL:  githubEmailsURL,
	}
}

func (c *GitHubOAuthClient) Provider() constants.Provider {
	return constants.ProviderGitHub
}

func (c *GitHubOAuthClient) IsConfigured() bool {
	return c.config.ClientID != "" && c.config.ClientSecret != ""
}

func (c *GitHubOAuthClient) GetAuthURL(state, redirectURI string, scopes ...string) (string, string, error) {
	if !c.IsConfigured() {
		return "", "", ErrOAuthNotConfigured
	}

	codeVerifier, codeChallenge, err := generatePKCEParams()
	if err != nil {
		return "", "", fmt.Errorf("failed to generate PKCE parameters: %w", err)
	}

	cfg := c.configFor(redirectURI, scopes)
	authURL := cfg.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)

	return authURL, codeVerifier, nil
}

func (c *GitHubOAuthClient) ExchangeCode(ctx context.Context, code, redirectURI, codeVerifier string) (*OAuthTokens, error) {
	if !c.IsConfigured() {
		return nil, ErrOAuthNotConfigured
	}

	cfg := c.configFor(redirectURI, nil)
	token, err := cfg.Exchange(ctx, code, oauth2.SetAuthURLParam("code_verifier", codeVerifier))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	return &OAuthTokens{AccessToken: token.AccessToken}, nil
}

// GetUserInfo fetches the GitHub user profile. When the profile carries no
// public email, exactly one secondary request fetches the email list and the
// primary verified address is selected. When a public email is present the
// secondary call is skipped entirely.
func (c *GitHubOAuthClient) GetUserInfo(ctx context.Context, tokens *OAuthTokens) (*OAuthUserInfo, error) {
	userInfo, err := c.fetchUserInfo(ctx, tokens.AccessToken)
	if err != nil {
		return nil, err
	}

	name := userInfo.Name
	if name == "" {
		name = userInfo.Login
	}

	info := &OAuthUserInfo{
		Email:         userInfo.Email,
		Name:          name,
		Picture:       userInfo.AvatarURL,
		EmailVerified: true,
		Provider:      constants.ProviderGitHub,
		ProviderID:    strconv.Itoa(userInfo.ID),
	}

	if userInfo.Email == "" {
		email, verified, err := c.fetchPrimaryEmail(ctx, tokens.AccessToken)
		if err != nil {
			return nil, err
		}
		info.Email = email
		info.EmailVerified = verified
	}

	return info, nil
}

func (c *GitHubOAuthClient) fetchUserInfo(ctx context.Context, accessToken string) (*githubUserInfo, error) {
	body, err := fetchJSON(ctx, c.httpClient, c.userURL, accessToken, map[string]string{"Accept": githubAcceptHeader})
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}

	var gInfo githubUserInfo
	if err := json.Unmarshal(body, &gInfo); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user info: %w", err)
	}

	return &gInfo, nil
}

func (c *GitHubOAuthClient) fetchPrimaryEmail(ctx context.Context, accessToken string) (string, bool, error) {
	body, err := fetchJSON(ctx, c.httpClient, c.emailsURL, accessToken, map[string]string{"Accept": githubAcceptHeader})
	if err != nil {
		return "", false, fmt.Errorf("failed to get user emails: %w", err)
	}

	var emails []githubEmail
	if err := json.Unmarshal(body, &emails); err != nil {
		return "", false, fmt.Errorf("failed to unmarshal emails: %w", err)
	}

	for _, email := range emails {
		if email.Primary && email.Verified {
			return email.Email, true, nil
		}
	}

	for _, email := range emails {
		if email.Primary {
			return email.Email, email.Verified, nil
		}
	}

	if len(emails) > 0 {
		return emails[0].Email, emails[0].Verified, nil
	}

	return "", false, fmt.Errorf("no email found")
}

func (c *GitHubOAuthClient) configFor(redirectURI string, scopes []string) *oauth2.Config {
	cfg := *c.config
	cfg.RedirectURL = redirectURI
	if len(scopes) > 0 {
		cfg.Scopes = scopes
	}
	return &cfg
}
