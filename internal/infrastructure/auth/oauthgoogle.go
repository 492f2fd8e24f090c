package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"atrium/internal/shared/constants"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type GoogleOAuthConfig struct {
	ClientID     string
	ClientSecret string
}

type GoogleOAuthClient struct {
	config      *oauth2.Config
	httpClient  *http.Client
	userInfoURL string
}

type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
}

func NewGoogleOAuthClient(cfg GoogleOAuthConfig) *GoogleOAuthClient {
	return &GoogleOAuthClient{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		httpClient:  &http.Client{Timeout: httpClientTimeout},
		userInfoURL: googleUserInfoURL,
	}
}

func (c *GoogleOAuthClient) Provider() constants.Provider {
	return constants.ProviderGoogle
}

func (c *GoogleOAuthClient) IsConfigured() bool {
	return c.config.ClientID != "" && c.config.ClientSecret != ""
}

func (c *GoogleOAuthClient) GetAuthURL(state, redirectURI string, scopes ...string) (string, string, error) {
	if !c.IsConfigured() {
		return "", "", ErrOAuthNotConfigured
	}

	codeVerifier, codeChallenge, err := generatePKCEParams()
	if err != nil {
		return "", "", fmt.Errorf("failed to generate PKCE parameters: %w", err)
	}

	cfg := c.configFor(redirectURI, scopes)
	authURL := cfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)

	return authURL, codeVerifier, nil
}

func (c *GoogleOAuthClient) ExchangeCode(ctx context.Context, code, redirectURI, codeVerifier string) (*OAuthTokens, error) {
	if !c.IsConfigured() {
		return nil, ErrOAuthNotConfigured
	}

	cfg := c.configFor(redirectURI, nil)
	token, err := cfg.Exchange(ctx, code, oauth2.SetAuthURLParam("code_verifier", codeVerifier))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	tokens := &OAuthTokens{AccessToken: token.AccessToken}
	if idToken, ok := token.Extra("id_token").(string); ok {
		tokens.IDToken = idToken
	}
	return tokens, nil
}

// GetUserInfo fetches the userinfo endpoint; Google returns verified-email
// and profile fields directly.
func (c *GoogleOAuthClient) GetUserInfo(ctx context.Context, tokens *OAuthTokens) (*OAuthUserInfo, error) {
	body, err := fetchJSON(ctx, c.httpClient, c.userInfoURL, tokens.AccessToken, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}

	var gInfo googleUserInfo
	if err := json.Unmarshal(body, &gInfo); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user info: %w", err)
	}

	return &OAuthUserInfo{
		Email:         gInfo.Email,
		Name:          gInfo.Name,
		Picture:       gInfo.Picture,
		EmailVerified: gInfo.VerifiedEmail,
		Provider:      constants.ProviderGoogle,
		ProviderID:    gInfo.ID,
	}, nil
}

func (c *GoogleOAuthClient) configFor(redirectURI string, scopes []string) *oauth2.Config {
	cfg := *c.config
	cfg.RedirectURL = redirectURI
	if len(scopes) > 0 {
		cfg.Scopes = scopes
	}
	return &cfg
}
