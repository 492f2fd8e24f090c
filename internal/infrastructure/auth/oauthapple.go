package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"atrium/internal/shared/biztime"
	"atrium/internal/shared/constants"
)

const (
	appleAuthURL  = "https://appleid.apple.com/auth/authorize"
	appleTokenURL = "https://appleid.apple.com/auth/token"
	appleAudience = "https://appleid.apple.com"

	// Apple caps client secret validity at six months; we issue short-lived
	// assertions per exchange instead.
	appleSecretTTL = 5 * time.Minute
)

type AppleOAuthConfig struct {
	ClientID      string
	TeamID        string
	KeyID         string
	PrivateKeyPEM string
}

// AppleOAuthClient authenticates against Sign in with Apple. Instead of a
// static client secret, each token exchange is authorized by an ES256-signed
// assertion built from the team's private key. User identity comes from the
// id_token returned alongside the access token; Apple exposes no userinfo
// endpoint.
type AppleOAuthClient struct {
	cfg      AppleOAuthConfig
	tokenURL string
}

type appleIDTokenClaims struct {
	Sub            string `json:"sub"`
	Email          string `json:"email"`
	EmailVerified  any    `json:"email_verified"`
	IsPrivateEmail any    `json:"is_private_email"`
}

func NewAppleOAuthClient(cfg AppleOAuthConfig) *AppleOAuthClient {
	return &AppleOAuthClient{cfg: cfg, tokenURL: appleTokenURL}
}

func (c *AppleOAuthClient) Provider() constants.Provider {
	return constants.ProviderApple
}

func (c *AppleOAuthClient) IsConfigured() bool {
	return c.cfg.ClientID != "" && c.cfg.TeamID != "" && c.cfg.KeyID != "" && c.cfg.PrivateKeyPEM != ""
}

func (c *AppleOAuthClient) GetAuthURL(state, redirectURI string, scopes ...string) (string, string, error) {
	if !c.IsConfigured() {
		return "", "", ErrOAuthNotConfigured
	}

	if len(scopes) == 0 {
		scopes = []string{"name", "email"}
	}

	cfg := oauth2.Config{
		ClientID:    c.cfg.ClientID,
		RedirectURL: redirectURI,
		Scopes:      scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL: appleAuthURL,
		},
	}

	// Apple requires response_mode=form_post whenever scopes are requested
	authURL := cfg.AuthCodeURL(state, oauth2.SetAuthURLParam("response_mode", "form_post"))
	return authURL, "", nil
}

func (c *AppleOAuthClient) ExchangeCode(ctx context.Context, code, redirectURI, codeVerifier string) (*OAuthTokens, error) {
	if !c.IsConfigured() {
		return nil, ErrOAuthNotConfigured
	}

	clientSecret, err := c.buildClientSecret()
	if err != nil {
		return nil, fmt.Errorf("failed to build client secret: %w", err)
	}

	cfg := oauth2.Config{
		ClientID:     c.cfg.ClientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Endpoint: oauth2.Endpoint{
			TokenURL:  c.tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: httpClientTimeout})
	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	idToken, _ := token.Extra("id_token").(string)
	return &OAuthTokens{
		AccessToken: token.AccessToken,
		IDToken:     idToken,
	}, nil
}

func (c *AppleOAuthClient) GetUserInfo(ctx context.Context, tokens *OAuthTokens) (*OAuthUserInfo, error) {
	if tokens.IDToken == "" {
		return nil, fmt.Errorf("apple token response contained no identity token")
	}

	claims, err := decodeAppleIDToken(tokens.IDToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decode identity token: %w", err)
	}
	if claims.Sub == "" {
		return nil, fmt.Errorf("identity token missing subject")
	}

	return &OAuthUserInfo{
		Email:         claims.Email,
		EmailVerified: appleBoolClaim(claims.EmailVerified),
		Provider:      constants.ProviderApple,
		ProviderID:    claims.Sub,
	}, nil
}

// buildClientSecret signs a short-lived ES256 assertion with the team's
// private key, as required by Apple in place of a static client secret.
func (c *AppleOAuthClient) buildClientSecret() (string, error) {
	key, err := jwt.ParseECPrivateKeyFromPEM([]byte(c.cfg.PrivateKeyPEM))
	if err != nil {
		return "", fmt.Errorf("failed to parse private key: %w", err)
	}

	now := biztime.NowUTC()
	token := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.RegisteredClaims{
		Issuer:    c.cfg.TeamID,
		Subject:   c.cfg.ClientID,
		Audience:  jwt.ClaimStrings{appleAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(appleSecretTTL)),
	})
	token.Header["kid"] = c.cfg.KeyID

	return token.SignedString(key)
}

// decodeAppleIDToken extracts the claims without signature verification. The
// token was received directly from Apple over the code exchange, so the TLS
// channel is its authenticity guarantee.
func decodeAppleIDToken(idToken string) (*appleIDTokenClaims, error) {
	parts := strings.Split(idToken, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("malformed identity token")
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("failed to decode claims: %w", err)
	}

	var claims appleIDTokenClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("failed to unmarshal claims: %w", err)
	}
	return &claims, nil
}

// appleBoolClaim handles Apple sending email_verified as either a bool or
// the string "true".
func appleBoolClaim(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return val == "true"
	default:
		return false
	}
}
