package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"

	"atrium/internal/shared/constants"
)

const (
	discordAuthURL     = "https://discord.com/api/oauth2/authorize"
	discordTokenURL    = "https://discord.com/api/oauth2/token"
	discordUserURL     = "https://discord.com/api/users/@me"
	discordCDNBase     = "https://cdn.discordapp.com"
	discordDefaultLen  = 6 // default avatar variants under the new username system
	legacyDefaultCount = 5
)

type DiscordOAuthConfig struct {
	ClientID     string
	ClientSecret string
}

type DiscordOAuthClient struct {
	config     *oauth2.Config
	httpClient *http.Client
	userURL    string
	cdnBase    string
}

type discordUserInfo struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	GlobalName    string `json:"global_name"`
	Discriminator string `json:"discriminator"`
	Email         string `json:"email"`
	Verified      bool   `json:"verified"`
	Avatar        string `json:"avatar"`
}

func NewDiscordOAuthClient(cfg DiscordOAuthConfig) *DiscordOAuthClient {
	return &DiscordOAuthClient{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Scopes:       []string{"identify", "email"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   discordAuthURL,
				TokenURL:  discordTokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: &http.Client{Timeout: httpClientTimeout},
		userURL:    discordUserURL,
		cdnBase:    discordCDNBase,
	}
}

func (c *DiscordOAuthClient) Provider() constants.Provider {
	return constants.ProviderDiscord
}

func (c *DiscordOAuthClient) IsConfigured() bool {
	return c.config.ClientID != "" && c.config.ClientSecret != ""
}

func (c *DiscordOAuthClient) GetAuthURL(state, redirectURI string, scopes ...string) (string, string, error) {
	if !c.IsConfigured() {
		return "", "", ErrOAuthNotConfigured
	}

	cfg := c.configFor(redirectURI, scopes)
	authURL := cfg.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "consent"))

	// Discord does not support PKCE for confidential clients
	return authURL, "", nil
}

func (c *DiscordOAuthClient) ExchangeCode(ctx context.Context, code, redirectURI, codeVerifier string) (*OAuthTokens, error) {
	if !c.IsConfigured() {
		return nil, ErrOAuthNotConfigured
	}

	cfg := c.configFor(redirectURI, nil)
	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	return &OAuthTokens{AccessToken: token.AccessToken}, nil
}

func (c *DiscordOAuthClient) GetUserInfo(ctx context.Context, tokens *OAuthTokens) (*OAuthUserInfo, error) {
	body, err := fetchJSON(ctx, c.httpClient, c.userURL, tokens.AccessToken, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}

	var dInfo discordUserInfo
	if err := json.Unmarshal(body, &dInfo); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user info: %w", err)
	}

	name := dInfo.GlobalName
	if name == "" {
		name = dInfo.Username
	}

	return &OAuthUserInfo{
		Email:         dInfo.Email,
		Name:          name,
		Picture:       c.avatarURL(dInfo),
		EmailVerified: dInfo.Verified,
		Provider:      constants.ProviderDiscord,
		ProviderID:    dInfo.ID,
	}, nil
}

// avatarURL derives the CDN avatar URL from the user id and avatar hash.
// When the user has no custom avatar a deterministic default is synthesized:
// (id >> 22) % 6 for the new username system, discriminator % 5 for legacy
// accounts.
func (c *DiscordOAuthClient) avatarURL(info discordUserInfo) string {
	if info.Avatar != "" {
		return fmt.Sprintf("%s/avatars/%s/%s.png", c.cdnBase, info.ID, info.Avatar)
	}

	if info.Discriminator != "" && info.Discriminator != "0" {
		if disc, err := strconv.Atoi(info.Discriminator); err == nil {
			return fmt.Sprintf("%s/embed/avatars/%d.png", c.cdnBase, disc%legacyDefaultCount)
		}
	}

	idNum, err := strconv.ParseUint(info.ID, 10, 64)
	if err != nil {
		return fmt.Sprintf("%s/embed/avatars/0.png", c.cdnBase)
	}
	return fmt.Sprintf("%s/embed/avatars/%d.png", c.cdnBase, (idNum>>22)%discordDefaultLen)
}

func (c *DiscordOAuthClient) configFor(redirectURI string, scopes []string) *oauth2.Config {
	cfg := *c.config
	cfg.RedirectURL = redirectURI
	if len(scopes) > 0 {
		cfg.Scopes = scopes
	}
	return &cfg
}
