package auth

import (
	"sync"

	"atrium/internal/shared/config"
	"atrium/internal/shared/constants"
	"atrium/internal/shared/errors"
	"atrium/internal/shared/logger"
)

// OAuthManager holds the configured OAuth clients and resolves them by
// provider name. Enablement flags can be updated at runtime without
// recreating the clients.
type OAuthManager struct {
	logger logger.Interface

	mu      sync.RWMutex
	clients map[constants.Provider]OAuthClient
	enabled map[constants.Provider]bool
}

func NewOAuthManager(cfg config.OAuthConfig, log logger.Interface) *OAuthManager {
	m := &OAuthManager{
		logger:  log,
		clients: make(map[constants.Provider]OAuthClient),
		enabled: make(map[constants.Provider]bool),
	}

	m.register(NewGoogleOAuthClient(GoogleOAuthConfig{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
	}))
	m.register(NewGitHubOAuthClient(GitHubOAuthConfig{
		ClientID:     cfg.GitHub.ClientID,
		ClientSecret: cfg.GitHub.ClientSecret,
	}))
	m.register(NewDiscordOAuthClient(DiscordOAuthConfig{
		ClientID:     cfg.Discord.ClientID,
		ClientSecret: cfg.Discord.ClientSecret,
	}))
	m.register(NewAppleOAuthClient(AppleOAuthConfig{
		ClientID:      cfg.Apple.ClientID,
		TeamID:        cfg.Apple.TeamID,
		KeyID:         cfg.Apple.KeyID,
		PrivateKeyPEM: cfg.Apple.PrivateKeyPEM,
	}))

	return m
}

func (m *OAuthManager) register(client OAuthClient) {
	provider := client.Provider()
	m.clients[provider] = client
	m.enabled[provider] = client.IsConfigured()
	if client.IsConfigured() {
		m.logger.Infow("oauth client initialized", "provider", provider)
	} else {
		m.logger.Debugw("oauth client not configured", "provider", provider)
	}
}

// ClientFor returns the client for the given provider. It fails when the
// provider is unknown, disabled, or missing credentials.
func (m *OAuthManager) ClientFor(provider constants.Provider) (OAuthClient, error) {
	if !provider.IsOAuth() {
		return nil, errors.NewValidationError("unsupported oauth provider", string(provider))
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	client, ok := m.clients[provider]
	if !ok || !m.enabled[provider] {
		return nil, errors.NewOAuthMisconfiguredError(string(provider))
	}
	if !client.IsConfigured() {
		return nil, errors.NewOAuthMisconfiguredError(string(provider))
	}
	return client, nil
}

// SetEnabled toggles a provider without touching its credentials.
func (m *OAuthManager) SetEnabled(provider constants.Provider, enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.clients[provider]; ok {
		m.enabled[provider] = enabled
	}
}

// EnabledProviders lists providers that are both configured and enabled.
func (m *OAuthManager) EnabledProviders() []constants.Provider {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]constants.Provider, 0, len(m.clients))
	for provider, client := range m.clients {
		if m.enabled[provider] && client.IsConfigured() {
			out = append(out, provider)
		}
	}
	return out
}
