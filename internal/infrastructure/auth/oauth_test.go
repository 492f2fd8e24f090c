package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atrium/internal/shared/config"
	"atrium/internal/shared/constants"
	"atrium/internal/shared/logger"
)

func TestGeneratePKCEParams(t *testing.T) {
	verifier, challenge, err := generatePKCEParams()
	require.NoError(t, err)

	assert.NotEmpty(t, verifier)
	assert.NotEmpty(t, challenge)
	assert.NotEqual(t, verifier, challenge)

	// both values must be base64url without padding
	_, err = base64.RawURLEncoding.DecodeString(verifier)
	assert.NoError(t, err)
	_, err = base64.RawURLEncoding.DecodeString(challenge)
	assert.NoError(t, err)

	_, challenge2, err := generatePKCEParams()
	require.NoError(t, err)
	assert.NotEqual(t, challenge, challenge2)
}

func TestGitHubGetAuthURL(t *testing.T) {
	client := NewGitHubOAuthClient(GitHubOAuthConfig{ClientID: "cid", ClientSecret: "secret"})

	authURL, verifier, err := client.GetAuthURL("state123", "https://app.example.com/callback")
	require.NoError(t, err)
	assert.NotEmpty(t, verifier)

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	q := parsed.Query()
	assert.Equal(t, "cid", q.Get("client_id"))
	assert.Equal(t, "state123", q.Get("state"))
	assert.Equal(t, "https://app.example.com/callback", q.Get("redirect_uri"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.NotEmpty(t, q.Get("code_challenge"))
	assert.Equal(t, "user:email", q.Get("scope"))
}

func TestGitHubGetAuthURLNotConfigured(t *testing.T) {
	client := NewGitHubOAuthClient(GitHubOAuthConfig{})

	_, _, err := client.GetAuthURL("state123", "https://app.example.com/callback")
	assert.ErrorIs(t, err, ErrOAuthNotConfigured)
}

func TestGitHubGetUserInfoPublicEmail(t *testing.T) {
	emailsCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token123", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]any{
			"id":         42,
			"email":      "octocat@example.com",
			"name":       "Octo Cat",
			"avatar_url": "https://avatars.example.com/42",
			"login":      "octocat",
		})
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, r *http.Request) {
		emailsCalls++
		json.NewEncoder(w).Encode([]map[string]any{})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewGitHubOAuthClient(GitHubOAuthConfig{ClientID: "cid", ClientSecret: "secret"})
	client.userURL = srv.URL + "/user"
	client.emailsURL = srv.URL + "/user/emails"

	info, err := client.GetUserInfo(context.Background(), &OAuthTokens{AccessToken: "token123"})
	require.NoError(t, err)

	assert.Equal(t, "octocat@example.com", info.Email)
	assert.Equal(t, "Octo Cat", info.Name)
	assert.Equal(t, "42", info.ProviderID)
	assert.Equal(t, constants.ProviderGitHub, info.Provider)
	assert.True(t, info.EmailVerified)
	assert.Zero(t, emailsCalls, "emails endpoint must not be called when the profile email is public")
}

func TestGitHubGetUserInfoPrivateEmail(t *testing.T) {
	emailsCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"id":    42,
			"email": "",
			"name":  "",
			"login": "octocat",
		})
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, r *http.Request) {
		emailsCalls++
		json.NewEncoder(w).Encode([]map[string]any{
			{"email": "old@example.com", "primary": false, "verified": true},
			{"email": "primary@example.com", "primary": true, "verified": true},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewGitHubOAuthClient(GitHubOAuthConfig{ClientID: "cid", ClientSecret: "secret"})
	client.userURL = srv.URL + "/user"
	client.emailsURL = srv.URL + "/user/emails"

	info, err := client.GetUserInfo(context.Background(), &OAuthTokens{AccessToken: "token123"})
	require.NoError(t, err)

	assert.Equal(t, "primary@example.com", info.Email)
	assert.Equal(t, "octocat", info.Name, "login is the fallback display name")
	assert.True(t, info.EmailVerified)
	assert.Equal(t, 1, emailsCalls, "exactly one emails request for a private profile email")
}

func TestGitHubGetUserInfoNoEmailAtAll(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"id": 42, "login": "octocat"})
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewGitHubOAuthClient(GitHubOAuthConfig{ClientID: "cid", ClientSecret: "secret"})
	client.userURL = srv.URL + "/user"
	client.emailsURL = srv.URL + "/user/emails"

	_, err := client.GetUserInfo(context.Background(), &OAuthTokens{AccessToken: "token123"})
	assert.Error(t, err)
}

func TestDiscordAvatarURL(t *testing.T) {
	client := NewDiscordOAuthClient(DiscordOAuthConfig{ClientID: "cid", ClientSecret: "secret"})

	tests := []struct {
		name string
		info discordUserInfo
		want string
	}{
		{
			"custom avatar",
			discordUserInfo{ID: "80351110224678912", Avatar: "8342729096ea3675442027381ff50dfe"},
			"https://cdn.discordapp.com/avatars/80351110224678912/8342729096ea3675442027381ff50dfe.png",
		},
		{
			"legacy default by discriminator",
			discordUserInfo{ID: "80351110224678912", Discriminator: "1337"},
			"https://cdn.discordapp.com/embed/avatars/2.png",
		},
		{
			"new system default by id",
			discordUserInfo{ID: "80351110224678912", Discriminator: "0"},
			// (80351110224678912 >> 22) % 6 == 5
			"https://cdn.discordapp.com/embed/avatars/5.png",
		},
		{
			"unparsable id falls back to zero",
			discordUserInfo{ID: "not-a-number"},
			"https://cdn.discordapp.com/embed/avatars/0.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, client.avatarURL(tt.info))
		})
	}
}

func TestDiscordGetUserInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"id":            "80351110224678912",
			"username":      "nelly",
			"global_name":   "Nelly",
			"discriminator": "0",
			"email":         "nelly@example.com",
			"verified":      true,
			"avatar":        "8342729096ea3675442027381ff50dfe",
		})
	}))
	defer srv.Close()

	client := NewDiscordOAuthClient(DiscordOAuthConfig{ClientID: "cid", ClientSecret: "secret"})
	client.userURL = srv.URL

	info, err := client.GetUserInfo(context.Background(), &OAuthTokens{AccessToken: "token123"})
	require.NoError(t, err)

	assert.Equal(t, "nelly@example.com", info.Email)
	assert.Equal(t, "Nelly", info.Name)
	assert.Equal(t, "80351110224678912", info.ProviderID)
	assert.Equal(t, constants.ProviderDiscord, info.Provider)
	assert.True(t, info.EmailVerified)
}

func TestDiscordGetAuthURLNoPKCE(t *testing.T) {
	client := NewDiscordOAuthClient(DiscordOAuthConfig{ClientID: "cid", ClientSecret: "secret"})

	authURL, verifier, err := client.GetAuthURL("state123", "https://app.example.com/callback")
	require.NoError(t, err)
	assert.Empty(t, verifier)

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	assert.Equal(t, "identify email", parsed.Query().Get("scope"))
}

func TestAppleIsConfigured(t *testing.T) {
	assert.False(t, NewAppleOAuthClient(AppleOAuthConfig{}).IsConfigured())
	assert.False(t, NewAppleOAuthClient(AppleOAuthConfig{
		ClientID: "cid", TeamID: "team", KeyID: "key",
	}).IsConfigured(), "missing private key")
	assert.True(t, NewAppleOAuthClient(AppleOAuthConfig{
		ClientID: "cid", TeamID: "team", KeyID: "key", PrivateKeyPEM: "pem",
	}).IsConfigured())
}

func TestAppleGetUserInfoRequiresIDToken(t *testing.T) {
	client := NewAppleOAuthClient(AppleOAuthConfig{
		ClientID: "cid", TeamID: "team", KeyID: "key", PrivateKeyPEM: "pem",
	})

	_, err := client.GetUserInfo(context.Background(), &OAuthTokens{AccessToken: "token123"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "identity token")
}

func appleTestIDToken(t *testing.T, claims map[string]any) string {
	t.Helper()
	payload, err := json.Marshal(claims)
	require.NoError(t, err)
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"ES256"}`))
	return header + "." + base64.RawURLEncoding.EncodeToString(payload) + ".sig"
}

func TestAppleGetUserInfoFromIDToken(t *testing.T) {
	client := NewAppleOAuthClient(AppleOAuthConfig{
		ClientID: "cid", TeamID: "team", KeyID: "key", PrivateKeyPEM: "pem",
	})

	t.Run("bool email_verified", func(t *testing.T) {
		idToken := appleTestIDToken(t, map[string]any{
			"sub": "001234.abcdef", "email": "user@privaterelay.appleid.com", "email_verified": true,
		})
		info, err := client.GetUserInfo(context.Background(), &OAuthTokens{IDToken: idToken})
		require.NoError(t, err)
		assert.Equal(t, "001234.abcdef", info.ProviderID)
		assert.Equal(t, "user@privaterelay.appleid.com", info.Email)
		assert.True(t, info.EmailVerified)
		assert.Equal(t, constants.ProviderApple, info.Provider)
	})

	t.Run("string email_verified", func(t *testing.T) {
		idToken := appleTestIDToken(t, map[string]any{
			"sub": "001234.abcdef", "email": "user@example.com", "email_verified": "true",
		})
		info, err := client.GetUserInfo(context.Background(), &OAuthTokens{IDToken: idToken})
		require.NoError(t, err)
		assert.True(t, info.EmailVerified)
	})

	t.Run("missing subject rejected", func(t *testing.T) {
		idToken := appleTestIDToken(t, map[string]any{"email": "user@example.com"})
		_, err := client.GetUserInfo(context.Background(), &OAuthTokens{IDToken: idToken})
		assert.Error(t, err)
	})

	t.Run("malformed token rejected", func(t *testing.T) {
		_, err := client.GetUserInfo(context.Background(), &OAuthTokens{IDToken: "garbage"})
		assert.Error(t, err)
	})
}

func TestAppleGetAuthURLFormPost(t *testing.T) {
	client := NewAppleOAuthClient(AppleOAuthConfig{
		ClientID: "cid", TeamID: "team", KeyID: "key", PrivateKeyPEM: "pem",
	})

	authURL, verifier, err := client.GetAuthURL("state123", "https://app.example.com/callback")
	require.NoError(t, err)
	assert.Empty(t, verifier)

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	q := parsed.Query()
	assert.Equal(t, "form_post", q.Get("response_mode"))
	assert.Equal(t, "name email", q.Get("scope"))
}

func testLogger() logger.Interface {
	return logger.NewLogger()
}

func testOAuthConfig() config.OAuthConfig {
	return config.OAuthConfig{
		Google: config.OAuthClientConfig{ClientID: "gcid", ClientSecret: "gsecret"},
		GitHub: config.OAuthClientConfig{ClientID: "ghcid", ClientSecret: "ghsecret"},
	}
}

func TestOAuthManagerClientFor(t *testing.T) {
	manager := NewOAuthManager(testOAuthConfig(), testLogger())

	t.Run("configured provider", func(t *testing.T) {
		client, err := manager.ClientFor(constants.ProviderGitHub)
		require.NoError(t, err)
		assert.Equal(t, constants.ProviderGitHub, client.Provider())
	})

	t.Run("unconfigured provider", func(t *testing.T) {
		_, err := manager.ClientFor(constants.ProviderDiscord)
		assert.Error(t, err)
	})

	t.Run("non-oauth provider", func(t *testing.T) {
		_, err := manager.ClientFor(constants.ProviderLocal)
		assert.Error(t, err)
	})

	t.Run("disabled provider", func(t *testing.T) {
		manager.SetEnabled(constants.ProviderGitHub, false)
		_, err := manager.ClientFor(constants.ProviderGitHub)
		assert.Error(t, err)

		manager.SetEnabled(constants.ProviderGitHub, true)
		_, err = manager.ClientFor(constants.ProviderGitHub)
		assert.NoError(t, err)
	})
}

func TestOAuthManagerEnabledProviders(t *testing.T) {
	manager := NewOAuthManager(testOAuthConfig(), testLogger())

	enabled := manager.EnabledProviders()
	assert.ElementsMatch(t, []constants.Provider{constants.ProviderGoogle, constants.ProviderGitHub}, enabled)
}
