package constants

const (
	// Environment constants
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	// HTTP Headers
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	HeaderXRequestID    = "X-Request-ID"

	// Context keys
	ContextKeyUserID   = "user_id"
	ContextKeyProvider = "auth_provider"

	// Database table names
	TableUsers              = "users"
	TableLocalCredentials   = "local_credentials"
	TableSessions           = "sessions"
	TablePasswordResets     = "password_reset_tokens"
	TableEmailVerifications = "email_verification_tokens"
	TableOAuthAccounts      = "oauth_accounts"
	TableAuthSettings       = "auth_settings"
)

// Provider identifies which mechanism authenticated a user. The set is
// closed: local, managed, or one of the federated OAuth providers.
type Provider string

const (
	ProviderLocal   Provider = "local"
	ProviderManaged Provider = "managed"
	ProviderGoogle  Provider = "google"
	ProviderGitHub  Provider = "github"
	ProviderDiscord Provider = "discord"
	ProviderApple   Provider = "apple"
)

func (p Provider) String() string {
	return string(p)
}

// IsOAuth reports whether the provider is a federated OAuth adapter.
func (p Provider) IsOAuth() bool {
	switch p {
	case ProviderGoogle, ProviderGitHub, ProviderDiscord, ProviderApple:
		return true
	}
	return false
}

// ParseProvider returns the Provider for a stored identifier, or false when
// the identifier is outside the closed set.
func ParseProvider(s string) (Provider, bool) {
	switch Provider(s) {
	case ProviderLocal, ProviderManaged, ProviderGoogle, ProviderGitHub, ProviderDiscord, ProviderApple:
		return Provider(s), true
	}
	return "", false
}
