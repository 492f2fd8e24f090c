package config

import "fmt"

type ServerConfig struct {
	Host                string   `mapstructure:"host"`
	Port                int      `mapstructure:"port"`
	Mode                string   `mapstructure:"mode"`
	BaseURL             string   `mapstructure:"base_url"`
	AllowedOrigins      []string `mapstructure:"allowed_origins"`
	FrontendCallbackURL string   `mapstructure:"frontend_callback_url"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// PasswordConfig carries Argon2id cost parameters. Hashes are self-describing,
// so these can be raised without invalidating existing hashes.
type PasswordConfig struct {
	MemoryKiB   uint32 `mapstructure:"memory_kib"`
	Iterations  uint32 `mapstructure:"iterations"`
	Parallelism uint8  `mapstructure:"parallelism"`
}

type TokenConfig struct {
	VerificationExpiresHours int `mapstructure:"verification_expires_hours"`
	ResetExpiresMinutes      int `mapstructure:"reset_expires_minutes"`
}

type JWTConfig struct {
	Secret           string `mapstructure:"secret"`
	AccessExpMinutes int    `mapstructure:"access_exp_minutes"`
}

type SessionConfig struct {
	DurationHours int `mapstructure:"duration_hours"`
}

// PolicyConfig holds the local-provider policy knobs. It is the fallback used
// when no persisted auth settings row exists.
type PolicyConfig struct {
	RequireEmailVerification bool `mapstructure:"require_email_verification"`
	LockoutThreshold         int  `mapstructure:"lockout_threshold"`
	LockoutDurationMinutes   int  `mapstructure:"lockout_duration_minutes"`
}

type AuthConfig struct {
	Password PasswordConfig `mapstructure:"password"`
	Token    TokenConfig    `mapstructure:"token"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Session  SessionConfig  `mapstructure:"session"`
	Policy   PolicyConfig   `mapstructure:"policy"`
}

type OAuthClientConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
}

// AppleOAuthConfig has no static client secret; the secret is a short-lived
// signed assertion derived from the private key, team ID and key ID.
type AppleOAuthConfig struct {
	ClientID      string `mapstructure:"client_id"`
	TeamID        string `mapstructure:"team_id"`
	KeyID         string `mapstructure:"key_id"`
	PrivateKeyPEM string `mapstructure:"private_key_pem"`
	RedirectURL   string `mapstructure:"redirect_url"`
}

type OAuthConfig struct {
	Google  OAuthClientConfig `mapstructure:"google"`
	GitHub  OAuthClientConfig `mapstructure:"github"`
	Discord OAuthClientConfig `mapstructure:"discord"`
	Apple   AppleOAuthConfig  `mapstructure:"apple"`
}

// ManagedConfig points at an external managed identity platform. The platform
// is considered configured only when both URL and ServiceKey are present.
type ManagedConfig struct {
	URL        string `mapstructure:"url"`
	ServiceKey string `mapstructure:"service_key"`
}

func (m *ManagedConfig) IsConfigured() bool {
	return m.URL != "" && m.ServiceKey != ""
}

type EmailConfig struct {
	SMTPHost     string `mapstructure:"smtp_host"`
	SMTPPort     int    `mapstructure:"smtp_port"`
	SMTPUser     string `mapstructure:"smtp_user"`
	SMTPPassword string `mapstructure:"smtp_password"`
	FromAddress  string `mapstructure:"from_address"`
	FromName     string `mapstructure:"from_name"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
