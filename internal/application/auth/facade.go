package auth

import (
	"context"
	"sync"

	"atrium/internal/domain/setting"
	"atrium/internal/domain/user"
	"atrium/internal/shared/config"
	"atrium/internal/shared/constants"
	"atrium/internal/shared/errors"
	"atrium/internal/shared/logger"
)

// Facade resolves which provider is active and dispatches the capability
// contract to it. Resolution order: persisted settings row, then managed
// platform credentials in the environment (both URL and service key), then
// local. The local provider stays available as a fallback path even when
// the managed platform is active.
type Facade struct {
	local    *LocalProvider
	managed  *ManagedProvider
	settings setting.Repository
	managedC config.ManagedConfig
	logger   logger.Interface

	mu     sync.RWMutex
	active AuthProvider
}

func NewFacade(local *LocalProvider, managed *ManagedProvider, settings setting.Repository, managedCfg config.ManagedConfig, log logger.Interface) *Facade {
	return &Facade{
		local:    local,
		managed:  managed,
		settings: settings,
		managedC: managedCfg,
		logger:   log,
	}
}

// Resolve picks the active provider. Safe to call again to reload after a
// settings change.
func (f *Facade) Resolve(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	persisted, err := f.settings.Get(ctx)
	if err != nil {
		return err
	}

	// the row is authoritative for policy knobs and OAuth enablement too,
	// not just the provider selection
	f.local.ApplySettings(persisted)

	switch {
	case persisted != nil && persisted.ActiveProvider == constants.ProviderManaged:
		if f.managed == nil {
			f.logger.Warnw("persisted settings select managed provider but platform is not configured, falling back to local")
			f.active = f.local
			return nil
		}
		f.active = f.managed
		f.logger.Infow("auth provider selected", "provider", "managed", "reason", "persisted settings")
	case persisted != nil:
		f.active = f.local
		f.logger.Infow("auth provider selected", "provider", "local", "reason", "persisted settings")
	case f.managedC.IsConfigured() && f.managed != nil:
		f.active = f.managed
		f.logger.Infow("auth provider selected", "provider", "managed", "reason", "platform credentials present")
	default:
		f.active = f.local
		f.logger.Infow("auth provider selected", "provider", "local", "reason", "default")
	}

	return nil
}

// Active returns the provider selected by Resolve, defaulting to local.
func (f *Facade) Active() AuthProvider {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.active == nil {
		return f.local
	}
	return f.active
}

// Local returns the always-available local provider.
func (f *Facade) Local() *LocalProvider {
	return f.local
}

func (f *Facade) Provider() constants.Provider {
	return f.Active().Provider()
}

func (f *Facade) SignUp(ctx context.Context, email, password, name string) (*AuthResult, error) {
	return f.Active().SignUp(ctx, email, password, name)
}

func (f *Facade) SignIn(ctx context.Context, email, password string) (*AuthResult, error) {
	return f.Active().SignIn(ctx, email, password)
}

func (f *Facade) SignOut(ctx context.Context, refreshToken string) error {
	return f.Active().SignOut(ctx, refreshToken)
}

func (f *Facade) VerifyToken(ctx context.Context, accessToken string) (*TokenIdentity, error) {
	return f.Active().VerifyToken(ctx, accessToken)
}

func (f *Facade) RefreshSession(ctx context.Context, refreshToken string) (*AuthResult, error) {
	return f.Active().RefreshSession(ctx, refreshToken)
}

func (f *Facade) ResetPasswordRequest(ctx context.Context, email string) error {
	return f.Active().ResetPasswordRequest(ctx, email)
}

func (f *Facade) ResetPassword(ctx context.Context, token, newPassword string) error {
	return f.Active().ResetPassword(ctx, token, newPassword)
}

func (f *Facade) ChangePassword(ctx context.Context, userSID, currentPassword, newPassword string) error {
	return f.Active().ChangePassword(ctx, userSID, currentPassword, newPassword)
}

func (f *Facade) VerifyEmail(ctx context.Context, token string) error {
	return f.Active().VerifyEmail(ctx, token)
}

func (f *Facade) ResendVerificationEmail(ctx context.Context, email string) error {
	return f.Active().ResendVerificationEmail(ctx, email)
}

func (f *Facade) GetUser(ctx context.Context, userSID string) (*user.User, error) {
	return f.Active().GetUser(ctx, userSID)
}

func (f *Facade) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	return f.Active().GetUserByEmail(ctx, email)
}

func (f *Facade) UpdateUser(ctx context.Context, userSID string, input UpdateUserInput) (*user.User, error) {
	return f.Active().UpdateUser(ctx, userSID, input)
}

func (f *Facade) DeleteUser(ctx context.Context, userSID string) error {
	return f.Active().DeleteUser(ctx, userSID)
}

func (f *Facade) GetOAuthURL(ctx context.Context, provider constants.Provider, redirectURI string) (string, string, error) {
	return f.Active().GetOAuthURL(ctx, provider, redirectURI)
}

func (f *Facade) HandleOAuthCallback(ctx context.Context, provider constants.Provider, code, state string) (*AuthResult, error) {
	return f.Active().HandleOAuthCallback(ctx, provider, code, state)
}

// UpdateSettings persists a new settings row and re-resolves the active
// provider.
func (f *Facade) UpdateSettings(ctx context.Context, authSetting *setting.AuthSetting) error {
	if authSetting == nil {
		return errors.NewValidationError("settings are required")
	}
	if err := f.settings.Save(ctx, authSetting); err != nil {
		return err
	}
	return f.Resolve(ctx)
}

var _ AuthProvider = (*Facade)(nil)
