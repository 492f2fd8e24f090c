package auth

import (
	"context"

	"atrium/internal/domain/user"
	vo "atrium/internal/domain/user/valueobjects"
	"atrium/internal/infrastructure/identity"
	"atrium/internal/shared/constants"
	"atrium/internal/shared/db"
	"atrium/internal/shared/errors"
	"atrium/internal/shared/logger"
)

// ManagedProvider delegates authentication to the hosted identity platform.
// After every successful platform operation it upserts a mirrored User row
// keyed by the platform user id, so the rest of the system treats managed
// users exactly like local ones. Lookups the platform cannot serve (by
// email, by SID) are answered from the mirror.
type ManagedProvider struct {
	platform  identity.PlatformClient
	users     user.Repository
	txManager *db.TransactionManager
	logger    logger.Interface
}

func NewManagedProvider(platform identity.PlatformClient, users user.Repository, txManager *db.TransactionManager, log logger.Interface) *ManagedProvider {
	return &ManagedProvider{
		platform:  platform,
		users:     users,
		txManager: txManager,
		logger:    log,
	}
}

func (p *ManagedProvider) Provider() constants.Provider {
	return constants.ProviderManaged
}

func (p *ManagedProvider) SignUp(ctx context.Context, emailAddr, password, name string) (*AuthResult, error) {
	if _, err := vo.NewEmail(emailAddr); err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	if _, err := vo.NewPassword(password); err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	session, err := p.platform.SignUp(ctx, emailAddr, password, name)
	if err != nil {
		return nil, err
	}

	return p.resultFromSession(ctx, session)
}

func (p *ManagedProvider) SignIn(ctx context.Context, emailAddr, password string) (*AuthResult, error) {
	session, err := p.platform.SignInWithPassword(ctx, emailAddr, password)
	if err != nil {
		return nil, err
	}
	return p.resultFromSession(ctx, session)
}

func (p *ManagedProvider) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := p.platform.SignOut(ctx, token); err != nil {
		// idempotent: an invalid token is not an error
		p.logger.Debugw("platform sign-out ignored", "error", err)
	}
	return nil
}

func (p *ManagedProvider) VerifyToken(ctx context.Context, accessToken string) (*TokenIdentity, error) {
	platformUser, err := p.platform.GetUser(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	mirrored, err := p.mirrorUpsert(ctx, platformUser)
	if err != nil {
		return nil, err
	}
	if mirrored.IsBanned() {
		return nil, errors.NewAccountDisabledError()
	}

	return &TokenIdentity{User: mirrored, Provider: constants.ProviderManaged}, nil
}

func (p *ManagedProvider) RefreshSession(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if refreshToken == "" {
		return nil, errors.NewTokenInvalidError("refresh token")
	}

	session, err := p.platform.RefreshSession(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	return p.resultFromSession(ctx, session)
}

func (p *ManagedProvider) ResetPasswordRequest(ctx context.Context, emailAddr string) error {
	if err := p.platform.Recover(ctx, emailAddr); err != nil {
		// always succeed so the endpoint cannot enumerate accounts
		p.logger.Debugw("platform recover ignored", "error", err)
	}
	return nil
}

// ResetPassword consumes a platform recovery token and sets the new password
// with the short-lived session it yields.
func (p *ManagedProvider) ResetPassword(ctx context.Context, token, newPassword string) error {
	if _, err := vo.NewPassword(newPassword); err != nil {
		return errors.NewValidationError(err.Error())
	}

	session, err := p.platform.Verify(ctx, "recovery", token)
	if err != nil {
		return err
	}
	if session.AccessToken == "" {
		return errors.NewTokenInvalidError("reset token")
	}

	if _, err := p.platform.UpdateUser(ctx, session.AccessToken, map[string]any{"password": newPassword}); err != nil {
		return err
	}
	return nil
}

func (p *ManagedProvider) ChangePassword(ctx context.Context, userSID, currentPassword, newPassword string) error {
	if _, err := vo.NewPassword(newPassword); err != nil {
		return errors.NewValidationError(err.Error())
	}

	mirrored, err := p.GetUser(ctx, userSID)
	if err != nil {
		return err
	}

	// the platform has no current-password check, so re-authenticate first
	session, err := p.platform.SignInWithPassword(ctx, mirrored.Email().String(), currentPassword)
	if err != nil {
		return err
	}

	if _, err := p.platform.UpdateUser(ctx, session.AccessToken, map[string]any{"password": newPassword}); err != nil {
		return err
	}
	return nil
}

func (p *ManagedProvider) VerifyEmail(ctx context.Context, token string) error {
	session, err := p.platform.Verify(ctx, "signup", token)
	if err != nil {
		return err
	}
	if session.User != nil {
		if _, err := p.mirrorUpsert(ctx, session.User); err != nil {
			p.logger.Warnw("failed to mirror verified user", "error", err)
		}
	}
	return nil
}

func (p *ManagedProvider) ResendVerificationEmail(ctx context.Context, emailAddr string) error {
	mirrored, err := p.users.GetByEmail(ctx, emailAddr)
	if err == nil && mirrored != nil && mirrored.IsEmailVerified() {
		return errors.NewConflictError("email is already verified")
	}

	if err := p.platform.ResendVerification(ctx, emailAddr); err != nil {
		p.logger.Debugw("platform resend ignored", "error", err)
	}
	return nil
}

// GetUser serves from the local mirror; the platform has no SID concept.
func (p *ManagedProvider) GetUser(ctx context.Context, userSID string) (*user.User, error) {
	mirrored, err := p.users.GetBySID(ctx, userSID)
	if err != nil {
		return nil, errors.NewInternalError("failed to look up user")
	}
	if mirrored == nil {
		return nil, errors.NewNotFoundError("user not found")
	}
	return mirrored, nil
}

// GetUserByEmail is not natively supported by the platform and is answered
// from the mirror table.
func (p *ManagedProvider) GetUserByEmail(ctx context.Context, emailAddr string) (*user.User, error) {
	mirrored, err := p.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		return nil, errors.NewInternalError("failed to look up user")
	}
	if mirrored == nil {
		return nil, errors.NewNotFoundError("user not found")
	}
	return mirrored, nil
}

func (p *ManagedProvider) UpdateUser(ctx context.Context, userSID string, input UpdateUserInput) (*user.User, error) {
	mirrored, err := p.GetUser(ctx, userSID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		nameVO, err := vo.NewName(*input.Name)
		if err != nil {
			return nil, errors.NewValidationError(err.Error())
		}
		if err := mirrored.UpdateName(nameVO); err != nil {
			return nil, errors.NewValidationError(err.Error())
		}
	}
	if input.AvatarURL != nil {
		mirrored.UpdateAvatarURL(*input.AvatarURL)
	}

	if err := p.users.Update(ctx, mirrored); err != nil {
		return nil, errors.NewInternalError("failed to update user")
	}
	return mirrored, nil
}

func (p *ManagedProvider) DeleteUser(ctx context.Context, userSID string) error {
	mirrored, err := p.GetUser(ctx, userSID)
	if err != nil {
		return err
	}

	if externalID := mirrored.ExternalID(); externalID != nil {
		if err := p.platform.AdminDeleteUser(ctx, *externalID); err != nil {
			return err
		}
	}

	return p.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		return p.users.Delete(txCtx, mirrored.ID())
	})
}

// GetOAuthURL points the caller at the platform-brokered authorization page.
func (p *ManagedProvider) GetOAuthURL(ctx context.Context, provider constants.Provider, redirectURI string) (string, string, error) {
	if !provider.IsOAuth() {
		return "", "", errors.NewValidationError("unsupported oauth provider", string(provider))
	}

	stateToken, err := vo.GenerateToken()
	if err != nil {
		return "", "", errors.NewInternalError("failed to generate state")
	}
	state := stateToken.Value()

	return p.platform.AuthorizeURL(string(provider), redirectURI, state), state, nil
}

func (p *ManagedProvider) HandleOAuthCallback(ctx context.Context, provider constants.Provider, code, state string) (*AuthResult, error) {
	session, err := p.platform.ExchangeOAuthCode(ctx, code, state)
	if err != nil {
		return nil, errors.NewOAuthError(string(provider), "code exchange")
	}
	return p.resultFromSession(ctx, session)
}

// resultFromSession mirrors the platform user and wraps the platform token
// pair in the normalized result shape.
func (p *ManagedProvider) resultFromSession(ctx context.Context, session *identity.PlatformSession) (*AuthResult, error) {
	if session == nil || session.User == nil {
		return nil, errors.NewProviderError("platform returned no user")
	}

	mirrored, err := p.mirrorUpsert(ctx, session.User)
	if err != nil {
		return nil, err
	}
	if mirrored.IsBanned() {
		return nil, errors.NewAccountDisabledError()
	}

	return &AuthResult{
		User: mirrored,
		Tokens: &TokenBundle{
			AccessToken:  session.AccessToken,
			RefreshToken: session.RefreshToken,
			ExpiresIn:    int64(session.ExpiresIn),
		},
	}, nil
}

// mirrorUpsert creates or refreshes the local mirror row for a platform
// user. Idempotent; keyed by the platform user id.
func (p *ManagedProvider) mirrorUpsert(ctx context.Context, platformUser *identity.PlatformUser) (*user.User, error) {
	if platformUser == nil || platformUser.ID == "" {
		return nil, errors.NewProviderError("platform user has no id")
	}

	mirrored, err := p.users.GetByExternalID(ctx, platformUser.ID)
	if err != nil {
		return nil, errors.NewInternalError("failed to look up mirror")
	}

	emailVO, err := vo.NewEmail(platformUser.Email)
	if err != nil {
		return nil, errors.NewProviderError("platform user has invalid email")
	}

	if mirrored == nil {
		var nameVO *vo.Name
		if name := platformUser.DisplayName(); name != "" {
			nameVO, _ = vo.NewName(name)
		}

		mirrored, err = user.NewUser(emailVO, nameVO)
		if err != nil {
			return nil, errors.NewInternalError("failed to build mirror user")
		}
		if err := mirrored.BindExternalID(platformUser.ID); err != nil {
			return nil, errors.NewInternalError("failed to bind external id")
		}
		if platformUser.EmailConfirmedAt != nil {
			mirrored.MarkEmailVerified()
		}

		if err := p.users.Create(ctx, mirrored); err != nil {
			if errors.IsDuplicateError(err) {
				// concurrent upsert won the race; read it back
				mirrored, err = p.users.GetByExternalID(ctx, platformUser.ID)
				if err != nil || mirrored == nil {
					return nil, errors.NewInternalError("failed to read mirror after race")
				}
				return mirrored, nil
			}
			return nil, errors.NewInternalError("failed to create mirror user")
		}

		p.logger.Infow("mirrored platform user", "user_sid", mirrored.SID())
		return mirrored, nil
	}

	changed := false
	if mirrored.Email().String() != emailVO.String() {
		if err := mirrored.UpdateEmail(emailVO); err == nil {
			changed = true
		}
	}
	if platformUser.EmailConfirmedAt != nil && !mirrored.IsEmailVerified() {
		mirrored.MarkEmailVerified()
		changed = true
	}
	if name := platformUser.DisplayName(); name != "" && name != mirrored.Name().String() {
		if nameVO, err := vo.NewName(name); err == nil {
			if err := mirrored.UpdateName(nameVO); err == nil {
				changed = true
			}
		}
	}

	if changed {
		if err := p.users.Update(ctx, mirrored); err != nil {
			p.logger.Warnw("failed to refresh mirror user", "error", err, "user_sid", mirrored.SID())
		}
	}

	return mirrored, nil
}

var _ AuthProvider = (*ManagedProvider)(nil)
