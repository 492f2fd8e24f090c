package auth

import (
	"context"
	"encoding/json"
	"time"

	"atrium/internal/domain/setting"
	"atrium/internal/domain/user"
	vo "atrium/internal/domain/user/valueobjects"
	infraauth "atrium/internal/infrastructure/auth"
	"atrium/internal/infrastructure/cache"
	"atrium/internal/infrastructure/email"
	"atrium/internal/shared/constants"
	"atrium/internal/shared/db"
	"atrium/internal/shared/errors"
	"atrium/internal/shared/goroutine"
	"atrium/internal/shared/logger"
)

// LocalProviderDeps bundles the collaborators of the local provider.
type LocalProviderDeps struct {
	Users        user.Repository
	Credentials  user.CredentialRepository
	Sessions     user.SessionRepository
	Tokens       user.OneShotTokenRepository
	OAuthLinks   user.OAuthAccountRepository
	Hasher       user.PasswordHasher
	Issuer       *infraauth.TokenIssuer
	TxManager    *db.TransactionManager
	OAuthManager *infraauth.OAuthManager
	StateStore   *cache.OAuthStateStore
	Mailer       email.Sender
	Policy       *user.SecurityPolicy
	TokenTTL     TokenTTL
	Logger       logger.Interface
}

// TokenTTL holds the one-shot token lifetimes.
type TokenTTL struct {
	Verification time.Duration
	Reset        time.Duration
}

// LocalProvider authenticates against the local credential store.
type LocalProvider struct {
	users        user.Repository
	credentials  user.CredentialRepository
	sessions     user.SessionRepository
	tokens       user.OneShotTokenRepository
	oauthLinks   user.OAuthAccountRepository
	hasher       user.PasswordHasher
	issuer       *infraauth.TokenIssuer
	txManager    *db.TransactionManager
	oauthManager *infraauth.OAuthManager
	stateStore   *cache.OAuthStateStore
	mailer       email.Sender
	policy       *user.SecurityPolicy
	tokenTTL     TokenTTL
	logger       logger.Interface
}

func NewLocalProvider(deps LocalProviderDeps) *LocalProvider {
	policy := deps.Policy
	if policy == nil {
		policy = user.DefaultSecurityPolicy()
	}
	ttl := deps.TokenTTL
	if ttl.Verification <= 0 {
		ttl.Verification = 24 * time.Hour
	}
	if ttl.Reset <= 0 {
		ttl.Reset = 30 * time.Minute
	}
	mailer := deps.Mailer
	if mailer == nil {
		mailer = email.NoopSender{}
	}

	return &LocalProvider{
		users:        deps.Users,
		credentials:  deps.Credentials,
		sessions:     deps.Sessions,
		tokens:       deps.Tokens,
		oauthLinks:   deps.OAuthLinks,
		hasher:       deps.Hasher,
		issuer:       deps.Issuer,
		txManager:    deps.TxManager,
		oauthManager: deps.OAuthManager,
		stateStore:   deps.StateStore,
		mailer:       mailer,
		policy:       policy,
		tokenTTL:     ttl,
		logger:       deps.Logger,
	}
}

func (p *LocalProvider) Provider() constants.Provider {
	return constants.ProviderLocal
}

// ApplySettings overlays the persisted policy knobs and per-provider OAuth
// enablement flags onto the provider. Policy knobs with zero values keep
// their current configuration.
func (p *LocalProvider) ApplySettings(s *setting.AuthSetting) {
	if s == nil {
		return
	}

	p.policy.RequireEmailVerification = s.RequireEmailVerification
	if s.LockoutThreshold > 0 {
		p.policy.LockoutThreshold = s.LockoutThreshold
	}
	if s.LockoutDurationMinutes > 0 {
		p.policy.LockoutDurationMinutes = s.LockoutDurationMinutes
	}
	if s.SessionDurationHours > 0 {
		p.policy.SessionDurationHours = s.SessionDurationHours
	}

	if p.oauthManager != nil {
		p.oauthManager.SetEnabled(constants.ProviderGoogle, s.GoogleEnabled)
		p.oauthManager.SetEnabled(constants.ProviderGitHub, s.GitHubEnabled)
		p.oauthManager.SetEnabled(constants.ProviderDiscord, s.DiscordEnabled)
		p.oauthManager.SetEnabled(constants.ProviderApple, s.AppleEnabled)
	}
}

func (p *LocalProvider) SignUp(ctx context.Context, emailAddr, password, name string) (*AuthResult, error) {
	emailVO, err := vo.NewEmail(emailAddr)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	if _, err := vo.NewPassword(password); err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	var nameVO *vo.Name
	if name != "" {
		nameVO, err = vo.NewName(name)
		if err != nil {
			return nil, errors.NewValidationError(err.Error())
		}
	}

	exists, err := p.users.ExistsByEmail(ctx, emailVO.String())
	if err != nil {
		return nil, errors.NewInternalError("failed to check email availability")
	}
	if exists {
		return nil, errors.NewUserExistsError()
	}

	newUser, err := user.NewUser(emailVO, nameVO)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	var result *AuthResult
	var verifyToken *vo.Token

	err = p.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := p.users.Create(txCtx, newUser); err != nil {
			if errors.IsDuplicateError(err) {
				return errors.NewUserExistsError()
			}
			return err
		}

		credential, err := user.NewLocalCredential(newUser.ID(), password, p.hasher)
		if err != nil {
			return err
		}
		if err := p.credentials.Create(txCtx, credential); err != nil {
			return err
		}

		if p.policy.RequireEmailVerification {
			oneShot, plain, err := user.IssueOneShotToken(newUser.ID(), user.TokenPurposeVerify, p.tokenTTL.Verification)
			if err != nil {
				return err
			}
			if err := p.tokens.Create(txCtx, oneShot); err != nil {
				return err
			}
			verifyToken = plain
		}

		tokens, err := p.openSession(txCtx, newUser)
		if err != nil {
			return err
		}

		result = &AuthResult{User: newUser, Tokens: tokens}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if verifyToken != nil {
		address, name, value := emailVO.String(), newUser.Name().String(), verifyToken.Value()
		p.sendMailAsync("verification email", newUser.SID(), func() error {
			return p.mailer.SendVerificationEmail(address, name, value)
		})
	}

	p.logger.Infow("user signed up", "user_sid", newUser.SID())
	return result, nil
}

func (p *LocalProvider) SignIn(ctx context.Context, emailAddr, password string) (*AuthResult, error) {
	account, err := p.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		return nil, errors.NewInternalError("failed to look up account")
	}
	if account == nil {
		// same message as wrong password, no existence leakage
		return nil, errors.NewInvalidCredentialsError()
	}
	if account.IsBanned() {
		return nil, errors.NewAccountDisabledError()
	}

	credential, err := p.credentials.GetByUserID(ctx, account.ID())
	if err != nil {
		return nil, errors.NewInternalError("failed to load credential")
	}
	if credential == nil {
		return nil, errors.NewInvalidCredentialsError()
	}

	if credential.IsLocked() {
		return nil, errors.NewAccountLockedError()
	}

	if err := credential.VerifyPassword(password, p.hasher); err != nil {
		if recErr := p.credentials.RecordFailedLogin(ctx, account.ID(), p.policy); recErr != nil {
			p.logger.Errorw("failed to record failed login", "error", recErr, "user_sid", account.SID())
		}
		return nil, errors.NewInvalidCredentialsError()
	}

	// only after the password check, so it does not leak account existence
	if p.policy.RequireEmailVerification && !account.IsEmailVerified() {
		return nil, errors.NewEmailNotVerifiedError()
	}

	credential.ResetFailedLogins()
	if err := p.credentials.Update(ctx, credential); err != nil {
		p.logger.Errorw("failed to reset failed logins", "error", err, "user_sid", account.SID())
	}

	tokens, err := p.openSession(ctx, account)
	if err != nil {
		return nil, err
	}

	p.logger.Infow("user signed in", "user_sid", account.SID())
	return &AuthResult{User: account, Tokens: tokens}, nil
}

// SignOut retires the session behind the refresh token. Unknown or malformed
// tokens are swallowed; signing out twice is not an error.
func (p *LocalProvider) SignOut(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	session, err := p.sessions.GetByRefreshTokenHash(ctx, vo.HashToken(refreshToken))
	if err != nil {
		p.logger.Warnw("sign-out session lookup failed", "error", err)
		return nil
	}
	if session == nil || !session.Active {
		return nil
	}

	if _, err := p.sessions.Retire(ctx, session.ID); err != nil {
		p.logger.Warnw("failed to retire session on sign-out", "error", err, "session_id", session.ID)
	}
	return nil
}

func (p *LocalProvider) VerifyToken(ctx context.Context, accessToken string) (*TokenIdentity, error) {
	claims, err := p.issuer.VerifyAccessToken(accessToken, constants.ProviderLocal)
	if err != nil {
		switch err {
		case infraauth.ErrTokenExpired:
			return nil, errors.NewTokenExpiredError("access token")
		default:
			return nil, errors.NewTokenInvalidError("access token")
		}
	}

	account, err := p.users.GetBySID(ctx, claims.Subject)
	if err != nil {
		return nil, errors.NewInternalError("failed to look up token subject")
	}
	if account == nil {
		return nil, errors.NewTokenInvalidError("access token")
	}
	if account.IsBanned() {
		return nil, errors.NewAccountDisabledError()
	}

	return &TokenIdentity{User: account, Provider: constants.ProviderLocal}, nil
}

func (p *LocalProvider) RefreshSession(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if refreshToken == "" {
		return nil, errors.NewTokenInvalidError("refresh token")
	}

	session, err := p.sessions.GetByRefreshTokenHash(ctx, vo.HashToken(refreshToken))
	if err != nil {
		return nil, errors.NewInternalError("failed to look up session")
	}
	if session == nil || !session.Active {
		return nil, errors.NewTokenInvalidError("refresh token")
	}

	if session.IsExpired() {
		if _, err := p.sessions.Retire(ctx, session.ID); err != nil {
			p.logger.Warnw("failed to retire expired session", "error", err, "session_id", session.ID)
		}
		return nil, errors.NewTokenExpiredError("refresh token")
	}

	account, err := p.users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, errors.NewInternalError("failed to load session owner")
	}
	if account == nil {
		return nil, errors.NewTokenInvalidError("refresh token")
	}
	if account.IsBanned() {
		return nil, errors.NewAccountDisabledError()
	}

	var tokens *TokenBundle
	err = p.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		retired, err := p.sessions.Retire(txCtx, session.ID)
		if err != nil {
			return err
		}
		if !retired {
			// a concurrent refresh already rotated this session
			return errors.NewTokenInvalidError("refresh token")
		}

		tokens, err = p.openSession(txCtx, account)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: account, Tokens: tokens}, nil
}

// ResetPasswordRequest always reports success so the endpoint cannot be used
// to enumerate accounts.
func (p *LocalProvider) ResetPasswordRequest(ctx context.Context, emailAddr string) error {
	account, err := p.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		p.logger.Errorw("reset request lookup failed", "error", err)
		return nil
	}
	if account == nil {
		return nil
	}

	if err := p.tokens.DeleteByUserID(ctx, user.TokenPurposeReset, account.ID()); err != nil {
		p.logger.Warnw("failed to drop stale reset tokens", "error", err, "user_sid", account.SID())
	}

	oneShot, plain, err := user.IssueOneShotToken(account.ID(), user.TokenPurposeReset, p.tokenTTL.Reset)
	if err != nil {
		p.logger.Errorw("failed to issue reset token", "error", err, "user_sid", account.SID())
		return nil
	}
	if err := p.tokens.Create(ctx, oneShot); err != nil {
		p.logger.Errorw("failed to persist reset token", "error", err, "user_sid", account.SID())
		return nil
	}

	address, name, value := account.Email().String(), account.Name().String(), plain.Value()
	p.sendMailAsync("password reset email", account.SID(), func() error {
		return p.mailer.SendPasswordResetEmail(address, name, value)
	})
	return nil
}

func (p *LocalProvider) ResetPassword(ctx context.Context, token, newPassword string) error {
	if _, err := vo.NewPassword(newPassword); err != nil {
		return errors.NewValidationError(err.Error())
	}

	return p.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		oneShot, err := p.tokens.Consume(txCtx, user.TokenPurposeReset, vo.HashToken(token))
		if err != nil {
			return errors.NewInternalError("failed to consume reset token")
		}
		if oneShot == nil || oneShot.IsExpired() {
			return errors.NewTokenInvalidError("reset token")
		}

		credential, err := p.credentials.GetByUserID(txCtx, oneShot.UserID)
		if err != nil || credential == nil {
			return errors.NewTokenInvalidError("reset token")
		}

		if err := credential.ReplacePassword(newPassword, p.hasher); err != nil {
			return errors.NewValidationError(err.Error())
		}
		if err := p.credentials.Update(txCtx, credential); err != nil {
			return err
		}

		// force re-login everywhere
		if err := p.sessions.DeactivateByUserID(txCtx, oneShot.UserID); err != nil {
			return err
		}

		p.logger.Infow("password reset completed", "user_id", oneShot.UserID)
		return nil
	})
}

func (p *LocalProvider) ChangePassword(ctx context.Context, userSID, currentPassword, newPassword string) error {
	if _, err := vo.NewPassword(newPassword); err != nil {
		return errors.NewValidationError(err.Error())
	}

	account, err := p.users.GetBySID(ctx, userSID)
	if err != nil {
		return errors.NewInternalError("failed to look up account")
	}
	if account == nil {
		return errors.NewNotFoundError("user not found")
	}

	credential, err := p.credentials.GetByUserID(ctx, account.ID())
	if err != nil || credential == nil {
		return errors.NewInvalidCredentialsError()
	}

	if err := credential.VerifyPassword(currentPassword, p.hasher); err != nil {
		return errors.NewInvalidCredentialsError()
	}

	if err := credential.ReplacePassword(newPassword, p.hasher); err != nil {
		return errors.NewValidationError(err.Error())
	}
	if err := p.credentials.Update(ctx, credential); err != nil {
		return errors.NewInternalError("failed to update password")
	}

	address, name := account.Email().String(), account.Name().String()
	p.sendMailAsync("password changed email", account.SID(), func() error {
		return p.mailer.SendPasswordChangedEmail(address, name)
	})

	p.logger.Infow("password changed", "user_sid", account.SID())
	return nil
}

func (p *LocalProvider) VerifyEmail(ctx context.Context, token string) error {
	return p.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		oneShot, err := p.tokens.Consume(txCtx, user.TokenPurposeVerify, vo.HashToken(token))
		if err != nil {
			return errors.NewInternalError("failed to consume verification token")
		}
		if oneShot == nil || oneShot.IsExpired() {
			return errors.NewTokenInvalidError("verification token")
		}

		account, err := p.users.GetByID(txCtx, oneShot.UserID)
		if err != nil || account == nil {
			return errors.NewTokenInvalidError("verification token")
		}

		account.MarkEmailVerified()
		if err := p.users.Update(txCtx, account); err != nil {
			return err
		}

		p.logger.Infow("email verified", "user_sid", account.SID())
		return nil
	})
}

func (p *LocalProvider) ResendVerificationEmail(ctx context.Context, emailAddr string) error {
	account, err := p.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		p.logger.Errorw("resend verification lookup failed", "error", err)
		return nil
	}
	if account == nil {
		// silent, no enumeration
		return nil
	}
	if account.IsEmailVerified() {
		return errors.NewConflictError("email is already verified")
	}

	if err := p.tokens.DeleteByUserID(ctx, user.TokenPurposeVerify, account.ID()); err != nil {
		p.logger.Warnw("failed to drop stale verification tokens", "error", err, "user_sid", account.SID())
	}

	oneShot, plain, err := user.IssueOneShotToken(account.ID(), user.TokenPurposeVerify, p.tokenTTL.Verification)
	if err != nil {
		return errors.NewInternalError("failed to issue verification token")
	}
	if err := p.tokens.Create(ctx, oneShot); err != nil {
		return errors.NewInternalError("failed to persist verification token")
	}

	address, name, value := account.Email().String(), account.Name().String(), plain.Value()
	p.sendMailAsync("verification email", account.SID(), func() error {
		return p.mailer.SendVerificationEmail(address, name, value)
	})
	return nil
}

func (p *LocalProvider) GetUser(ctx context.Context, userSID string) (*user.User, error) {
	account, err := p.users.GetBySID(ctx, userSID)
	if err != nil {
		return nil, errors.NewInternalError("failed to look up user")
	}
	if account == nil {
		return nil, errors.NewNotFoundError("user not found")
	}
	return account, nil
}

func (p *LocalProvider) GetUserByEmail(ctx context.Context, emailAddr string) (*user.User, error) {
	account, err := p.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		return nil, errors.NewInternalError("failed to look up user")
	}
	if account == nil {
		return nil, errors.NewNotFoundError("user not found")
	}
	return account, nil
}

func (p *LocalProvider) UpdateUser(ctx context.Context, userSID string, input UpdateUserInput) (*user.User, error) {
	account, err := p.GetUser(ctx, userSID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		nameVO, err := vo.NewName(*input.Name)
		if err != nil {
			return nil, errors.NewValidationError(err.Error())
		}
		if err := account.UpdateName(nameVO); err != nil {
			return nil, errors.NewValidationError(err.Error())
		}
	}
	if input.AvatarURL != nil {
		account.UpdateAvatarURL(*input.AvatarURL)
	}

	if err := p.users.Update(ctx, account); err != nil {
		return nil, errors.NewInternalError("failed to update user")
	}
	return account, nil
}

func (p *LocalProvider) DeleteUser(ctx context.Context, userSID string) error {
	account, err := p.GetUser(ctx, userSID)
	if err != nil {
		return err
	}

	return p.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := p.sessions.DeleteByUserID(txCtx, account.ID()); err != nil {
			return err
		}
		if err := p.credentials.Delete(txCtx, account.ID()); err != nil {
			return err
		}
		if err := p.tokens.DeleteByUserID(txCtx, user.TokenPurposeReset, account.ID()); err != nil {
			return err
		}
		if err := p.tokens.DeleteByUserID(txCtx, user.TokenPurposeVerify, account.ID()); err != nil {
			return err
		}
		if err := p.oauthLinks.DeleteByUserID(txCtx, account.ID()); err != nil {
			return err
		}
		if err := p.users.Delete(txCtx, account.ID()); err != nil {
			return err
		}

		p.logger.Infow("user deleted", "user_sid", account.SID())
		return nil
	})
}

func (p *LocalProvider) GetOAuthURL(ctx context.Context, provider constants.Provider, redirectURI string) (string, string, error) {
	client, err := p.oauthManager.ClientFor(provider)
	if err != nil {
		return "", "", err
	}

	stateToken, err := vo.GenerateToken()
	if err != nil {
		return "", "", errors.NewInternalError("failed to generate state")
	}
	state := stateToken.Value()

	authURL, codeVerifier, err := client.GetAuthURL(state, redirectURI)
	if err != nil {
		return "", "", errors.NewOAuthError(string(provider), "authorization")
	}

	err = p.stateStore.Save(ctx, state, cache.OAuthStateInfo{
		Provider:     provider,
		CodeVerifier: codeVerifier,
		RedirectURI:  redirectURI,
	})
	if err != nil {
		return "", "", errors.NewInternalError("failed to persist oauth state")
	}

	return authURL, state, nil
}

func (p *LocalProvider) HandleOAuthCallback(ctx context.Context, provider constants.Provider, code, state string) (*AuthResult, error) {
	client, err := p.oauthManager.ClientFor(provider)
	if err != nil {
		return nil, err
	}

	stateInfo, err := p.stateStore.Consume(ctx, state)
	if err != nil {
		return nil, errors.NewOAuthError(string(provider), "state verification")
	}
	if stateInfo.Provider != provider {
		return nil, errors.NewOAuthError(string(provider), "state verification", "state was issued for a different provider")
	}

	tokens, err := client.ExchangeCode(ctx, code, stateInfo.RedirectURI, stateInfo.CodeVerifier)
	if err != nil {
		return nil, errors.NewOAuthError(string(provider), "code exchange")
	}

	userInfo, err := client.GetUserInfo(ctx, tokens)
	if err != nil {
		return nil, errors.NewOAuthError(string(provider), "user info")
	}
	if userInfo.Email == "" {
		return nil, errors.NewOAuthError(string(provider), "user info", "provider returned no email address")
	}

	return p.completeOAuthSignIn(ctx, provider, userInfo)
}

// completeOAuthSignIn links or creates the local user for a federated
// identity and opens a session.
func (p *LocalProvider) completeOAuthSignIn(ctx context.Context, provider constants.Provider, info *infraauth.OAuthUserInfo) (*AuthResult, error) {
	link, err := p.oauthLinks.GetByProviderAndUserID(ctx, provider, info.ProviderID)
	if err != nil {
		return nil, errors.NewInternalError("failed to look up oauth link")
	}

	rawInfo := marshalRawUserInfo(info)

	var account *user.User
	var tokens *TokenBundle

	err = p.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		if link != nil {
			account, err = p.users.GetByID(txCtx, link.UserID)
			if err != nil || account == nil {
				return errors.NewInternalError("oauth link points at missing user")
			}

			link.RecordLogin()
			link.ProviderEmail = info.Email
			link.ProviderAvatarURL = info.Picture
			link.RawUserInfo = rawInfo
			if err := p.oauthLinks.Update(txCtx, link); err != nil {
				return err
			}
		} else {
			account, err = p.users.GetByEmail(txCtx, info.Email)
			if err != nil {
				return errors.NewInternalError("failed to look up account")
			}

			if account == nil {
				emailVO, err := vo.NewEmail(info.Email)
				if err != nil {
					return errors.NewOAuthError(string(provider), "user info", "invalid email from provider")
				}
				var nameVO *vo.Name
				if info.Name != "" {
					nameVO, _ = vo.NewName(info.Name)
				}

				account, err = user.NewUser(emailVO, nameVO)
				if err != nil {
					return errors.NewInternalError("failed to build user")
				}
				if info.EmailVerified {
					account.MarkEmailVerified()
				}
				if info.Picture != "" {
					account.UpdateAvatarURL(info.Picture)
				}
				if err := p.users.Create(txCtx, account); err != nil {
					return err
				}
			}

			newLink, err := user.NewOAuthAccount(account.ID(), provider, info.ProviderID, info.Email)
			if err != nil {
				return err
			}
			newLink.ProviderAvatarURL = info.Picture
			newLink.RawUserInfo = rawInfo
			if err := p.oauthLinks.Create(txCtx, newLink); err != nil {
				return err
			}
		}

		if account.IsBanned() {
			return errors.NewAccountDisabledError()
		}

		tokens, err = p.openSession(txCtx, account)
		return err
	})
	if err != nil {
		return nil, err
	}

	p.logger.Infow("oauth sign-in completed", "provider", provider, "user_sid", account.SID())
	return &AuthResult{User: account, Tokens: tokens}, nil
}

// openSession issues a refresh token, persists the session row and mints the
// access token.
func (p *LocalProvider) openSession(ctx context.Context, account *user.User) (*TokenBundle, error) {
	refreshToken, err := p.issuer.NewRefreshToken()
	if err != nil {
		return nil, errors.NewInternalError("failed to generate refresh token")
	}

	session, err := user.NewSession(account.ID(), refreshToken.Hash(), p.policy.SessionDuration())
	if err != nil {
		return nil, errors.NewInternalError("failed to build session")
	}
	if err := p.sessions.Create(ctx, session); err != nil {
		return nil, errors.NewInternalError("failed to persist session")
	}

	accessToken, expiresIn, err := p.issuer.IssueAccessToken(account.SID(), account.Email().String(), constants.ProviderLocal)
	if err != nil {
		return nil, errors.NewInternalError("failed to issue access token")
	}

	return &TokenBundle{
		AccessToken:  accessToken,
		RefreshToken: refreshToken.Value(),
		ExpiresIn:    expiresIn,
		SessionID:    session.ID,
	}, nil
}

// sendMailAsync delivers mail off the request path. Delivery failures are
// logged, never surfaced to the caller.
func (p *LocalProvider) sendMailAsync(kind, userSID string, send func() error) {
	goroutine.SafeGo(p.logger, "mail:"+kind, func() {
		if err := send(); err != nil {
			p.logger.Warnw("failed to send "+kind, "error", err, "user_sid", userSID)
		}
	})
}

func marshalRawUserInfo(info *infraauth.OAuthUserInfo) *string {
	data, err := json.Marshal(info)
	if err != nil {
		return nil
	}
	s := string(data)
	if s == "" || s == "null" {
		return nil
	}
	return &s
}

var _ AuthProvider = (*LocalProvider)(nil)
