package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"atrium/internal/domain/user"
	infraauth "atrium/internal/infrastructure/auth"
	"atrium/internal/infrastructure/persistence/models"
	"atrium/internal/infrastructure/repository"
	"atrium/internal/shared/db"
	"atrium/internal/shared/errors"
	"atrium/internal/shared/logger"
)

// =====================================================================
// Test fixtures
// =====================================================================

type sentMail struct {
	kind  string
	to    string
	token string
}

// recordingMailer captures outgoing mail on a channel so tests can wait for
// the async delivery goroutine.
type recordingMailer struct {
	ch chan sentMail
}

func newRecordingMailer() *recordingMailer {
	return &recordingMailer{ch: make(chan sentMail, 16)}
}

func (m *recordingMailer) SendVerificationEmail(to, name, token string) error {
	m.ch <- sentMail{kind: "verification", to: to, token: token}
	return nil
}

func (m *recordingMailer) SendPasswordResetEmail(to, name, token string) error {
	m.ch <- sentMail{kind: "reset", to: to, token: token}
	return nil
}

func (m *recordingMailer) SendPasswordChangedEmail(to, name string) error {
	m.ch <- sentMail{kind: "changed", to: to}
	return nil
}

func (m *recordingMailer) wait(t *testing.T, kind string) sentMail {
	t.Helper()
	for {
		select {
		case mail := <-m.ch:
			if mail.kind == kind {
				return mail
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %s email", kind)
			return sentMail{}
		}
	}
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, gdb.AutoMigrate(
		&models.UserModel{},
		&models.LocalCredentialModel{},
		&models.SessionModel{},
		&models.PasswordResetTokenModel{},
		&models.EmailVerificationTokenModel{},
		&models.OAuthAccountModel{},
		&models.AuthSettingModel{},
	))
	return gdb
}

type localFixture struct {
	provider *LocalProvider
	mailer   *recordingMailer
	gdb      *gorm.DB
}

func newLocalFixture(t *testing.T, policy *user.SecurityPolicy) *localFixture {
	t.Helper()
	gdb := setupTestDB(t)
	log := logger.NewLogger()
	mailer := newRecordingMailer()

	provider := NewLocalProvider(LocalProviderDeps{
		Users:       repository.NewUserRepository(gdb, log),
		Credentials: repository.NewCredentialRepository(gdb, log),
		Sessions:    repository.NewSessionRepository(gdb, log),
		Tokens:      repository.NewOneShotTokenRepository(gdb, log),
		OAuthLinks:  repository.NewOAuthAccountRepository(gdb, log),
		Hasher:      infraauth.NewArgon2idHasher(8*1024, 1, 1),
		Issuer:      infraauth.NewTokenIssuer("test-secret", 15),
		TxManager:   db.NewTransactionManager(gdb),
		Mailer:      mailer,
		Policy:      policy,
		Logger:      log,
	})

	return &localFixture{provider: provider, mailer: mailer, gdb: gdb}
}

func relaxedPolicy() *user.SecurityPolicy {
	return &user.SecurityPolicy{
		RequireEmailVerification: false,
		LockoutThreshold:         3,
		LockoutDurationMinutes:   15,
		SessionDurationHours:     24,
	}
}

func strictPolicy() *user.SecurityPolicy {
	p := relaxedPolicy()
	p.RequireEmailVerification = true
	return p
}

// =====================================================================
// Sign-up
// =====================================================================

func TestLocalProviderSignUp(t *testing.T) {
	f := newLocalFixture(t, relaxedPolicy())
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		result, err := f.provider.SignUp(ctx, "alice@example.com", "password1", "Alice")
		require.NoError(t, err)

		assert.Equal(t, "alice@example.com", result.User.Email().String())
		assert.Equal(t, "Alice", result.User.Name().String())
		assert.NotEmpty(t, result.Tokens.AccessToken)
		assert.NotEmpty(t, result.Tokens.RefreshToken)
		assert.NotEmpty(t, result.Tokens.SessionID)
	})

	t.Run("name defaults to email local part", func(t *testing.T) {
		result, err := f.provider.SignUp(ctx, "bob.jones@example.com", "password1", "")
		require.NoError(t, err)
		assert.Equal(t, "bob.jones", result.User.Name().String())
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		_, err := f.provider.SignUp(ctx, "alice@example.com", "password1", "")
		assert.True(t, errors.IsAuthErrorType(err, errors.ErrorTypeUserExists))
	})

	t.Run("weak password rejected without creating the user", func(t *testing.T) {
		_, err := f.provider.SignUp(ctx, "carol@example.com", "short", "")
		assert.True(t, errors.IsValidationError(err))

		_, err = f.provider.GetUserByEmail(ctx, "carol@example.com")
		assert.Error(t, err)
	})

	t.Run("invalid email rejected", func(t *testing.T) {
		_, err := f.provider.SignUp(ctx, "not-an-email", "password1", "")
		assert.True(t, errors.IsValidationError(err))
	})
}

func TestLocalProviderSignUpSendsVerificationEmail(t *testing.T) {
	f := newLocalFixture(t, strictPolicy())
	ctx := context.Background()

	_, err := f.provider.SignUp(ctx, "alice@example.com", "password1", "Alice")
	require.NoError(t, err)

	mail := f.mailer.wait(t, "verification")
	assert.Equal(t, "alice@example.com", mail.to)
	assert.NotEmpty(t, mail.token)
}

// =====================================================================
// Sign-in
// =====================================================================

func TestLocalProviderSignIn(t *testing.T) {
	f := newLocalFixture(t, relaxedPolicy())
	ctx := context.Background()

	_, err := f.provider.SignUp(ctx, "alice@example.com", "password1", "Alice")
	require.NoError(t, err)

	t.Run("correct password", func(t *testing.T) {
		result, err := f.provider.SignIn(ctx, "alice@example.com", "password1")
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", result.User.Email().String())
		assert.NotEmpty(t, result.Tokens.RefreshToken)
	})

	t.Run("unknown email and wrong password are indistinguishable", func(t *testing.T) {
		_, errUnknown := f.provider.SignIn(ctx, "ghost@example.com", "password1")
		_, errWrong := f.provider.SignIn(ctx, "alice@example.com", "wrongpass1")

		assert.True(t, errors.IsAuthErrorType(errUnknown, errors.ErrorTypeInvalidCredentials))
		assert.True(t, errors.IsAuthErrorType(errWrong, errors.ErrorTypeInvalidCredentials))
		assert.Equal(t, errUnknown.Error(), errWrong.Error())
	})
}

func TestLocalProviderLockout(t *testing.T) {
	f := newLocalFixture(t, relaxedPolicy()) // threshold 3
	ctx := context.Background()

	_, err := f.provider.SignUp(ctx, "alice@example.com", "password1", "Alice")
	require.NoError(t, err)

	// two failures stay under the threshold
	for i := 0; i < 2; i++ {
		_, err := f.provider.SignIn(ctx, "alice@example.com", "wrongpass1")
		assert.True(t, errors.IsAuthErrorType(err, errors.ErrorTypeInvalidCredentials))
	}

	// a correct sign-in resets the counter
	_, err = f.provider.SignIn(ctx, "alice@example.com", "password1")
	require.NoError(t, err)

	// three fresh failures trip the lockout
	for i := 0; i < 3; i++ {
		_, err := f.provider.SignIn(ctx, "alice@example.com", "wrongpass1")
		assert.True(t, errors.IsAuthErrorType(err, errors.ErrorTypeInvalidCredentials))
	}

	// locked even with the correct password
	_, err = f.provider.SignIn(ctx, "alice@example.com", "password1")
	assert.True(t, errors.IsAuthErrorType(err, errors.ErrorTypeAccountLocked))
}

// expireLockout backdates the lockout window so it has already elapsed.
func (f *localFixture) expireLockout(t *testing.T, userID uint) {
	t.Helper()
	err := f.gdb.Model(&models.LocalCredentialModel{}).
		Where("user_id = ?", userID).
		Update("locked_until", time.Now().UTC().Add(-time.Minute)).Error
	require.NoError(t, err)
}

func lockAccount(t *testing.T, f *localFixture, email string) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := f.provider.SignIn(ctx, email, "wrongpass1")
		require.True(t, errors.IsAuthErrorType(err, errors.ErrorTypeInvalidCredentials))
	}
	_, err := f.provider.SignIn(ctx, email, "password1")
	require.True(t, errors.IsAuthErrorType(err, errors.ErrorTypeAccountLocked))
}

func TestLocalProviderLockoutWindowElapses(t *testing.T) {
	t.Run("correct password recovers and resets the counter", func(t *testing.T) {
		f := newLocalFixture(t, relaxedPolicy()) // threshold 3
		ctx := context.Background()

		signUp, err := f.provider.SignUp(ctx, "alice@example.com", "password1", "Alice")
		require.NoError(t, err)
		lockAccount(t, f, "alice@example.com")

		f.expireLockout(t, signUp.User.ID())

		_, err = f.provider.SignIn(ctx, "alice@example.com", "password1")
		require.NoError(t, err)

		// the successful sign-in cleared the counter, so one more failure
		// does not re-lock
		_, err = f.provider.SignIn(ctx, "alice@example.com", "wrongpass1")
		assert.True(t, errors.IsAuthErrorType(err, errors.ErrorTypeInvalidCredentials))
		_, err = f.provider.SignIn(ctx, "alice@example.com", "password1")
		assert.NoError(t, err)
	})

	t.Run("failure with a stale counter re-locks immediately", func(t *testing.T) {
		f := newLocalFixture(t, relaxedPolicy())
		ctx := context.Background()

		signUp, err := f.provider.SignUp(ctx, "bob@example.com", "password1", "Bob")
		require.NoError(t, err)
		lockAccount(t, f, "bob@example.com")

		f.expireLockout(t, signUp.User.ID())

		// the counter was never reset, so the next failure trips the
		// threshold again
		_, err = f.provider.SignIn(ctx, "bob@example.com", "wrongpass1")
		require.True(t, errors.IsAuthErrorType(err, errors.ErrorTypeInvalidCredentials))

		_, err = f.provider.SignIn(ctx, "bob@example.com", "password1")
		assert.True(t, errors.IsAuthErrorType(err, errors.ErrorTypeAccountLocked))
	})
}

func TestLocalProviderSignInRequiresVerifiedEmail(t *testing.T) {
	f := newLocalFixture(t, strictPolicy())
	ctx := context.Background()

	_, err := f.provider.SignUp(ctx, "alice@example.com", "password1", "Alice")
	require.NoError(t, err)

	// wrong password stays invalid-credentials, not email-not-verified,
	// so the verification state leaks nothing about the password
	_, err = f.provider.SignIn(ctx, "alice@example.com", "wrongpass1")
	assert.True(t, errors.IsAuthErrorType(err, errors.ErrorTypeInvalidCredentials))

	_, err = f.provider.SignIn(ctx, "alice@example.com", "password1")
	assert.True(t, errors.IsAuthErrorType(err, errors.ErrorTypeEmailNotVerified))

	mail := f.mailer.wait(t, "verification")
	require.NoError(t, f.provider.VerifyEmail(ctx, mail.token))

	_, err = f.provider.SignIn(ctx, "alice@example.com", "password1")
	assert.NoError(t, err)
}

// =====================================================================
// Token verification and refresh
// =====================================================================

func TestLocalProviderVerifyToken(t *testing.T) {
	f := newLocalFixture(t, relaxedPolicy())
	ctx := context.Background()

	result, err := f.provider.SignUp(ctx, "alice@example.com", "password1", "Alice")
	require.NoError(t, err)

	identity, err := f.provider.VerifyToken(ctx, result.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, result.User.SID(), identity.User.SID())

	_, err = f.provider.VerifyToken(ctx, "garbage")
	assert.True(t, errors.IsAuthErrorType(err, errors.ErrorTypeTokenInvalid))
}

func TestLocalProviderRefreshRotation(t *testing.T) {
	f := newLocalFixture(t, relaxedPolicy())
	ctx := context.Background()

	signUp, err := f.provider.SignUp(ctx, "alice@example.com", "password1", "Alice")
	require.NoError(t, err)
	first := signUp.Tokens.RefreshToken

	refreshed, err := f.provider.RefreshSession(ctx, first)
	require.NoError(t, err)
	assert.NotEqual(t, first, refreshed.Tokens.RefreshToken)
	assert.NotEqual(t, signUp.Tokens.SessionID, refreshed.Tokens.SessionID)

	// the retired token must never refresh again
	_, err = f.provider.RefreshSession(ctx, first)
	assert.True(t, errors.IsAuthErrorType(err, errors.ErrorTypeTokenInvalid))

	// the rotated token still works
	_, err = f.provider.RefreshSession(ctx, refreshed.Tokens.RefreshToken)
	assert.NoError(t, err)
}

func TestLocalProviderSignOutIsIdempotent(t *testing.T) {
	f := newLocalFixture(t, relaxedPolicy())
	ctx := context.Background()

	result, err := f.provider.SignUp(ctx, "alice@example.com", "password1", "Alice")
	require.NoError(t, err)

	require.NoError(t, f.provider.SignOut(ctx, result.Tokens.RefreshToken))
	require.NoError(t, f.provider.SignOut(ctx, result.Tokens.RefreshToken))
	require.NoError(t, f.provider.SignOut(ctx, "never-issued"))
	require.NoError(t, f.provider.SignOut(ctx, ""))

	// the refresh token died with the session
	_, err = f.provider.RefreshSession(ctx, result.Tokens.RefreshToken)
	assert.True(t, errors.IsAuthErrorType(err, errors.ErrorTypeTokenInvalid))
}

// =====================================================================
// Password reset
// =====================================================================

func TestLocalProviderPasswordResetFlow(t *testing.T) {
	f := newLocalFixture(t, relaxedPolicy())
	ctx := context.Background()

	signUp, err := f.provider.SignUp(ctx, "alice@example.com", "password1", "Alice")
	require.NoError(t, err)

	require.NoError(t, f.provider.ResetPasswordRequest(ctx, "alice@example.com"))
	mail := f.mailer.wait(t, "reset")

	require.NoError(t, f.provider.ResetPassword(ctx, mail.token, "newpassword2"))

	// old password is dead, new one works
	_, err = f.provider.SignIn(ctx, "alice@example.com", "password1")
	assert.True(t, errors.IsAuthErrorType(err, errors.ErrorTypeInvalidCredentials))
	_, err = f.provider.SignIn(ctx, "alice@example.com", "newpassword2")
	assert.NoError(t, err)

	// every pre-reset session was revoked
	_, err = f.provider.RefreshSession(ctx, signUp.Tokens.RefreshToken)
	assert.True(t, errors.IsAuthErrorType(err, errors.ErrorTypeTokenInvalid))

	// the token burned on first use
	err = f.provider.ResetPassword(ctx, mail.token, "anotherpass3")
	assert.True(t, errors.IsAuthErrorType(err, errors.ErrorTypeTokenInvalid))
}

func TestLocalProviderResetRequestDoesNotLeakAccounts(t *testing.T) {
	f := newLocalFixture(t, relaxedPolicy())
	ctx := context.Background()

	assert.NoError(t, f.provider.ResetPasswordRequest(ctx, "ghost@example.com"))
}

func TestLocalProviderResetPasswordBadToken(t *testing.T) {
	f := newLocalFixture(t, relaxedPolicy())
	ctx := context.Background()

	err := f.provider.ResetPassword(ctx, "deadbeef", "newpassword2")
	assert.True(t, errors.IsAuthErrorType(err, errors.ErrorTypeTokenInvalid))

	err = f.provider.ResetPassword(ctx, "deadbeef", "short")
	assert.True(t, errors.IsValidationError(err))
}

// =====================================================================
// Change password
// =====================================================================

func TestLocalProviderChangePassword(t *testing.T) {
	f := newLocalFixture(t, relaxedPolicy())
	ctx := context.Background()

	signUp, err := f.provider.SignUp(ctx, "alice@example.com", "password1", "Alice")
	require.NoError(t, err)
	sid := signUp.User.SID()

	t.Run("wrong current password", func(t *testing.T) {
		err := f.provider.ChangePassword(ctx, sid, "wrongpass1", "newpassword2")
		assert.True(t, errors.IsAuthErrorType(err, errors.ErrorTypeInvalidCredentials))
	})

	t.Run("success", func(t *testing.T) {
		require.NoError(t, f.provider.ChangePassword(ctx, sid, "password1", "newpassword2"))
		f.mailer.wait(t, "changed")

		_, err := f.provider.SignIn(ctx, "alice@example.com", "newpassword2")
		assert.NoError(t, err)
	})

	t.Run("unknown user", func(t *testing.T) {
		err := f.provider.ChangePassword(ctx, "usr_missing", "password1", "newpassword2")
		assert.Error(t, err)
	})
}

// =====================================================================
// Email verification
// =====================================================================

func TestLocalProviderResendVerification(t *testing.T) {
	f := newLocalFixture(t, strictPolicy())
	ctx := context.Background()

	_, err := f.provider.SignUp(ctx, "alice@example.com", "password1", "Alice")
	require.NoError(t, err)
	first := f.mailer.wait(t, "verification")

	// reissue invalidates the previous token
	require.NoError(t, f.provider.ResendVerificationEmail(ctx, "alice@example.com"))
	second := f.mailer.wait(t, "verification")
	assert.NotEqual(t, first.token, second.token)

	err = f.provider.VerifyEmail(ctx, first.token)
	assert.True(t, errors.IsAuthErrorType(err, errors.ErrorTypeTokenInvalid))
	require.NoError(t, f.provider.VerifyEmail(ctx, second.token))

	// resend after verification is a conflict
	err = f.provider.ResendVerificationEmail(ctx, "alice@example.com")
	assert.Error(t, err)

	// unknown addresses are silently accepted
	assert.NoError(t, f.provider.ResendVerificationEmail(ctx, "ghost@example.com"))
}

// =====================================================================
// Profile
// =====================================================================

func TestLocalProviderUpdateAndDeleteUser(t *testing.T) {
	f := newLocalFixture(t, relaxedPolicy())
	ctx := context.Background()

	signUp, err := f.provider.SignUp(ctx, "alice@example.com", "password1", "Alice")
	require.NoError(t, err)
	sid := signUp.User.SID()

	newName := "Alice Cooper"
	avatar := "https://cdn.example.com/a.png"
	updated, err := f.provider.UpdateUser(ctx, sid, UpdateUserInput{Name: &newName, AvatarURL: &avatar})
	require.NoError(t, err)
	assert.Equal(t, "Alice Cooper", updated.Name().String())
	require.NotNil(t, updated.AvatarURL())
	assert.Equal(t, avatar, *updated.AvatarURL())

	require.NoError(t, f.provider.DeleteUser(ctx, sid))

	_, err = f.provider.GetUser(ctx, sid)
	assert.Error(t, err)
	_, err = f.provider.RefreshSession(ctx, signUp.Tokens.RefreshToken)
	assert.True(t, errors.IsAuthErrorType(err, errors.ErrorTypeTokenInvalid))
	_, err = f.provider.SignIn(ctx, "alice@example.com", "password1")
	assert.True(t, errors.IsAuthErrorType(err, errors.ErrorTypeInvalidCredentials))

	// the address frees up for a fresh registration
	again, err := f.provider.SignUp(ctx, "alice@example.com", "password1", "")
	require.NoError(t, err)
	assert.NotEqual(t, sid, again.User.SID())
}
