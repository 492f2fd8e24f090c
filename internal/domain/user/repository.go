package user

import (
	"context"

	"atrium/internal/shared/constants"
)

// Repository defines the interface for user data operations. The credential
// store is the single source of truth; all methods honor a transaction
// carried in the context.
type Repository interface {
	// Create creates a new user
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by internal ID
	GetByID(ctx context.Context, id uint) (*User, error)

	// GetBySID retrieves a user by external SID
	GetBySID(ctx context.Context, sid string) (*User, error)

	// GetByEmail retrieves a user by email; returns nil without error when absent
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByExternalID retrieves a mirrored user by managed-platform user id
	GetByExternalID(ctx context.Context, externalID string) (*User, error)

	// Update updates an existing user
	Update(ctx context.Context, user *User) error

	// Delete removes a user; credentials and sessions cascade
	Delete(ctx context.Context, id uint) error

	// ExistsByEmail checks if a user exists by email
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// CredentialRepository persists the local provider's password credentials.
type CredentialRepository interface {
	Create(ctx context.Context, credential *LocalCredential) error
	GetByUserID(ctx context.Context, userID uint) (*LocalCredential, error)
	Update(ctx context.Context, credential *LocalCredential) error
	Delete(ctx context.Context, userID uint) error

	// RecordFailedLogin applies the failed-attempt increment and optional
	// lockout as one atomic UPDATE keyed by user id, so concurrent
	// bad-password attempts never lose updates.
	RecordFailedLogin(ctx context.Context, userID uint, policy *SecurityPolicy) error
}

// SessionRepository persists sessions keyed by refresh-token hash.
type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	GetByID(ctx context.Context, sessionID string) (*Session, error)
	GetByRefreshTokenHash(ctx context.Context, refreshTokenHash string) (*Session, error)
	GetActiveByUserID(ctx context.Context, userID uint) ([]*Session, error)

	// Retire deactivates a session only if it is still active, and reports
	// whether this call won. Concurrent refreshes race on this: exactly one
	// caller may rotate a given session.
	Retire(ctx context.Context, sessionID string) (bool, error)

	// DeactivateByUserID retires every session for a user (password reset,
	// account deletion).
	DeactivateByUserID(ctx context.Context, userID uint) error
	DeleteByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) error
}

// OneShotTokenRepository persists reset and verification tokens. Consume
// looks up by hash and deletes the row in one step, which is what makes the
// tokens one-shot.
type OneShotTokenRepository interface {
	Create(ctx context.Context, token *OneShotToken) error

	// Consume atomically fetches and deletes an unconsumed token by hash.
	// Returns nil when the token does not exist (or was already consumed).
	Consume(ctx context.Context, purpose TokenPurpose, tokenHash string) (*OneShotToken, error)

	// DeleteByUserID drops all outstanding tokens of a purpose for a user,
	// used when issuing a replacement token.
	DeleteByUserID(ctx context.Context, purpose TokenPurpose, userID uint) error
}

// OAuthAccountRepository persists federated identity links.
type OAuthAccountRepository interface {
	Create(ctx context.Context, account *OAuthAccount) error
	GetByProviderAndUserID(ctx context.Context, provider constants.Provider, providerUserID string) (*OAuthAccount, error)
	GetByUserID(ctx context.Context, userID uint) ([]*OAuthAccount, error)
	Update(ctx context.Context, account *OAuthAccount) error
	DeleteByUserID(ctx context.Context, userID uint) error
}
