// Package auth implements the provider-polymorphic authentication layer.
// Every provider satisfies one capability contract; callers depend on the
// contract and the normalized User/Session shapes, never on provider
// internals.
package auth

import (
	"context"

	"atrium/internal/domain/user"
	"atrium/internal/shared/constants"
)

// TokenBundle is the pair issued on every successful authentication.
// AccessToken is a short-lived JWT; RefreshToken is an opaque value whose
// hash identifies exactly one active session row.
type TokenBundle struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
	SessionID    string
}

// AuthResult is the outcome of sign-up, sign-in, refresh and OAuth callback.
type AuthResult struct {
	User   *user.User
	Tokens *TokenBundle
}

// UpdateUserInput carries the mutable profile fields.
type UpdateUserInput struct {
	Name      *string
	AvatarURL *string
}

// TokenIdentity is what a verified access token asserts about its bearer.
type TokenIdentity struct {
	User     *user.User
	Provider constants.Provider
}

// AuthProvider is the capability contract every provider implements.
type AuthProvider interface {
	Provider() constants.Provider

	SignUp(ctx context.Context, email, password, name string) (*AuthResult, error)
	SignIn(ctx context.Context, email, password string) (*AuthResult, error)
	// SignOut is idempotent: unknown or malformed tokens are not an error.
	SignOut(ctx context.Context, refreshToken string) error
	VerifyToken(ctx context.Context, accessToken string) (*TokenIdentity, error)
	RefreshSession(ctx context.Context, refreshToken string) (*AuthResult, error)

	ResetPasswordRequest(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	ChangePassword(ctx context.Context, userSID, currentPassword, newPassword string) error
	VerifyEmail(ctx context.Context, token string) error
	ResendVerificationEmail(ctx context.Context, email string) error

	GetUser(ctx context.Context, userSID string) (*user.User, error)
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)
	UpdateUser(ctx context.Context, userSID string, input UpdateUserInput) (*user.User, error)
	DeleteUser(ctx context.Context, userSID string) error

	GetOAuthURL(ctx context.Context, provider constants.Provider, redirectURI string) (authURL, state string, err error)
	HandleOAuthCallback(ctx context.Context, provider constants.Provider, code, state string) (*AuthResult, error)
}
