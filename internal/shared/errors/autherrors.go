package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Authentication-specific error types. This is a closed taxonomy: every
// failure surfaced by an auth provider maps onto exactly one of these kinds.
const (
	ErrorTypeInvalidCredentials ErrorType = "invalid_credentials"
	ErrorTypeAccountLocked      ErrorType = "account_locked"
	ErrorTypeAccountDisabled    ErrorType = "account_disabled"
	ErrorTypeEmailNotVerified   ErrorType = "email_not_verified"
	ErrorTypeUserExists         ErrorType = "user_already_exists"
	ErrorTypeTokenExpired       ErrorType = "token_expired"
	ErrorTypeTokenInvalid       ErrorType = "token_invalid"
	ErrorTypeOAuthError         ErrorType = "oauth_error"
	ErrorTypeOAuthMisconfigured ErrorType = "oauth_misconfigured"
	ErrorTypeProviderError      ErrorType = "provider_error"
)

// AuthError represents authentication-specific errors with enhanced security context
type AuthError struct {
	*AppError
	// ShouldLog determines if this error should be logged
	// Some auth errors (like invalid credentials) may be expected and don't need error-level logging
	ShouldLog bool
	// SecurityEvent indicates if this should be tracked as a security event
	SecurityEvent bool
}

// Error implements the error interface
func (e *AuthError) Error() string {
	return e.AppError.Error()
}

// Unwrap allows errors.Is and errors.As to work correctly
func (e *AuthError) Unwrap() error {
	return e.AppError
}

// NewInvalidCredentialsError creates an error for invalid login credentials.
// This error must not reveal whether the email or the password was wrong.
func NewInvalidCredentialsError() *AuthError {
	return &AuthError{
		AppError: &AppError{
			Type:    ErrorTypeInvalidCredentials,
			Message: "Invalid email or password",
			Code:    http.StatusUnauthorized,
		},
		ShouldLog:     false, // Expected error, don't clutter logs
		SecurityEvent: true,  // Track for brute force detection
	}
}

// NewAccountLockedError creates an error for locked accounts
func NewAccountLockedError(details ...string) *AuthError {
	detail := "Account is temporarily locked due to too many failed login attempts"
	if len(details) > 0 {
		detail = details[0]
	}
	return &AuthError{
		AppError: &AppError{
			Type:    ErrorTypeAccountLocked,
			Message: "Account is locked",
			Code:    http.StatusForbidden,
			Details: detail,
		},
		ShouldLog:     true,
		SecurityEvent: true,
	}
}

// NewAccountDisabledError creates an error for banned or disabled accounts
func NewAccountDisabledError(details ...string) *AuthError {
	detail := "Account has been disabled. Please contact support"
	if len(details) > 0 {
		detail = details[0]
	}
	return &AuthError{
		AppError: &AppError{
			Type:    ErrorTypeAccountDisabled,
			Message: "Account is disabled",
			Code:    http.StatusForbidden,
			Details: detail,
		},
		ShouldLog:     true,
		SecurityEvent: true,
	}
}

// NewEmailNotVerifiedError creates an error for sign-in attempts on accounts
// whose email address has not been verified yet. Callers must only surface
// this after password verification succeeded, so it does not leak whether
// an account exists.
func NewEmailNotVerifiedError() *AuthError {
	return &AuthError{
		AppError: &AppError{
			Type:    ErrorTypeEmailNotVerified,
			Message: "Email address is not verified",
			Code:    http.StatusForbidden,
			Details: "Please verify your email address before signing in",
		},
		ShouldLog:     false, // Expected state
		SecurityEvent: false,
	}
}

// NewUserExistsError creates an error for duplicate sign-up attempts
func NewUserExistsError() *AuthError {
	return &AuthError{
		AppError: &AppError{
			Type:    ErrorTypeUserExists,
			Message: "User already exists",
			Code:    http.StatusConflict,
			Details: "An account with this email address already exists",
		},
		ShouldLog:     false,
		SecurityEvent: false,
	}
}

// NewTokenExpiredError creates an error for expired tokens (access, refresh, reset, verification)
func NewTokenExpiredError(tokenType string) *AuthError {
	return &AuthError{
		AppError: &AppError{
			Type:    ErrorTypeTokenExpired,
			Message: fmt.Sprintf("%s has expired", tokenType),
			Code:    http.StatusUnauthorized,
			Details: "Please login again",
		},
		ShouldLog:     false, // Normal expiration
		SecurityEvent: false,
	}
}

// NewTokenInvalidError creates an error for invalid tokens
func NewTokenInvalidError(tokenType string) *AuthError {
	return &AuthError{
		AppError: &AppError{
			Type:    ErrorTypeTokenInvalid,
			Message: fmt.Sprintf("Invalid %s", tokenType),
			Code:    http.StatusUnauthorized,
			Details: "Token is invalid or has been revoked",
		},
		ShouldLog:     true, // May indicate tampering
		SecurityEvent: true,
	}
}

// NewOAuthError creates an error for an upstream OAuth provider rejection
// (bad authorization code, denied consent, provider outage).
func NewOAuthError(provider string, stage string, details ...string) *AuthError {
	detail := fmt.Sprintf("OAuth authentication failed at %s stage", stage)
	if len(details) > 0 {
		detail = details[0]
	}
	return &AuthError{
		AppError: &AppError{
			Type:    ErrorTypeOAuthError,
			Message: fmt.Sprintf("OAuth authentication failed with %s", provider),
			Code:    http.StatusBadGateway,
			Details: detail,
		},
		ShouldLog:     true, // External service issues should be logged
		SecurityEvent: false,
	}
}

// NewOAuthMisconfiguredError creates an error for a locally misconfigured
// OAuth adapter (missing client credentials or keys). Distinct from
// NewOAuthError so operators can tell their own config apart from upstream
// rejections.
func NewOAuthMisconfiguredError(provider string, details ...string) *AuthError {
	detail := fmt.Sprintf("%s OAuth client is not configured", provider)
	if len(details) > 0 {
		detail = details[0]
	}
	return &AuthError{
		AppError: &AppError{
			Type:    ErrorTypeOAuthMisconfigured,
			Message: fmt.Sprintf("OAuth provider %s is not available", provider),
			Code:    http.StatusBadGateway,
			Details: detail,
		},
		ShouldLog:     true,
		SecurityEvent: false,
	}
}

// NewProviderError creates a generic error for unmapped provider-internal
// failures. Storage errors are wrapped into this kind so they never leak
// verbatim to callers.
func NewProviderError(details ...string) *AuthError {
	detail := ""
	if len(details) > 0 {
		detail = details[0]
	}
	return &AuthError{
		AppError: &AppError{
			Type:    ErrorTypeProviderError,
			Message: "Authentication provider error",
			Code:    http.StatusInternalServerError,
			Details: detail,
		},
		ShouldLog:     true,
		SecurityEvent: false,
	}
}

// IsAuthError checks if the error is an AuthError (supports wrapped errors via errors.As)
func IsAuthError(err error) bool {
	var authErr *AuthError
	return stderrors.As(err, &authErr)
}

// GetAuthError extracts AuthError from error chain (supports wrapped errors via errors.As)
func GetAuthError(err error) *AuthError {
	var authErr *AuthError
	if stderrors.As(err, &authErr) {
		return authErr
	}
	return nil
}

// IsAuthErrorType reports whether err carries an AuthError of the given kind.
func IsAuthErrorType(err error, t ErrorType) bool {
	authErr := GetAuthError(err)
	return authErr != nil && authErr.Type == t
}

// ShouldLogAuthError returns true if the authentication error should be logged
// This helps reduce noise in logs from expected auth failures
func ShouldLogAuthError(err error) bool {
	if authErr := GetAuthError(err); authErr != nil {
		return authErr.ShouldLog
	}
	return true // Default to logging if not an AuthError
}

// IsSecurityEvent returns true if the error should be tracked as a security event
func IsSecurityEvent(err error) bool {
	if authErr := GetAuthError(err); authErr != nil {
		return authErr.SecurityEvent
	}
	return false
}
