package user

import (
	"fmt"
	"time"

	"atrium/internal/shared/biztime"
)

// PasswordHasher hashes and verifies passwords. The hash output is
// self-describing so cost parameters can change without invalidating
// existing hashes.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) error
}

// LocalCredential is the 1:1 companion of a User for the local provider:
// password hash plus the failed-attempt counter and lockout window.
type LocalCredential struct {
	UserID               uint
	PasswordHash         string
	FailedLoginAttempts  int
	LockedUntil          *time.Time
	LastPasswordChangeAt *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// NewLocalCredential hashes the password and builds the credential row for a
// fresh sign-up.
func NewLocalCredential(userID uint, password string, hasher PasswordHasher) (*LocalCredential, error) {
	hash, err := hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := biztime.NowUTC()
	return &LocalCredential{
		UserID:       userID,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// VerifyPassword checks the plain password against the stored hash. It does
// not mutate the failed-attempt counter; callers record the outcome through
// RecordFailedLogin / ResetFailedLogins so the storage update stays atomic.
func (c *LocalCredential) VerifyPassword(plainPassword string, hasher PasswordHasher) error {
	if c.PasswordHash == "" {
		return fmt.Errorf("no password set")
	}
	if err := hasher.Verify(plainPassword, c.PasswordHash); err != nil {
		return fmt.Errorf("invalid password")
	}
	return nil
}

// RecordFailedLogin increments the failed-attempt counter and sets the
// lockout window once the policy threshold is reached.
func (c *LocalCredential) RecordFailedLogin(policy *SecurityPolicy) {
	c.FailedLoginAttempts++
	c.UpdatedAt = biztime.NowUTC()

	if c.FailedLoginAttempts >= policy.LockoutThreshold {
		lockedUntil := biztime.NowUTC().Add(policy.LockoutDuration())
		c.LockedUntil = &lockedUntil
	}
}

// ResetFailedLogins clears the counter and any lockout after a successful
// sign-in or password reset.
func (c *LocalCredential) ResetFailedLogins() {
	if c.FailedLoginAttempts > 0 || c.LockedUntil != nil {
		c.FailedLoginAttempts = 0
		c.LockedUntil = nil
		c.UpdatedAt = biztime.NowUTC()
	}
}

// IsLocked reports whether the lockout window is still in effect.
func (c *LocalCredential) IsLocked() bool {
	if c.LockedUntil == nil {
		return false
	}
	return biztime.NowUTC().Before(*c.LockedUntil)
}

// ReplacePassword swaps in a new password hash (reset or change flow) and
// clears lockout state.
func (c *LocalCredential) ReplacePassword(password string, hasher PasswordHasher) error {
	hash, err := hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	now := biztime.NowUTC()
	c.PasswordHash = hash
	c.LastPasswordChangeAt = &now
	c.FailedLoginAttempts = 0
	c.LockedUntil = nil
	c.UpdatedAt = now
	return nil
}
