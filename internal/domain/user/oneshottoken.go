package user

import (
	"fmt"
	"time"

	"atrium/internal/shared/biztime"

	vo "atrium/internal/domain/user/valueobjects"
)

// TokenPurpose names the two one-shot token families.
type TokenPurpose string

const (
	TokenPurposeReset  TokenPurpose = "password_reset"
	TokenPurposeVerify TokenPurpose = "email_verification"
)

// OneShotToken is a single-purpose, time-boxed token keyed to a user.
// It is valid for exactly one successful consumption; repositories delete
// the row on consume so a second use fails with an invalid-token error.
type OneShotToken struct {
	ID        uint
	UserID    uint
	Purpose   TokenPurpose
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IssueOneShotToken generates a fresh token for the user. The returned Token
// carries the plain value for delivery; only the hash is persisted.
func IssueOneShotToken(userID uint, purpose TokenPurpose, ttl time.Duration) (*OneShotToken, *vo.Token, error) {
	if userID == 0 {
		return nil, nil, fmt.Errorf("user ID is required")
	}
	if ttl <= 0 {
		return nil, nil, fmt.Errorf("token TTL must be positive")
	}

	token, err := vo.GenerateToken()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate token: %w", err)
	}

	now := biztime.NowUTC()
	return &OneShotToken{
		UserID:    userID,
		Purpose:   purpose,
		TokenHash: token.Hash(),
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}, token, nil
}

func (t *OneShotToken) IsExpired() bool {
	return biztime.NowUTC().After(t.ExpiresAt)
}
