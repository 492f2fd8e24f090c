package user

import (
	"fmt"
	"time"

	"atrium/internal/shared/biztime"
	"atrium/internal/shared/id"
)

// Session binds a refresh token to a user and an expiry. Exactly one active
// session row exists per refresh-token value; refreshing retires the old row
// and creates a new one (rotation, never reuse).
type Session struct {
	ID               string
	UserID           uint
	RefreshTokenHash string
	Active           bool
	IssuedAt         time.Time
	ExpiresAt        time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func NewSession(userID uint, refreshTokenHash string, duration time.Duration) (*Session, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	if refreshTokenHash == "" {
		return nil, fmt.Errorf("refresh token hash is required")
	}
	if duration <= 0 {
		return nil, fmt.Errorf("session duration must be positive")
	}

	sid, err := id.NewSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := biztime.NowUTC()
	return &Session{
		ID:               sid,
		UserID:           userID,
		RefreshTokenHash: refreshTokenHash,
		Active:           true,
		IssuedAt:         now,
		ExpiresAt:        now.Add(duration),
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

func (s *Session) IsExpired() bool {
	return biztime.NowUTC().After(s.ExpiresAt)
}

// Retire marks the session inactive. An inactive session's refresh token
// must never authenticate a new access token.
func (s *Session) Retire() {
	if !s.Active {
		return
	}
	s.Active = false
	s.UpdatedAt = biztime.NowUTC()
}
