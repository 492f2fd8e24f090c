// Package setting holds the persisted authentication configuration. A single
// row selects the active provider and the local policy knobs; when the row is
// absent the facade falls back to environment auto-detection.
package setting

import (
	"context"
	"fmt"
	"time"

	"atrium/internal/shared/biztime"
	"atrium/internal/shared/constants"
)

// AuthSetting is the persisted provider selection plus local policy knobs.
// Treated as immutable for the process lifetime once resolved; changing it
// requires a restart or an explicit facade reload.
type AuthSetting struct {
	ID                       uint
	ActiveProvider           constants.Provider
	GoogleEnabled            bool
	GitHubEnabled            bool
	DiscordEnabled           bool
	AppleEnabled             bool
	RequireEmailVerification bool
	LockoutThreshold         int
	LockoutDurationMinutes   int
	SessionDurationHours     int
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// NewAuthSetting builds a settings row with validated provider and policy values.
func NewAuthSetting(active constants.Provider) (*AuthSetting, error) {
	if active != constants.ProviderLocal && active != constants.ProviderManaged {
		return nil, fmt.Errorf("active provider must be local or managed, got %q", active)
	}

	now := biztime.NowUTC()
	return &AuthSetting{
		ActiveProvider:         active,
		LockoutThreshold:       5,
		LockoutDurationMinutes: 15,
		SessionDurationHours:   24 * 7,
		CreatedAt:              now,
		UpdatedAt:              now,
	}, nil
}

// Validate checks the policy knobs for sane values.
func (s *AuthSetting) Validate() error {
	if s.ActiveProvider != constants.ProviderLocal && s.ActiveProvider != constants.ProviderManaged {
		return fmt.Errorf("invalid active provider: %s", s.ActiveProvider)
	}
	if s.LockoutThreshold < 1 {
		return fmt.Errorf("lockout threshold must be at least 1")
	}
	if s.LockoutDurationMinutes < 1 {
		return fmt.Errorf("lockout duration must be at least 1 minute")
	}
	if s.SessionDurationHours < 1 {
		return fmt.Errorf("session duration must be at least 1 hour")
	}
	return nil
}

func (s *AuthSetting) Touch() {
	s.UpdatedAt = biztime.NowUTC()
}

// Repository persists the single auth settings row.
type Repository interface {
	// Get returns the settings row, or nil without error when none exists.
	Get(ctx context.Context) (*AuthSetting, error)
	Save(ctx context.Context, setting *AuthSetting) error
}
